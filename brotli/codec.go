// Package brotli implements a blockstream.Codec that compresses every block as
// an independent brotli stream (github.com/andybalholm/brotli). The
// dictionary passed with each block is not used.
package brotli

import (
	"bytes"
	"fmt"

	"github.com/andybalholm/blockstream"
	"github.com/andybalholm/brotli"
)

const (
	MaxCompressionLevel     = brotli.BestCompression // MaxCompressionLevel denotes the maximum useful compression level
	defaultCompressionLevel = 4
)

// Codec compresses blocks with brotli
type Codec struct {
	level int
}

// Option sets additional parameters on the Codec
type Option func(*Codec)

// New creates a new brotli Codec
func New(opts ...Option) *Codec {
	c := &Codec{level: defaultCompressionLevel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCompressionLevel sets the compression level (0-11)
func WithCompressionLevel(level int) Option {
	return func(c *Codec) {
		c.level = max(brotli.BestSpeed, min(level, MaxCompressionLevel))
	}
}

// Name returns the name of the codec
func (c *Codec) Name() string {
	return "brotli"
}

// Level returns the compression level
func (c *Codec) Level() int {
	return c.level
}

// CompressBound returns the worst-case size of a brotli stream holding n
// bytes: 4 bytes of meta-block header for every 16 KiB of input, plus the
// stream header and trailer.
func (c *Codec) CompressBound(n int) int {
	return n + 4*(n>>14+1) + 16
}

// NewCompressor creates the compression state for one stream
func (c *Codec) NewCompressor() blockstream.Compressor {
	return &compressor{level: c.level}
}

// NewDecompressor creates the decompression state for one stream
func (c *Codec) NewDecompressor() blockstream.Decompressor {
	return &decompressor{}
}

type compressor struct {
	level int
	w     *brotli.Writer
}

func (c *compressor) CompressBlock(dst, src, _ []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	if c.w == nil {
		c.w = brotli.NewWriterLevel(buf, c.level)
	} else {
		c.w.Reset(buf)
	}
	if _, err := c.w.Write(src); err != nil {
		return dst, fmt.Errorf("brotli: compression failed: %w", err)
	}
	if err := c.w.Close(); err != nil {
		return dst, fmt.Errorf("brotli: compression failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *compressor) Reset() {}

type decompressor struct {
	src bytes.Reader
	br  *brotli.Reader
}

func (d *decompressor) DecompressBlock(dst, src, _ []byte) (int, error) {
	d.src.Reset(src)
	if d.br == nil {
		d.br = brotli.NewReader(&d.src)
	} else if err := d.br.Reset(&d.src); err != nil {
		return 0, fmt.Errorf("%w: brotli: %v", blockstream.ErrCorruptBlock, err)
	}

	n, err := blockstream.FillBlock(dst, d.br)
	if err != nil {
		return 0, fmt.Errorf("brotli: %w", err)
	}
	return n, nil
}

func (d *decompressor) Reset() {}
