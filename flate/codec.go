// Package flate implements a blockstream.Codec that compresses every block as
// a raw DEFLATE stream (github.com/klauspost/compress/flate), using the
// previous block as preset dictionary.
package flate

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/blockstream"
	"github.com/klauspost/compress/flate"
)

const (
	MaxCompressionLevel     = flate.BestCompression // MaxCompressionLevel denotes the maximum useful compression level
	defaultCompressionLevel = 5
)

// Codec compresses blocks with DEFLATE
type Codec struct {
	level int
}

// Option sets additional parameters on the Codec
type Option func(*Codec)

// New creates a new DEFLATE Codec
func New(opts ...Option) *Codec {
	c := &Codec{level: defaultCompressionLevel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCompressionLevel sets the compression level (1-9)
func WithCompressionLevel(level int) Option {
	return func(c *Codec) {
		c.level = max(flate.BestSpeed, min(level, MaxCompressionLevel))
	}
}

// Name returns the name of the codec
func (c *Codec) Name() string {
	return "flate"
}

// Level returns the compression level
func (c *Codec) Level() int {
	return c.level
}

// CompressBound returns the worst-case size of a DEFLATE stream holding n
// bytes. Above level 6 the encoder may emit Huffman blocks for incompressible
// input that are slightly larger than stored blocks, so the bound leaves a
// sixteenth of the input plus room for block headers.
func (c *Codec) CompressBound(n int) int {
	return n + n>>4 + 64
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
}

func (c *compressor) CompressBlock(dst, src, dict []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	w, err := flate.NewWriterDict(buf, c.level, dict)
	if err != nil {
		return dst, fmt.Errorf("flate: compressor init failed: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return dst, fmt.Errorf("flate: compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return dst, fmt.Errorf("flate: compression failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *compressor) Reset() {}

type decompressor struct {
	src bytes.Reader
	fr  io.ReadCloser
}

func (d *decompressor) DecompressBlock(dst, src, dict []byte) (int, error) {
	d.src.Reset(src)
	if d.fr == nil {
		d.fr = flate.NewReaderDict(&d.src, dict)
	} else if err := d.fr.(flate.Resetter).Reset(&d.src, dict); err != nil {
		return 0, fmt.Errorf("%w: flate: %v", blockstream.ErrCorruptBlock, err)
	}

	n, err := blockstream.FillBlock(dst, d.fr)
	if err != nil {
		return 0, fmt.Errorf("flate: %w", err)
	}
	return n, nil
}

func (d *decompressor) Reset() {}
