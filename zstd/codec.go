// Package zstd implements a blockstream.Codec that compresses every block as
// an independent ZStandard frame (github.com/klauspost/compress/zstd). The
// dictionary passed with each block is not used.
package zstd

import (
	"errors"
	"fmt"

	"github.com/andybalholm/blockstream"
	"github.com/klauspost/compress/zstd"
)

const (
	MaxCompressionLevel     = 19 // MaxCompressionLevel denotes the maximum useful compression level
	defaultCompressionLevel = 3
)

// Codec compresses blocks with ZStandard
type Codec struct {
	level int
}

// Option sets additional parameters on the Codec
type Option func(*Codec)

// New creates a new ZStandard Codec
func New(opts ...Option) *Codec {
	c := &Codec{level: defaultCompressionLevel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCompressionLevel sets the compression level, mapped onto the encoder
// levels of the library
func WithCompressionLevel(level int) Option {
	return func(c *Codec) {
		c.level = max(1, min(level, MaxCompressionLevel))
	}
}

// Name returns the name of the codec
func (c *Codec) Name() string {
	return "zstd"
}

// Level returns the compression level
func (c *Codec) Level() int {
	return c.level
}

// CompressBound returns the worst-case size of a frame holding n bytes
// (ZSTD_COMPRESSBOUND plus room for the frame header)
func (c *Codec) CompressBound(n int) int {
	bound := n + n>>8
	if n < 128<<10 {
		bound += (128<<10 - n) >> 11
	}
	return bound + 32
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
	level   int
	encoder *zstd.Encoder
}

func (c *compressor) CompressBlock(dst, src, _ []byte) ([]byte, error) {
	if c.encoder == nil {
		var err error
		if c.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(c.level)),
			zstd.WithEncoderCRC(false),
			zstd.WithEncoderConcurrency(1),
		); err != nil {
			return dst, fmt.Errorf("zstd: compression context init failed: %w", err)
		}
	}
	return c.encoder.EncodeAll(src, dst), nil
}

func (c *compressor) Reset() {}

type decompressor struct {
	decoder *zstd.Decoder
}

func (d *decompressor) DecompressBlock(dst, src, _ []byte) (int, error) {
	if d.decoder == nil {
		var err error
		if d.decoder, err = zstd.NewReader(nil,
			zstd.IgnoreChecksum(true),
			zstd.WithDecoderConcurrency(1),
		); err != nil {
			return 0, fmt.Errorf("zstd: decompression context init failed: %w", err)
		}
	}

	out, err := d.decoder.DecodeAll(src, dst[:0:len(dst)])
	if err != nil {
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) {
			return 0, fmt.Errorf("%w: zstd: %v", blockstream.ErrCapacityExceeded, err)
		}
		return 0, fmt.Errorf("%w: zstd: %v", blockstream.ErrCorruptBlock, err)
	}
	if len(out) > len(dst) {
		return 0, fmt.Errorf("%w: zstd: block decoded to %d bytes", blockstream.ErrCapacityExceeded, len(out))
	}
	return copy(dst, out), nil
}

func (d *decompressor) Reset() {}
