// Package snappy implements a blockstream.Codec that compresses every block
// independently in the snappy block format (github.com/golang/snappy). The
// dictionary passed with each block is not used.
package snappy

import (
	"fmt"

	"github.com/andybalholm/blockstream"
	"github.com/golang/snappy"
)

// Codec compresses blocks with snappy
type Codec struct{}

// New creates a new snappy Codec
func New() *Codec {
	return &Codec{}
}

// Name returns the name of the codec
func (Codec) Name() string {
	return "snappy"
}

// CompressBound returns the worst-case size of a snappy block holding n bytes
func (Codec) CompressBound(n int) int {
	return snappy.MaxEncodedLen(n)
}

// NewCompressor creates the compression state for one stream
func (Codec) NewCompressor() blockstream.Compressor {
	return &compressor{}
}

// NewDecompressor creates the decompression state for one stream
func (Codec) NewDecompressor() blockstream.Decompressor {
	return decompressor{}
}

type compressor struct {
	buf []byte
}

func (c *compressor) CompressBlock(dst, src, _ []byte) ([]byte, error) {
	if n := snappy.MaxEncodedLen(len(src)); n < 0 {
		return dst, fmt.Errorf("%w: snappy: block of %d bytes too large", blockstream.ErrCapacityExceeded, len(src))
	} else if cap(c.buf) < n {
		c.buf = make([]byte, n)
	}
	return append(dst, snappy.Encode(c.buf[:cap(c.buf)], src)...), nil
}

func (c *compressor) Reset() {}

type decompressor struct{}

func (decompressor) DecompressBlock(dst, src, _ []byte) (int, error) {
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return 0, fmt.Errorf("%w: snappy: %v", blockstream.ErrCorruptBlock, err)
	}
	if n > len(dst) {
		return 0, fmt.Errorf("%w: snappy: block decodes to %d bytes", blockstream.ErrCapacityExceeded, n)
	}

	out, err := snappy.Decode(dst, src)
	if err != nil {
		return 0, fmt.Errorf("%w: snappy: %v", blockstream.ErrCorruptBlock, err)
	}
	return len(out), nil
}

func (decompressor) Reset() {}
