// Package lz4 implements a blockstream.Codec producing LZ4 blocks that may
// reference the previous block, like the LZ4 streaming API in linked-block
// mode. Blocks are decoded with github.com/pierrec/lz4, using the previous
// block's plaintext as dictionary.
package lz4

import (
	"fmt"

	"github.com/andybalholm/blockstream"
	"github.com/pierrec/lz4/v4"
)

const (
	MaxCompressionLevel     = 12 // MaxCompressionLevel denotes the maximum useful compression level
	defaultCompressionLevel = 1
)

// Codec compresses blocks in the LZ4 block format
type Codec struct {
	level int
}

// Option sets additional parameters on the Codec
type Option func(*Codec)

// New creates a new LZ4 Codec
func New(opts ...Option) *Codec {
	c := &Codec{level: defaultCompressionLevel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCompressionLevel sets the compression level. Levels up to 1 use the
// BestSpeed match finder, levels 2 and 3 the Lazy one; higher levels use a
// HashChain whose search length doubles with every level.
func WithCompressionLevel(level int) Option {
	return func(c *Codec) {
		c.level = max(0, min(level, MaxCompressionLevel))
	}
}

// Name returns the name of the codec
func (c *Codec) Name() string {
	return "lz4"
}

// Level returns the compression level
func (c *Codec) Level() int {
	return c.level
}

// CompressBound returns the worst-case size of an LZ4 block holding n bytes
func (c *Codec) CompressBound(n int) int {
	return lz4.CompressBlockBound(n)
}

// NewCompressor creates the compression state for one stream
func (c *Codec) NewCompressor() blockstream.Compressor {
	return &compressor{mf: c.matchFinder()}
}

// NewDecompressor creates the decompression state for one stream
func (c *Codec) NewDecompressor() blockstream.Decompressor {
	return decompressor{}
}

func (c *Codec) matchFinder() blockstream.MatchFinder {
	switch {
	case c.level <= 1:
		return &BestSpeed{}
	case c.level <= 3:
		return &Lazy{}
	default:
		return &HashChain{SearchLen: 1 << (c.level - 3)}
	}
}

type compressor struct {
	mf      blockstream.MatchFinder
	enc     BlockEncoder
	matches []blockstream.Match
	started bool
}

func (c *compressor) CompressBlock(dst, src, dict []byte) ([]byte, error) {
	if !c.started {
		c.started = true
		if len(dict) > 0 {
			// index the seed dictionary as if it had been the previous block
			c.matches = c.mf.FindMatches(c.matches[:0], dict, nil)
		}
	}

	c.matches = c.mf.FindMatches(c.matches[:0], src, dict)
	return c.enc.Encode(dst, src, c.matches), nil
}

func (c *compressor) Reset() {
	c.mf.Reset()
	c.matches = c.matches[:0]
	c.started = false
}

type decompressor struct{}

func (decompressor) DecompressBlock(dst, src, dict []byte) (int, error) {
	n, err := lz4.UncompressBlockWithDict(src, dst, dict)
	if err != nil {
		return 0, fmt.Errorf("%w: lz4: %v", blockstream.ErrCorruptBlock, err)
	}
	return n, nil
}

func (decompressor) Reset() {}
