package blockstream

import (
	"fmt"
	"io"
)

// A Codec compresses and decompresses single blocks. It is a factory: all
// per-stream state lives in the Compressor and Decompressor it creates, so a
// Codec may be shared by concurrent streams.
type Codec interface {
	// Name returns the short name of the codec
	Name() string

	// CompressBound returns the maximum size of the compressed form of n
	// bytes of input
	CompressBound(n int) int

	// NewCompressor creates the compression state for one stream
	NewCompressor() Compressor

	// NewDecompressor creates the decompression state for one stream
	NewDecompressor() Decompressor
}

// A Compressor holds the compression state of one stream. Calls are made in
// stream order, one per block.
type Compressor interface {
	// CompressBlock appends the compressed form of src to dst and returns it.
	// dict is the plaintext that precedes src in the stream (the previous
	// block, or the seed dictionary before the first block). Neither src nor
	// dict may be modified until the call returns, and src must stay
	// unmodified until the next call, which receives it as dict.
	CompressBlock(dst, src, dict []byte) ([]byte, error)

	// Reset clears the state, preparing the Compressor for a new stream
	Reset()
}

// A Decompressor holds the decompression state of one stream.
type Decompressor interface {
	// DecompressBlock decodes the block src into dst and returns the number
	// of bytes written. dict is read-only and holds the plaintext that
	// precedes the block; it must not overlap dst. The error wraps
	// ErrCorruptBlock if src is malformed and ErrCapacityExceeded if the
	// block decodes to more than len(dst) bytes.
	DecompressBlock(dst, src, dict []byte) (int, error)

	// Reset clears the state, preparing the Decompressor for a new stream
	Reset()
}

// FillBlock reads the complete output of a block decoder r into dst and
// returns the number of bytes read. It is meant for codecs whose library
// exposes decompression as an io.Reader.
func FillBlock(dst []byte, r io.Reader) (int, error) {
	n := 0
	for {
		if n == len(dst) {
			var probe [1]byte
			m, err := r.Read(probe[:])
			if m > 0 {
				return n, ErrCapacityExceeded
			}
			if err == io.EOF {
				return n, nil
			}
			if err != nil {
				return n, fmt.Errorf("%w: %v", ErrCorruptBlock, err)
			}
			continue
		}

		m, err := r.Read(dst[n:])
		n += m
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("%w: %v", ErrCorruptBlock, err)
		}
	}
}
