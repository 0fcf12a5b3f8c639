package blockstream

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated denotes that the stream ended before a block was complete,
	// or without the end-of-stream marker
	ErrTruncated = errors.New("truncated stream")

	// ErrCorruptBlock denotes that a block could not be decoded
	ErrCorruptBlock = errors.New("corrupt block")

	// ErrCapacityExceeded denotes that a block does not fit into its buffer: a
	// compressed block larger than the codec's worst-case bound, or a
	// decompressed block larger than the chunk size
	ErrCapacityExceeded = errors.New("block capacity exceeded")

	// ErrInvalidChunkSize denotes a chunk size outside of [1, MaxChunkSize]
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrClosed denotes a write to a Writer that has already been closed
	ErrClosed = errors.New("write to closed stream")
)

// BlockError records the position of the block a stream failed on
type BlockError struct {
	Block  int   // index of the block in the stream
	Offset int64 // offset of the block's length prefix in the compressed stream
	Err    error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d (offset %d): %v", e.Block, e.Offset, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}
