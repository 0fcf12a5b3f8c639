package blockstream

import (
	"context"
	"errors"
	"io"
)

// Status classifies how a stream operation ended
type Status int

// Enumeration of stream outcomes
const (
	StatusOK               Status = iota // block processed, stream continues
	StatusEndOfStream                    // end-of-stream marker reached (encoder: written)
	StatusTruncated                      // input ended inside a block or without the end-of-stream marker
	StatusCorruptBlock                   // a block could not be decoded
	StatusCapacityExceeded               // a block did not fit into its buffer
	StatusFailed                         // I/O error or cancellation
)

var statusNames = [...]string{
	StatusOK:               "ok",
	StatusEndOfStream:      "end-of-stream",
	StatusTruncated:        "truncated",
	StatusCorruptBlock:     "corrupt-block",
	StatusCapacityExceeded: "capacity-exceeded",
	StatusFailed:           "failed",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// StatusOf classifies an error returned by this package. A nil error maps to
// StatusOK and io.EOF, returned by Reader.Next at the end-of-stream marker, to
// StatusEndOfStream.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case err == io.EOF:
		return StatusEndOfStream
	case errors.Is(err, ErrTruncated):
		return StatusTruncated
	case errors.Is(err, ErrCorruptBlock):
		return StatusCorruptBlock
	case errors.Is(err, ErrCapacityExceeded):
		return StatusCapacityExceeded
	default:
		return StatusFailed
	}
}

// Result summarizes a stream operation
type Result struct {
	Status Status

	// Blocks is the number of non-empty blocks processed
	Blocks int

	// BytesIn is the number of bytes consumed from the source, BytesOut the
	// number of bytes written to the destination
	BytesIn  int64
	BytesOut int64
}

func (r Result) fail(err error) (Result, error) {
	r.Status = StatusOf(err)
	return r, err
}

// contextReader checks for cancellation before every read.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
