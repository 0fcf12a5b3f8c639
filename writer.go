package blockstream

import (
	"errors"
	"fmt"
	"io"
)

// A Writer compresses the data written to it into a block stream. Input is
// collected into chunks of the configured size; every full chunk becomes one
// block. Close emits the final short chunk and the end-of-stream marker.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	dest  io.Writer
	codec Codec
	comp  Compressor
	cfg   config

	bufs    *blockBuffers
	pending int    // bytes collected in bufs.current()
	frame   []byte // length prefix and payload of the block being written
	bound   int    // maximum payload size of a block

	stats  Result
	err    error
	closed bool
}

// NewWriter returns a Writer that compresses to w using codec
func NewWriter(w io.Writer, codec Codec, opts ...Option) (*Writer, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	bound := codec.CompressBound(cfg.chunkSize)
	return &Writer{
		dest:  w,
		codec: codec,
		comp:  codec.NewCompressor(),
		cfg:   cfg,
		bufs:  newBlockBuffers(cfg.chunkSize, cfg.startIndex, cfg.dict),
		frame: make([]byte, 0, lengthSize+bound),
		bound: bound,
	}, nil
}

// Reset discards the Writer's state and makes it equivalent to the result of
// NewWriter with the same codec and options, writing to w
func (w *Writer) Reset(dest io.Writer) {
	w.dest = dest
	w.comp.Reset()
	w.bufs.reset(w.cfg.startIndex, w.cfg.dict)
	w.pending = 0
	w.stats = Result{}
	w.err = nil
	w.closed = false
}

// Write implements io.Writer
func (w *Writer) Write(p []byte) (int, error) {
	if err := w.check(); err != nil {
		return 0, err
	}

	written := 0
	for len(p) > 0 {
		n := copy(w.bufs.current()[w.pending:], p)
		p = p[n:]
		w.pending += n
		written += n
		w.stats.BytesIn += int64(n)

		if w.pending == w.cfg.chunkSize {
			if err := w.emit(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// ReadFrom implements io.ReaderFrom, reading r chunk by chunk directly into
// the block buffers until r is exhausted. A trailing partial chunk is kept
// until more data arrives or the Writer is flushed or closed.
func (w *Writer) ReadFrom(r io.Reader) (int64, error) {
	if err := w.check(); err != nil {
		return 0, err
	}

	var total int64
	for {
		n, err := io.ReadFull(r, w.bufs.current()[w.pending:])
		w.pending += n
		total += int64(n)
		w.stats.BytesIn += int64(n)

		if w.pending == w.cfg.chunkSize {
			if emitErr := w.emit(); emitErr != nil {
				return total, emitErr
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return total, nil
		default:
			return total, w.fail(err)
		}
	}
}

// Flush compresses the collected input as a (possibly short) block
func (w *Writer) Flush() error {
	if err := w.check(); err != nil {
		return err
	}
	if w.pending == 0 {
		return nil
	}
	return w.emit()
}

// Close flushes the remaining input and writes the end-of-stream marker. If
// the stream has failed before, the marker is not written and the original
// error is returned, so the output cannot be mistaken for a complete stream.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	err := w.Flush()
	w.closed = true
	if err != nil {
		return err
	}

	if err := writeSentinel(w.dest); err != nil {
		return w.fail(err)
	}
	w.stats.BytesOut += lengthSize
	w.stats.Status = StatusEndOfStream
	w.cfg.metrics.observeStream(directionEncode, w.codec.Name(), w.stats.Status)
	return nil
}

// Stats returns the counters of the stream so far
func (w *Writer) Stats() Result {
	return w.stats
}

func (w *Writer) check() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return ErrClosed
	}
	return nil
}

// emit compresses the pending chunk against the previous one and writes it
// as one block.
func (w *Writer) emit() error {
	src := w.bufs.current()[:w.pending]
	frame, err := w.comp.CompressBlock(beginBlock(w.frame), src, w.bufs.history())
	if err == nil {
		if payload := len(frame) - lengthSize; payload <= 0 || payload > w.bound {
			err = fmt.Errorf("%w: %d bytes compressed to %d (bound %d)", ErrCapacityExceeded, len(src), payload, w.bound)
		}
	}
	if err != nil {
		return w.fail(err)
	}

	if _, err := w.dest.Write(finishBlock(frame)); err != nil {
		return w.fail(err)
	}
	w.frame = frame[:0]
	w.bufs.advance(w.pending)
	w.pending = 0

	w.stats.Blocks++
	w.stats.BytesOut += int64(len(frame))
	w.cfg.metrics.observeBlock(directionEncode, w.codec.Name(), len(src), len(frame))
	return nil
}

// fail terminates the stream with err.
func (w *Writer) fail(err error) error {
	w.err = &BlockError{Block: w.stats.Blocks, Offset: w.stats.BytesOut, Err: err}
	w.stats.Status = StatusOf(err)
	w.cfg.metrics.observeStream(directionEncode, w.codec.Name(), w.stats.Status)
	return w.err
}
