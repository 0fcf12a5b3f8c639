package blockstream

import (
	"fmt"
	"io"
)

// A Reader decompresses a block stream. Blocks are decoded one at a time into
// two alternating buffers; the previous block's buffer is passed to the codec
// as dictionary while the next one is decoded.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	src    io.Reader
	codec  Codec
	decomp Decompressor
	cfg    config

	bufs    *blockBuffers
	payload []byte // compressed payload of the block being decoded
	scratch [lengthSize]byte
	pending []byte // decoded bytes not yet returned by Read

	stats Result
	err   error
}

// NewReader returns a Reader that decompresses r using codec
func NewReader(r io.Reader, codec Codec, opts ...Option) (*Reader, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Reader{
		src:     r,
		codec:   codec,
		decomp:  codec.NewDecompressor(),
		cfg:     cfg,
		bufs:    newBlockBuffers(cfg.chunkSize, cfg.startIndex, cfg.dict),
		payload: make([]byte, codec.CompressBound(cfg.chunkSize)),
	}, nil
}

// Reset discards the Reader's state and makes it equivalent to the result of
// NewReader with the same codec and options, reading from r
func (r *Reader) Reset(src io.Reader) {
	r.src = src
	r.decomp.Reset()
	r.bufs.reset(r.cfg.startIndex, r.cfg.dict)
	r.pending = nil
	r.stats = Result{}
	r.err = nil
}

// Next decodes the next block and returns its plaintext. The returned slice
// is only valid until the next call to Next, Read or WriteTo. At the
// end-of-stream marker Next returns io.EOF. Any other error ends the stream
// as well and is returned by all subsequent calls; it wraps ErrTruncated,
// ErrCorruptBlock or ErrCapacityExceeded where applicable.
func (r *Reader) Next() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	offset := r.stats.BytesIn
	length, err := readBlockLength(r.src, r.scratch[:])
	if err != nil {
		return nil, r.fail(offset, err)
	}
	r.stats.BytesIn += lengthSize

	if length == 0 {
		r.err = io.EOF
		r.stats.Status = StatusEndOfStream
		r.cfg.metrics.observeStream(directionDecode, r.codec.Name(), r.stats.Status)
		return nil, io.EOF
	}
	if int64(length) > int64(len(r.payload)) {
		return nil, r.fail(offset, fmt.Errorf("%w: block length %d exceeds bound %d", ErrCorruptBlock, length, len(r.payload)))
	}

	payload := r.payload[:length]
	if err := readBlockPayload(r.src, payload); err != nil {
		return nil, r.fail(offset, err)
	}
	r.stats.BytesIn += int64(length)

	n, err := r.decomp.DecompressBlock(r.bufs.current(), payload, r.bufs.history())
	if err != nil {
		return nil, r.fail(offset, err)
	}
	if n <= 0 {
		return nil, r.fail(offset, fmt.Errorf("%w: block decoded to %d bytes", ErrCorruptBlock, n))
	}

	block := r.bufs.advance(n)
	r.stats.Blocks++
	r.stats.BytesOut += int64(n)
	r.cfg.metrics.observeBlock(directionDecode, r.codec.Name(), n, lengthSize+int(length))
	return block, nil
}

// Read implements io.Reader
func (r *Reader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		block, err := r.Next()
		if err != nil {
			return 0, err
		}
		r.pending = block
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// WriteTo implements io.WriterTo, writing the decoded stream to w until the
// end-of-stream marker
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	var total int64
	if len(r.pending) > 0 {
		n, err := w.Write(r.pending)
		total += int64(n)
		r.pending = r.pending[n:]
		if err != nil {
			return total, err
		}
	}

	for {
		block, err := r.Next()
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}

		n, err := w.Write(block)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
}

// Stats returns the counters of the stream so far. BytesOut counts decoded
// bytes, whether or not they have been consumed through Read yet.
func (r *Reader) Stats() Result {
	return r.stats
}

// fail terminates the stream with err.
func (r *Reader) fail(offset int64, err error) error {
	r.err = &BlockError{Block: r.stats.Blocks, Offset: offset, Err: err}
	r.stats.Status = StatusOf(err)
	r.cfg.metrics.observeStream(directionDecode, r.codec.Name(), r.stats.Status)
	return r.err
}
