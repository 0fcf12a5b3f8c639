package blockstream

import (
	"context"
	"io"

	"github.com/els0r/telemetry/logging"
)

// Encode compresses src into dst as a complete block stream, including the
// end-of-stream marker. Cancellation of ctx is checked before every read from
// src. If encoding fails, the end-of-stream marker is not written.
func Encode(ctx context.Context, dst io.Writer, src io.Reader, codec Codec, opts ...Option) (Result, error) {
	w, err := NewWriter(dst, codec, opts...)
	if err != nil {
		return Result{Status: StatusFailed}, err
	}

	logger := logging.FromContext(ctx).With("codec", codec.Name(), "chunk_size", w.cfg.chunkSize)

	if _, err := w.ReadFrom(contextReader{ctx: ctx, r: src}); err != nil {
		logger.Debugf("encoding failed after %d blocks: %v", w.stats.Blocks, err)
		return w.Stats(), err
	}
	if err := w.Close(); err != nil {
		logger.Debugf("encoding failed after %d blocks: %v", w.stats.Blocks, err)
		return w.Stats(), err
	}

	res := w.Stats()
	logger.Debugf("encoded %d bytes into %d blocks (%d bytes)", res.BytesIn, res.Blocks, res.BytesOut)
	return res, nil
}

// Decode decompresses the block stream read from src into dst, up to and
// including the end-of-stream marker. On success the returned Result has
// status StatusEndOfStream. A stream that ends without the marker is reported
// as truncated; bytes of blocks decoded before a failure have been written to
// dst, a failing block contributes nothing.
func Decode(ctx context.Context, dst io.Writer, src io.Reader, codec Codec, opts ...Option) (Result, error) {
	r, err := NewReader(contextReader{ctx: ctx, r: src}, codec, opts...)
	if err != nil {
		return Result{Status: StatusFailed}, err
	}

	logger := logging.FromContext(ctx).With("codec", codec.Name(), "chunk_size", r.cfg.chunkSize)

	written, err := r.WriteTo(dst)
	res := r.Stats()
	res.BytesOut = written
	if err != nil {
		if res.Status == StatusOK {
			// the destination failed, not the stream
			res.Status = StatusFailed
		}
		logger.Debugf("decoding stopped after %d blocks (%s): %v", res.Blocks, res.Status, err)
		return res, err
	}

	logger.Debugf("decoded %d blocks (%d bytes) into %d bytes", res.Blocks, res.BytesIn, res.BytesOut)
	return res, nil
}
