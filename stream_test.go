package blockstream_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/andybalholm/blockstream"
	"github.com/andybalholm/blockstream/internal/codectest"
	"github.com/andybalholm/blockstream/lz4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestZeros(t *testing.T) {
	c := lz4.New()
	data := make([]byte, 20000)
	stream := codectest.Encode(t, c, data)

	var infos []blockstream.BlockInfo
	res, err := blockstream.Scan(bytes.NewReader(stream), func(info blockstream.BlockInfo) error {
		infos = append(infos, info)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, blockstream.StatusEndOfStream, res.Status)
	require.Len(t, infos, 3)
	require.EqualValues(t, len(stream), res.BytesIn)
	require.Equal(t, []byte{0, 0, 0, 0}, stream[len(stream)-4:])

	// each block holds a plaintext chunk of 8192, 8192 and 3616 bytes
	r, err := blockstream.NewReader(bytes.NewReader(stream), c)
	require.NoError(t, err)
	for _, size := range []int{8192, 8192, 3616} {
		block, err := r.Next()
		require.NoError(t, err)
		require.Len(t, block, size)
		require.Equal(t, make([]byte, size), block)
	}
	_, err = r.Next()
	require.Equal(t, io.EOF, err)
	_, err = r.Next()
	require.Equal(t, io.EOF, err)
	require.Equal(t, blockstream.Result{
		Status:   blockstream.StatusEndOfStream,
		Blocks:   3,
		BytesIn:  int64(len(stream)),
		BytesOut: 20000,
	}, r.Stats())
}

func TestLZ4(t *testing.T) {
	codectest.All(t, lz4.New())
}

func TestWriteMatchesReadFrom(t *testing.T) {
	c := lz4.New(lz4.WithCompressionLevel(4))
	data := codectest.Text(50000)
	expected := codectest.Encode(t, c, data)

	for _, piece := range []int{1, 7, 1000, 8192, 9000, 50000} {
		t.Run(fmt.Sprintf("pieces_of_%d", piece), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := blockstream.NewWriter(&buf, c)
			require.NoError(t, err)
			for rest := data; len(rest) > 0; {
				n := min(piece, len(rest))
				written, err := w.Write(rest[:n])
				require.NoError(t, err)
				require.Equal(t, n, written)
				rest = rest[n:]
			}
			require.NoError(t, w.Close())
			require.Equal(t, expected, buf.Bytes())
		})
	}

	t.Run("ReadFrom", func(t *testing.T) {
		var buf bytes.Buffer
		w, err := blockstream.NewWriter(&buf, c)
		require.NoError(t, err)
		n, err := w.ReadFrom(io.MultiReader(bytes.NewReader(data[:3]), bytes.NewReader(data[3:])))
		require.NoError(t, err)
		require.EqualValues(t, len(data), n)
		require.NoError(t, w.Close())
		require.Equal(t, expected, buf.Bytes())
	})
}

func TestFlush(t *testing.T) {
	c := lz4.New()
	data := codectest.Text(20000)

	var buf bytes.Buffer
	w, err := blockstream.NewWriter(&buf, c)
	require.NoError(t, err)
	_, err = w.Write(data[:100])
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	require.NoError(t, w.Flush())
	_, err = w.Write(data[100:])
	require.NoError(t, err)
	require.NoError(t, w.Close())

	res, err := blockstream.Scan(bytes.NewReader(buf.Bytes()), nil)
	require.NoError(t, err)
	require.Equal(t, 4, res.Blocks)

	out, res, err := codectest.Decode(t, c, buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, blockstream.StatusEndOfStream, res.Status)
	require.Equal(t, data, out)
}

func TestWriterClose(t *testing.T) {
	var buf bytes.Buffer
	w, err := blockstream.NewWriter(&buf, lz4.New())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.Equal(t, []byte{0, 0, 0, 0}, buf.Bytes())

	_, err = w.Write([]byte("late"))
	require.ErrorIs(t, err, blockstream.ErrClosed)
	require.ErrorIs(t, w.Flush(), blockstream.ErrClosed)

	out, res, err := codectest.Decode(t, lz4.New(), buf.Bytes())
	require.NoError(t, err)
	require.Empty(t, out)
	require.Equal(t, blockstream.Result{Status: blockstream.StatusEndOfStream, BytesIn: 4}, res)
}

func TestReset(t *testing.T) {
	c := lz4.New(lz4.WithCompressionLevel(6))
	dict := codectest.Text(3000)
	first, second := codectest.Text(30000), codectest.Text(12345)

	var buf bytes.Buffer
	w, err := blockstream.NewWriter(&buf, c, blockstream.WithDictionary(dict))
	require.NoError(t, err)
	_, err = w.Write(first)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var buf2 bytes.Buffer
	w.Reset(&buf2)
	_, err = w.Write(second)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.Equal(t, codectest.Encode(t, c, second, blockstream.WithDictionary(dict)), buf2.Bytes())

	r, err := blockstream.NewReader(&buf, c, blockstream.WithDictionary(dict))
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, first, out)

	r.Reset(&buf2)
	out, err = io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, second, out)
	require.Equal(t, blockstream.StatusEndOfStream, r.Stats().Status)
}

func TestReaderRead(t *testing.T) {
	c := lz4.New()
	data := codectest.Text(30000)
	stream := codectest.Encode(t, c, data)

	r, err := blockstream.NewReader(bytes.NewReader(stream), c)
	require.NoError(t, err)

	var out bytes.Buffer
	p := make([]byte, 1000)
	for {
		n, err := r.Read(p)
		out.Write(p[:n])
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	require.Equal(t, data, out.Bytes())
}

func TestReaderReadThenWriteTo(t *testing.T) {
	c := lz4.New()
	data := codectest.Text(30000)
	stream := codectest.Encode(t, c, data)

	r, err := blockstream.NewReader(bytes.NewReader(stream), c)
	require.NoError(t, err)

	head := make([]byte, 100)
	_, err = io.ReadFull(r, head)
	require.NoError(t, err)

	var rest bytes.Buffer
	n, err := r.WriteTo(&rest)
	require.NoError(t, err)
	require.EqualValues(t, len(data)-100, n)
	require.Equal(t, data, append(head, rest.Bytes()...))
}

// failingCodec wraps a codec whose compressor breaks on the given block.
type failingCodec struct {
	blockstream.Codec
	failAt int
}

type failingCompressor struct {
	blockstream.Compressor
	failAt, n int
}

var errCompress = errors.New("compressor exploded")

func (c failingCodec) NewCompressor() blockstream.Compressor {
	return &failingCompressor{Compressor: c.Codec.NewCompressor(), failAt: c.failAt}
}

func (c *failingCompressor) CompressBlock(dst, src, dict []byte) ([]byte, error) {
	if c.n == c.failAt {
		return dst, errCompress
	}
	c.n++
	return c.Compressor.CompressBlock(dst, src, dict)
}

func TestCompressionFailure(t *testing.T) {
	c := failingCodec{Codec: lz4.New(), failAt: 2}
	data := codectest.Text(5 * blockstream.DefaultChunkSize)

	var buf bytes.Buffer
	res, err := blockstream.Encode(context.Background(), &buf, bytes.NewReader(data), c)
	require.ErrorIs(t, err, errCompress)
	require.Equal(t, blockstream.StatusFailed, res.Status)
	require.Equal(t, 2, res.Blocks)

	var blockErr *blockstream.BlockError
	require.ErrorAs(t, err, &blockErr)
	require.Equal(t, 2, blockErr.Block)

	// no end-of-stream marker: the partial output must not look complete
	scan, err := blockstream.Scan(bytes.NewReader(buf.Bytes()), nil)
	require.ErrorIs(t, err, blockstream.ErrTruncated)
	require.Equal(t, 2, scan.Blocks)

	out, dres, err := codectest.Decode(t, c, buf.Bytes())
	require.ErrorIs(t, err, blockstream.ErrTruncated)
	require.Equal(t, blockstream.StatusTruncated, dres.Status)
	require.Equal(t, data[:2*blockstream.DefaultChunkSize], out)
}

// oversizedCodec claims a bound smaller than what it produces.
type oversizedCodec struct {
	blockstream.Codec
}

func (oversizedCodec) CompressBound(n int) int { return 1 }

func TestCompressBoundExceeded(t *testing.T) {
	var buf bytes.Buffer
	res, err := blockstream.Encode(context.Background(), &buf, strings.NewReader("some data"), oversizedCodec{lz4.New()})
	require.ErrorIs(t, err, blockstream.ErrCapacityExceeded)
	require.Equal(t, blockstream.StatusCapacityExceeded, res.Status)
	require.Zero(t, buf.Len())
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestDestinationError(t *testing.T) {
	c := lz4.New()
	stream := codectest.Encode(t, c, codectest.Text(100))

	res, err := blockstream.Decode(context.Background(), errWriter{}, bytes.NewReader(stream), c)
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, blockstream.StatusFailed, res.Status)

	res, err = blockstream.Encode(context.Background(), errWriter{}, strings.NewReader("data"), c)
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, blockstream.StatusFailed, res.Status)
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	res, err := blockstream.Encode(ctx, &buf, bytes.NewReader(codectest.Text(100)), lz4.New())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, blockstream.StatusFailed, res.Status)

	stream := codectest.Encode(t, lz4.New(), codectest.Text(100))
	res, err = blockstream.Decode(ctx, &buf, bytes.NewReader(stream), lz4.New())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, blockstream.StatusFailed, res.Status)
}

func TestInvalidChunkSize(t *testing.T) {
	_, err := blockstream.NewWriter(io.Discard, lz4.New(), blockstream.WithChunkSize(0))
	require.ErrorIs(t, err, blockstream.ErrInvalidChunkSize)
	_, err = blockstream.NewReader(bytes.NewReader(nil), lz4.New(), blockstream.WithChunkSize(blockstream.MaxChunkSize+1))
	require.ErrorIs(t, err, blockstream.ErrInvalidChunkSize)

	res, err := blockstream.Encode(context.Background(), io.Discard, bytes.NewReader(nil), lz4.New(), blockstream.WithChunkSize(-1))
	require.ErrorIs(t, err, blockstream.ErrInvalidChunkSize)
	require.Equal(t, blockstream.StatusFailed, res.Status)
}

func TestConcurrentStreams(t *testing.T) {
	c := lz4.New(lz4.WithCompressionLevel(3))
	metrics := blockstream.NewMetrics()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			data := codectest.Text(10000 + 3000*i)
			var enc bytes.Buffer
			if _, err := blockstream.Encode(context.Background(), &enc, bytes.NewReader(data), c, blockstream.WithMetrics(metrics)); err != nil {
				errs[i] = err
				return
			}
			var dec bytes.Buffer
			if _, err := blockstream.Decode(context.Background(), &dec, &enc, c, blockstream.WithMetrics(metrics)); err != nil {
				errs[i] = err
				return
			}
			if !bytes.Equal(data, dec.Bytes()) {
				errs[i] = fmt.Errorf("stream %d: output differs from input", i)
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
}

func TestMetrics(t *testing.T) {
	c := lz4.New()
	m := blockstream.NewMetrics()
	data := codectest.Text(20000)
	stream := codectest.Encode(t, c, data, blockstream.WithMetrics(m))

	_, _, err := codectest.Decode(t, c, stream, blockstream.WithMetrics(m))
	require.NoError(t, err)
	_, _, err = codectest.Decode(t, c, stream[:len(stream)-4], blockstream.WithMetrics(m))
	require.ErrorIs(t, err, blockstream.ErrTruncated)

	// compressed bytes include the length prefixes, but not the sentinel
	compressed := len(stream) - 4
	expected := fmt.Sprintf(`
# HELP blockstream_blocks_total Number of blocks processed
# TYPE blockstream_blocks_total counter
blockstream_blocks_total{codec="lz4",direction="decode"} 6
blockstream_blocks_total{codec="lz4",direction="encode"} 3
# HELP blockstream_compressed_bytes_total Number of compressed bytes processed, including block framing
# TYPE blockstream_compressed_bytes_total counter
blockstream_compressed_bytes_total{codec="lz4",direction="decode"} %d
blockstream_compressed_bytes_total{codec="lz4",direction="encode"} %d
# HELP blockstream_plain_bytes_total Number of uncompressed bytes processed
# TYPE blockstream_plain_bytes_total counter
blockstream_plain_bytes_total{codec="lz4",direction="decode"} 40000
blockstream_plain_bytes_total{codec="lz4",direction="encode"} 20000
# HELP blockstream_streams_total Number of finished streams, by outcome
# TYPE blockstream_streams_total counter
blockstream_streams_total{codec="lz4",direction="decode",status="end-of-stream"} 1
blockstream_streams_total{codec="lz4",direction="decode",status="truncated"} 1
blockstream_streams_total{codec="lz4",direction="encode",status="end-of-stream"} 1
`, 2*compressed, compressed)
	require.NoError(t, testutil.CollectAndCompare(m, strings.NewReader(expected)))
	require.Equal(t, 9, testutil.CollectAndCount(m))
}
