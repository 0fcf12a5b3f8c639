// Package codectest holds conformance tests shared by all codecs
package codectest

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math/rand"
	"testing"

	"github.com/andybalholm/blockstream"
	"github.com/stretchr/testify/require"
)

// Text returns n bytes of compressible text
func Text(n int) []byte {
	words := []string{"stream", "block", "chunk", "buffer", "history", "match", "literal", "the", "of", "and"}
	rng := rand.New(rand.NewSource(int64(n)))
	var buf bytes.Buffer
	for buf.Len() < n {
		buf.WriteString(words[rng.Intn(len(words))])
		if rng.Intn(8) == 0 {
			buf.WriteString(".\n")
		} else {
			buf.WriteByte(' ')
		}
	}
	return buf.Bytes()[:n]
}

// Random returns n bytes of incompressible data
func Random(n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(int64(n) + 1)).Read(b)
	return b
}

// Encode compresses data and fails the test on error
func Encode(t testing.TB, c blockstream.Codec, data []byte, opts ...blockstream.Option) []byte {
	t.Helper()

	var buf bytes.Buffer
	res, err := blockstream.Encode(context.Background(), &buf, bytes.NewReader(data), c, opts...)
	require.NoError(t, err)
	require.Equal(t, blockstream.StatusEndOfStream, res.Status)
	require.EqualValues(t, len(data), res.BytesIn)
	require.EqualValues(t, buf.Len(), res.BytesOut)
	return buf.Bytes()
}

// Decode decompresses a stream, returning the output along with the result
func Decode(t testing.TB, c blockstream.Codec, stream []byte, opts ...blockstream.Option) ([]byte, blockstream.Result, error) {
	t.Helper()

	var buf bytes.Buffer
	res, err := blockstream.Decode(context.Background(), &buf, bytes.NewReader(stream), c, opts...)
	return buf.Bytes(), res, err
}

// RoundTrip compresses and decompresses inputs of various shapes, checking
// the output and the block structure of the stream.
func RoundTrip(t *testing.T, c blockstream.Codec) {
	var tests = []struct {
		name      string
		data      []byte
		chunkSize int
	}{
		{"empty", nil, blockstream.DefaultChunkSize},
		{"single byte", []byte{'x'}, blockstream.DefaultChunkSize},
		{"one chunk", Text(blockstream.DefaultChunkSize), blockstream.DefaultChunkSize},
		{"short tail", Text(3*blockstream.DefaultChunkSize + 100), blockstream.DefaultChunkSize},
		{"zeros", make([]byte, 20000), blockstream.DefaultChunkSize},
		{"random", Random(50000), blockstream.DefaultChunkSize},
		{"tiny chunks", Text(5000), 7},
		{"large chunks", Text(300 << 10), 128 << 10},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			opt := blockstream.WithChunkSize(test.chunkSize)
			stream := Encode(t, c, test.data, opt)

			var sizes []int
			res, err := blockstream.Scan(bytes.NewReader(stream), func(info blockstream.BlockInfo) error {
				sizes = append(sizes, info.Length)
				return nil
			})
			require.NoError(t, err)
			require.Equal(t, blockstream.StatusEndOfStream, res.Status)
			require.Equal(t, (len(test.data)+test.chunkSize-1)/test.chunkSize, res.Blocks)
			for _, size := range sizes {
				require.Positive(t, size)
				require.LessOrEqual(t, size, c.CompressBound(test.chunkSize))
			}

			out, res, err := Decode(t, c, stream, opt)
			require.NoError(t, err)
			require.Equal(t, blockstream.StatusEndOfStream, res.Status)
			require.Equal(t, len(sizes), res.Blocks)
			require.Equal(t, len(test.data), len(out))
			require.True(t, bytes.Equal(test.data, out), "output differs from input")
		})
	}
}

// Dictionary checks that streams seeded with a dictionary round-trip.
func Dictionary(t *testing.T, c blockstream.Codec) {
	dict := Text(20000)
	data := append(bytes.Clone(dict[5000:9000]), Text(12000)...)
	opt := blockstream.WithDictionary(dict)

	stream := Encode(t, c, data, opt)
	out, res, err := Decode(t, c, stream, opt)
	require.NoError(t, err)
	require.Equal(t, blockstream.StatusEndOfStream, res.Status)
	require.True(t, bytes.Equal(data, out), "output differs from input")
}

// Continuation checks that a codec makes use of the previous block: a chunk
// repeating its predecessor must compress far better than on its own.
func Continuation(t *testing.T, c blockstream.Codec) {
	chunk := Random(blockstream.DefaultChunkSize)

	single := Encode(t, c, chunk)
	double := Encode(t, c, append(bytes.Clone(chunk), chunk...))

	var sizes []int
	_, err := blockstream.Scan(bytes.NewReader(double), func(info blockstream.BlockInfo) error {
		sizes = append(sizes, info.Length)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, sizes, 2)
	require.Less(t, sizes[1], (len(single)-8)/10, "second block does not refer to the first")

	out, _, err := Decode(t, c, double)
	require.NoError(t, err)
	require.True(t, bytes.Equal(append(bytes.Clone(chunk), chunk...), out))
}

// Damage checks that truncated and corrupted streams are reported as such,
// and that everything decoded before the damage is delivered.
func Damage(t *testing.T, c blockstream.Codec) {
	data := Text(3 * blockstream.DefaultChunkSize)
	stream := Encode(t, c, data)

	firstLen := int(binary.LittleEndian.Uint32(stream))
	secondStart := 4 + firstLen

	t.Run("missing terminator", func(t *testing.T) {
		out, res, err := Decode(t, c, stream[:len(stream)-4])
		require.ErrorIs(t, err, blockstream.ErrTruncated)
		require.Equal(t, blockstream.StatusTruncated, res.Status)
		require.Equal(t, 3, res.Blocks)
		require.Equal(t, data, out)
	})

	t.Run("cut in length prefix", func(t *testing.T) {
		out, res, err := Decode(t, c, stream[:secondStart+2])
		require.ErrorIs(t, err, blockstream.ErrTruncated)
		require.Equal(t, blockstream.StatusTruncated, res.Status)
		require.Equal(t, data[:blockstream.DefaultChunkSize], out)
	})

	t.Run("cut in payload", func(t *testing.T) {
		_, res, err := Decode(t, c, stream[:secondStart+4+1])
		require.ErrorIs(t, err, blockstream.ErrTruncated)
		require.Equal(t, blockstream.StatusTruncated, res.Status)
		require.Equal(t, 1, res.Blocks)
	})

	t.Run("empty input", func(t *testing.T) {
		_, res, err := Decode(t, c, nil)
		require.ErrorIs(t, err, blockstream.ErrTruncated)
		require.Equal(t, blockstream.StatusTruncated, res.Status)
	})

	t.Run("corrupt payload", func(t *testing.T) {
		damaged := bytes.Clone(stream)
		for i := secondStart + 4; i < secondStart+4+int(binary.LittleEndian.Uint32(stream[secondStart:])); i++ {
			damaged[i] = 0xff
		}
		out, res, err := Decode(t, c, damaged)
		require.ErrorIs(t, err, blockstream.ErrCorruptBlock)
		require.Equal(t, blockstream.StatusCorruptBlock, res.Status)
		require.Equal(t, 1, res.Blocks)
		require.Equal(t, data[:blockstream.DefaultChunkSize], out)

		var blockErr *blockstream.BlockError
		require.ErrorAs(t, err, &blockErr)
		require.Equal(t, 1, blockErr.Block)
		require.EqualValues(t, secondStart, blockErr.Offset)
	})

	t.Run("oversized length", func(t *testing.T) {
		damaged := bytes.Clone(stream)
		binary.LittleEndian.PutUint32(damaged, uint32(c.CompressBound(blockstream.DefaultChunkSize)+1))
		_, res, err := Decode(t, c, damaged)
		require.ErrorIs(t, err, blockstream.ErrCorruptBlock)
		require.Equal(t, blockstream.StatusCorruptBlock, res.Status)
		require.Zero(t, res.Blocks)
	})

	t.Run("block larger than chunk", func(t *testing.T) {
		// decoding with a smaller chunk size than the stream was written with
		_, res, err := Decode(t, c, stream, blockstream.WithChunkSize(blockstream.DefaultChunkSize/2))
		require.Error(t, err)
		require.Contains(t, []blockstream.Status{blockstream.StatusCapacityExceeded, blockstream.StatusCorruptBlock}, res.Status,
			fmt.Sprintf("unexpected status %s", res.Status))
	})
}

// All runs every conformance test on c.
func All(t *testing.T, c blockstream.Codec) {
	t.Run("RoundTrip", func(t *testing.T) { RoundTrip(t, c) })
	t.Run("Dictionary", func(t *testing.T) { Dictionary(t, c) })
	t.Run("Damage", func(t *testing.T) { Damage(t, c) })
}
