package blockstream

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// xorCodec "compresses" a block by XORing it with the tail of the dictionary,
// so a block only decodes correctly against the right dictionary.
type xorCodec struct{}

func (xorCodec) Name() string { return "xor" }
func (xorCodec) CompressBound(n int) int { return n }
func (xorCodec) NewCompressor() Compressor { return xorCoder{} }
func (xorCodec) NewDecompressor() Decompressor { return xorCoder{} }

type xorCoder struct{}

func (xorCoder) CompressBlock(dst, src, dict []byte) ([]byte, error) {
	for i, b := range src {
		dst = append(dst, b^key(dict, i))
	}
	return dst, nil
}

func (xorCoder) DecompressBlock(dst, src, dict []byte) (int, error) {
	if len(src) > len(dst) {
		return 0, ErrCapacityExceeded
	}
	for i, b := range src {
		dst[i] = b ^ key(dict, i)
	}
	return len(src), nil
}

func (xorCoder) Reset() {}

func key(dict []byte, i int) byte {
	if len(dict) == 0 {
		return 0x5a
	}
	return dict[len(dict)-1-i%len(dict)] + byte(i)
}

func withStartIndex(i int) Option {
	return func(c *config) {
		c.startIndex = i
	}
}

func TestBlockBuffers(t *testing.T) {
	seed := []byte("seed")
	for _, start := range []int{0, 1} {
		t.Run(fmt.Sprintf("start_%d", start), func(t *testing.T) {
			b := newBlockBuffers(4, start, seed)
			require.Equal(t, seed, b.history())

			var prev []byte
			for k := 0; k < 5; k++ {
				cur := b.current()
				require.Len(t, cur, 4)
				require.Same(t, &b.buf[(start+k)&1][0], &cur[0])
				if prev != nil {
					require.NotSame(t, &prev[0], &cur[0], "block overwrites its dictionary")
				}

				copy(cur, fmt.Sprintf("%04d", k))
				block := b.advance(3)
				require.Equal(t, fmt.Sprintf("%04d", k)[:3], string(block))
				require.Equal(t, block, b.history())
				prev = block
			}
		})
	}
}

func TestBlockBuffersReset(t *testing.T) {
	seed := []byte("seed")
	b := newBlockBuffers(4, 1, seed)
	b.advance(2)
	b.advance(3)
	require.Equal(t, 1, b.cur)
	require.NotEqual(t, seed, b.history())

	b.reset(3, seed)
	require.Same(t, &b.buf[1][0], &b.current()[0])
	require.Equal(t, seed, b.history())

	b.reset(0, nil)
	require.Same(t, &b.buf[0][0], &b.current()[0])
	require.Empty(t, b.history())
}

func TestResetRestoresSeed(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdefghij"), 37)
	opts := []Option{WithChunkSize(100), WithDictionary([]byte("seed dictionary")), withStartIndex(1)}

	var first, second bytes.Buffer
	w, err := NewWriter(&first, xorCodec{}, opts...)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	w.Reset(&second)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.Equal(t, first.Bytes(), second.Bytes())

	r, err := NewReader(bytes.NewReader(first.Bytes()), xorCodec{}, opts...)
	require.NoError(t, err)
	var out bytes.Buffer
	_, err = r.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, data, out.Bytes())

	r.Reset(bytes.NewReader(second.Bytes()))
	out.Reset()
	_, err = r.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, data, out.Bytes())
}

func TestStartIndexIndependence(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdefghij"), 1000)

	encode := func(start int) []byte {
		var buf bytes.Buffer
		w, err := NewWriter(&buf, xorCodec{}, WithChunkSize(1000), withStartIndex(start))
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		return buf.Bytes()
	}
	decode := func(stream []byte, start int) []byte {
		var buf bytes.Buffer
		res, err := Decode(context.Background(), &buf, bytes.NewReader(stream), xorCodec{}, WithChunkSize(1000), withStartIndex(start))
		require.NoError(t, err)
		require.Equal(t, StatusEndOfStream, res.Status)
		return buf.Bytes()
	}

	s0, s1 := encode(0), encode(1)
	require.Equal(t, s0, s1)
	require.Equal(t, data, decode(s0, 1))
	require.Equal(t, data, decode(s1, 0))
}

func TestWrongDictionary(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), 300)

	var buf bytes.Buffer
	_, err := Encode(context.Background(), &buf, bytes.NewReader(data), xorCodec{}, WithChunkSize(512), WithDictionary([]byte("one")))
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = Decode(context.Background(), &out, bytes.NewReader(buf.Bytes()), xorCodec{}, WithChunkSize(512), WithDictionary([]byte("two")))
	require.NoError(t, err)
	require.NotEqual(t, data, out.Bytes())
}

func TestNewConfig(t *testing.T) {
	var tests = []struct {
		name       string
		opts       []Option
		chunkSize  int
		shouldFail bool
	}{
		{"defaults", nil, DefaultChunkSize, false},
		{"smallest chunk", []Option{WithChunkSize(1)}, 1, false},
		{"largest chunk", []Option{WithChunkSize(MaxChunkSize)}, MaxChunkSize, false},
		{"zero chunk", []Option{WithChunkSize(0)}, 0, true},
		{"negative chunk", []Option{WithChunkSize(-1)}, 0, true},
		{"oversized chunk", []Option{WithChunkSize(MaxChunkSize + 1)}, 0, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := newConfig(test.opts)
			if test.shouldFail {
				require.ErrorIs(t, err, ErrInvalidChunkSize)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.chunkSize, cfg.chunkSize)
		})
	}
}

func TestDictionaryIsCopied(t *testing.T) {
	dict := []byte("dictionary")
	cfg, err := newConfig([]Option{WithDictionary(dict)})
	require.NoError(t, err)
	dict[0] = 'X'
	require.Equal(t, "dictionary", string(cfg.dict))
}
