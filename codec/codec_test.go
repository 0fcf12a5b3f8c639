package codec

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/andybalholm/blockstream"
	"github.com/andybalholm/blockstream/internal/codectest"
	"github.com/stretchr/testify/require"
)

func TestNewByString(t *testing.T) {
	var tests = []struct {
		name       string
		codecName  string
		expect     string
		shouldFail bool
	}{
		{"empty string", "", "lz4", false},
		{"lz4 codec", "lz4", "lz4", false},
		{"lz4 codec (uppercase)", "LZ4", "lz4", false},
		{"flate codec", "flate", "flate", false},
		{"zstd codec", "zstd", "zstd", false},
		{"zstd codec (uppercase)", "ZSTD", "zstd", false},
		{"snappy codec", "snappy", "snappy", false},
		{"brotli codec", " brotli ", "brotli", false},
		{"unsupported codec", "iwillneverbesupported", "", true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, err := NewByString(test.codecName)
			if test.shouldFail {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.expect, c.Name())
		})
	}
}

func TestTypeString(t *testing.T) {
	for typ := TypeLZ4; typ <= MaxType; typ++ {
		parsed, err := ParseType(typ.String())
		require.NoError(t, err)
		require.Equal(t, typ, parsed)
	}
	require.Equal(t, "unknown", Type(-1).String())
	require.Equal(t, "unknown", (MaxType + 1).String())
	require.Len(t, Names(), int(MaxType)+1)
}

func TestNewUnsupported(t *testing.T) {
	_, err := New(MaxType+1, DefaultLevel)
	require.Error(t, err)
}

var corpus = bytes.Repeat([]byte("The quick brown fox jumps over the lazy dog. 0123456789\n"), 1000)

func TestRoundTripAllLevels(t *testing.T) {
	inputs := map[string][]byte{
		"text":   corpus,
		"random": codectest.Random(3*blockstream.DefaultChunkSize + 100),
	}
	for typ := TypeLZ4; typ <= MaxType; typ++ {
		for _, level := range []int{DefaultLevel, 0, 1, 5, 7, 9, 12} {
			for name, data := range inputs {
				t.Run(fmt.Sprintf("%s_%d_%s", typ, level, name), func(t *testing.T) {
					c, err := New(typ, level)
					require.NoError(t, err)
					require.Equal(t, typ.String(), c.Name())

					var enc bytes.Buffer
					res, err := blockstream.Encode(context.Background(), &enc, bytes.NewReader(data), c)
					require.NoError(t, err)
					require.Equal(t, blockstream.StatusEndOfStream, res.Status)
					require.EqualValues(t, len(data), res.BytesIn)

					var dec bytes.Buffer
					res, err = blockstream.Decode(context.Background(), &dec, &enc, c)
					require.NoError(t, err)
					require.Equal(t, blockstream.StatusEndOfStream, res.Status)
					require.Equal(t, data, dec.Bytes())
				})
			}
		}
	}
}
