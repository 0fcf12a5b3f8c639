package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andybalholm/blockstream/codec"
	"github.com/andybalholm/blockstream/internal/codectest"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	cmd := newRootCmd()

	var out bytes.Buffer
	cmd.SetIn(stdin)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeInput(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestCompressDecompressVerify(t *testing.T) {
	data := codectest.Text(40000)

	for _, name := range codec.Names() {
		t.Run(name, func(t *testing.T) {
			in := writeInput(t, "input.txt", data)
			comp, dec := in+".bs", in+".dec"

			_, err := run(t, nil, "compress", "--codec.name", name, in, comp)
			require.NoError(t, err)
			_, err = run(t, nil, "decompress", "--codec.name", name, comp, dec)
			require.NoError(t, err)

			out, err := run(t, nil, "verify", in, dec)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(out, "equal: 40000 bytes"), out)
		})
	}
}

func TestRoundtrip(t *testing.T) {
	in := writeInput(t, "input.txt", codectest.Text(4500))

	out, err := run(t, nil, "roundtrip", "--stream.chunk_size", "1000", in)
	require.NoError(t, err)
	require.Contains(t, out, "verify     equal")

	dir := filepath.Dir(in)
	require.FileExists(t, filepath.Join(dir, "lz4s-1000.input.txt"))
	require.FileExists(t, filepath.Join(dir, "lz4s-1000.dec.input.txt"))

	out, err = run(t, nil, "inspect", filepath.Join(dir, "lz4s-1000.input.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1+5+1)
	require.Contains(t, lines[len(lines)-1], "5 blocks")
	require.Contains(t, lines[len(lines)-1], "end-of-stream")

	_, err = run(t, nil, "roundtrip", "-")
	require.Error(t, err)
}

func TestInspectSummary(t *testing.T) {
	in := writeInput(t, "zeros", make([]byte, 20000))
	comp := in + ".bs"
	_, err := run(t, nil, "compress", in, comp)
	require.NoError(t, err)

	out, err := run(t, nil, "inspect", "-s", comp)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "3 blocks"), out)
}

func TestDecompressDamaged(t *testing.T) {
	in := writeInput(t, "input.txt", codectest.Text(20000))
	comp := in + ".bs"
	_, err := run(t, nil, "compress", in, comp)
	require.NoError(t, err)

	stream, err := os.ReadFile(comp)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(comp, stream[:len(stream)-4], 0o644))

	_, err = run(t, nil, "decompress", comp, in+".dec")
	require.ErrorContains(t, err, "truncated")

	out, err := run(t, nil, "inspect", comp)
	require.ErrorContains(t, err, "truncated")
	require.Contains(t, out, "3 blocks")
}

func TestVerifyDiffer(t *testing.T) {
	a := writeInput(t, "a", []byte("hello world"))
	b := writeInput(t, "b", []byte("hello there"))

	out, err := run(t, nil, "verify", a, b)
	require.Error(t, err)
	require.True(t, strings.HasPrefix(out, "differ at offset 6"), out)
}

func TestStdinStdout(t *testing.T) {
	data := codectest.Text(30000)

	comp, err := run(t, bytes.NewReader(data), "compress", "-", "-")
	require.NoError(t, err)

	dec, err := run(t, strings.NewReader(comp), "decompress", "-", "-")
	require.NoError(t, err)
	require.Equal(t, string(data), dec)
}

func TestDictionary(t *testing.T) {
	dict := writeInput(t, "dict", codectest.Text(10000))
	in := writeInput(t, "input.txt", codectest.Text(20000))
	comp := in + ".bs"

	_, err := run(t, nil, "compress", "--stream.dict", dict, in, comp)
	require.NoError(t, err)
	_, err = run(t, nil, "decompress", "--stream.dict", dict, comp, in+".dec")
	require.NoError(t, err)
	_, err = run(t, nil, "verify", in, in+".dec")
	require.NoError(t, err)

	_, err = run(t, nil, "compress", "--stream.dict", dict+".missing", in, comp)
	require.ErrorContains(t, err, "dictionary")
}

func TestConfiguration(t *testing.T) {
	in := writeInput(t, "input.txt", codectest.Text(4500))
	comp := in + ".bs"

	t.Run("config file", func(t *testing.T) {
		cfg := writeInput(t, "config.yaml", []byte("stream:\n  chunk_size: 1000\ncodec:\n  name: snappy\n"))
		_, err := run(t, nil, "compress", "--config", cfg, in, comp)
		require.NoError(t, err)

		out, err := run(t, nil, "inspect", "-s", comp)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(out, "5 blocks"), out)

		_, err = run(t, nil, "decompress", "--config", cfg, comp, in+".dec")
		require.NoError(t, err)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("BLOCKSTREAM_STREAM_CHUNK_SIZE", "2000")
		_, err := run(t, nil, "compress", in, comp)
		require.NoError(t, err)

		out, err := run(t, nil, "inspect", "-s", comp)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(out, "3 blocks"), out)
	})

	t.Run("invalid settings", func(t *testing.T) {
		_, err := run(t, nil, "compress", "--codec.name", "rar", in, comp)
		require.ErrorContains(t, err, "unsupported codec")

		_, err = run(t, nil, "compress", "--stream.chunk_size", "0", in, comp)
		require.ErrorContains(t, err, "invalid chunk size")

		_, err = run(t, nil, "compress", "--config", in+".missing.yaml", in, comp)
		require.Error(t, err)
	})
}
