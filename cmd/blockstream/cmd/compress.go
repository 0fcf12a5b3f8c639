package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/andybalholm/blockstream"
	"github.com/els0r/telemetry/logging"
	"github.com/spf13/cobra"
)

func newCompressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compress <in> <out>",
		Short: "Compress a file into a block stream",
		Args:  cobra.ExactArgs(2),
		RunE:  wrapCancellationContext(compressEntrypoint),
	}
}

func newDecompressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decompress <in> <out>",
		Short: "Decompress a block stream",
		Long: `Decompress a block stream

The command fails if the stream is truncated, i.e. ends without the
end-of-stream marker, or if a block cannot be decoded. Blocks decoded before
the failure have been written to the output.`,
		Args: cobra.ExactArgs(2),
		RunE: wrapCancellationContext(decompressEntrypoint),
	}
}

func compressEntrypoint(ctx context.Context, cmd *cobra.Command, args []string) error {
	c, err := selectCodec()
	if err != nil {
		return err
	}
	opts, err := streamOptions()
	if err != nil {
		return err
	}

	_, err = compressFile(ctx, cmd, args[0], args[1], c, opts)
	return err
}

func decompressEntrypoint(ctx context.Context, cmd *cobra.Command, args []string) error {
	c, err := selectCodec()
	if err != nil {
		return err
	}
	opts, err := streamOptions()
	if err != nil {
		return err
	}

	_, err = decompressFile(ctx, cmd, args[0], args[1], c, opts)
	return err
}

func compressFile(ctx context.Context, cmd *cobra.Command, inPath, outPath string, c blockstream.Codec, opts []blockstream.Option) (blockstream.Result, error) {
	logger := logging.FromContext(ctx).With("codec", c.Name(), "in", inPath, "out", outPath)

	in, err := openInput(cmd, inPath)
	if err != nil {
		return blockstream.Result{Status: blockstream.StatusFailed}, err
	}
	defer in.Close()

	out, err := createOutput(cmd, outPath)
	if err != nil {
		return blockstream.Result{Status: blockstream.StatusFailed}, err
	}

	start := time.Now()
	res, err := blockstream.Encode(ctx, out, in, c, opts...)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		res.Status, err = blockstream.StatusFailed, fmt.Errorf("failed to close output: %w", closeErr)
	}
	if err != nil {
		return res, fmt.Errorf("compression failed (%s): %w", res.Status, err)
	}

	logger.Infof("compressed %d bytes into %d blocks (%d bytes, %.2f%%) in %s",
		res.BytesIn, res.Blocks, res.BytesOut, percent(res.BytesOut, res.BytesIn), elapsed(start))
	return res, nil
}

func decompressFile(ctx context.Context, cmd *cobra.Command, inPath, outPath string, c blockstream.Codec, opts []blockstream.Option) (blockstream.Result, error) {
	logger := logging.FromContext(ctx).With("codec", c.Name(), "in", inPath, "out", outPath)

	in, err := openInput(cmd, inPath)
	if err != nil {
		return blockstream.Result{Status: blockstream.StatusFailed}, err
	}
	defer in.Close()

	out, err := createOutput(cmd, outPath)
	if err != nil {
		return blockstream.Result{Status: blockstream.StatusFailed}, err
	}

	start := time.Now()
	res, err := blockstream.Decode(ctx, out, in, c, opts...)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		res.Status, err = blockstream.StatusFailed, fmt.Errorf("failed to close output: %w", closeErr)
	}
	if err != nil {
		return res, fmt.Errorf("decompression failed (%s) after %d blocks: %w", res.Status, res.Blocks, err)
	}

	logger.Infof("decompressed %d blocks (%d bytes) into %d bytes in %s",
		res.Blocks, res.BytesIn, res.BytesOut, elapsed(start))
	return res, nil
}

func percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}
