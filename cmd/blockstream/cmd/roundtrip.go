package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/andybalholm/blockstream/cmd/blockstream/pkg/conf"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRoundtripCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roundtrip <in>",
		Short: "Compress, decompress and verify a file",
		Long: `Compress, decompress and verify a file

For an input file NAME and codec CODEC, the compressed stream is written to
CODECs-<chunk size>.NAME and the decompressed copy to CODECs-<chunk size>.dec.NAME,
both next to the input. The command fails unless the copy matches the input.`,
		Args: cobra.ExactArgs(1),
		RunE: wrapCancellationContext(roundtripEntrypoint),
	}
}

func roundtripEntrypoint(ctx context.Context, cmd *cobra.Command, args []string) error {
	inPath := args[0]
	if inPath == "-" {
		return errors.New("roundtrip needs a file as input")
	}

	c, err := selectCodec()
	if err != nil {
		return err
	}
	opts, err := streamOptions()
	if err != nil {
		return err
	}

	dir, name := filepath.Split(inPath)
	prefix := fmt.Sprintf("%ss-%d", c.Name(), viper.GetInt(conf.StreamChunkSize))
	compPath := filepath.Join(dir, prefix+"."+name)
	decPath := filepath.Join(dir, prefix+".dec."+name)

	w := cmd.OutOrStdout()

	res, err := compressFile(ctx, cmd, inPath, compPath, c, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "compress   %s -> %s: %d bytes, %d blocks, %d bytes compressed (%.2f%%)\n",
		inPath, compPath, res.BytesIn, res.Blocks, res.BytesOut, percent(res.BytesOut, res.BytesIn))

	res, err = decompressFile(ctx, cmd, compPath, decPath, c, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "decompress %s -> %s: %d blocks, %d bytes\n", compPath, decPath, res.Blocks, res.BytesOut)

	rep, err := verifyFiles(cmd, inPath, decPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "verify     %s\n", rep)
	if !rep.Equal {
		return fmt.Errorf("%s does not match %s", decPath, inPath)
	}
	return nil
}
