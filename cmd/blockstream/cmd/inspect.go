package cmd

import (
	"context"
	"fmt"

	"github.com/andybalholm/blockstream"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <in>",
		Short: "Print the block structure of a compressed stream",
		Long: `Print the block structure of a compressed stream

The blocks are listed without being decompressed, so no codec is needed. The
command fails if the stream ends without the end-of-stream marker.`,
		Args: cobra.ExactArgs(1),
		RunE: wrapCancellationContext(inspectEntrypoint),
	}
	cmd.Flags().BoolP("summary", "s", false, "only print the summary line")
	return cmd
}

func inspectEntrypoint(_ context.Context, cmd *cobra.Command, args []string) error {
	summaryOnly, err := cmd.Flags().GetBool("summary")
	if err != nil {
		return err
	}

	in, err := openInput(cmd, args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	w := cmd.OutOrStdout()
	if !summaryOnly {
		fmt.Fprintf(w, "%8s %12s %10s\n", "BLOCK", "OFFSET", "LENGTH")
	}

	var largest int
	res, err := blockstream.Scan(in, func(info blockstream.BlockInfo) error {
		largest = max(largest, info.Length)
		if summaryOnly {
			return nil
		}
		_, err := fmt.Fprintf(w, "%8d %12d %10d\n", info.Index, info.Offset, info.Length)
		return err
	})

	fmt.Fprintf(w, "%d blocks, %d bytes, largest payload %d bytes, %s\n", res.Blocks, res.BytesIn, largest, res.Status)
	if err != nil {
		return fmt.Errorf("invalid stream: %w", err)
	}
	return nil
}
