package cmd

import (
	"context"
	"fmt"

	"github.com/andybalholm/blockstream/verify"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <a> <b>",
		Short: "Compare two files byte for byte",
		Args:  cobra.ExactArgs(2),
		RunE:  wrapCancellationContext(verifyEntrypoint),
	}
}

func verifyEntrypoint(_ context.Context, cmd *cobra.Command, args []string) error {
	rep, err := verifyFiles(cmd, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), rep)
	if !rep.Equal {
		return fmt.Errorf("%s and %s differ", args[0], args[1])
	}
	return nil
}

func verifyFiles(cmd *cobra.Command, pathA, pathB string) (verify.Report, error) {
	a, err := openInput(cmd, pathA)
	if err != nil {
		return verify.Report{}, err
	}
	defer a.Close()

	b, err := openInput(cmd, pathB)
	if err != nil {
		return verify.Report{}, err
	}
	defer b.Close()

	return verify.Compare(a, b)
}
