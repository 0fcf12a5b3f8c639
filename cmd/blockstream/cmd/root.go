// Package cmd contains the blockstream command line interface implementation
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/andybalholm/blockstream"
	"github.com/andybalholm/blockstream/cmd/blockstream/pkg/conf"
	"github.com/andybalholm/blockstream/codec"
	"github.com/els0r/telemetry/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const helpBase = "blockstream compresses files into a stream of linked blocks"

// Execute is the main entrypoint and runs the CLI tool
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "blockstream",
		Short: helpBase,
		Long: helpBase + `

The input is cut into chunks of a fixed size. Every chunk is compressed as one
block which may refer back to the plaintext of the previous block. A block is
written as a 4-byte little endian length followed by the compressed payload;
a zero length ends the stream.

File arguments may be "-" for stdin / stdout.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := initConfig(); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			return initLogging()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	registerFlags(rootCmd)

	rootCmd.AddCommand(
		newCompressCmd(),
		newDecompressCmd(),
		newVerifyCmd(),
		newRoundtripCmd(),
		newInspectCmd(),
	)
	return rootCmd
}

func registerFlags(cmd *cobra.Command) {
	pflags := cmd.PersistentFlags()

	pflags.String(conf.ConfigFile, "", "path to a YAML configuration file")

	pflags.String(conf.LogLevel, conf.DefaultLogLevel, "log level (debug, info, warn, error)")
	pflags.String(conf.LogEncoding, conf.DefaultLogEncoding, "log encoding (logfmt, json, plain)")

	pflags.String(conf.CodecName, conf.DefaultCodecName, "block codec ("+strings.Join(codec.Names(), ", ")+")")
	pflags.Int(conf.CodecLevel, conf.DefaultCodecLevel, "compression level (-1 selects the codec's default)")

	pflags.Int(conf.StreamChunkSize, blockstream.DefaultChunkSize, "plaintext bytes per block")
	pflags.String(conf.StreamDict, "", "file holding a seed dictionary (must match between compression and decompression)")
	pflags.Duration(conf.StreamTimeout, 0, "deadline for the whole command (0 disables it)")

	_ = viper.BindPFlags(pflags)
}

// initConfig reads in the config file and ENV variables if set
func initConfig() error {
	path := viper.GetString(conf.ConfigFile)
	if path != "" {
		viper.SetConfigFile(path)

		err := viper.ReadInConfig()
		if err != nil {
			return fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	viper.SetEnvPrefix(conf.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "__"))
	viper.AutomaticEnv()

	return nil
}

func initLogging() error {
	// the CLI writes data to stdout, so all logs go to stderr
	_, err := logging.Init(
		logging.LevelFromString(viper.GetString(conf.LogLevel)),
		logging.Encoding(viper.GetString(conf.LogEncoding)),
		logging.WithOutput(os.Stderr),
		logging.WithErrorOutput(os.Stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

type entrypointE func(ctx context.Context, cmd *cobra.Command, args []string) error
type runE func(cmd *cobra.Command, args []string) error

func wrapCancellationContext(f entrypointE) runE {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
		defer stop()

		if timeout := viper.GetDuration(conf.StreamTimeout); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		ctx = logging.WithFields(ctx, slog.String("cmd", cmd.Name()))
		return f(ctx, cmd, args)
	}
}

// selectCodec creates the configured codec
func selectCodec() (blockstream.Codec, error) {
	t, err := codec.ParseType(viper.GetString(conf.CodecName))
	if err != nil {
		return nil, err
	}
	return codec.New(t, viper.GetInt(conf.CodecLevel))
}

// streamOptions collects the configured stream options
func streamOptions() ([]blockstream.Option, error) {
	opts := []blockstream.Option{
		blockstream.WithChunkSize(viper.GetInt(conf.StreamChunkSize)),
	}

	if path := viper.GetString(conf.StreamDict); path != "" {
		dict, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read dictionary: %w", err)
		}
		opts = append(opts, blockstream.WithDictionary(dict))
	}
	return opts, nil
}

// openInput opens a file for reading, "-" denoting stdin
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

// createOutput creates a file for writing, "-" denoting stdout
func createOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{cmd.OutOrStdout()}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// elapsed formats the time since start for log output
func elapsed(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
