package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moddex/moddexup/internal/cli"
)

const usageErrorCode = 2

var (
	configPath string
	verbose    bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(cli.ExitCode(err))
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moddexup",
		Short: "Bootstrap installer for Moddex release bundles",
		Long: `moddexup fetches a Moddex release bundle from GitHub, verifies it against
its published SHA-256 manifest, extracts it and hands off to the bundle's
installer. It can pin a release version or resolve the latest one.`,
		SilenceUsage: true,
	}

	// Usage errors exit with a distinct code so scripts can tell a bad
	// invocation from a failed pipeline.
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = c.Usage()
		os.Exit(usageErrorCode)
		return nil
	})

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	cli.ConfigPath = &configPath
	cli.Verbose = &verbose

	cmd.AddCommand(
		cli.NewInstallCmd(),
		cli.NewFetchCmd(),
		cli.NewResolveCmd(),
		cli.NewUninstallCmd(),
		cli.NewCacheCmd(),
		cli.NewConfigCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
