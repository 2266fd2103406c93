package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/moddex/moddexup/internal/logger"
	"github.com/moddex/moddexup/pkg/orchestrator"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	var (
		version    string
		strategy   string
		minVersion string
		output     string
		lenient    bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and verify a release artifact without installing",
		Long: `Resolve a release, download its artifact and verify it against the
published checksum manifest. The verified tarball is left in the output
directory; nothing is extracted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if version == "" {
				version = cfg.Release.Version
			}
			if strategy == "" {
				strategy = cfg.Release.Strategy
			}
			if minVersion == "" {
				minVersion = cfg.Release.MinVersion
			}
			if output == "" {
				output = cfg.GetDownloadDir()
			}
			absOutput, err := filepath.Abs(output)
			if err != nil {
				return fmt.Errorf("invalid output directory %q: %w", output, err)
			}

			policy, err := checksumPolicy(cfg, lenient)
			if err != nil {
				return err
			}

			orch, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			path, err := orch.Fetch(cmd.Context(), orchestrator.FetchOptions{
				Version:        version,
				Strategy:       strategy,
				MinVersion:     minVersion,
				OutputDir:      absOutput,
				ChecksumPolicy: policy,
			})
			if err != nil {
				return fmt.Errorf("fetch failed: %w", err)
			}

			logger.Success("artifact verified", logger.Fields{"path": path})
			fmt.Println(path)
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Pin an exact release tag (default: resolve latest)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Latest-release strategy: redirect or api (defaults to config)")
	cmd.Flags().StringVar(&minVersion, "min-version", "", "Reject resolved versions older than this tag")
	cmd.Flags().StringVarP(&output, "output", "O", "", "Directory receiving the artifact (defaults to the cache)")
	cmd.Flags().BoolVar(&lenient, "lenient-checksum", false, "Warn instead of failing when no checksum manifest is published")

	return cmd
}
