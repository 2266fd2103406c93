package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewResolveCmd creates the resolve command.
func NewResolveCmd() *cobra.Command {
	var (
		strategy   string
		minVersion string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the release version the pipeline would install",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if strategy == "" {
				strategy = cfg.Release.Strategy
			}
			if minVersion == "" {
				minVersion = cfg.Release.MinVersion
			}

			orch, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			version, err := orch.Resolve(cmd.Context(), cfg.Release.Version, strategy, minVersion)
			if err != nil {
				return fmt.Errorf("resolve failed: %w", err)
			}

			fmt.Println(version)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Latest-release strategy: redirect or api (defaults to config)")
	cmd.Flags().StringVar(&minVersion, "min-version", "", "Reject resolved versions older than this tag")

	return cmd
}
