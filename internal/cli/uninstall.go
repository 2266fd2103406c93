package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moddex/moddexup/internal/logger"
)

// NewUninstallCmd creates the uninstall command.
func NewUninstallCmd() *cobra.Command {
	var (
		installDir string
		run        bool
		noRun      bool
	)

	cmd := &cobra.Command{
		Use:   "uninstall [-- UNINSTALLER_ARGS...]",
		Short: "Hand off to the uninstall script of an installed bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if installDir == "" {
				installDir = cfg.Install.Dir
			}

			orch, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			handoff, err := orch.Uninstall(installDir)
			if err != nil {
				return fmt.Errorf("uninstall failed: %w", err)
			}

			autoRun := cfg.Install.AutoRun
			if run {
				autoRun = true
			}
			if noRun {
				autoRun = false
			}
			if !autoRun {
				logger.Info("run the uninstall script to finish", logger.Fields{
					"script": handoff.Path,
				})
				return nil
			}

			return ExecuteHandoff(cmd.Context(), handoff, args)
		},
	}

	cmd.Flags().StringVar(&installDir, "install-dir", "", "Bundle directory to uninstall (defaults to config)")
	cmd.Flags().BoolVar(&run, "run", false, "Run the uninstall script")
	cmd.Flags().BoolVar(&noRun, "no-run", false, "Never run the uninstall script")
	cmd.MarkFlagsMutuallyExclusive("run", "no-run")

	return cmd
}
