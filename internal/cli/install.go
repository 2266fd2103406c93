package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moddex/moddexup/internal/logger"
	"github.com/moddex/moddexup/pkg/orchestrator"
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	var (
		version    string
		installDir string
		strategy   string
		suffix     string
		minVersion string
		force      bool
		lenient    bool
		run        bool
		noRun      bool
	)

	cmd := &cobra.Command{
		Use:   "install [-- INSTALLER_ARGS...]",
		Short: "Download, verify and install a release bundle",
		Long: `Resolve a release, download its artifact, verify it against the published
checksum manifest, extract it into the install directory and hand off to the
bundle's installer entry point. Arguments after -- are passed to the installer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, args, installFlags{
				version:    version,
				installDir: installDir,
				strategy:   strategy,
				suffix:     suffix,
				minVersion: minVersion,
				force:      force,
				lenient:    lenient,
				run:        run,
				noRun:      noRun,
			})
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Pin an exact release tag (default: resolve latest)")
	cmd.Flags().StringVar(&installDir, "install-dir", "", "Bundle target directory (defaults to config)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Latest-release strategy: redirect or api (defaults to config)")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Artifact platform suffix (defaults to detected platform)")
	cmd.Flags().StringVar(&minVersion, "min-version", "", "Reject resolved versions older than this tag")
	cmd.Flags().BoolVar(&force, "force", false, "Replace a non-empty install directory")
	cmd.Flags().BoolVar(&lenient, "lenient-checksum", false, "Warn instead of failing when no checksum manifest is published")
	cmd.Flags().BoolVar(&run, "run", false, "Run the installer entry point after extraction")
	cmd.Flags().BoolVar(&noRun, "no-run", false, "Never run the installer entry point")
	cmd.MarkFlagsMutuallyExclusive("run", "no-run")

	return cmd
}

type installFlags struct {
	version    string
	installDir string
	strategy   string
	suffix     string
	minVersion string
	force      bool
	lenient    bool
	run        bool
	noRun      bool
}

func runInstall(cmd *cobra.Command, installerArgs []string, flags installFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if flags.version == "" {
		flags.version = cfg.Release.Version
	}
	if flags.installDir == "" {
		flags.installDir = cfg.Install.Dir
	}
	if flags.strategy == "" {
		flags.strategy = cfg.Release.Strategy
	}
	if flags.suffix != "" {
		cfg.Release.AssetSuffix = flags.suffix
	}
	if flags.minVersion == "" {
		flags.minVersion = cfg.Release.MinVersion
	}

	policy, err := checksumPolicy(cfg, flags.lenient)
	if err != nil {
		return err
	}

	orch, err := buildOrchestrator(cfg)
	if err != nil {
		return err
	}

	handoff, err := orch.Install(cmd.Context(), orchestrator.InstallOptions{
		Version:        flags.version,
		Strategy:       flags.strategy,
		MinVersion:     flags.minVersion,
		InstallDir:     flags.installDir,
		Replace:        flags.force || cfg.Install.Replace,
		ChecksumPolicy: policy,
	})
	if err != nil {
		return fmt.Errorf("install failed: %w", err)
	}

	autoRun := cfg.Install.AutoRun
	if flags.run {
		autoRun = true
	}
	if flags.noRun {
		autoRun = false
	}

	if !autoRun {
		logger.Info("bundle installed, run the installer to finish", logger.Fields{
			"entry_point": handoff.Path,
		})
		return nil
	}

	return ExecuteHandoff(cmd.Context(), handoff, installerArgs)
}
