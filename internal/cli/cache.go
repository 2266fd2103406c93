package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moddex/moddexup/internal/logger"
	"github.com/moddex/moddexup/pkg/cache"
)

// NewCacheCmd creates the cache command with subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the download cache",
		Long:  "Inspect and clean the cache of downloaded release artifacts",
	}

	cmd.AddCommand(
		newCacheInfoCmd(),
		newCacheCleanCmd(),
	)

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache location and size",
		RunE:  runCacheInfo,
	}
}

func newCacheCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove all cached downloads",
		RunE:  runCacheClean,
	}
}

func runCacheInfo(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	info, err := cache.NewManager(cfg.Settings.CacheDir).GetInfo()
	if err != nil {
		return err
	}

	tabWriter := tabwriter.NewWriter(os.Stdout, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintf(tabWriter, "Directory:\t%s\n", info.Directory)
	_, _ = fmt.Fprintf(tabWriter, "Downloads:\t%d files\n", info.DownloadFiles)
	_, _ = fmt.Fprintf(tabWriter, "Size:\t%s\n", formatSize(info.DownloadSize))
	return tabWriter.Flush()
}

func runCacheClean(*cobra.Command, []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	result, err := cache.NewManager(cfg.Settings.CacheDir).Clean()
	if err != nil {
		return err
	}

	logger.Success("Cache cleaned", logger.Fields{"freed": formatSize(result.Freed)})
	return nil
}

const sizeUnit = 1024

func formatSize(bytes int64) string {
	if bytes < sizeUnit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(sizeUnit), 0
	for n := bytes / sizeUnit; n >= sizeUnit; n /= sizeUnit {
		div *= sizeUnit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
