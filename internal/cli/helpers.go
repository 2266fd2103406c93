// Package cli implements the moddexup commands.
package cli

import (
	"fmt"
	"os"

	"github.com/moddex/moddexup/internal/logger"
	"github.com/moddex/moddexup/pkg/auth"
	"github.com/moddex/moddexup/pkg/bundle"
	"github.com/moddex/moddexup/pkg/config"
	"github.com/moddex/moddexup/pkg/download"
	"github.com/moddex/moddexup/pkg/hook"
	"github.com/moddex/moddexup/pkg/orchestrator"
	"github.com/moddex/moddexup/pkg/release"
	"github.com/moddex/moddexup/pkg/verify"
)

// These variables are set by the main package.
var (
	ConfigPath *string
	Verbose    *bool
)

const userAgent = "moddexup/" + Version

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return ""
	}
	return path
}

func loadConfig() (*config.Config, error) {
	path := getConfigPath()
	if path == "" {
		return nil, fmt.Errorf("could not determine config path")
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	logger.InitLogger(cfg.Settings.LogLevel)

	return cfg, nil
}

// buildOrchestrator wires the pipeline from the configuration. Hook scripts
// are loaded from the user hook directory when present.
func buildOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, error) {
	authn := auth.FromEnv()

	hookManager := hook.NewManager()
	if hookDir, err := config.GetHookDir(); err == nil {
		if err := hook.LoadFromDir(hookManager, hookDir); err != nil {
			return nil, fmt.Errorf("failed to load hooks: %w", err)
		}
	}

	resolver := release.NewResolver(cfg.Settings.HTTPTimeout, userAgent, authn)
	locator := release.Locator{
		Owner:  cfg.Release.Owner,
		Repo:   cfg.Release.Repo,
		Suffix: cfg.Release.AssetSuffix,
	}
	// Alternate release hosts (GitHub Enterprise, local mirrors).
	if base := os.Getenv("MODDEXUP_BASE_URL"); base != "" {
		resolver.BaseURL = base
		locator.BaseURL = base
	}
	if api := os.Getenv("MODDEXUP_API_BASE_URL"); api != "" {
		resolver.APIBaseURL = api
	}

	return &orchestrator.Orchestrator{
		Resolver:     resolver,
		Locator:      locator,
		DL:           download.NewManager(cfg.Settings.HTTPTimeout, userAgent, authn),
		Verifier:     verify.NewVerifier(),
		Materializer: bundle.NewMaterializer(),
		HookManager:  hookManager,
		Hooks:        progressHooks(),
	}, nil
}

func progressHooks() orchestrator.Hooks {
	return orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
		if e.ID != "" {
			fmt.Printf("%s: %s (%s)\n", e.Phase, e.Msg, e.ID)
		} else {
			fmt.Printf("%s: %s\n", e.Phase, e.Msg)
		}
	}}
}

func checksumPolicy(cfg *config.Config, lenient bool) (verify.Policy, error) {
	if lenient {
		return verify.PolicyLenient, nil
	}
	return verify.ParsePolicy(cfg.Install.ChecksumPolicy)
}
