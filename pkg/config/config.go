// Package config provides configuration management for the moddexup
// installer. It handles loading, validating and saving the YAML
// configuration file, applies environment variable overrides, and supplies
// sensible defaults so the tool works with no configuration at all.
package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/moddex/moddexup/pkg/errors"
	"github.com/moddex/moddexup/pkg/fsutil"
	"github.com/moddex/moddexup/pkg/platform"
	"gopkg.in/yaml.v3"
)

// Resolve strategy names accepted in the configuration.
const (
	StrategyRedirect = "redirect"
	StrategyAPI      = "api"
)

// Checksum policy names accepted in the configuration.
const (
	PolicyStrict  = "strict"
	PolicyLenient = "lenient"
)

// Config represents the application configuration.
type Config struct {
	// Release selection and asset naming
	Release ReleaseConfig `yaml:"release"`

	// Installation behavior
	Install InstallConfig `yaml:"install"`

	// General settings
	Settings Settings `yaml:"settings"`
}

// ReleaseConfig controls which release is fetched and how its assets are named.
type ReleaseConfig struct {
	// Owner is the GitHub organization or user publishing the releases.
	Owner string `yaml:"owner"`
	// Repo is the repository name.
	Repo string `yaml:"repo"`
	// AssetSuffix is the platform part of the artifact name
	// (e.g. "linux-amd64.tar.gz"). Auto-detected when empty.
	AssetSuffix string `yaml:"asset_suffix,omitempty"`
	// Version pins an exact release tag. Empty means resolve the latest.
	Version string `yaml:"version,omitempty"`
	// Strategy selects latest-release discovery: "redirect" or "api".
	Strategy string `yaml:"strategy"`
	// MinVersion rejects resolved versions older than this tag.
	MinVersion string `yaml:"min_version,omitempty"`
}

// InstallConfig controls materialization and handoff.
type InstallConfig struct {
	// Dir is the bundle target directory.
	Dir string `yaml:"dir,omitempty"`
	// AutoRun makes the pipeline hand off to the installer entry point.
	AutoRun bool `yaml:"auto_run"`
	// Replace allows replacing a non-empty target directory wholesale.
	Replace bool `yaml:"replace"`
	// ChecksumPolicy is "strict" (manifest required) or "lenient"
	// (missing manifest downgrades to a warning; mismatches stay fatal).
	ChecksumPolicy string `yaml:"checksum_policy"`
}

// Settings represents general application settings.
type Settings struct {
	CacheDir    string        `yaml:"cache_dir,omitempty"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Concurrency int           `yaml:"concurrency"`
	LogLevel    string        `yaml:"log_level"`
}

// Default configuration values.
const (
	// DefaultOwner is the GitHub owner of the Moddex releases.
	DefaultOwner = "moddex"

	// DefaultRepo is the GitHub repository of the Moddex releases.
	DefaultRepo = "moddex"

	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultConcurrency is the default number of parallel downloads.
	DefaultConcurrency = 2

	// DefaultInstallDirName is the directory under the user data dir that
	// receives the bundle when no install dir is configured.
	DefaultInstallDirName = "bundle"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		cacheDir = filepath.Join(os.TempDir(), fsutil.AppName)
	}

	installDir := filepath.Join("/opt", "moddex")

	return &Config{
		Release: ReleaseConfig{
			Owner:       DefaultOwner,
			Repo:        DefaultRepo,
			AssetSuffix: platform.CurrentPlatform().AssetSuffix(),
			Strategy:    StrategyRedirect,
		},
		Install: InstallConfig{
			Dir:            installDir,
			AutoRun:        false,
			Replace:        false,
			ChecksumPolicy: PolicyStrict,
		},
		Settings: Settings{
			CacheDir:    cacheDir,
			HTTPTimeout: DefaultHTTPTimeout,
			Concurrency: DefaultConcurrency,
			LogLevel:    "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// default configuration; environment overrides are applied either way.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.ApplyEnv()
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()
	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig saves configuration to a file atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	tempPath := absPath + ".tmp"
	file, err := fsutil.CreateFilePerm(tempPath, fsutil.FileModeSecure)
	if err != nil {
		return errors.Wrap(err, "failed to create config file")
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to rename temporary config file")
	}

	if err := os.Chmod(absPath, fsutil.FileModeDefault); err != nil {
		return errors.Wrap(err, "failed to set config file permissions")
	}

	return nil
}

// applyDefaults fills zero-valued fields with defaults.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Release.Owner == "" {
		c.Release.Owner = def.Release.Owner
	}
	if c.Release.Repo == "" {
		c.Release.Repo = def.Release.Repo
	}
	if c.Release.AssetSuffix == "" {
		c.Release.AssetSuffix = def.Release.AssetSuffix
	}
	if c.Release.Strategy == "" {
		c.Release.Strategy = def.Release.Strategy
	}
	if c.Install.Dir == "" {
		c.Install.Dir = def.Install.Dir
	}
	if c.Install.ChecksumPolicy == "" {
		c.Install.ChecksumPolicy = def.Install.ChecksumPolicy
	}
	if c.Settings.CacheDir == "" {
		c.Settings.CacheDir = def.Settings.CacheDir
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = def.Settings.HTTPTimeout
	}
	if c.Settings.Concurrency == 0 {
		c.Settings.Concurrency = def.Settings.Concurrency
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = def.Settings.LogLevel
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if c.Release.Owner == "" {
		return errors.Wrap(errors.ErrConfigValidation, "release owner cannot be empty")
	}
	if c.Release.Repo == "" {
		return errors.Wrap(errors.ErrConfigValidation, "release repo cannot be empty")
	}
	switch c.Release.Strategy {
	case StrategyRedirect, StrategyAPI:
	default:
		return errors.Wrapf(errors.ErrConfigValidation, "strategy must be %q or %q, got %q",
			StrategyRedirect, StrategyAPI, c.Release.Strategy)
	}
	switch c.Install.ChecksumPolicy {
	case PolicyStrict, PolicyLenient:
	default:
		return errors.Wrapf(errors.ErrConfigValidation, "checksum_policy must be %q or %q, got %q",
			PolicyStrict, PolicyLenient, c.Install.ChecksumPolicy)
	}
	if c.Settings.HTTPTimeout < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "http_timeout cannot be negative")
	}
	if c.Settings.Concurrency < 1 {
		return errors.Wrap(errors.ErrConfigValidation, "concurrency must be at least 1")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Settings.LogLevel] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log level %q", c.Settings.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// GetHookDir returns the directory hook scripts are loaded from.
func GetHookDir() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(configDir, "hooks"), nil
}

// GetDownloadDir returns the cache subdirectory used for artifact downloads.
func (c *Config) GetDownloadDir() string {
	return filepath.Join(c.Settings.CacheDir, "downloads")
}
