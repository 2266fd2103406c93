package config

import (
	"os"
	"strconv"
	"time"

	"github.com/moddex/moddexup/pkg/errors"
)

// Environment variable overrides. Each maps onto one configuration key and
// takes precedence over the config file but not over CLI flags.
const (
	EnvOwner          = "MODDEXUP_OWNER"
	EnvRepo           = "MODDEXUP_REPO"
	EnvAssetSuffix    = "MODDEXUP_ASSET_SUFFIX"
	EnvVersion        = "MODDEXUP_VERSION"
	EnvInstallDir     = "MODDEXUP_INSTALL_DIR"
	EnvAutoRun        = "MODDEXUP_AUTO_RUN"
	EnvChecksumPolicy = "MODDEXUP_CHECKSUM_POLICY"
	EnvStrategy       = "MODDEXUP_STRATEGY"
)

// ApplyEnv overlays MODDEXUP_* environment variables onto the configuration.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvOwner); v != "" {
		c.Release.Owner = v
	}
	if v := os.Getenv(EnvRepo); v != "" {
		c.Release.Repo = v
	}
	if v := os.Getenv(EnvAssetSuffix); v != "" {
		c.Release.AssetSuffix = v
	}
	if v := os.Getenv(EnvVersion); v != "" {
		c.Release.Version = v
	}
	if v := os.Getenv(EnvInstallDir); v != "" {
		c.Install.Dir = v
	}
	if v := os.Getenv(EnvAutoRun); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Install.AutoRun = b
		}
	}
	if v := os.Getenv(EnvChecksumPolicy); v != "" {
		c.Install.ChecksumPolicy = v
	}
	if v := os.Getenv(EnvStrategy); v != "" {
		c.Release.Strategy = v
	}
}

// SetValue sets a configuration value by key.
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "release.owner":
		c.Release.Owner = value
	case "release.repo":
		c.Release.Repo = value
	case "release.asset_suffix":
		c.Release.AssetSuffix = value
	case "release.version":
		c.Release.Version = value
	case "release.strategy":
		c.Release.Strategy = value
	case "release.min_version":
		c.Release.MinVersion = value
	case "install.dir":
		c.Install.Dir = value
	case "install.auto_run":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrapf(errors.ErrInvalidBoolValue, "%s=%s", key, value)
		}
		c.Install.AutoRun = boolVal
	case "install.replace":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrapf(errors.ErrInvalidBoolValue, "%s=%s", key, value)
		}
		c.Install.Replace = boolVal
	case "install.checksum_policy":
		c.Install.ChecksumPolicy = value
	case "settings.cache_dir":
		c.Settings.CacheDir = value
	case "settings.http_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return errors.Wrapf(err, "invalid duration for %s", key)
		}
		c.Settings.HTTPTimeout = d
	case "settings.concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "invalid integer for %s", key)
		}
		c.Settings.Concurrency = n
	case "settings.log_level":
		c.Settings.LogLevel = value
	default:
		return errors.Wrapf(errors.ErrUnknownConfigKey, "%s", key)
	}
	return nil
}

// GetValue returns a configuration value as a string by key.
func (c *Config) GetValue(key string) (string, error) {
	switch key {
	case "release.owner":
		return c.Release.Owner, nil
	case "release.repo":
		return c.Release.Repo, nil
	case "release.asset_suffix":
		return c.Release.AssetSuffix, nil
	case "release.version":
		return c.Release.Version, nil
	case "release.strategy":
		return c.Release.Strategy, nil
	case "release.min_version":
		return c.Release.MinVersion, nil
	case "install.dir":
		return c.Install.Dir, nil
	case "install.auto_run":
		return strconv.FormatBool(c.Install.AutoRun), nil
	case "install.replace":
		return strconv.FormatBool(c.Install.Replace), nil
	case "install.checksum_policy":
		return c.Install.ChecksumPolicy, nil
	case "settings.cache_dir":
		return c.Settings.CacheDir, nil
	case "settings.http_timeout":
		return c.Settings.HTTPTimeout.String(), nil
	case "settings.concurrency":
		return strconv.Itoa(c.Settings.Concurrency), nil
	case "settings.log_level":
		return c.Settings.LogLevel, nil
	default:
		return "", errors.Wrapf(errors.ErrUnknownConfigKey, "%s", key)
	}
}

// ToMap returns the configuration as a flat key/value map for display.
func (c *Config) ToMap() map[string]string {
	keys := []string{
		"release.owner", "release.repo", "release.asset_suffix",
		"release.version", "release.strategy", "release.min_version",
		"install.dir", "install.auto_run", "install.replace",
		"install.checksum_policy",
		"settings.cache_dir", "settings.http_timeout",
		"settings.concurrency", "settings.log_level",
	}
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		value, err := c.GetValue(key)
		if err != nil {
			continue
		}
		result[key] = value
	}
	return result
}
