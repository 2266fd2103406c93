// Package errors defines the error taxonomy shared across the moddexup
// pipeline. Each fatal condition has a sentinel error so callers can classify
// failures with errors.Is, and Wrap/Wrapf add context while preserving the
// sentinel in the chain.
package errors

import "fmt"

// Common error types.
var (
	// Resolution errors.
	ErrResolutionFailed = fmt.Errorf("could not resolve release version")
	ErrInvalidStrategy  = fmt.Errorf("unknown resolve strategy")
	ErrVersionTooOld    = fmt.Errorf("resolved version below configured minimum")

	// Download errors.
	ErrDownloadFailed = fmt.Errorf("download failed")
	ErrInvalidPath    = fmt.Errorf("invalid path")

	// Verification errors.
	ErrChecksumMissing     = fmt.Errorf("no matching checksum entry")
	ErrChecksumMismatch    = fmt.Errorf("checksum mismatch")
	ErrManifestUnavailable = fmt.Errorf("checksum manifest unavailable")

	// Bundle errors.
	ErrEntryPointNotFound = fmt.Errorf("installer entry point not found")
	ErrTargetNotEmpty     = fmt.Errorf("target directory exists and is not empty")

	// Pipeline wiring errors.
	ErrNotConfigured = fmt.Errorf("pipeline component not configured")

	// Handoff errors.
	ErrToolMissing    = fmt.Errorf("required tool not found")
	ErrInstallerExit  = fmt.Errorf("installer exited with error")
	ErrNotInstalled   = fmt.Errorf("no bundle installed at target directory")
	ErrHandoffMissing = fmt.Errorf("handoff command is empty")

	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigFileExists  = fmt.Errorf("configuration file already exists (use --force to overwrite)")
	ErrUnknownConfigKey  = fmt.Errorf("unknown configuration key")
	ErrInvalidBoolValue  = fmt.Errorf("invalid boolean value")

	// Hook errors.
	ErrHookTypeEmpty = fmt.Errorf("hook type cannot be empty")
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
