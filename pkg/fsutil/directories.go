package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// AppName is the name of the application used in paths.
const AppName = "moddexup"

// EnsureDir creates a directory and all necessary parent directories with
// default permissions if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DirModeDefault)
}

// IsDirEmpty reports whether path is an empty directory. A non-existent path
// is treated as empty.
func IsDirEmpty(path string) (bool, error) {
	dir, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to open directory %s: %w", path, err)
	}
	defer func() { _ = dir.Close() }()

	_, err = dir.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	return false, nil
}

// GetCacheDir returns the platform-specific cache directory for the application.
// On Linux: ~/.cache/moddexup/
func GetCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// GetConfigDir returns the platform-specific config directory for the application.
// On Linux: ~/.config/moddexup/
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}
