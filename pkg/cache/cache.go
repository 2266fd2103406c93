// Package cache manages the local download cache where verified artifacts
// are kept for reuse across runs.
package cache

import (
	"fmt"
	"os"
	"path/filepath"

	pkgerrors "github.com/moddex/moddexup/pkg/errors"
	"github.com/moddex/moddexup/pkg/fsutil"
)

// ErrCacheDirectory is returned when the cache directory is invalid.
var ErrCacheDirectory = fmt.Errorf("invalid cache directory")

// DownloadsSubdir is the cache subdirectory holding downloaded artifacts.
const DownloadsSubdir = "downloads"

// Info describes the current cache contents.
type Info struct {
	Directory     string
	DownloadSize  int64
	DownloadFiles int
}

// CleanResult reports what a Clean call removed.
type CleanResult struct {
	Freed int64
}

// DefaultManager manages the cache directory.
type DefaultManager struct {
	directory string
}

// NewManager creates a cache manager rooted at directory.
func NewManager(directory string) *DefaultManager {
	return &DefaultManager{directory: directory}
}

// NewDefaultManager creates a cache manager at the user cache directory.
func NewDefaultManager() (*DefaultManager, error) {
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get user cache directory")
	}
	if err := fsutil.EnsureDir(cacheDir); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create cache directory")
	}
	return NewManager(cacheDir), nil
}

// GetDirectory returns the cache directory path.
func (m *DefaultManager) GetDirectory() string {
	return m.directory
}

// GetInfo returns size and file counts for the cache.
func (m *DefaultManager) GetInfo() (*Info, error) {
	info := &Info{Directory: m.directory}

	size, files, err := dirSizeAndFiles(filepath.Join(m.directory, DownloadsSubdir))
	if err != nil && !os.IsNotExist(err) {
		return nil, pkgerrors.Wrap(err, "failed to inspect download cache")
	}
	info.DownloadSize = size
	info.DownloadFiles = files

	return info, nil
}

// Clean removes all cached downloads and reports the bytes freed.
func (m *DefaultManager) Clean() (*CleanResult, error) {
	if m.directory == "" {
		return nil, ErrCacheDirectory
	}

	dir := filepath.Join(m.directory, DownloadsSubdir)
	size, _, err := dirSizeAndFiles(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return &CleanResult{}, nil
		}
		return nil, pkgerrors.Wrapf(err, "failed to inspect %s", dir)
	}

	if err := os.RemoveAll(dir); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to remove %s", dir)
	}
	return &CleanResult{Freed: size}, nil
}

func dirSizeAndFiles(dir string) (int64, int, error) {
	var size int64
	var files int

	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
			files++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return size, files, nil
}
