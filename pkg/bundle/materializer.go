// Package bundle turns a verified release archive into an installed tree and
// locates the installer entry points shipped inside it.
package bundle

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/moddex/moddexup/internal/logger"
	pkgerrors "github.com/moddex/moddexup/pkg/errors"
	"github.com/moddex/moddexup/pkg/fsutil"
)

const (
	scriptsDirName  = "scripts"
	installScript   = "install.sh"
	uninstallScript = "uninstall.sh"

	// maxScriptDepth bounds the entry-point search: the scripts directory may
	// sit at most this many directory levels below the bundle root.
	maxScriptDepth = 4
)

// Materializer extracts release bundles and discovers their entry points.
type Materializer struct{}

// NewMaterializer creates a new Materializer instance.
func NewMaterializer() *Materializer {
	return &Materializer{}
}

// Materialize extracts the archive at archivePath into targetDir and returns
// the absolute path of the installer entry point, made executable.
//
// A non-empty existing target is refused unless replace is set, in which case
// the directory is removed wholesale and recreated. Merging into existing
// content is never done.
func (m *Materializer) Materialize(ctx context.Context, archivePath, targetDir string, replace bool) (string, error) {
	if err := m.prepareTarget(targetDir, replace); err != nil {
		return "", err
	}

	if err := m.ExtractAll(ctx, archivePath, targetDir); err != nil {
		return "", err
	}

	entry, err := FindEntryPoint(targetDir)
	if err != nil {
		return "", err
	}
	if err := fsutil.MakeExecutable(entry); err != nil {
		return "", err
	}

	logger.Debug("bundle materialized", logger.Fields{
		"target": targetDir,
		"entry":  entry,
	})
	return entry, nil
}

func (m *Materializer) prepareTarget(targetDir string, replace bool) error {
	empty, err := fsutil.IsDirEmpty(targetDir)
	if err != nil {
		return pkgerrors.Wrapf(err, "inspecting target %s", targetDir)
	}
	if !empty {
		if !replace {
			return pkgerrors.Wrapf(pkgerrors.ErrTargetNotEmpty, "%s", targetDir)
		}
		if err := os.RemoveAll(targetDir); err != nil {
			return pkgerrors.Wrapf(err, "removing existing target %s", targetDir)
		}
	}
	return fsutil.EnsureDir(targetDir)
}

// ExtractAll extracts every entry of the archive at archivePath into destDir,
// preserving file modes and symlinks.
func (m *Materializer) ExtractAll(ctx context.Context, archivePath, destDir string) error {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return pkgerrors.Wrapf(err, "opening archive %s", archivePath)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	if err := fsutil.EnsureDir(destDir); err != nil {
		return err
	}

	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		return m.extractEntry(fsys, path, destDir, d)
	})
}

// Pack archives the contents of sourceDir as tar.gz at archivePath. Used to
// build bundles for local testing of the pipeline.
func (m *Materializer) Pack(ctx context.Context, sourceDir, archivePath string) error {
	absolute, err := filepath.Abs(sourceDir)
	if err != nil {
		return pkgerrors.Wrap(err, "resolving source directory")
	}

	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		absolute + string(os.PathSeparator): "",
	})
	if err != nil {
		return pkgerrors.Wrap(err, "reading source files")
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return pkgerrors.Wrapf(err, "creating archive %s", archivePath)
	}
	defer func() {
		_ = out.Sync()
		_ = out.Close()
	}()

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}
	if err := format.Archive(ctx, out, files); err != nil {
		return pkgerrors.Wrap(err, "writing archive")
	}
	return nil
}

// FindEntryPoint returns the installer script inside an extracted bundle. The
// conventional location scripts/install.sh at the root is checked first; when
// absent, a bounded-depth walk accepts the first scripts/install.sh found.
func FindEntryPoint(root string) (string, error) {
	return findScript(root, installScript, pkgerrors.ErrEntryPointNotFound)
}

// FindUninstallScript locates scripts/uninstall.sh with the same rules as
// FindEntryPoint.
func FindUninstallScript(root string) (string, error) {
	return findScript(root, uninstallScript, pkgerrors.ErrEntryPointNotFound)
}

func findScript(root, name string, notFound error) (string, error) {
	fixed := filepath.Join(root, scriptsDirName, name)
	if fsutil.FileExists(fixed) {
		return fixed, nil
	}

	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		depth := len(strings.Split(rel, string(filepath.Separator)))
		if d.IsDir() {
			if depth > maxScriptDepth {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() == name && filepath.Base(filepath.Dir(path)) == scriptsDirName {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", pkgerrors.Wrapf(err, "searching %s for %s", root, name)
	}
	if found == "" {
		return "", pkgerrors.Wrapf(notFound, "no %s/%s within %d levels of %s", scriptsDirName, name, maxScriptDepth, root)
	}
	return found, nil
}

// extractEntry processes a single archive entry and writes it under destDir.
func (m *Materializer) extractEntry(fsys fs.FS, path, destDir string, d fs.DirEntry) error {
	if path == "." {
		return nil
	}

	targetPath := filepath.Join(destDir, path)

	if d.IsDir() {
		return os.MkdirAll(targetPath, fsutil.DirModeDefault)
	}

	info, err := d.Info()
	if err != nil {
		return pkgerrors.Wrapf(err, "reading entry info for %s", path)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return m.writeSymlink(fsys, path, targetPath)
	}
	return m.writeRegularFile(fsys, path, targetPath, info)
}

// writeSymlink creates a symlink at targetPath whose target is the content of
// the archive entry at path.
func (m *Materializer) writeSymlink(fsys fs.FS, path, targetPath string) error {
	src, err := fsys.Open(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "reading symlink %s", path)
	}
	defer func() { _ = src.Close() }()

	target, err := io.ReadAll(src)
	if err != nil {
		return pkgerrors.Wrapf(err, "reading symlink target of %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), fsutil.DirModeDefault); err != nil {
		return pkgerrors.Wrapf(err, "creating parent directory for %s", path)
	}
	_ = os.Remove(targetPath)

	return os.Symlink(string(target), targetPath)
}

// writeRegularFile writes a regular file from the archive preserving its mode
// and modification time.
func (m *Materializer) writeRegularFile(fsys fs.FS, path, targetPath string, info fs.FileInfo) error {
	src, err := fsys.Open(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "opening entry %s", path)
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(filepath.Dir(targetPath), fsutil.DirModeDefault); err != nil {
		return pkgerrors.Wrapf(err, "creating parent directory for %s", path)
	}

	dst, err := fsutil.CreateFilePerm(targetPath, info.Mode().Perm())
	if err != nil {
		return pkgerrors.Wrapf(err, "creating %s", targetPath)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return pkgerrors.Wrapf(err, "writing %s", targetPath)
	}
	if err := os.Chmod(targetPath, info.Mode().Perm()); err != nil {
		return pkgerrors.Wrapf(err, "setting mode on %s", targetPath)
	}
	if err := os.Chtimes(targetPath, info.ModTime(), info.ModTime()); err != nil {
		return pkgerrors.Wrapf(err, "setting times on %s", targetPath)
	}
	return nil
}
