package bundle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/moddex/moddexup/pkg/errors"
)

// buildBundle packs the given relative-path -> content files into a tar.gz
// archive and returns its path.
func buildBundle(t *testing.T, files map[string]string) string {
	t.Helper()

	srcDir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(srcDir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	archivePath := filepath.Join(t.TempDir(), "moddex-v1.2.3-linux-amd64.tar.gz")
	require.NoError(t, NewMaterializer().Pack(context.Background(), srcDir, archivePath))
	return archivePath
}

func TestMaterializeConventionalLayout(t *testing.T) {
	archive := buildBundle(t, map[string]string{
		"scripts/install.sh":   "#!/bin/sh\nexit 0\n",
		"scripts/uninstall.sh": "#!/bin/sh\nexit 0\n",
		"lib/moddex.bin":       "payload",
	})
	target := filepath.Join(t.TempDir(), "install")

	entry, err := NewMaterializer().Materialize(context.Background(), archive, target, false)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(target, "scripts", "install.sh"), entry)

	info, err := os.Stat(entry)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o111, "entry point must be executable")

	content, err := os.ReadFile(filepath.Join(target, "lib", "moddex.bin"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
}

func TestMaterializeNestedEntryPoint(t *testing.T) {
	// Entry point three directory levels down, still within the search bound.
	archive := buildBundle(t, map[string]string{
		"dist/v1/scripts/install.sh": "#!/bin/sh\nexit 0\n",
		"dist/v1/README":             "doc",
	})
	target := filepath.Join(t.TempDir(), "install")

	entry, err := NewMaterializer().Materialize(context.Background(), archive, target, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(target, "dist", "v1", "scripts", "install.sh"), entry)
}

func TestMaterializeEntryPointTooDeep(t *testing.T) {
	archive := buildBundle(t, map[string]string{
		"a/b/c/d/e/scripts/install.sh": "#!/bin/sh\nexit 0\n",
	})
	target := filepath.Join(t.TempDir(), "install")

	_, err := NewMaterializer().Materialize(context.Background(), archive, target, false)
	assert.ErrorIs(t, err, pkgerrors.ErrEntryPointNotFound)
}

func TestMaterializeMissingEntryPoint(t *testing.T) {
	archive := buildBundle(t, map[string]string{
		"lib/moddex.bin": "payload",
	})
	target := filepath.Join(t.TempDir(), "install")

	_, err := NewMaterializer().Materialize(context.Background(), archive, target, false)
	assert.ErrorIs(t, err, pkgerrors.ErrEntryPointNotFound)
}

func TestMaterializeInstallShOutsideScriptsDirIgnored(t *testing.T) {
	// An install.sh not under a scripts/ directory is not an entry point.
	archive := buildBundle(t, map[string]string{
		"install.sh": "#!/bin/sh\nexit 0\n",
	})
	target := filepath.Join(t.TempDir(), "install")

	_, err := NewMaterializer().Materialize(context.Background(), archive, target, false)
	assert.ErrorIs(t, err, pkgerrors.ErrEntryPointNotFound)
}

func TestMaterializeRefusesNonEmptyTarget(t *testing.T) {
	archive := buildBundle(t, map[string]string{
		"scripts/install.sh": "#!/bin/sh\nexit 0\n",
	})
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "stale"), []byte("old"), 0o644))

	_, err := NewMaterializer().Materialize(context.Background(), archive, target, false)
	assert.ErrorIs(t, err, pkgerrors.ErrTargetNotEmpty)
}

func TestMaterializeReplaceWipesTarget(t *testing.T) {
	archive := buildBundle(t, map[string]string{
		"scripts/install.sh": "#!/bin/sh\nexit 0\n",
	})
	target := t.TempDir()
	stale := filepath.Join(target, "stale")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	entry, err := NewMaterializer().Materialize(context.Background(), archive, target, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(target, "scripts", "install.sh"), entry)

	// Replace never merges: prior content is gone.
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestMaterializeReplaceIdempotent(t *testing.T) {
	archive := buildBundle(t, map[string]string{
		"scripts/install.sh": "#!/bin/sh\nexit 0\n",
	})
	target := filepath.Join(t.TempDir(), "install")

	for i := 0; i < 2; i++ {
		entry, err := NewMaterializer().Materialize(context.Background(), archive, target, true)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(target, "scripts", "install.sh"), entry)
	}
}

func TestFindUninstallScript(t *testing.T) {
	archive := buildBundle(t, map[string]string{
		"scripts/install.sh":   "#!/bin/sh\nexit 0\n",
		"scripts/uninstall.sh": "#!/bin/sh\nexit 0\n",
	})
	target := filepath.Join(t.TempDir(), "install")

	_, err := NewMaterializer().Materialize(context.Background(), archive, target, false)
	require.NoError(t, err)

	script, err := FindUninstallScript(target)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(target, "scripts", "uninstall.sh"), script)

	_, err = FindUninstallScript(t.TempDir())
	assert.ErrorIs(t, err, pkgerrors.ErrEntryPointNotFound)
}
