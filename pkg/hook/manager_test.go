package hook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/moddex/moddexup/pkg/errors"
)

func TestManagerExecuteNoHookRegistered(t *testing.T) {
	m := NewManager()
	assert.NoError(t, m.Execute(PreInstall, Context{}))
}

func TestManagerAddAndExecute(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.AddHook(Hook{
		Type:    PreInstall,
		Content: `x := repo + "@" + version`,
	}))

	assert.True(t, m.HasHook(PreInstall))
	assert.False(t, m.HasHook(PostInstall))

	err := m.Execute(PreInstall, Context{Repo: "moddex", Version: "v1.2.3"})
	assert.NoError(t, err)
}

func TestManagerScriptSignalsError(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.AddHook(Hook{
		Type:    PostVerify,
		Content: `err := "artifact rejected"`,
	}))

	err := m.Execute(PostVerify, Context{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrHookScript)
	assert.Contains(t, err.Error(), "artifact rejected")
}

func TestManagerScriptEmptyErrIsSuccess(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.AddHook(Hook{
		Type:    PostInstall,
		Content: `err := ""`,
	}))

	assert.NoError(t, m.Execute(PostInstall, Context{}))
}

func TestManagerInvalidScript(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.AddHook(Hook{
		Type:    PreInstall,
		Content: `this is not tengo (`,
	}))

	err := m.Execute(PreInstall, Context{})
	assert.ErrorIs(t, err, pkgerrors.ErrHookExecution)
}

func TestManagerContextVariables(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.AddHook(Hook{
		Type: PostInstall,
		Content: `
err := ""
if version != "v1.2.3" {
	err = "unexpected version: " + version
}
if installDir == "" {
	err = "installDir not set"
}
`,
	}))

	err := m.Execute(PostInstall, Context{
		Repo:       "moddex",
		Version:    "v1.2.3",
		InstallDir: "/opt/moddex",
	})
	assert.NoError(t, err)
}

func TestManagerAddHookEmptyType(t *testing.T) {
	m := NewManager()
	assert.ErrorIs(t, m.AddHook(Hook{Content: "x := 1"}), pkgerrors.ErrHookTypeEmpty)
	assert.ErrorIs(t, m.RemoveHook(""), pkgerrors.ErrHookTypeEmpty)
}

func TestManagerRemoveHook(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.AddHook(Hook{Type: PreInstall, Content: "x := 1"}))
	require.True(t, m.HasHook(PreInstall))

	require.NoError(t, m.RemoveHook(PreInstall))
	assert.False(t, m.HasHook(PreInstall))
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pre-install.tengo"), []byte(`x := 1`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "post-install.tengo"), []byte(`x := 2`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unknown-type.tengo"), []byte(`x := 3`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`skip me`), 0o644))

	m := NewManager()
	require.NoError(t, LoadFromDir(m, dir))

	assert.True(t, m.HasHook(PreInstall))
	assert.True(t, m.HasHook(PostInstall))
	assert.False(t, m.HasHook(PostVerify))
	assert.False(t, m.HasHook(Type("unknown-type")))
}

func TestLoadFromDirMissingDirectory(t *testing.T) {
	m := NewManager()
	assert.NoError(t, LoadFromDir(m, filepath.Join(t.TempDir(), "absent")))
	assert.False(t, m.HasHook(PreInstall))
}
