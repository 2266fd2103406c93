//go:build integration

package main

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstall_PinnedVersionFullPipeline(t *testing.T) {
	tempDir := t.TempDir()
	archive := buildBundleArchive(t, defaultBundleFiles())
	startReleaseServer(t, "v1.2.3", archive)

	installDir := filepath.Join(tempDir, "moddex")
	cfgPath := writeTempConfig(t, tempDir, installDir)

	_, err := runCommand(t, "--config", cfgPath, "install", "--version", "v1.2.3")
	require.NoError(t, err)

	entry := filepath.Join(installDir, "scripts", "install.sh")
	info, err := os.Stat(entry)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o111, "entry point must be executable")
	assert.FileExists(t, filepath.Join(installDir, "lib", "moddex.bin"))

	// auto_run is false: the installer itself must not have run.
	assert.NoFileExists(t, filepath.Join(installDir, "scripts", "installer-ran"))
}

func TestInstall_ResolvesLatestViaRedirect(t *testing.T) {
	tempDir := t.TempDir()
	archive := buildBundleArchive(t, defaultBundleFiles())
	startReleaseServer(t, "v2.0.0", archive)

	installDir := filepath.Join(tempDir, "moddex")
	cfgPath := writeTempConfig(t, tempDir, installDir)

	// No --version: the redirect target decides.
	_, err := runCommand(t, "--config", cfgPath, "install")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(installDir, "scripts", "install.sh"))
}

func TestInstall_ChecksumMismatchFails(t *testing.T) {
	tempDir := t.TempDir()
	archive := buildBundleArchive(t, defaultBundleFiles())
	fixture := startReleaseServer(t, "v1.2.3", archive)
	fixture.CorruptManifest = true

	installDir := filepath.Join(tempDir, "moddex")
	cfgPath := writeTempConfig(t, tempDir, installDir)

	_, err := runCommand(t, "--config", cfgPath, "install", "--version", "v1.2.3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")

	// The failed pipeline must not have materialized anything.
	assert.NoDirExists(t, installDir)
}

func TestInstall_MissingManifestStrictFails(t *testing.T) {
	tempDir := t.TempDir()
	archive := buildBundleArchive(t, defaultBundleFiles())
	fixture := startReleaseServer(t, "v1.2.3", archive)
	fixture.OmitManifest = true

	installDir := filepath.Join(tempDir, "moddex")
	cfgPath := writeTempConfig(t, tempDir, installDir)

	_, err := runCommand(t, "--config", cfgPath, "install", "--version", "v1.2.3")
	require.Error(t, err)
	assert.NoDirExists(t, installDir)
}

func TestInstall_MissingManifestLenientProceeds(t *testing.T) {
	tempDir := t.TempDir()
	archive := buildBundleArchive(t, defaultBundleFiles())
	fixture := startReleaseServer(t, "v1.2.3", archive)
	fixture.OmitManifest = true

	installDir := filepath.Join(tempDir, "moddex")
	cfgPath := writeTempConfig(t, tempDir, installDir)

	_, err := runCommand(t, "--config", cfgPath, "install", "--version", "v1.2.3", "--lenient-checksum")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(installDir, "scripts", "install.sh"))
}

func TestInstall_NonEmptyTargetNeedsForce(t *testing.T) {
	tempDir := t.TempDir()
	archive := buildBundleArchive(t, defaultBundleFiles())
	startReleaseServer(t, "v1.2.3", archive)

	installDir := filepath.Join(tempDir, "moddex")
	require.NoError(t, os.MkdirAll(installDir, 0o755))
	stale := filepath.Join(installDir, "stale")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	cfgPath := writeTempConfig(t, tempDir, installDir)

	_, err := runCommand(t, "--config", cfgPath, "install", "--version", "v1.2.3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not empty")

	// With --force the target is replaced wholesale.
	_, err = runCommand(t, "--config", cfgPath, "install", "--version", "v1.2.3", "--force")
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(installDir, "scripts", "install.sh"))
}

func TestInstall_ForceIsIdempotent(t *testing.T) {
	tempDir := t.TempDir()
	archive := buildBundleArchive(t, defaultBundleFiles())
	startReleaseServer(t, "v1.2.3", archive)

	installDir := filepath.Join(tempDir, "moddex")
	cfgPath := writeTempConfig(t, tempDir, installDir)

	for i := 0; i < 2; i++ {
		_, err := runCommand(t, "--config", cfgPath, "install", "--version", "v1.2.3", "--force")
		require.NoError(t, err)
	}
	assert.FileExists(t, filepath.Join(installDir, "scripts", "install.sh"))
}

func TestInstall_RunExecutesInstaller(t *testing.T) {
	tempDir := t.TempDir()
	archive := buildBundleArchive(t, defaultBundleFiles())
	startReleaseServer(t, "v1.2.3", archive)

	installDir := filepath.Join(tempDir, "moddex")
	cfgPath := writeTempConfig(t, tempDir, installDir)

	_, err := runCommand(t, "--config", cfgPath, "install", "--version", "v1.2.3", "--run")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(installDir, "scripts", "installer-ran"))
}

func TestResolve_PrintsRedirectTarget(t *testing.T) {
	tempDir := t.TempDir()
	archive := buildBundleArchive(t, defaultBundleFiles())
	startReleaseServer(t, "v2.0.0", archive)

	cfgPath := writeTempConfig(t, tempDir, filepath.Join(tempDir, "moddex"))

	out, err := runCommand(t, "--config", cfgPath, "resolve")
	require.NoError(t, err)
	// Progress events precede the result; the version is the last line.
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "v2.0.0"), "output: %q", out)
}

func TestFetch_LeavesVerifiedArtifact(t *testing.T) {
	tempDir := t.TempDir()
	archive := buildBundleArchive(t, defaultBundleFiles())
	fixture := startReleaseServer(t, "v1.2.3", archive)

	cfgPath := writeTempConfig(t, tempDir, filepath.Join(tempDir, "moddex"))
	outputDir := filepath.Join(tempDir, "out")

	_, err := runCommand(t, "--config", cfgPath, "fetch", "--version", "v1.2.3", "-O", outputDir)
	require.NoError(t, err)

	artifactPath := filepath.Join(outputDir, fixture.ArtifactName)
	data, err := os.ReadFile(artifactPath)
	require.NoError(t, err)

	sum := sha256.Sum256(data)
	assert.Equal(t, fixture.Digest, hex.EncodeToString(sum[:]))
}

func TestUninstall_RunsBundleScript(t *testing.T) {
	tempDir := t.TempDir()
	archive := buildBundleArchive(t, map[string]string{
		"scripts/install.sh":   "#!/bin/sh\nexit 0\n",
		"scripts/uninstall.sh": "#!/bin/sh\ntouch \"$(dirname \"$0\")/uninstaller-ran\"\nexit 0\n",
	})
	startReleaseServer(t, "v1.2.3", archive)

	installDir := filepath.Join(tempDir, "moddex")
	cfgPath := writeTempConfig(t, tempDir, installDir)

	_, err := runCommand(t, "--config", cfgPath, "install", "--version", "v1.2.3")
	require.NoError(t, err)

	_, err = runCommand(t, "--config", cfgPath, "uninstall", "--run")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(installDir, "scripts", "uninstaller-ran"))
}

func TestConfig_InitShowGetSet(t *testing.T) {
	tempDir := t.TempDir()
	cfgPath := filepath.Join(tempDir, "config.yaml")

	_, err := runCommand(t, "--config", cfgPath, "config", "init")
	require.NoError(t, err)
	require.FileExists(t, cfgPath)

	out, err := runCommand(t, "--config", cfgPath, "config", "get", "release.owner")
	require.NoError(t, err)
	assert.Equal(t, "moddex", strings.TrimSpace(out))

	_, err = runCommand(t, "--config", cfgPath, "config", "set", "release.version", "v1.2.3")
	require.NoError(t, err)

	out, err = runCommand(t, "--config", cfgPath, "config", "get", "release.version")
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", strings.TrimSpace(out))

	out, err = runCommand(t, "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "release.owner")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "moddexup version")
}
