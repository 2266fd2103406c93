//go:build integration

package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moddex/moddexup/pkg/bundle"
)

// releaseFixture serves a fake GitHub releases host: the latest-release
// redirect plus download URLs for one bundle and its checksum manifest.
type releaseFixture struct {
	Server       *httptest.Server
	Version      string
	ArtifactName string
	Digest       string

	// CorruptManifest serves a manifest whose digest does not match.
	CorruptManifest bool
	// OmitManifest 404s every manifest candidate.
	OmitManifest bool
}

// buildBundleArchive packs a minimal install bundle and returns its bytes.
func buildBundleArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	srcDir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(srcDir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
	}

	archivePath := filepath.Join(t.TempDir(), "bundle.tar.gz")
	require.NoError(t, bundle.NewMaterializer().Pack(context.Background(), srcDir, archivePath))

	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	return data
}

func defaultBundleFiles() map[string]string {
	return map[string]string{
		"scripts/install.sh":   "#!/bin/sh\ntouch \"$(dirname \"$0\")/installer-ran\"\nexit 0\n",
		"scripts/uninstall.sh": "#!/bin/sh\nexit 0\n",
		"lib/moddex.bin":       "payload",
	}
}

// startReleaseServer serves the given bundle as the release for version.
func startReleaseServer(t *testing.T, version string, archive []byte) *releaseFixture {
	t.Helper()

	artifactName := fmt.Sprintf("moddex-%s-linux-amd64.tar.gz", version)
	sum := sha256.Sum256(archive)
	digest := hex.EncodeToString(sum[:])

	fixture := &releaseFixture{
		Version:      version,
		ArtifactName: artifactName,
		Digest:       digest,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/moddex/moddex/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", fixture.Server.URL+"/moddex/moddex/releases/tag/"+version)
		w.WriteHeader(http.StatusFound)
	})
	downloadBase := "/moddex/moddex/releases/download/" + version + "/"
	mux.HandleFunc(downloadBase+artifactName, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	mux.HandleFunc(downloadBase+artifactName+".sha256", func(w http.ResponseWriter, r *http.Request) {
		if fixture.OmitManifest {
			http.NotFound(w, r)
			return
		}
		served := digest
		if fixture.CorruptManifest {
			served = flipHexChar(digest)
		}
		fmt.Fprintf(w, "%s  %s\n", served, artifactName)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	fixture.Server = httptest.NewServer(mux)
	t.Cleanup(fixture.Server.Close)

	t.Setenv("MODDEXUP_BASE_URL", fixture.Server.URL)
	return fixture
}

func flipHexChar(digest string) string {
	out := []byte(digest)
	if out[0] == 'a' {
		out[0] = 'b'
	} else {
		out[0] = 'a'
	}
	return string(out)
}

// writeTempConfig writes a config file pointing at the fixture defaults.
func writeTempConfig(t *testing.T, dir, installDir string) string {
	t.Helper()

	cacheDir := filepath.Join(dir, "cache")
	content := fmt.Sprintf(`release:
  owner: moddex
  repo: moddex
  asset_suffix: linux-amd64.tar.gz
  strategy: redirect
install:
  dir: %s
  auto_run: false
  checksum_policy: strict
settings:
  cache_dir: %s
  log_level: info
`, installDir, cacheDir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// runCommand executes the CLI with args and returns captured stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	cmd := newRootCmd()
	cmd.SetArgs(args)
	execErr := cmd.ExecuteContext(context.Background())

	_ = w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String(), execErr
}
