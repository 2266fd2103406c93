//go:generate mockgen -destination=./mocks/orchestrator.go -package=mocks . VersionResolver,Downloader,ArtifactVerifier,BundleMaterializer

// Package orchestrator runs the acquisition pipeline: resolve a release,
// locate its assets, download, verify, materialize, and produce a handoff
// intent for the installer entry point.
package orchestrator

import (
	"context"
	"net/url"

	"github.com/moddex/moddexup/pkg/download"
	"github.com/moddex/moddexup/pkg/hook"
	"github.com/moddex/moddexup/pkg/release"
	"github.com/moddex/moddexup/pkg/verify"
)

// VersionResolver is the subset of the release resolver used by the pipeline.
type VersionResolver interface {
	ResolveVersion(ctx context.Context, req release.ResolveRequest) (string, error)
}

// Downloader handles artifact and manifest retrieval.
type Downloader interface {
	Fetch(ctx context.Context, item download.Item, opts download.Options) (string, error)
	FetchBytes(ctx context.Context, u *url.URL) ([]byte, error)
}

// ArtifactVerifier gates extraction on checksum verification.
type ArtifactVerifier interface {
	Verify(artifactPath, artifactName string, manifest []byte) error
}

// BundleMaterializer extracts a verified archive and finds its entry point.
type BundleMaterializer interface {
	Materialize(ctx context.Context, archivePath, targetDir string, replace bool) (string, error)
}

// HookRunner runs user hooks at pipeline points. Nil disables hooks.
type HookRunner interface {
	Execute(hookType hook.Type, ctx hook.Context) error
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // resolving|locating|downloading|verifying|materializing|done|error
	ID    string // asset or step identifier
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// InstallOptions control a pipeline run.
type InstallOptions struct {
	// Version pins a release tag; empty means resolve the latest.
	Version    string
	Strategy   string
	MinVersion string

	InstallDir string
	// Replace allows wiping a non-empty install directory.
	Replace bool

	ChecksumPolicy verify.Policy

	// WorkDir, when set, is the parent for the run's temporary directory.
	// Empty uses the system default.
	WorkDir string
}

// FetchOptions control a resolve+download+verify run without materialization.
type FetchOptions struct {
	Version    string
	Strategy   string
	MinVersion string

	// OutputDir receives the verified artifact.
	OutputDir string

	ChecksumPolicy verify.Policy
}
