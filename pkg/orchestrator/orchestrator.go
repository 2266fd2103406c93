package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/moddex/moddexup/internal/logger"
	"github.com/moddex/moddexup/pkg/bundle"
	"github.com/moddex/moddexup/pkg/download"
	pkgerrors "github.com/moddex/moddexup/pkg/errors"
	"github.com/moddex/moddexup/pkg/hook"
	"github.com/moddex/moddexup/pkg/model"
	"github.com/moddex/moddexup/pkg/release"
	"github.com/moddex/moddexup/pkg/verify"
)

// Orchestrator ties the resolver, locator, downloader, verifier and
// materializer together. Stages run sequentially; any stage error aborts the
// pipeline. All transient state lives under a per-run temporary directory
// that is removed on every exit path.
type Orchestrator struct {
	Resolver     VersionResolver
	Locator      release.Locator
	DL           Downloader
	Verifier     ArtifactVerifier
	Materializer BundleMaterializer
	HookManager  HookRunner // optional
	Hooks        Hooks
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// Install runs the full pipeline and returns the handoff intent for the
// installer entry point. The caller decides whether and how to execute it.
func (o *Orchestrator) Install(ctx context.Context, opts InstallOptions) (*model.Handoff, error) {
	if err := o.checkWiring(); err != nil {
		return nil, err
	}
	if o.Materializer == nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrNotConfigured, "bundle materializer is not configured")
	}
	if !filepath.IsAbs(opts.InstallDir) {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrInvalidPath, "install dir %q must be absolute", opts.InstallDir)
	}

	version, artifact, err := o.resolveAndLocate(ctx, opts.Version, opts.Strategy, opts.MinVersion)
	if err != nil {
		return nil, o.fail(err)
	}

	if err := o.runHook(hook.PreInstall, hook.Context{
		Repo:       o.Locator.Repo,
		Version:    version,
		InstallDir: opts.InstallDir,
	}); err != nil {
		return nil, o.fail(err)
	}

	tmpDir, err := os.MkdirTemp(opts.WorkDir, "moddexup-*")
	if err != nil {
		return nil, o.fail(pkgerrors.Wrap(err, "creating work directory"))
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	artifactPath, err := o.acquire(ctx, version, artifact, tmpDir, opts.ChecksumPolicy)
	if err != nil {
		return nil, o.fail(err)
	}

	emit(o.Hooks, Event{Phase: "materializing", ID: artifact.Filename, Msg: opts.InstallDir})
	entry, err := o.Materializer.Materialize(ctx, artifactPath, opts.InstallDir, opts.Replace)
	if err != nil {
		return nil, o.fail(err)
	}

	if err := o.runHook(hook.PostInstall, hook.Context{
		Repo:         o.Locator.Repo,
		Version:      version,
		ArtifactPath: artifactPath,
		InstallDir:   opts.InstallDir,
	}); err != nil {
		return nil, o.fail(err)
	}

	emit(o.Hooks, Event{Phase: "done", ID: artifact.Filename, Msg: version})
	return &model.Handoff{
		Path:      entry,
		Dir:       filepath.Dir(entry),
		NeedsRoot: true,
	}, nil
}

// Fetch resolves, downloads and verifies the artifact, leaving the verified
// file in opts.OutputDir. No extraction happens.
func (o *Orchestrator) Fetch(ctx context.Context, opts FetchOptions) (string, error) {
	if err := o.checkWiring(); err != nil {
		return "", err
	}
	if !filepath.IsAbs(opts.OutputDir) {
		return "", pkgerrors.Wrapf(pkgerrors.ErrInvalidPath, "output dir %q must be absolute", opts.OutputDir)
	}

	version, artifact, err := o.resolveAndLocate(ctx, opts.Version, opts.Strategy, opts.MinVersion)
	if err != nil {
		return "", o.fail(err)
	}

	path, err := o.acquire(ctx, version, artifact, opts.OutputDir, opts.ChecksumPolicy)
	if err != nil {
		return "", o.fail(err)
	}

	emit(o.Hooks, Event{Phase: "done", ID: artifact.Filename, Msg: version})
	return path, nil
}

// Resolve returns the release tag the pipeline would fetch.
func (o *Orchestrator) Resolve(ctx context.Context, pinned, strategy, minVersion string) (string, error) {
	if o.Resolver == nil {
		return "", pkgerrors.Wrap(pkgerrors.ErrNotConfigured, "version resolver is not configured")
	}
	emit(o.Hooks, Event{Phase: "resolving", Msg: pinned})
	version, err := o.Resolver.ResolveVersion(ctx, release.ResolveRequest{
		Owner:      o.Locator.Owner,
		Repo:       o.Locator.Repo,
		Pinned:     pinned,
		Strategy:   strategy,
		MinVersion: minVersion,
	})
	if err != nil {
		return "", o.fail(err)
	}
	return version, nil
}

// Uninstall locates the uninstall script of an existing installation and
// returns the handoff intent for it.
func (o *Orchestrator) Uninstall(installDir string) (*model.Handoff, error) {
	if !filepath.IsAbs(installDir) {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrInvalidPath, "install dir %q must be absolute", installDir)
	}
	if _, err := os.Stat(installDir); err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.Wrapf(pkgerrors.ErrNotInstalled, "%s", installDir)
		}
		return nil, pkgerrors.Wrapf(err, "inspecting %s", installDir)
	}

	script, err := bundle.FindUninstallScript(installDir)
	if err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrHandoffMissing, "no uninstall script in %s", installDir)
	}

	if err := o.runHook(hook.PostUninstall, hook.Context{
		Repo:       o.Locator.Repo,
		InstallDir: installDir,
	}); err != nil {
		return nil, o.fail(err)
	}

	return &model.Handoff{
		Path:      script,
		Dir:       filepath.Dir(script),
		NeedsRoot: true,
	}, nil
}

func (o *Orchestrator) checkWiring() error {
	switch {
	case o.Resolver == nil:
		return pkgerrors.Wrap(pkgerrors.ErrNotConfigured, "version resolver is not configured")
	case o.DL == nil:
		return pkgerrors.Wrap(pkgerrors.ErrNotConfigured, "download manager is not configured")
	case o.Verifier == nil:
		return pkgerrors.Wrap(pkgerrors.ErrNotConfigured, "artifact verifier is not configured")
	}
	return nil
}

func (o *Orchestrator) resolveAndLocate(ctx context.Context, pinned, strategy, minVersion string) (string, model.AssetRef, error) {
	emit(o.Hooks, Event{Phase: "resolving", Msg: pinned})
	version, err := o.Resolver.ResolveVersion(ctx, release.ResolveRequest{
		Owner:      o.Locator.Owner,
		Repo:       o.Locator.Repo,
		Pinned:     pinned,
		Strategy:   strategy,
		MinVersion: minVersion,
	})
	if err != nil {
		return "", model.AssetRef{}, err
	}

	emit(o.Hooks, Event{Phase: "locating", Msg: version})
	artifact, err := o.Locator.ArtifactRef(version)
	if err != nil {
		return "", model.AssetRef{}, err
	}
	return version, artifact, nil
}

// acquire downloads the artifact into dir and runs checksum verification.
// The verifier is the sole gate before the artifact may be used.
func (o *Orchestrator) acquire(ctx context.Context, version string, artifact model.AssetRef, dir string, policy verify.Policy) (string, error) {
	emit(o.Hooks, Event{Phase: "downloading", ID: artifact.Filename, Msg: artifact.URL.String()})
	artifactPath, err := o.DL.Fetch(ctx, download.Item{
		ID:       artifact.Filename,
		URL:      artifact.URL,
		Filename: artifact.Filename,
	}, download.Options{Dir: dir})
	if err != nil {
		return "", err
	}

	emit(o.Hooks, Event{Phase: "verifying", ID: artifact.Filename})
	manifest, err := o.fetchManifest(ctx, version)
	if err != nil {
		// Lenient policy only downgrades manifest unavailability. A located
		// manifest that fails verification is always fatal.
		if policy == verify.PolicyLenient && errors.Is(err, pkgerrors.ErrManifestUnavailable) {
			logger.Warn("no checksum manifest available, proceeding unverified", logger.Fields{
				"artifact": artifact.Filename,
				"version":  version,
			})
		} else {
			_ = os.Remove(artifactPath)
			return "", err
		}
	} else {
		if err := o.Verifier.Verify(artifactPath, artifact.Filename, manifest); err != nil {
			// The unverified file must not stay where a later run could
			// mistake it for a vetted download.
			_ = os.Remove(artifactPath)
			return "", err
		}
	}

	if err := o.runHook(hook.PostVerify, hook.Context{
		Repo:         o.Locator.Repo,
		Version:      version,
		ArtifactPath: artifactPath,
	}); err != nil {
		return "", err
	}
	return artifactPath, nil
}

// fetchManifest probes the manifest candidates in order and returns the first
// one that downloads. Exhausting all candidates is reported as manifest
// unavailability; the caller applies the checksum policy.
func (o *Orchestrator) fetchManifest(ctx context.Context, version string) ([]byte, error) {
	refs, err := o.Locator.ManifestRefs(version)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, ref := range refs {
		content, err := o.DL.FetchBytes(ctx, ref.URL)
		if err == nil {
			logger.Debug("checksum manifest located", logger.Fields{"manifest": ref.Filename})
			return content, nil
		}
		lastErr = err
	}
	return nil, pkgerrors.Wrapf(pkgerrors.ErrManifestUnavailable, "no manifest candidate for %s: %v", version, lastErr)
}

func (o *Orchestrator) runHook(hookType hook.Type, ctx hook.Context) error {
	if o.HookManager == nil {
		return nil
	}
	return o.HookManager.Execute(hookType, ctx)
}

func (o *Orchestrator) fail(err error) error {
	emit(o.Hooks, Event{Phase: "error", Msg: err.Error()})
	return err
}
