// Package release determines which release to fetch and where its assets
// live. Version resolution supports a pinned tag, a redirect-based lookup of
// the latest release, and a releases-API lookup; asset URLs are pure
// functions of (owner, repo, version, suffix).
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/moddex/moddexup/internal/logger"
	"github.com/moddex/moddexup/pkg/auth"
	pkgerrors "github.com/moddex/moddexup/pkg/errors"
	"github.com/moddex/moddexup/pkg/model"
)

// Strategy names for latest-release discovery.
const (
	StrategyRedirect = "redirect"
	StrategyAPI      = "api"
)

// VersionResolver determines the release tag the pipeline should fetch.
type VersionResolver interface {
	ResolveVersion(ctx context.Context, req ResolveRequest) (string, error)
}

// ResolveRequest describes what the caller wants resolved.
type ResolveRequest struct {
	Owner string
	Repo  string
	// Pinned, when non-empty, is returned verbatim with no network call.
	Pinned string
	// Strategy selects latest-release discovery when Pinned is empty.
	Strategy string
	// MinVersion, when non-empty, rejects resolved tags older than it.
	MinVersion string
}

// Resolver is the HTTP implementation of VersionResolver.
type Resolver struct {
	client    *http.Client
	noFollow  *http.Client
	userAgent string
	authn     auth.Authenticator

	// BaseURL and APIBaseURL default to the public GitHub endpoints and are
	// overridable for GitHub Enterprise hosts and for tests.
	BaseURL    string
	APIBaseURL string
}

// NewResolver creates a resolver with the given timeout and user agent.
// A nil authenticator sends unauthenticated requests.
func NewResolver(timeout time.Duration, userAgent string, authn auth.Authenticator) *Resolver {
	if userAgent == "" {
		userAgent = "moddexup/1.0"
	}
	return &Resolver{
		client: &http.Client{Timeout: timeout},
		noFollow: &http.Client{
			Timeout: timeout,
			// The redirect strategy needs the Location header, not the target.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent:  userAgent,
		authn:      authn,
		BaseURL:    "https://github.com",
		APIBaseURL: "https://api.github.com",
	}
}

// ResolveVersion resolves the release tag per the request. The returned tag
// is always used verbatim in URL construction: no normalization, no "v"
// prefix stripping, because asset names embed the tag as-is.
func (r *Resolver) ResolveVersion(ctx context.Context, req ResolveRequest) (string, error) {
	tag, err := r.resolveTag(ctx, req)
	if err != nil {
		return "", err
	}
	if err := checkMinVersion(tag, req.MinVersion); err != nil {
		return "", err
	}
	return tag, nil
}

func (r *Resolver) resolveTag(ctx context.Context, req ResolveRequest) (string, error) {
	if req.Pinned != "" {
		logger.Debug("using pinned version", logger.Fields{"version": req.Pinned})
		return req.Pinned, nil
	}
	switch req.Strategy {
	case StrategyRedirect, "":
		return r.resolveViaRedirect(ctx, req.Owner, req.Repo)
	case StrategyAPI:
		return r.resolveViaAPI(ctx, req.Owner, req.Repo)
	default:
		return "", pkgerrors.Wrapf(pkgerrors.ErrInvalidStrategy, "%q", req.Strategy)
	}
}

// resolveViaRedirect asks the latest-release endpoint for its redirect target
// and takes the tag from the final path segment after "/tag/".
func (r *Resolver) resolveViaRedirect(ctx context.Context, owner, repo string) (string, error) {
	latestURL := fmt.Sprintf("%s/%s/%s/releases/latest", r.BaseURL, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, latestURL, http.NoBody)
	if err != nil {
		return "", pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.noFollow.Do(req)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "latest-release lookup for %s/%s", owner, repo)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return "", pkgerrors.Wrapf(pkgerrors.ErrResolutionFailed,
			"expected redirect from %s, got status %d", latestURL, resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	tag, err := tagFromRedirect(location)
	if err != nil {
		return "", err
	}
	logger.Debug("resolved latest release via redirect", logger.Fields{"version": tag})
	return tag, nil
}

// tagFromRedirect extracts the release tag from a releases/tag redirect target.
func tagFromRedirect(location string) (string, error) {
	if location == "" {
		return "", pkgerrors.Wrap(pkgerrors.ErrResolutionFailed, "redirect without Location header")
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", pkgerrors.Wrapf(pkgerrors.ErrResolutionFailed, "unparseable redirect target %q", location)
	}
	// Operate on the escaped form so an encoded slash inside a tag does not
	// read as a path separator.
	escaped := u.EscapedPath()
	const marker = "/tag/"
	idx := strings.LastIndex(escaped, marker)
	if idx < 0 {
		return "", pkgerrors.Wrapf(pkgerrors.ErrResolutionFailed, "redirect target %q has no /tag/ segment", location)
	}
	tag := strings.Trim(escaped[idx+len(marker):], "/")
	if tag == "" || strings.Contains(tag, "/") {
		return "", pkgerrors.Wrapf(pkgerrors.ErrResolutionFailed, "redirect target %q has no tag", location)
	}
	if unescaped, err := url.PathUnescape(tag); err == nil {
		tag = unescaped
	}
	return tag, nil
}

// resolveViaAPI queries the releases API. The latest endpoint is preferred; a
// repo that only publishes prereleases 404s there, so the full listing is the
// fallback, picking the highest tag by version order.
func (r *Resolver) resolveViaAPI(ctx context.Context, owner, repo string) (string, error) {
	latest := fmt.Sprintf("%s/repos/%s/%s/releases/latest", r.APIBaseURL, owner, repo)

	var rel model.Release
	status, err := r.getJSON(ctx, latest, &rel)
	if err != nil {
		return "", err
	}
	switch {
	case status == http.StatusOK:
		if rel.TagName == "" {
			return "", pkgerrors.Wrapf(pkgerrors.ErrResolutionFailed, "empty tag_name for %s/%s", owner, repo)
		}
		logger.Debug("resolved latest release via API", logger.Fields{"version": rel.TagName})
		return rel.TagName, nil
	case status == http.StatusNotFound:
		return r.resolveFromListing(ctx, owner, repo)
	default:
		return "", pkgerrors.Wrapf(pkgerrors.ErrResolutionFailed, "releases API returned status %d", status)
	}
}

func (r *Resolver) resolveFromListing(ctx context.Context, owner, repo string) (string, error) {
	listing := fmt.Sprintf("%s/repos/%s/%s/releases", r.APIBaseURL, owner, repo)

	var releases []model.Release
	status, err := r.getJSON(ctx, listing, &releases)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", pkgerrors.Wrapf(pkgerrors.ErrResolutionFailed, "releases listing returned status %d", status)
	}

	var best *model.Release
	var bestVersion *version.Version
	for i := range releases {
		rel := &releases[i]
		if rel.Draft || rel.TagName == "" {
			continue
		}
		v := rel.GetVersion()
		if v == nil {
			continue
		}
		if bestVersion == nil || v.GreaterThan(bestVersion) {
			best, bestVersion = rel, v
		}
	}
	if best == nil {
		return "", pkgerrors.Wrapf(pkgerrors.ErrResolutionFailed, "no usable release for %s/%s", owner, repo)
	}
	logger.Debug("resolved latest release via listing", logger.Fields{"version": best.TagName})
	return best.TagName, nil
}

func (r *Resolver) getJSON(ctx context.Context, rawURL string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if r.authn != nil {
		if err := r.authn.Apply(req); err != nil {
			return 0, pkgerrors.Wrap(err, "applying authentication")
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "request to %s", rawURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, pkgerrors.Wrapf(pkgerrors.ErrResolutionFailed, "decoding %s: %v", rawURL, err)
	}
	return resp.StatusCode, nil
}

// checkMinVersion rejects tags older than the configured minimum. The check
// only applies when both sides parse as versions; a pinned exotic tag with no
// minimum configured passes through untouched.
func checkMinVersion(tag, minTag string) error {
	if minTag == "" {
		return nil
	}
	minV, err := version.NewVersion(minTag)
	if err != nil {
		return pkgerrors.Wrapf(pkgerrors.ErrConfigValidation, "min_version %q is not a version", minTag)
	}
	v, err := version.NewVersion(tag)
	if err != nil {
		return pkgerrors.Wrapf(pkgerrors.ErrVersionTooOld, "resolved tag %q cannot be compared to minimum %q", tag, minTag)
	}
	if v.LessThan(minV) {
		return pkgerrors.Wrapf(pkgerrors.ErrVersionTooOld, "resolved %s < minimum %s", tag, minTag)
	}
	return nil
}
