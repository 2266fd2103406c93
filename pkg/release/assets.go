package release

import (
	"fmt"
	"net/url"

	pkgerrors "github.com/moddex/moddexup/pkg/errors"
	"github.com/moddex/moddexup/pkg/model"
)

// Locator computes download URLs for a release's artifact and its checksum
// manifest candidates. It is a pure value: the same inputs always produce
// the same references.
type Locator struct {
	Owner  string
	Repo   string
	Suffix string
	// BaseURL defaults to the public GitHub download host when empty.
	BaseURL string
}

// ArtifactName returns the expected artifact filename for a version,
// following the bundle naming convention <repo>-<version>-<suffix>.
// The version tag is embedded verbatim.
func (l Locator) ArtifactName(version string) string {
	return fmt.Sprintf("%s-%s-%s", l.Repo, version, l.Suffix)
}

// ArtifactRef returns the download reference for the release artifact.
func (l Locator) ArtifactRef(version string) (model.AssetRef, error) {
	name := l.ArtifactName(version)
	u, err := l.downloadURL(version, name)
	if err != nil {
		return model.AssetRef{}, err
	}
	return model.AssetRef{URL: u, Filename: name}, nil
}

// ManifestRefs returns the checksum manifest candidates for a version in
// probe order: the per-artifact sibling file first, then the versioned
// repository-wide manifest, then the plain one.
func (l Locator) ManifestRefs(version string) ([]model.AssetRef, error) {
	names := []string{
		l.ArtifactName(version) + ".sha256",
		fmt.Sprintf("%s-%s-SHA256SUMS", l.Repo, version),
		"SHA256SUMS",
	}
	refs := make([]model.AssetRef, 0, len(names))
	for _, name := range names {
		u, err := l.downloadURL(version, name)
		if err != nil {
			return nil, err
		}
		refs = append(refs, model.AssetRef{URL: u, Filename: name})
	}
	return refs, nil
}

func (l Locator) downloadURL(version, filename string) (*url.URL, error) {
	base := l.BaseURL
	if base == "" {
		base = "https://github.com"
	}
	raw := fmt.Sprintf("%s/%s/%s/releases/download/%s/%s",
		base, l.Owner, l.Repo, url.PathEscape(version), url.PathEscape(filename))
	u, err := url.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrInvalidPath, "constructing download URL for %s: %v", filename, err)
	}
	return u, nil
}
