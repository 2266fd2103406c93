// Package model provides data structures shared between the release
// resolver, the download pipeline and the bundle installer.
package model

import (
	"net/url"

	"github.com/hashicorp/go-version"
)

// Release represents a single published release of the tracked repository.
type Release struct {
	TagName    string         `json:"tag_name"`
	Name       string         `json:"name,omitempty"`
	Draft      bool           `json:"draft,omitempty"`
	Prerelease bool           `json:"prerelease,omitempty"`
	Assets     []ReleaseAsset `json:"assets,omitempty"`
}

// ReleaseAsset is one downloadable file attached to a release.
type ReleaseAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size,omitempty"`
}

// GetVersion returns the parsed tag of this release, or nil when the tag is
// not a parseable version. Tags are still used verbatim in URLs either way;
// parsing only serves ordering and constraint checks.
func (r *Release) GetVersion() *version.Version {
	v, err := version.NewVersion(r.TagName)
	if err != nil {
		return nil
	}
	return v
}

// AssetRef pairs a download URL with the local filename the artifact is
// expected to have. It is derived deterministically from
// (owner, repo, version, suffix) and immutable once computed.
type AssetRef struct {
	URL      *url.URL
	Filename string
}

// Handoff describes the terminal action of the pipeline: the located
// installer entry point and how the caller should invoke it. The pipeline
// never execs it itself; the CLI decides.
type Handoff struct {
	// Path is the absolute path of the installer entry point.
	Path string
	// Dir is the bundle directory the installer should run in.
	Dir string
	// Args are passed through to the entry point verbatim.
	Args []string
	// NeedsRoot indicates the entry point requires elevated privileges.
	NeedsRoot bool
}
