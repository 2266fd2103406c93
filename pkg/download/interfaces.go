//go:generate mockgen -destination=./mocks/download.go -package=mocks . Manager

// Package download provides the HTTP transport layer of the acquisition
// pipeline: fetch-to-file with atomic finalization and fetch-to-memory for
// small documents such as checksum manifests and API responses.
package download

import (
	"context"
	"net/url"
)

// Manager defines the interface for downloading remote artifacts. All
// implementations must fail with an error on any non-success HTTP status so
// that error pages can never masquerade as artifact content.
type Manager interface {
	// Fetch downloads a single item into opts.Dir and returns the absolute
	// local file path.
	Fetch(ctx context.Context, item Item, opts Options) (string, error)

	// FetchAll downloads all items, respecting Options (e.g. concurrency).
	// It returns a map from Item.ID to absolute local file path. Any single
	// failure fails the whole batch.
	FetchAll(ctx context.Context, items []Item, opts Options) (map[string]string, error)

	// FetchBytes downloads a small document into memory.
	FetchBytes(ctx context.Context, u *url.URL) ([]byte, error)
}

// Item represents one remote resource to download.
type Item struct {
	ID       string   // stable identifier, unique within a batch
	URL      *url.URL // source URL to download
	Checksum string   // optional hex-encoded SHA-256; verified when set
	Filename string   // optional preferred filename; derived when empty
}

// Options control the behavior of the download manager.
type Options struct {
	Dir         string // destination directory. Must be absolute.
	Concurrency int    // number of parallel downloads; if <=0, a sane default is used
}
