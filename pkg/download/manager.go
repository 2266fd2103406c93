package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/moddex/moddexup/pkg/auth"
	pkgerrors "github.com/moddex/moddexup/pkg/errors"
	"github.com/moddex/moddexup/pkg/fsutil"
)

const defaultConcurrency = 2

// ManagerImpl is an HTTP-based download manager with optional checksum
// verification. Files are written to a temporary path and moved into place
// only after the body has been fully received, so a failed download never
// leaves partial content behind.
type ManagerImpl struct {
	client    *http.Client
	userAgent string
	authn     auth.Authenticator
}

// NewManager creates a new download manager with the given timeout and user
// agent. A nil authenticator sends unauthenticated requests.
func NewManager(timeout time.Duration, userAgent string, authn auth.Authenticator) *ManagerImpl {
	if userAgent == "" {
		userAgent = "moddexup/1.0"
	}
	return &ManagerImpl{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		authn:     authn,
	}
}

// Fetch downloads a single item and returns the path to the downloaded file.
func (m *ManagerImpl) Fetch(ctx context.Context, item Item, opts Options) (string, error) {
	if opts.Dir == "" || !filepath.IsAbs(opts.Dir) {
		return "", fmt.Errorf("download dir must be absolute: %s: %w", opts.Dir, pkgerrors.ErrInvalidPath)
	}
	if err := os.MkdirAll(opts.Dir, fsutil.DirModeSecure); err != nil {
		return "", pkgerrors.Wrap(err, "could not create download dir")
	}
	return m.fetchOne(ctx, item, opts)
}

// FetchAll downloads multiple items and returns a map of item IDs to paths.
func (m *ManagerImpl) FetchAll(ctx context.Context, items []Item, opts Options) (map[string]string, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Dir == "" || !filepath.IsAbs(opts.Dir) {
		return nil, fmt.Errorf("download dir must be absolute: %s: %w", opts.Dir, pkgerrors.ErrInvalidPath)
	}
	if err := os.MkdirAll(opts.Dir, fsutil.DirModeSecure); err != nil {
		return nil, pkgerrors.Wrap(err, "could not create download dir")
	}
	for i, it := range items {
		if it.URL == nil {
			return nil, fmt.Errorf("item %d has nil URL: %w", i, pkgerrors.ErrDownloadFailed)
		}
	}

	results := make([]string, len(items))
	var firstErr error
	var mu sync.Mutex
	var wg sync.WaitGroup

	tasks := make(chan int)
	for w := 0; w < opts.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				path, err := m.fetchOne(ctx, items[idx], opts)
				mu.Lock()
				if err != nil && firstErr == nil {
					firstErr = err
				}
				results[idx] = path
				mu.Unlock()
			}
		}()
	}
	for i := range items {
		tasks <- i
	}
	close(tasks)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	out := make(map[string]string, len(items))
	for i, it := range items {
		out[it.ID] = results[i]
	}
	return out, nil
}

// FetchBytes downloads a small document into memory.
func (m *ManagerImpl) FetchBytes(ctx context.Context, u *url.URL) ([]byte, error) {
	if u == nil {
		return nil, fmt.Errorf("nil URL: %w", pkgerrors.ErrDownloadFailed)
	}
	resp, err := m.doRequest(ctx, u)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "could not read response body for %s", u)
	}
	return data, nil
}

func (m *ManagerImpl) fetchOne(ctx context.Context, item Item, opts Options) (string, error) {
	if item.URL == nil {
		return "", fmt.Errorf("nil URL: %w", pkgerrors.ErrDownloadFailed)
	}
	filename := selectFilename(item)
	absPath := filepath.Join(opts.Dir, filename)
	if reuse, ok := tryReuseExisting(absPath, item.Checksum); ok {
		return reuse, nil
	}

	resp, err := m.doRequest(ctx, item.URL)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	tmpPath, err := writeBodyToTemp(resp.Body, absPath)
	if err != nil {
		return "", err
	}
	if item.Checksum != "" {
		ok, err := verifySHA256(tmpPath, item.Checksum)
		if err != nil {
			_ = os.Remove(tmpPath)
			return "", err
		}
		if !ok {
			_ = os.Remove(tmpPath)
			return "", fmt.Errorf("download of %s: %w", item.URL, pkgerrors.ErrChecksumMismatch)
		}
	}
	if err := fsutil.Move(tmpPath, absPath); err != nil {
		return "", pkgerrors.Wrap(err, "could not finalize file")
	}
	if err := os.Chmod(absPath, fsutil.FileModeSecure); err != nil {
		return "", pkgerrors.Wrap(err, "could not set permissions")
	}
	return absPath, nil
}

func (m *ManagerImpl) doRequest(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", m.userAgent)
	if m.authn != nil {
		if err := m.authn.Apply(req); err != nil {
			return nil, pkgerrors.Wrap(err, "applying authentication")
		}
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "download failed")
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d for %s: %w", resp.StatusCode, u, pkgerrors.ErrDownloadFailed)
	}
	return resp, nil
}

func selectFilename(item Item) string {
	if item.Filename != "" {
		return item.Filename
	}
	h := sha256.Sum256([]byte(item.URL.String()))
	return hex.EncodeToString(h[:])
}

func tryReuseExisting(absPath, checksum string) (string, bool) {
	if checksum == "" {
		return "", false
	}
	if st, err := os.Stat(absPath); err == nil && st.Size() > 0 {
		if ok, err := verifySHA256(absPath, checksum); err == nil && ok {
			return absPath, true
		}
	}
	return "", false
}

func writeBodyToTemp(body io.Reader, absPath string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(absPath), "dl-*.tmp")
	if err != nil {
		return "", pkgerrors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", pkgerrors.Wrap(err, "could not write file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", pkgerrors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		return "", pkgerrors.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}

func verifySHA256(path string, wantHex string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, pkgerrors.Wrap(err, "open for checksum")
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, pkgerrors.Wrap(err, "hashing")
	}
	got := hex.EncodeToString(h.Sum(nil))
	return got == strings.ToLower(strings.TrimSpace(wantHex)), nil
}
