// Package verify implements the integrity gate of the acquisition pipeline.
// An artifact may only be extracted after its SHA-256 digest matched the
// entry for its exact filename in a checksum manifest.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"regexp"
	"strings"

	pkgerrors "github.com/moddex/moddexup/pkg/errors"
)

// Policy controls how a missing manifest is treated. A located manifest with
// a mismatched or absent entry is always fatal regardless of policy.
type Policy string

const (
	// PolicyStrict fails the run when no checksum manifest can be fetched.
	PolicyStrict Policy = "strict"
	// PolicyLenient logs a warning and proceeds unverified when no checksum
	// manifest can be fetched. Mismatches stay fatal.
	PolicyLenient Policy = "lenient"
)

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(s)) {
	case PolicyStrict:
		return PolicyStrict, nil
	case PolicyLenient:
		return PolicyLenient, nil
	default:
		return "", pkgerrors.Wrapf(pkgerrors.ErrConfigValidation, "unknown checksum policy %q", s)
	}
}

// Verifier checks downloaded artifacts against checksum manifests.
type Verifier struct{}

// NewVerifier creates a new Verifier instance.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify extracts the expected digest for artifactName from the manifest,
// computes the actual digest of the file at artifactPath and fails unless
// they match byte for byte (hex compared case-insensitively).
func (v *Verifier) Verify(artifactPath, artifactName string, manifest []byte) error {
	expected, err := ExtractChecksum(manifest, artifactName)
	if err != nil {
		return err
	}

	actual, err := FileSHA256(artifactPath)
	if err != nil {
		return err
	}

	if !strings.EqualFold(expected, actual) {
		return pkgerrors.Wrapf(pkgerrors.ErrChecksumMismatch,
			"%s: expected %s, got %s", artifactName, expected, actual)
	}
	return nil
}

const hexDigestLen = sha256.Size * 2

// ExtractChecksum locates the digest for assetName in manifest content.
// Supported layouts:
//   - "digest  filename" lines (sha256sum output)
//   - "digest *filename" lines (binary-mode marker)
//   - a bare digest with no filename (per-artifact sibling .sha256 file)
//
// Comment lines and entries for other files are skipped. The filename match
// is exact on the base name; there is no fuzzy matching beyond stripping a
// leading path or binary marker.
func ExtractChecksum(manifest []byte, assetName string) (string, error) {
	text := strings.TrimSpace(string(manifest))
	if text == "" {
		return "", pkgerrors.Wrapf(pkgerrors.ErrChecksumMissing, "manifest is empty")
	}
	if isHexDigest(text) {
		return strings.ToLower(text), nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		digest := fields[0]
		if !isHexDigest(digest) {
			continue
		}
		candidate := fields[len(fields)-1]
		candidate = strings.TrimPrefix(candidate, "*")
		if idx := strings.LastIndexByte(candidate, '/'); idx >= 0 {
			candidate = candidate[idx+1:]
		}
		if candidate == assetName {
			return strings.ToLower(digest), nil
		}
	}

	// Fallback for manifests with unusual spacing or markers between the
	// digest and the filename.
	re := regexp.MustCompile(`(?m)^([0-9a-fA-F]{64})[ \t*]+` + regexp.QuoteMeta(assetName) + `$`)
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.ToLower(m[1]), nil
	}

	return "", pkgerrors.Wrapf(pkgerrors.ErrChecksumMissing, "no entry for %s", assetName)
}

// FileSHA256 returns the lowercase hex SHA-256 digest of the file at path.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", pkgerrors.Wrap(err, "open for checksum")
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", pkgerrors.Wrap(err, "hashing")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isHexDigest(value string) bool {
	if len(value) != hexDigestLen {
		return false
	}
	for _, ch := range value {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') && (ch < 'A' || ch > 'F') {
			return false
		}
	}
	return true
}
