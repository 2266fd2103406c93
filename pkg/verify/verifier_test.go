package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/moddex/moddexup/pkg/errors"
)

const artifactName = "moddex-v1.2.3-linux-amd64.tar.gz"

func writeFixture(t *testing.T, content []byte) (path, digest string) {
	t.Helper()
	path = filepath.Join(t.TempDir(), artifactName)
	require.NoError(t, os.WriteFile(path, content, 0o640))
	sum := sha256.Sum256(content)
	return path, hex.EncodeToString(sum[:])
}

func TestVerifyRoundTrip(t *testing.T) {
	path, digest := writeFixture(t, []byte("bundle payload"))

	manifest := fmt.Sprintf("%s  %s\n", digest, artifactName)
	require.NoError(t, NewVerifier().Verify(path, artifactName, []byte(manifest)))
}

func TestVerifySingleHexCharCorruption(t *testing.T) {
	path, digest := writeFixture(t, []byte("bundle payload"))

	// Flip one hex character of the expected digest.
	corrupted := []byte(digest)
	if corrupted[0] == 'a' {
		corrupted[0] = 'b'
	} else {
		corrupted[0] = 'a'
	}
	manifest := fmt.Sprintf("%s  %s\n", corrupted, artifactName)

	err := NewVerifier().Verify(path, artifactName, []byte(manifest))
	assert.ErrorIs(t, err, pkgerrors.ErrChecksumMismatch)
}

func TestVerifyFilenameOffByOne(t *testing.T) {
	path, digest := writeFixture(t, []byte("bundle payload"))

	manifest := fmt.Sprintf("%s  %s\n", digest, "moddex-v1.2.4-linux-amd64.tar.gz")
	err := NewVerifier().Verify(path, artifactName, []byte(manifest))
	assert.ErrorIs(t, err, pkgerrors.ErrChecksumMissing)
}

func TestVerifyCaseInsensitiveDigest(t *testing.T) {
	path, digest := writeFixture(t, []byte("bundle payload"))

	manifest := fmt.Sprintf("%s  %s\n", []byte(toUpper(digest)), artifactName)
	require.NoError(t, NewVerifier().Verify(path, artifactName, []byte(manifest)))
}

func toUpper(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'a' && c <= 'f' {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}

func TestExtractChecksum(t *testing.T) {
	digest := "aab5d5fd8f0e3cc8f909f19d42cd2c6c0db4d7e3eef4b7e2fe5b1ac18f4a4899"

	tests := []struct {
		name        string
		manifest    string
		expected    string
		expectError error
	}{
		{
			name:     "plain sha256sum line",
			manifest: digest + "  " + artifactName + "\n",
			expected: digest,
		},
		{
			name:     "binary mode marker",
			manifest: digest + " *" + artifactName + "\n",
			expected: digest,
		},
		{
			name:     "entry with leading path",
			manifest: digest + "  dist/" + artifactName + "\n",
			expected: digest,
		},
		{
			name: "multi-entry manifest",
			manifest: "1111111111111111111111111111111111111111111111111111111111111111  other-file.zip\n" +
				digest + "  " + artifactName + "\n",
			expected: digest,
		},
		{
			name:     "comments and blanks skipped",
			manifest: "# SHA256SUMS for v1.2.3\n\n" + digest + "  " + artifactName + "\n",
			expected: digest,
		},
		{
			name:     "bare digest sibling file",
			manifest: digest + "\n",
			expected: digest,
		},
		{
			name:     "uppercase digest normalized",
			manifest: toUpper(digest) + "  " + artifactName + "\n",
			expected: digest,
		},
		{
			name:        "empty manifest",
			manifest:    "",
			expectError: pkgerrors.ErrChecksumMissing,
		},
		{
			name:        "no matching entry",
			manifest:    digest + "  unrelated.tar.gz\n",
			expectError: pkgerrors.ErrChecksumMissing,
		},
		{
			name:        "short digest rejected",
			manifest:    "abc123  " + artifactName + "\n",
			expectError: pkgerrors.ErrChecksumMissing,
		},
		{
			name:        "non-hex digest rejected",
			manifest:    "zz" + digest[2:] + "  " + artifactName + "\n",
			expectError: pkgerrors.ErrChecksumMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractChecksum([]byte(tt.manifest), artifactName)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFileSHA256(t *testing.T) {
	path, digest := writeFixture(t, []byte("known content"))

	got, err := FileSHA256(path)
	require.NoError(t, err)
	assert.Equal(t, digest, got)

	_, err = FileSHA256(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input       string
		expected    Policy
		expectError bool
	}{
		{input: "strict", expected: PolicyStrict},
		{input: "lenient", expected: PolicyLenient},
		{input: "Strict", expected: PolicyStrict},
		{input: "optimistic", expectError: true},
		{input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePolicy(tt.input)
			if tt.expectError {
				assert.ErrorIs(t, err, pkgerrors.ErrConfigValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
