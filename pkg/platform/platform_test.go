package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOS(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Linux", "linux"},
		{"win", "windows"},
		{"Windows", "windows"},
		{"darwin", "darwin"},
		{"freebsd", "freebsd"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeOS(tt.input))
		})
	}
}

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"x86_64", "amd64"},
		{"X64", "amd64"},
		{"aarch64", "arm64"},
		{"i686", "386"},
		{"amd64", "amd64"},
		{"arm", "arm"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeArch(tt.input))
		})
	}
}

func TestAssetSuffix(t *testing.T) {
	p := Platform{OS: "linux", Arch: "amd64"}
	assert.Equal(t, "linux-amd64.tar.gz", p.AssetSuffix())
}

func TestCurrentPlatform(t *testing.T) {
	p := CurrentPlatform()
	assert.NotEmpty(t, p.OS)
	assert.NotEmpty(t, p.Arch)
	assert.Contains(t, p.String(), "/")
}
