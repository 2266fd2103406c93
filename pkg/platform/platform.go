// Package platform provides OS and architecture detection used to derive the
// default release asset suffix.
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform represents a target platform with OS and Architecture.
type Platform struct {
	OS   string `yaml:"os" json:"os"`
	Arch string `yaml:"arch" json:"arch"`
}

// CurrentPlatform returns the current platform (OS and architecture).
func CurrentPlatform() Platform {
	return Platform{
		OS:   NormalizeOS(runtime.GOOS),
		Arch: NormalizeArch(runtime.GOARCH),
	}
}

// String returns a string representation of the platform.
func (p Platform) String() string {
	return fmt.Sprintf("%s/%s", p.OS, p.Arch)
}

// AssetSuffix returns the release asset suffix for this platform following
// the bundle naming convention, e.g. "linux-amd64.tar.gz".
func (p Platform) AssetSuffix() string {
	return fmt.Sprintf("%s-%s.tar.gz", p.OS, p.Arch)
}

// NormalizeOS normalizes OS names to the form used in asset names.
func NormalizeOS(os string) string {
	os = strings.ToLower(os)
	switch os {
	case "win", "windows":
		return "windows"
	default:
		return os
	}
}

// NormalizeArch normalizes architecture names to the form used in asset names.
func NormalizeArch(arch string) string {
	arch = strings.ToLower(arch)
	switch arch {
	case "x86_64", "x64":
		return "amd64"
	case "x86", "i386", "i686":
		return "386"
	case "aarch64":
		return "arm64"
	default:
		return arch
	}
}
