package installer

import (
	"errors"
	"fmt"
)

// ErrUnsupportedPlatform is returned where no prebuilt release exists.
var ErrUnsupportedPlatform = errors.New("unsupported OS for auto-download")

// Platform names the release flavor to fetch.
type Platform struct {
	// OS is the short label used in console output.
	OS string
	// Arch is the asset name fragment, e.g. "linux-x86_64".
	Arch string
	// Ext is the archive extension including the leading dot.
	Ext string
}

// Detect maps a GOOS/GOARCH pair to its release flavor.
func Detect(goos, goarch string) (Platform, error) {
	switch goos {
	case "windows":
		arch := "win32"
		if goarch == "amd64" || goarch == "arm64" {
			arch = "win64"
		}
		return Platform{OS: arch, Arch: arch, Ext: ".zip"}, nil
	case "linux":
		return Platform{OS: "linux", Arch: "linux-x86_64", Ext: ".tar.gz"}, nil
	case "darwin":
		arch := "macos-x86_64"
		if goarch == "arm64" {
			arch = "macos-aarch64"
		}
		return Platform{OS: "macos", Arch: arch, Ext: ".tar.gz"}, nil
	}
	return Platform{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
}

// AssetName is the file name of a release asset for tag.
func (p Platform) AssetName(tag string) string {
	return fmt.Sprintf("scrcpy-%s-%s%s", p.Arch, tag, p.Ext)
}
