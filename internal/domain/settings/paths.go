package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// VideosDir returns the user's videos folder: $XDG_VIDEOS_DIR when set,
// otherwise ~/Movies on macOS and ~/Videos elsewhere.
func VideosDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("XDG_VIDEOS_DIR")); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home dir: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Movies"), nil
	}
	return filepath.Join(home, "Videos"), nil
}

// DownloadsDir returns the user's downloads folder.
func DownloadsDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("XDG_DOWNLOAD_DIR")); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home dir: %w", err)
	}
	return filepath.Join(home, "Downloads"), nil
}
