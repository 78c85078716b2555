package control

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/settings"
)

// Report is the diagnostic bundle written by SaveReport.
type Report struct {
	Timestamp   time.Time            `json:"timestamp"`
	Preferences settings.Preferences `json:"preferences"`
	History     []string             `json:"history"`
	Sessions    []string             `json:"sessions"`
	Logs        []string             `json:"logs"`
}

// SaveReport writes the diagnostic bundle to the downloads folder and
// returns the file path.
func (c *Controller) SaveReport() (string, error) {
	now := c.now()
	report := Report{
		Timestamp:   now.UTC(),
		Preferences: c.settings.Preferences(),
		History:     c.history.List(),
		Sessions:    c.sessions.Running(),
		Logs:        c.logs.Messages(),
	}

	data, err := sonic.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	dir, err := c.downloadsDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	name := fmt.Sprintf("scrcpy-gui-logs-%d.json", now.UnixMilli())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	c.logs.System("Diagnostic report saved to Downloads: " + name)
	c.logger.Info("diagnostic report saved", zap.String("path", path))
	return path, nil
}
