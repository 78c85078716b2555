package control

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator"
	"github.com/yadavnikhil03/scrcpy-gui/internal/discovery"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/capability"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/device"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/logstream"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/session"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/settings"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/transfer"
)

// ErrNoInstaller is returned by Download when no installer is configured.
var ErrNoInstaller = errors.New("binary installer not configured")

// Devices returns the current snapshot with the active flag set.
func (c *Controller) Devices() []device.Info {
	return c.devices.Devices()
}

// ActiveDevice returns the selected device id.
func (c *Controller) ActiveDevice() string {
	return c.devices.Active()
}

// Refresh reloads the device snapshot.
func (c *Controller) Refresh(ctx context.Context, silent bool) (device.Diff, error) {
	return c.devices.Refresh(ctx, device.RefreshOptions{Silent: silent})
}

// SelectDevice makes id the active device.
func (c *Controller) SelectDevice(id string) {
	c.devices.SelectActive(strings.TrimSpace(id))
}

// Connect connects to a network endpoint, retrying once on transient
// failures.
func (c *Controller) Connect(ctx context.Context, endpoint string) collaborator.Attempt {
	return c.conn.Connect(ctx, strings.TrimSpace(endpoint), "")
}

// Pair pairs with a wireless-debugging endpoint.
func (c *Controller) Pair(ctx context.Context, endpoint, code string) collaborator.Attempt {
	return c.conn.Pair(ctx, strings.TrimSpace(endpoint), strings.TrimSpace(code), "")
}

// MdnsServices lists advertised services known to adb, merged with a local
// network browse when a scanner is configured. A failing source is logged
// and skipped; an error is returned only when every source failed.
func (c *Controller) MdnsServices(ctx context.Context) ([]collaborator.MdnsService, error) {
	services, adbErr := c.collab.MdnsServices(ctx, c.path())
	if adbErr != nil {
		c.logger.Warn("adb mdns listing failed", zap.Error(adbErr))
	}
	if c.scanner == nil {
		if adbErr != nil {
			return nil, adbErr
		}
		return discovery.Merge(services, nil), nil
	}

	found, scanErr := c.scanner.Scan(ctx)
	if scanErr != nil {
		c.logger.Warn("mdns browse failed", zap.Error(scanErr))
		if adbErr != nil {
			return nil, errors.Join(adbErr, scanErr)
		}
	}
	return discovery.Merge(services, found), nil
}

// KillServer restarts the adb server and refreshes the device list.
func (c *Controller) KillServer(ctx context.Context) error {
	if err := c.collab.KillServer(ctx, c.path()); err != nil {
		c.logger.Warn("kill server failed", zap.Error(err))
		return err
	}
	if _, err := c.devices.Refresh(ctx, device.RefreshOptions{}); err != nil {
		c.logger.Warn("refresh after kill failed", zap.Error(err))
	}
	return nil
}

// Preferences returns the configuration, theme and auto-connect flag.
func (c *Controller) Preferences() settings.Preferences {
	return c.settings.Preferences()
}

// UpdateConfig merges a partial JSON configuration.
func (c *Controller) UpdateConfig(patch []byte) (settings.SessionConfig, error) {
	return c.settings.Update(patch)
}

// Theme returns the UI theme.
func (c *Controller) Theme() string {
	return c.settings.Theme()
}

// SetTheme changes the UI theme.
func (c *Controller) SetTheme(theme string) error {
	return c.settings.SetTheme(theme)
}

// SetAutoConnect toggles the background refresh.
func (c *Controller) SetAutoConnect(on bool) error {
	return c.settings.SetAutoConnect(on)
}

// History returns the recent endpoints, newest first.
func (c *Controller) History() []string {
	return c.history.List()
}

// ClearHistory forgets every recent endpoint.
func (c *Controller) ClearHistory() error {
	return c.history.Clear()
}

// StartSession launches a session with the current configuration. An
// empty device falls back to the active device.
func (c *Controller) StartSession(ctx context.Context, dev string) error {
	cfg := c.settings.Config()
	if dev = strings.TrimSpace(dev); dev != "" {
		cfg.Device = dev
	} else if active := c.devices.Active(); active != "" {
		cfg.Device = active
	}
	if cfg.RecordPath == "" {
		cfg.RecordPath = c.settings.DefaultRecordPath()
	}
	return c.sessions.Start(ctx, cfg)
}

// StopSession stops the session for dev, or for the active device when
// dev is empty.
func (c *Controller) StopSession(ctx context.Context, dev string) error {
	if dev = strings.TrimSpace(dev); dev == "" {
		dev = c.devices.Active()
	}
	return c.sessions.Stop(ctx, dev)
}

// Sessions returns the devices with a running session.
func (c *Controller) Sessions() []string {
	return c.sessions.Running()
}

// DownloadState returns the binary download progress.
func (c *Controller) DownloadState() session.Download {
	return c.sessions.Download()
}

// ListOptions runs a scrcpy listing query such as --list-cameras against
// the active device and logs its output. Camera listings also refresh the
// camera catalog.
func (c *Controller) ListOptions(ctx context.Context, arg string) (string, []capability.Descriptor, error) {
	dev := c.devices.Active()
	if dev == "" {
		return "", nil, session.ErrNoDevice
	}
	c.logs.Append(fmt.Sprintf("Running scrcpy %s...", arg))

	out, err := c.collab.ListOptions(ctx, dev, arg, c.path())
	if err != nil {
		c.logs.Append(fmt.Sprintf("Error: %v", err))
		return "", nil, err
	}
	if out == "" {
		return "", c.catalog.Cameras(), nil
	}
	c.logs.Lines(out, "")

	if arg == capability.ListCameras {
		cameras, _ := c.catalog.Ingest(out)
		return out, cameras, nil
	}
	return out, c.catalog.Cameras(), nil
}

// Cameras returns the last camera scan.
func (c *Controller) Cameras() []capability.Descriptor {
	return c.catalog.Cameras()
}

// RunCommand runs an ad-hoc adb or scrcpy command against the active
// device and echoes it to the console.
func (c *Controller) RunCommand(ctx context.Context, command string) (collaborator.CommandOutput, error) {
	lower := strings.ToLower(strings.TrimSpace(command))
	echo := "adb "
	if strings.HasPrefix(lower, "adb") || strings.HasPrefix(lower, "scrcpy") {
		echo = ""
	}
	c.logs.Append("> " + echo + command)

	out, err := c.collab.RunCommand(ctx, c.devices.Active(), command, c.path())
	if err != nil {
		c.logs.Error(fmt.Sprintf("Command failed: %v", err))
		return out, err
	}

	if stdout := strings.TrimSpace(out.Stdout); stdout != "" {
		c.logs.Lines(stdout, "")
	}
	if stderr := strings.TrimSpace(out.Stderr); stderr != "" {
		binary := strings.ToUpper(out.Binary)
		if binary == "" {
			binary = "ERR"
		}
		c.logs.Lines(stderr, "["+binary+"] ")
	}
	return out, nil
}

// SendFiles installs packages and pushes everything else to the active
// device.
func (c *Controller) SendFiles(ctx context.Context, files []string) []transfer.Result {
	return c.transfers.Send(ctx, c.devices.Active(), files, c.path())
}

// CheckBinary probes the mirroring executable and caches the result.
func (c *Controller) CheckBinary(ctx context.Context) collaborator.BinaryStatus {
	status := c.collab.CheckBinary(ctx, c.path())
	c.binMu.Lock()
	c.binary = status
	c.binMu.Unlock()
	c.logger.Debug("binary checked", zap.Bool("found", status.Found), zap.String("message", status.Message))
	return status
}

// Binary returns the last binary check.
func (c *Controller) Binary() collaborator.BinaryStatus {
	c.binMu.RLock()
	defer c.binMu.RUnlock()
	return c.binary
}

// Download fetches the mirroring binary. Progress arrives on the status
// topic; a failure is logged and clears the download state.
func (c *Controller) Download(ctx context.Context) (string, error) {
	if c.installer == nil {
		return "", ErrNoInstaller
	}
	dir, err := c.installer.Install(ctx)
	if err != nil {
		c.logs.Append(fmt.Sprintf("Download Error: %v", err))
		c.sessions.DownloadFailed()
		return "", err
	}
	return dir, nil
}

// AppendLog adds UI-originated lines to the console.
func (c *Controller) AppendLog(lines ...string) {
	c.logs.Append(lines...)
}

// ClearLogs empties the console.
func (c *Controller) ClearLogs() {
	c.logs.Clear()
}

// LogEntries returns the console window.
func (c *Controller) LogEntries() []logstream.Entry {
	return c.logs.Entries()
}
