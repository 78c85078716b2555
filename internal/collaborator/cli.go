package collaborator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/settings"
	"github.com/yadavnikhil03/scrcpy-gui/internal/events"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/monitoring"
)

// DefaultConnectTimeout bounds `adb connect`.
const DefaultConnectTimeout = 5 * time.Second

// RemoteDownloads is where pushed files land on the device.
const RemoteDownloads = "/sdcard/Download/"

const (
	adbBinary    = "adb"
	scrcpyBinary = "scrcpy"
)

var (
	// ErrEmptyCommand is returned by RunCommand for a blank command line.
	ErrEmptyCommand = errors.New("no command provided")

	// ErrMdnsFailed is returned when `adb mdns services` exits non-zero.
	ErrMdnsFailed = errors.New("ADB mdns returned error")
)

// globalADB are adb subcommands that never take a serial.
var globalADB = map[string]bool{
	"devices": true,
	"connect": true,
	"pair":    true,
}

// CLI implements Collaborator by running adb and scrcpy.
type CLI struct {
	resolver       *Resolver
	runner         Runner
	sessions       *Sessions
	publisher      events.Publisher
	connectTimeout time.Duration
	videosDir      func() (string, error)
	now            func() time.Time
	logger         *zap.Logger
	metrics        *monitoring.Metrics
}

var _ Collaborator = (*CLI)(nil)

// NewCLI creates a CLI collaborator.
func NewCLI(resolver *Resolver, runner Runner, sessions *Sessions, publisher events.Publisher, logger *zap.Logger) *CLI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CLI{
		resolver:       resolver,
		runner:         runner,
		sessions:       sessions,
		publisher:      publisher,
		connectTimeout: DefaultConnectTimeout,
		videosDir:      settings.VideosDir,
		now:            time.Now,
		logger:         logger,
	}
}

// WithMetrics records a timer per collaborator call.
func (c *CLI) WithMetrics(m *monitoring.Metrics) *CLI {
	c.metrics = m
	return c
}

// WithConnectTimeout overrides DefaultConnectTimeout.
func (c *CLI) WithConnectTimeout(d time.Duration) *CLI {
	if d > 0 {
		c.connectTimeout = d
	}
	return c
}

// WithVideosDir sets the recording fallback folder lookup.
func (c *CLI) WithVideosDir(fn func() (string, error)) *CLI {
	c.videosDir = fn
	return c
}

// WithClock sets the clock used to name recordings.
func (c *CLI) WithClock(now func() time.Time) *CLI {
	c.now = now
	return c
}

// run resolves name and executes it, timing the call under operation.
func (c *CLI) run(ctx context.Context, operation, name, path string, args ...string) (Result, error) {
	bin := c.resolver.Resolve(name, path)
	timer := monitoring.NewTimer(c.metrics, operation)

	c.logger.Debug("running collaborator",
		zap.String("operation", operation),
		zap.String("bin", bin),
		zap.Strings("args", args))

	res, err := c.runner.Run(ctx, bin, args...)
	switch {
	case err != nil:
		timer.Stop("error")
		c.logger.Warn("collaborator call failed",
			zap.String("operation", operation),
			zap.String("bin", bin),
			zap.Error(err))
	case !res.Success():
		timer.Stop("failure")
	default:
		timer.Stop("success")
	}
	return res, err
}

// ListDevices implements Collaborator.
func (c *CLI) ListDevices(ctx context.Context, path string) (DeviceList, error) {
	res, err := c.run(ctx, "list_devices", adbBinary, path, "devices")
	if err != nil {
		return DeviceList{}, err
	}
	if !res.Success() {
		return DeviceList{Error: "ADB returned error"}, nil
	}
	return DeviceList{Devices: parseDevices(res.Stdout)}, nil
}

// Connect implements Collaborator. The call is abandoned after the connect
// timeout and reported as a failed attempt.
func (c *CLI) Connect(ctx context.Context, endpoint, path string) (Attempt, error) {
	c.publisher.PublishLog(fmt.Sprintf("[SYSTEM] Attempting wireless connection to %s...", endpoint))

	cctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	res, err := c.run(cctx, "connect", adbBinary, path, "connect", endpoint)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			c.publisher.PublishLog(fmt.Sprintf("[SYSTEM] Connection to %s timed out after %s.", endpoint, c.connectTimeout))
			return Attempt{Message: "connection timed out"}, nil
		}
		return Attempt{}, fmt.Errorf("failed to start adb connect: %w", err)
	}

	out, errText := c.echo(res)
	success := res.Success() && !strings.Contains(out, "cannot connect") && !strings.Contains(out, "failed")
	return Attempt{Success: success, Message: firstNonEmpty(out, errText)}, nil
}

// Disconnect implements Collaborator.
func (c *CLI) Disconnect(ctx context.Context, endpoint, path string) error {
	_, err := c.run(ctx, "disconnect", adbBinary, path, "disconnect", endpoint)
	return err
}

// Pair implements Collaborator.
func (c *CLI) Pair(ctx context.Context, endpoint, code, path string) (Attempt, error) {
	c.publisher.PublishLog(fmt.Sprintf("[SYSTEM] Pairing with %s...", endpoint))

	res, err := c.run(ctx, "pair", adbBinary, path, "pair", endpoint, code)
	if err != nil {
		return Attempt{}, err
	}

	out, errText := c.echo(res)
	success := res.Success() &&
		(strings.Contains(out, "Successfully paired") || strings.Contains(errText, "Successfully paired"))
	return Attempt{Success: success, Message: firstNonEmpty(out, errText)}, nil
}

// echo publishes trimmed stdout and stderr as console lines.
func (c *CLI) echo(res Result) (out, errText string) {
	out = strings.TrimSpace(res.Stdout)
	errText = strings.TrimSpace(res.Stderr)
	if out != "" {
		c.publisher.PublishLog("[ADB] " + out)
	}
	if errText != "" {
		c.publisher.PublishLog("[ADB ERROR] " + errText)
	}
	return out, errText
}

// ListOptions implements Collaborator. scrcpy prints most listings on
// stderr, so both streams are returned together.
func (c *CLI) ListOptions(ctx context.Context, device, arg, path string) (string, error) {
	res, err := c.run(ctx, "list_options", scrcpyBinary, path, "-s", device, arg)
	if err != nil {
		return "", err
	}
	return res.Stdout + res.Stderr, nil
}

// StartSession implements Collaborator.
func (c *CLI) StartSession(_ context.Context, cfg settings.SessionConfig) error {
	fallback := ""
	if c.videosDir != nil {
		if dir, err := c.videosDir(); err == nil {
			fallback = dir
		}
	}

	args := BuildArgs(cfg, fallback, c.now())
	for _, line := range sessionSummary(cfg, args) {
		c.publisher.PublishLog(line)
	}

	bin := c.resolver.Resolve(scrcpyBinary, cfg.ScrcpyPath)
	timer := monitoring.NewTimer(c.metrics, "start_session")
	if err := c.sessions.Launch(cfg.Device, bin, args); err != nil {
		timer.Stop("error")
		return err
	}
	timer.Stop("success")
	return nil
}

// StopSession implements Collaborator.
func (c *CLI) StopSession(_ context.Context, device string) error {
	return c.sessions.Stop(device)
}

// PushFile implements Collaborator.
func (c *CLI) PushFile(ctx context.Context, device, file, path string) (Transfer, error) {
	res, err := c.run(ctx, "push", adbBinary, path, "-s", device, "push", file, RemoteDownloads)
	if err != nil {
		return Transfer{}, err
	}
	if !res.Success() {
		return Transfer{Message: "Transfer failed"}, nil
	}
	return Transfer{Success: true, Message: "File pushed to Downloads"}, nil
}

// InstallPackage implements Collaborator.
func (c *CLI) InstallPackage(ctx context.Context, device, file, path string) (Transfer, error) {
	res, err := c.run(ctx, "install", adbBinary, path, "-s", device, "install", file)
	if err != nil {
		return Transfer{}, err
	}
	if !res.Success() {
		return Transfer{Message: strings.TrimSpace(res.Stderr)}, nil
	}
	return Transfer{Success: true, Message: strings.TrimSpace(res.Stdout)}, nil
}

// RunCommand implements Collaborator. A leading "adb" or "scrcpy" picks
// the executable (adb otherwise) and the device serial is injected unless
// the command already names one or is a global adb subcommand.
func (c *CLI) RunCommand(ctx context.Context, device, command, path string) (CommandOutput, error) {
	bin, args, err := commandLine(device, command)
	if err != nil {
		return CommandOutput{}, err
	}

	res, err := c.run(ctx, "command", bin, path, args...)
	if err != nil {
		return CommandOutput{}, err
	}
	return CommandOutput{Stdout: res.Stdout, Stderr: res.Stderr, Binary: bin}, nil
}

// commandLine turns a typed command into a binary and its arguments.
func commandLine(device, command string) (string, []string, error) {
	parts, err := SplitArgs(command)
	if err != nil {
		parts = strings.Fields(command)
	}
	if len(parts) == 0 {
		return "", nil, ErrEmptyCommand
	}

	bin := adbBinary
	switch strings.ToLower(parts[0]) {
	case scrcpyBinary:
		bin = scrcpyBinary
		parts = parts[1:]
	case adbBinary:
		parts = parts[1:]
	}

	hasSerial := false
	for _, p := range parts {
		if p == "-s" || p == "--serial" {
			hasSerial = true
			break
		}
	}

	args := make([]string, 0, len(parts)+2)
	if !hasSerial && device != "" {
		global := bin == adbBinary && len(parts) > 0 && globalADB[parts[0]]
		if !global {
			args = append(args, "-s", device)
		}
	}
	return bin, append(args, parts...), nil
}

// CheckBinary implements Collaborator.
func (c *CLI) CheckBinary(ctx context.Context, path string) BinaryStatus {
	res, err := c.run(ctx, "check_binary", scrcpyBinary, path, "--version")
	switch {
	case err != nil:
		return BinaryStatus{Message: "Scrcpy not found"}
	case !res.Success():
		return BinaryStatus{Message: "Failed to start scrcpy (Exit Code != 0)"}
	}
	return BinaryStatus{Found: true, Message: "Scrcpy Ready"}
}

// MdnsServices implements Collaborator.
func (c *CLI) MdnsServices(ctx context.Context, path string) ([]MdnsService, error) {
	res, err := c.run(ctx, "mdns", adbBinary, path, "mdns", "services")
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, ErrMdnsFailed
	}
	return parseMdns(res.Stdout), nil
}

// KillServer implements Collaborator. After kill-server any adb process
// still alive is killed through the platform's process tools.
func (c *CLI) KillServer(ctx context.Context, path string) error {
	c.publisher.PublishLog("[SYSTEM] Terminating ADB stack...")

	if _, err := c.run(ctx, "kill_server", adbBinary, path, "kill-server"); err != nil {
		return err
	}

	bin, args := strayKillCommand()
	if _, err := c.runner.Run(ctx, bin, args...); err != nil {
		c.logger.Debug("stray adb cleanup failed", zap.Error(err))
	}

	c.publisher.PublishLog("[SYSTEM] ADB Stack Terminated.")
	return nil
}

// Close stops every running session.
func (c *CLI) Close() error {
	return c.sessions.Close()
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
