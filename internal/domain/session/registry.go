package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/logstream"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/settings"
	"github.com/yadavnikhil03/scrcpy-gui/internal/events"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/monitoring"
)

// ErrNoDevice is returned when a session intent names no device.
var ErrNoDevice = errors.New("no device selected")

// SessionError reports a session the collaborator could not start or stop.
type SessionError struct {
	Device string
	Op     string
	Cause  error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s for %s failed: %v", e.Op, e.Device, e.Cause)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// Launcher is the collaborator surface that starts and stops sessions.
type Launcher interface {
	StartSession(ctx context.Context, cfg settings.SessionConfig) error
	StopSession(ctx context.Context, device string) error
}

// Download is the state of a binary download as reported on the status
// topic.
type Download struct {
	Active  bool   `json:"active"`
	Status  string `json:"status"`
	Percent int    `json:"percent"`
}

// Registry is the set of devices with a confirmed running session.
type Registry struct {
	mu       sync.RWMutex
	running  []string // Protected by mu; insertion order
	download Download // Protected by mu

	hookMu     sync.Mutex
	onComplete []func(installDir string)

	launcher Launcher
	logs     *logstream.Stream
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewRegistry creates an empty registry.
func NewRegistry(launcher Launcher, logs *logstream.Stream, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		launcher: launcher,
		logs:     logs,
		logger:   logger,
	}
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// OnDownloadComplete registers fn to run, on the event goroutine, when a
// download-complete event arrives. fn receives the install directory.
func (r *Registry) OnDownloadComplete(fn func(installDir string)) {
	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	r.onComplete = append(r.onComplete, fn)
}

// Handle applies one status event. Events must be delivered in arrival
// order by a single goroutine.
func (r *Registry) Handle(ev events.Status) {
	switch ev.Type {
	case events.StatusSession:
		if ev.Device == "" {
			r.logger.Debug("session event without device ignored")
			return
		}
		if ev.Running {
			r.add(ev.Device)
		} else {
			r.remove(ev.Device)
		}

	case events.StatusDownloading:
		r.mu.Lock()
		r.download.Active = true
		r.download.Status = ev.Message
		r.mu.Unlock()

	case events.StatusDownloadProgress:
		r.mu.Lock()
		r.download.Percent = ev.Percent
		r.mu.Unlock()

	case events.StatusDownloadComplete:
		r.mu.Lock()
		r.download.Active = false
		r.download.Status = "Download Complete"
		r.mu.Unlock()

		r.hookMu.Lock()
		hooks := append([]func(string){}, r.onComplete...)
		r.hookMu.Unlock()
		for _, fn := range hooks {
			fn(ev.Message)
		}

	default:
		r.logger.Debug("unknown status event", zap.String("type", string(ev.Type)))
	}
}

// Start asks the collaborator to launch a session for cfg.Device. The
// device becomes running only when the collaborator confirms it.
func (r *Registry) Start(ctx context.Context, cfg settings.SessionConfig) error {
	if cfg.Device == "" {
		return ErrNoDevice
	}
	r.logs.System(fmt.Sprintf("Initializing scrcpy session for %s...", cfg.Device))

	if err := r.launcher.StartSession(ctx, cfg); err != nil {
		r.logs.Error(fmt.Sprintf("Failed to start scrcpy: %v", err))
		r.logger.Warn("session start failed", zap.String("device", cfg.Device), zap.Error(err))
		return &SessionError{Device: cfg.Device, Op: "start", Cause: err}
	}
	return nil
}

// Stop asks the collaborator to end the session for device.
func (r *Registry) Stop(ctx context.Context, device string) error {
	if device == "" {
		return ErrNoDevice
	}
	if err := r.launcher.StopSession(ctx, device); err != nil {
		r.logger.Warn("session stop failed", zap.String("device", device), zap.Error(err))
		return &SessionError{Device: device, Op: "stop", Cause: err}
	}
	return nil
}

// Running returns the running devices in the order they started.
func (r *Registry) Running() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.running...)
}

// IsRunning reports whether device has a confirmed session.
func (r *Registry) IsRunning(device string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return indexOf(r.running, device) >= 0
}

// DownloadFailed clears an in-flight download after the installer gave up.
func (r *Registry) DownloadFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.download.Active = false
	r.download.Status = "Download Failed"
}

// Download returns the current download state.
func (r *Registry) Download() Download {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.download
}

func (r *Registry) add(device string) {
	r.mu.Lock()
	if indexOf(r.running, device) < 0 {
		r.running = append(r.running, device)
	}
	n := len(r.running)
	r.mu.Unlock()

	r.logger.Info("session running", zap.String("device", device))
	r.gauge(n)
}

func (r *Registry) remove(device string) {
	r.mu.Lock()
	if i := indexOf(r.running, device); i >= 0 {
		r.running = append(r.running[:i:i], r.running[i+1:]...)
	}
	n := len(r.running)
	r.mu.Unlock()

	r.logger.Info("session ended", zap.String("device", device))
	r.gauge(n)
}

func (r *Registry) gauge(n int) {
	if r.metrics != nil {
		r.metrics.SetSessionsRunning(n)
	}
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
