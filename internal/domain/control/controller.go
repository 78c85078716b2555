// Package control wires the domain components into one orchestrating
// context and exposes the user intents served by the API.
package control

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/capability"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/connection"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/device"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/history"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/logstream"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/session"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/settings"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/transfer"
	"github.com/yadavnikhil03/scrcpy-gui/internal/events"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/monitoring"
	"github.com/yadavnikhil03/scrcpy-gui/internal/store"
)

const (
	// DefaultRefreshInterval is the auto-refresh period.
	DefaultRefreshInterval = 5 * time.Second
	// DefaultLogWindow is how many console lines are kept.
	DefaultLogWindow = 100
)

// Installer fetches the mirroring binary and returns the folder it landed in.
type Installer interface {
	Install(ctx context.Context) (string, error)
}

// Scanner browses the local network for wireless-debugging services.
type Scanner interface {
	Scan(ctx context.Context) ([]collaborator.MdnsService, error)
}

// Deps are the collaborators the controller is built from. Installer and
// Scanner are optional.
type Deps struct {
	Collaborator collaborator.Collaborator
	Bus          *events.Bus
	Store        store.Store
	Installer    Installer
	Scanner      Scanner
	Metrics      *monitoring.Metrics
}

// Options tune the controller.
type Options struct {
	RefreshInterval time.Duration
	LogWindow       int
	// Sleeper replaces the connection settle delays.
	Sleeper      connection.Sleeper
	VideosDir    func() (string, error)
	DownloadsDir func() (string, error)
	Now          func() time.Time
}

// Controller owns every domain component for the lifetime of the process.
type Controller struct {
	collab    collaborator.Collaborator
	bus       *events.Bus
	logs      *logstream.Stream
	settings  *settings.Store
	history   *history.Store
	devices   *device.Registry
	conn      *connection.Orchestrator
	sessions  *session.Registry
	catalog   *capability.Catalog
	transfers *transfer.Router
	installer Installer
	scanner   Scanner

	interval     time.Duration
	downloadsDir func() (string, error)
	now          func() time.Time
	logger       *zap.Logger

	binMu  sync.RWMutex
	binary collaborator.BinaryStatus

	mu      sync.Mutex
	started bool
	closed  bool
	unsubs  []func()
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds the controller and its components. Nothing runs until Start.
func New(deps Deps, opts Options, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.LogWindow <= 0 {
		opts.LogWindow = DefaultLogWindow
	}
	if opts.VideosDir == nil {
		opts.VideosDir = settings.VideosDir
	}
	if opts.DownloadsDir == nil {
		opts.DownloadsDir = settings.DownloadsDir
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Bus == nil {
		deps.Bus = events.NewBus(logger)
	}
	if deps.Store == nil {
		deps.Store = store.NewMemory()
	}

	c := &Controller{
		collab:       deps.Collaborator,
		bus:          deps.Bus,
		installer:    deps.Installer,
		scanner:      deps.Scanner,
		interval:     opts.RefreshInterval,
		downloadsDir: opts.DownloadsDir,
		now:          opts.Now,
		logger:       logger,
	}

	c.logs = logstream.New(opts.LogWindow)
	c.settings = settings.NewStore(deps.Store, opts.VideosDir, logger.Named("settings"))
	c.history = history.New(deps.Store, logger.Named("history"))
	c.devices = device.NewRegistry(deps.Collaborator, c.logs, logger.Named("devices")).
		WithMetrics(deps.Metrics).
		WithDefaultPath(c.path)
	c.conn = connection.NewOrchestrator(deps.Collaborator, c.devices, c.history, c.logs, logger.Named("connection")).
		WithDefaultPath(c.path).
		WithMetrics(deps.Metrics)
	if opts.Sleeper != nil {
		c.conn.WithSleeper(opts.Sleeper)
	}
	c.sessions = session.NewRegistry(deps.Collaborator, c.logs, logger.Named("sessions")).
		WithMetrics(deps.Metrics)
	c.catalog = capability.NewCatalog(c.logs, logger.Named("capability"))
	c.transfers = transfer.NewRouter(deps.Collaborator, c.logs, logger.Named("transfer"))

	c.sessions.OnDownloadComplete(c.downloadComplete)
	return c
}

// Start hydrates persisted state, subscribes to the collaborator's event
// topics, checks the binary, runs a silent refresh and starts the
// auto-refresh loop. It is a no-op after the first call.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.unsubs = append(c.unsubs,
		c.bus.SubscribeStatus(c.sessions.Handle),
		c.bus.SubscribeLog(func(line string) { c.logs.Append(line) }),
		c.devices.OnActiveChange(c.activeChanged),
	)
	c.mu.Unlock()

	if err := c.settings.Hydrate(); err != nil {
		c.logger.Warn("failed to persist hydrated settings", zap.Error(err))
	}
	if err := c.history.Load(); err != nil {
		c.logger.Warn("failed to load connection history", zap.Error(err))
	}

	c.CheckBinary(ctx)
	if _, err := c.devices.Refresh(ctx, device.RefreshOptions{Silent: true}); err != nil {
		c.logger.Warn("initial refresh failed", zap.Error(err))
	}

	c.wg.Add(1)
	go c.autoRefresh(loopCtx)

	c.logger.Info("controller started",
		zap.Duration("refresh_interval", c.interval),
		zap.Bool("auto_connect", c.settings.AutoConnect()))
	return nil
}

// Close stops the loop, waits for background work and unsubscribes.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel := c.cancel
	unsubs := c.unsubs
	c.unsubs = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	for _, unsub := range unsubs {
		unsub()
	}
	c.logger.Info("controller stopped")
}

func (c *Controller) autoRefresh(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.settings.AutoConnect() {
				continue
			}
			if _, err := c.devices.Refresh(ctx, device.RefreshOptions{Silent: true}); err != nil && ctx.Err() == nil {
				c.logger.Debug("auto-refresh failed", zap.Error(err))
			}
		}
	}
}

// activeChanged keeps the camera list and the configured device in step
// with the selection, including when it is cleared.
func (c *Controller) activeChanged(id string) {
	c.catalog.Reset()
	if err := c.settings.SetDevice(id); err != nil {
		c.logger.Warn("failed to persist active device", zap.String("device", id), zap.Error(err))
	}
}

// downloadComplete runs on the status topic's goroutine, so the follow-up
// collaborator calls are moved off it.
func (c *Controller) downloadComplete(dir string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		ctx := context.Background()
		if _, err := c.devices.Refresh(ctx, device.RefreshOptions{PathOverride: dir}); err != nil {
			c.logger.Warn("refresh after download failed", zap.String("dir", dir), zap.Error(err))
		}
		c.CheckBinary(ctx)
	}()
}

// path is the configured collaborator folder.
func (c *Controller) path() string {
	return c.settings.Config().ScrcpyPath
}

// Logs is the console stream.
func (c *Controller) Logs() *logstream.Stream { return c.logs }

// Bus is the collaborator event bus.
func (c *Controller) Bus() *events.Bus { return c.bus }
