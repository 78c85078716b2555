package device

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/logstream"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/monitoring"
)

// Lister is the collaborator surface the registry needs.
type Lister interface {
	ListDevices(ctx context.Context, path string) (collaborator.DeviceList, error)
}

// RefreshOptions tune a single refresh.
type RefreshOptions struct {
	// PathOverride replaces the configured collaborator folder.
	PathOverride string
	// Silent suppresses the heartbeat line when nothing changed.
	Silent bool
}

// Diff describes what a refresh changed.
type Diff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Total   int      `json:"total"`
	// Skipped is set when another refresh held the guard and this call
	// did nothing.
	Skipped bool `json:"skipped"`
}

// Registry holds the device snapshot and the active device.
type Registry struct {
	busy atomic.Bool

	mu       sync.RWMutex
	snapshot []string // Protected by mu
	active   string   // Protected by mu

	obsMu     sync.Mutex
	observers map[int]func(string)
	nextObs   int

	lister      Lister
	logs        *logstream.Stream
	defaultPath func() string
	logger      *zap.Logger
	metrics     *monitoring.Metrics
}

// NewRegistry creates an empty registry.
func NewRegistry(lister Lister, logs *logstream.Stream, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		observers:   make(map[int]func(string)),
		lister:      lister,
		logs:        logs,
		defaultPath: func() string { return "" },
		logger:      logger,
	}
}

// WithMetrics adds metrics tracking to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// WithDefaultPath sets the source of the configured collaborator folder,
// consulted when a refresh has no override.
func (r *Registry) WithDefaultPath(fn func() string) *Registry {
	if fn != nil {
		r.defaultPath = fn
	}
	return r
}

// Reserve takes the refresh guard if it is free. The returned release
// function is idempotent. While reserved, Refresh calls are dropped.
func (r *Registry) Reserve() (release func(), ok bool) {
	if !r.busy.CompareAndSwap(false, true) {
		return func() {}, false
	}
	var once sync.Once
	return func() { once.Do(func() { r.busy.Store(false) }) }, true
}

// Busy reports whether a refresh or reservation is outstanding.
func (r *Registry) Busy() bool {
	return r.busy.Load()
}

// Refresh lists devices and replaces the snapshot. A call made while the
// guard is held returns immediately with Diff.Skipped and never reaches the
// collaborator. Failures are logged to the stream and returned as
// *DiscoveryError; the snapshot is left untouched.
func (r *Registry) Refresh(ctx context.Context, opts RefreshOptions) (Diff, error) {
	if !r.busy.CompareAndSwap(false, true) {
		r.logger.Debug("refresh dropped, another is in flight")
		r.record("skipped")
		return Diff{Skipped: true}, nil
	}
	defer r.busy.Store(false)

	path := opts.PathOverride
	if path == "" {
		path = r.defaultPath()
	}

	list, err := r.lister.ListDevices(ctx, path)
	if err != nil {
		r.logs.System(fmt.Sprintf("Error refreshing devices: %v", err))
		r.logger.Warn("device listing failed", zap.Error(err))
		r.record("error")
		return Diff{}, &DiscoveryError{Cause: err}
	}
	if list.Error != "" {
		r.logs.System("Discovery error: " + list.Error)
		r.logger.Warn("collaborator reported discovery error", zap.String("error", list.Error))
		r.record("error")
		return Diff{}, &DiscoveryError{Reported: list.Error}
	}

	next := dedupe(list.Devices)

	r.mu.Lock()
	prev := r.snapshot
	r.snapshot = next
	selectFirst := r.active == "" && len(next) > 0
	r.mu.Unlock()

	diff := Diff{
		Added:   difference(next, prev),
		Removed: difference(prev, next),
		Total:   len(next),
	}

	lines := make([]string, 0, len(diff.Added)+len(diff.Removed)+1)
	for _, id := range diff.Added {
		lines = append(lines, logstream.PrefixSystem+"New device discovered: "+id)
	}
	for _, id := range diff.Removed {
		lines = append(lines, logstream.PrefixSystem+"Device disconnected: "+id)
	}
	if !opts.Silent && len(diff.Added) == 0 && len(diff.Removed) == 0 {
		lines = append(lines, fmt.Sprintf("%sDiscovery active: %d device(s) found.", logstream.PrefixSystem, len(next)))
	}
	r.logs.Append(lines...)

	if selectFirst {
		r.selectIfUnset(next[0])
	}

	r.record("ok")
	if r.metrics != nil {
		r.metrics.SetDevicesVisible(len(next))
	}
	r.logger.Debug("devices refreshed",
		zap.Int("total", len(next)),
		zap.Strings("added", diff.Added),
		zap.Strings("removed", diff.Removed))

	return diff, nil
}

// Snapshot returns the current device ids in collaborator order.
func (r *Registry) Snapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.snapshot...)
}

// Devices returns the snapshot annotated with transport and selection.
func (r *Registry) Devices() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, len(r.snapshot))
	for i, id := range r.snapshot {
		out[i] = Info{ID: id, Transport: Classify(id), Active: id == r.active}
	}
	return out
}

// Active returns the selected device, or "" when none is selected.
func (r *Registry) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// SelectActive sets the active device. The id does not have to be in the
// snapshot. Observers run when the value changes.
func (r *Registry) SelectActive(id string) {
	r.mu.Lock()
	if r.active == id {
		r.mu.Unlock()
		return
	}
	r.active = id
	r.mu.Unlock()

	r.notify(id)
}

// OnActiveChange registers fn for every active-device change and returns
// the function that removes it.
func (r *Registry) OnActiveChange(fn func(id string)) func() {
	r.obsMu.Lock()
	key := r.nextObs
	r.nextObs++
	r.observers[key] = fn
	r.obsMu.Unlock()

	return func() {
		r.obsMu.Lock()
		delete(r.observers, key)
		r.obsMu.Unlock()
	}
}

// selectIfUnset selects id unless something was selected meanwhile.
func (r *Registry) selectIfUnset(id string) {
	r.mu.Lock()
	if r.active != "" {
		r.mu.Unlock()
		return
	}
	r.active = id
	r.mu.Unlock()

	r.logger.Info("active device auto-selected", zap.String("device", id))
	r.notify(id)
}

func (r *Registry) notify(id string) {
	r.obsMu.Lock()
	fns := make([]func(string), 0, len(r.observers))
	for _, fn := range r.observers {
		fns = append(fns, fn)
	}
	r.obsMu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}

func (r *Registry) record(outcome string) {
	if r.metrics != nil {
		r.metrics.RecordRefresh(outcome)
	}
}

// difference returns the elements of a not in b, in a's order.
func difference(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, id := range b {
		in[id] = struct{}{}
	}
	out := []string{}
	for _, id := range a {
		if _, ok := in[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
