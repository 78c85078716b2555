// Package connection pairs with and connects to network devices through the
// collaborator, applying a single cleanup-and-retry for known transient
// failures.
package connection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/device"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/logstream"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/monitoring"
)

// Settle delays. Both are unconditional waits.
const (
	// RetrySettle separates the cleanup disconnect from the second connect.
	RetrySettle = 500 * time.Millisecond
	// ConnectSettle lets the transport settle before the follow-up refresh.
	ConnectSettle = 1000 * time.Millisecond
)

// Hint lines.
const (
	protocolFaultTip = `Protocol fault usually means the ADB server is stuck. Try "Kill ADB" in the sidebar.`
	stalePortTip     = `Port might be stale. Try "Kill ADB" to refresh discovery.`
)

// Client is the collaborator surface the orchestrator needs.
type Client interface {
	Connect(ctx context.Context, endpoint, path string) (collaborator.Attempt, error)
	Disconnect(ctx context.Context, endpoint, path string) error
	Pair(ctx context.Context, endpoint, code, path string) (collaborator.Attempt, error)
}

// Devices is the registry surface the orchestrator needs.
type Devices interface {
	Reserve() (release func(), ok bool)
	Refresh(ctx context.Context, opts device.RefreshOptions) (device.Diff, error)
}

// History records successful endpoints.
type History interface {
	Add(endpoint string) error
}

// Sleeper waits for a fixed duration.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(time.Duration)

// Sleep calls f(d).
func (f SleeperFunc) Sleep(d time.Duration) { f(d) }

// Orchestrator runs pairing and connection attempts.
type Orchestrator struct {
	client      Client
	devices     Devices
	history     History
	logs        *logstream.Stream
	sleeper     Sleeper
	defaultPath func() string
	logger      *zap.Logger
	metrics     *monitoring.Metrics
}

// NewOrchestrator creates an orchestrator that sleeps with time.Sleep.
func NewOrchestrator(client Client, devices Devices, history History, logs *logstream.Stream, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		client:      client,
		devices:     devices,
		history:     history,
		logs:        logs,
		sleeper:     SleeperFunc(time.Sleep),
		defaultPath: func() string { return "" },
		logger:      logger,
	}
}

// WithSleeper replaces the settle-delay implementation.
func (o *Orchestrator) WithSleeper(s Sleeper) *Orchestrator {
	if s != nil {
		o.sleeper = s
	}
	return o
}

// WithDefaultPath sets the source of the configured collaborator folder.
func (o *Orchestrator) WithDefaultPath(fn func() string) *Orchestrator {
	if fn != nil {
		o.defaultPath = fn
	}
	return o
}

// WithMetrics adds metrics tracking to the orchestrator
func (o *Orchestrator) WithMetrics(metrics *monitoring.Metrics) *Orchestrator {
	o.metrics = metrics
	return o
}

// Pair pairs with endpoint using code. It never retries.
func (o *Orchestrator) Pair(ctx context.Context, endpoint, code, pathOverride string) collaborator.Attempt {
	path := o.path(pathOverride)

	res, err := o.client.Pair(ctx, endpoint, code, path)
	if err != nil {
		o.logs.Error(fmt.Sprintf("Pairing error: %v", err))
		o.logger.Warn("pair invocation failed", zap.String("endpoint", endpoint), zap.Error(err))
		o.recordPair("error")
		return collaborator.Attempt{Success: false, Message: err.Error()}
	}

	if res.Success {
		o.logs.System("Successfully paired with " + endpoint)
		o.recordPair("success")
		o.logger.Info("device paired", zap.String("endpoint", endpoint))
		o.refresh(ctx, pathOverride)
		return res
	}

	lines := []string{logstream.PrefixSystem + "Pairing failed: " + res.Message}
	if strings.Contains(res.Message, "protocol fault") {
		lines = append(lines, logstream.PrefixTip+protocolFaultTip)
	}
	o.logs.Append(lines...)
	o.recordPair("failure")
	return res
}

// Connect connects to endpoint. A first failure whose message marks it as
// transient is followed by a disconnect, RetrySettle, and exactly one more
// attempt. On success the endpoint joins the history and, after
// ConnectSettle, the device list is refreshed silently.
//
// The registry's refresh guard is held for the duration when it is free,
// so refreshes requested by others are dropped rather than racing the
// connect.
func (o *Orchestrator) Connect(ctx context.Context, endpoint, pathOverride string) collaborator.Attempt {
	release, _ := o.devices.Reserve()
	defer release()

	path := o.path(pathOverride)

	res, err := o.connectOnce(ctx, endpoint, path)
	if err != nil {
		return o.invocationFailed(endpoint, err)
	}

	if !res.Success && IsTransient(res.Message) {
		o.logs.System("Connection failed, retrying with cleanup...")
		if o.metrics != nil {
			o.metrics.IncConnectRetries()
		}
		if err := o.client.Disconnect(ctx, endpoint, path); err != nil {
			o.logger.Debug("cleanup disconnect failed", zap.String("endpoint", endpoint), zap.Error(err))
		}
		o.sleeper.Sleep(RetrySettle)

		res, err = o.connectOnce(ctx, endpoint, path)
		if err != nil {
			return o.invocationFailed(endpoint, err)
		}
	}

	if !res.Success {
		lines := []string{logstream.PrefixSystem + "Connection failed: " + res.Message}
		if IsTransient(res.Message) {
			lines = append(lines, logstream.PrefixTip+stalePortTip)
		}
		o.logs.Append(lines...)
		return res
	}

	o.logs.System(fmt.Sprintf("CONNECTED TO %s SUCCESSFULLY.", endpoint))
	if err := o.history.Add(endpoint); err != nil {
		o.logger.Warn("failed to record endpoint history", zap.String("endpoint", endpoint), zap.Error(err))
	}

	o.sleeper.Sleep(ConnectSettle)
	release()
	o.refresh(ctx, path)
	return res
}

// IsTransient reports whether a connect failure message is one that a
// disconnect and retry usually clears.
func IsTransient(message string) bool {
	return strings.Contains(message, "failed to connect") || strings.Contains(message, "cannot connect")
}

func (o *Orchestrator) connectOnce(ctx context.Context, endpoint, path string) (collaborator.Attempt, error) {
	timer := monitoring.NewTimer(o.metrics, "connect")
	res, err := o.client.Connect(ctx, endpoint, path)

	outcome := "failure"
	switch {
	case err != nil:
		outcome = "error"
	case res.Success:
		outcome = "success"
	}
	timer.Stop(outcome)
	if o.metrics != nil {
		o.metrics.RecordConnect(outcome)
	}
	o.logger.Debug("connect attempt",
		zap.String("endpoint", endpoint),
		zap.String("outcome", outcome),
		zap.String("message", res.Message))
	return res, err
}

func (o *Orchestrator) invocationFailed(endpoint string, err error) collaborator.Attempt {
	o.logs.Error(fmt.Sprintf("Connection error: %v", err))
	o.logger.Warn("connect invocation failed", zap.String("endpoint", endpoint), zap.Error(err))
	return collaborator.Attempt{Success: false, Message: err.Error()}
}

func (o *Orchestrator) refresh(ctx context.Context, path string) {
	diff, err := o.devices.Refresh(ctx, device.RefreshOptions{PathOverride: path, Silent: true})
	if err != nil {
		o.logger.Debug("post-connect refresh failed", zap.Error(err))
		return
	}
	if diff.Skipped {
		o.logger.Debug("post-connect refresh dropped, another refresh is in flight")
	}
}

func (o *Orchestrator) recordPair(outcome string) {
	if o.metrics != nil {
		o.metrics.RecordPair(outcome)
	}
}

func (o *Orchestrator) path(override string) string {
	if override != "" {
		return override
	}
	return o.defaultPath()
}
