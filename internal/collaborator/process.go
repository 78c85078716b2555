package collaborator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/events"
)

const (
	// StopGrace is how long a stopped session may take to exit before it
	// is killed.
	StopGrace = 500 * time.Millisecond

	// drainTimeout bounds the wait for trailing output after exit.
	drainTimeout = 2 * time.Second
)

// ErrSessionRunning is returned when a device already has a live session.
var ErrSessionRunning = errors.New("session already running")

// StartFunc starts cmd and returns a reader carrying its combined output.
type StartFunc func(cmd *exec.Cmd) (io.ReadCloser, error)

// process is a live session.
type process struct {
	device  string
	cmd     *exec.Cmd
	out     io.ReadCloser
	stopped atomic.Bool
	drained chan struct{}
	exited  chan struct{}
	done    chan struct{}
}

// Sessions runs one scrcpy process per device, forwards its console output
// line by line and reports its lifecycle on the status topic.
type Sessions struct {
	mu        sync.Mutex
	procs     map[string]*process
	publisher events.Publisher
	start     StartFunc
	grace     time.Duration
	logger    *zap.Logger
}

// NewSessions creates a session runner. Output is read through a pty where
// the platform supports one and through a pipe otherwise.
func NewSessions(publisher events.Publisher, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{
		procs:     make(map[string]*process),
		publisher: publisher,
		start:     StartPTY,
		grace:     StopGrace,
		logger:    logger,
	}
}

// WithStart replaces how processes are started.
func (s *Sessions) WithStart(start StartFunc) *Sessions {
	s.start = start
	return s
}

// WithGrace sets the stop grace period.
func (s *Sessions) WithGrace(d time.Duration) *Sessions {
	s.grace = d
	return s
}

// Launch spawns bin for device and returns once it is running.
func (s *Sessions) Launch(device, bin string, args []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.procs[device]; ok {
		return fmt.Errorf("%w: %s", ErrSessionRunning, device)
	}

	cmd := exec.Command(bin, args...)
	hideWindow(cmd)

	out, err := s.start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", bin, err)
	}

	p := &process{
		device:  device,
		cmd:     cmd,
		out:     out,
		drained: make(chan struct{}),
		exited:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	s.procs[device] = p

	s.logger.Info("session started",
		zap.String("device", device),
		zap.Int("pid", cmd.Process.Pid))
	s.publisher.PublishStatus(events.SessionStarted(device))

	go s.readOutput(p)
	go s.monitorProcess(p)
	return nil
}

// readOutput forwards each output line to the log topic.
func (s *Sessions) readOutput(p *process) {
	defer close(p.drained)

	scanner := bufio.NewScanner(p.out)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		s.publisher.PublishLog(line)
	}
	// A pty reports EIO once the child side is gone.
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		s.logger.Debug("session output ended", zap.String("device", p.device), zap.Error(err))
	}
}

// monitorProcess waits for exit, drains output and reports the stop.
func (s *Sessions) monitorProcess(p *process) {
	defer close(p.done)
	waitErr := p.cmd.Wait()
	close(p.exited)

	select {
	case <-p.drained:
	case <-time.After(drainTimeout):
	}
	p.out.Close()
	<-p.drained

	if !p.stopped.Load() {
		status := exitStatus(p.cmd, waitErr)
		s.publisher.PublishLog("[SYSTEM] Scrcpy process exited with status: " + status)
		s.logger.Info("session exited", zap.String("device", p.device), zap.String("status", status))
	}

	// Launch publishes under the same lock, so a replacement session's
	// running:true can never be overtaken by this stop.
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.procs[p.device]
	if ok && current != p {
		s.logger.Debug("session replaced before exit", zap.String("device", p.device))
		return
	}
	delete(s.procs, p.device)
	s.publisher.PublishStatus(events.SessionStopped(p.device))
}

// Stop terminates the device's session. Stopping a device with no session
// is a no-op.
func (s *Sessions) Stop(device string) error {
	s.mu.Lock()
	p, ok := s.procs[device]
	if ok {
		delete(s.procs, device)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}
	p.stopped.Store(true)

	if err := terminate(p.cmd.Process); err != nil {
		s.logger.Debug("terminate failed", zap.String("device", device), zap.Error(err))
	}

	select {
	case <-p.exited:
		return nil
	case <-time.After(s.grace):
	}

	s.logger.Warn("session ignored termination, killing", zap.String("device", device))
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill session for %s: %w", device, err)
	}
	return nil
}

// Running lists devices with a live process.
func (s *Sessions) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices := make([]string, 0, len(s.procs))
	for d := range s.procs {
		devices = append(devices, d)
	}
	return devices
}

// Close stops every session.
func (s *Sessions) Close() error {
	var errs []error
	for _, d := range s.Running() {
		if err := s.Stop(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StartPTY starts cmd attached to a pseudo-terminal so the child keeps
// line-buffered output. Where no pty is available it falls back to
// StartPipe.
func StartPTY(cmd *exec.Cmd) (io.ReadCloser, error) {
	ptmx, err := pty.Start(cmd)
	if err == nil {
		return ptmx, nil
	}
	// pty fails before touching cmd when the platform has none.
	if errors.Is(err, pty.ErrUnsupported) {
		return StartPipe(cmd)
	}
	return nil, err
}

// StartPipe starts cmd with stdout and stderr sharing one pipe.
func StartPipe(cmd *exec.Cmd) (io.ReadCloser, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, err
	}
	// The child holds its own copy of the write end.
	w.Close()
	return r, nil
}

func exitStatus(cmd *exec.Cmd, waitErr error) string {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.String()
	}
	if waitErr != nil {
		return waitErr.Error()
	}
	return "unknown"
}
