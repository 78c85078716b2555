// Package testutil provides testing utilities and helpers shared by the
// domain and API tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/settings"
)

// MockCollaborator is a mock implementation of collaborator.Collaborator.
type MockCollaborator struct {
	mock.Mock
}

var _ collaborator.Collaborator = (*MockCollaborator)(nil)

// ListDevices mocks the ListDevices method.
func (m *MockCollaborator) ListDevices(ctx context.Context, path string) (collaborator.DeviceList, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(collaborator.DeviceList), args.Error(1)
}

// Connect mocks the Connect method.
func (m *MockCollaborator) Connect(ctx context.Context, endpoint, path string) (collaborator.Attempt, error) {
	args := m.Called(ctx, endpoint, path)
	return args.Get(0).(collaborator.Attempt), args.Error(1)
}

// Disconnect mocks the Disconnect method.
func (m *MockCollaborator) Disconnect(ctx context.Context, endpoint, path string) error {
	args := m.Called(ctx, endpoint, path)
	return args.Error(0)
}

// Pair mocks the Pair method.
func (m *MockCollaborator) Pair(ctx context.Context, endpoint, code, path string) (collaborator.Attempt, error) {
	args := m.Called(ctx, endpoint, code, path)
	return args.Get(0).(collaborator.Attempt), args.Error(1)
}

// ListOptions mocks the ListOptions method.
func (m *MockCollaborator) ListOptions(ctx context.Context, device, arg, path string) (string, error) {
	args := m.Called(ctx, device, arg, path)
	return args.String(0), args.Error(1)
}

// StartSession mocks the StartSession method.
func (m *MockCollaborator) StartSession(ctx context.Context, cfg settings.SessionConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// StopSession mocks the StopSession method.
func (m *MockCollaborator) StopSession(ctx context.Context, device string) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

// PushFile mocks the PushFile method.
func (m *MockCollaborator) PushFile(ctx context.Context, device, file, path string) (collaborator.Transfer, error) {
	args := m.Called(ctx, device, file, path)
	return args.Get(0).(collaborator.Transfer), args.Error(1)
}

// InstallPackage mocks the InstallPackage method.
func (m *MockCollaborator) InstallPackage(ctx context.Context, device, file, path string) (collaborator.Transfer, error) {
	args := m.Called(ctx, device, file, path)
	return args.Get(0).(collaborator.Transfer), args.Error(1)
}

// RunCommand mocks the RunCommand method.
func (m *MockCollaborator) RunCommand(ctx context.Context, device, command, path string) (collaborator.CommandOutput, error) {
	args := m.Called(ctx, device, command, path)
	return args.Get(0).(collaborator.CommandOutput), args.Error(1)
}

// CheckBinary mocks the CheckBinary method.
func (m *MockCollaborator) CheckBinary(ctx context.Context, path string) collaborator.BinaryStatus {
	args := m.Called(ctx, path)
	return args.Get(0).(collaborator.BinaryStatus)
}

// MdnsServices mocks the MdnsServices method.
func (m *MockCollaborator) MdnsServices(ctx context.Context, path string) ([]collaborator.MdnsService, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]collaborator.MdnsService), args.Error(1)
}

// KillServer mocks the KillServer method.
func (m *MockCollaborator) KillServer(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

// NewMockCollaborator creates a mock whose expectations are asserted when
// the test ends.
func NewMockCollaborator(t *testing.T) *MockCollaborator {
	t.Helper()
	m := new(MockCollaborator)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// WithDefaults registers Maybe() fallbacks for every method not otherwise
// stubbed. Call it after the test's own expectations.
func (m *MockCollaborator) WithDefaults() *MockCollaborator {
	m.On("ListDevices", mock.Anything, mock.Anything).
		Return(collaborator.DeviceList{Devices: []string{}}, nil).Maybe()
	m.On("CheckBinary", mock.Anything, mock.Anything).
		Return(collaborator.BinaryStatus{Found: true, Message: "Scrcpy Ready"}).Maybe()
	m.On("StartSession", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("StopSession", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("KillServer", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("Disconnect", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

// Sleeper records requested settle delays without sleeping.
type Sleeper struct {
	mu     sync.Mutex
	delays []time.Duration
	// Hook, when set, runs inside Sleep so tests can act mid-wait.
	Hook func(time.Duration)
}

// Sleep records d.
func (s *Sleeper) Sleep(d time.Duration) {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	hook := s.Hook
	s.mu.Unlock()
	if hook != nil {
		hook(d)
	}
}

// Delays returns the recorded delays in order.
func (s *Sleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// Eventually polls cond until it holds or the deadline passes.
func Eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}
