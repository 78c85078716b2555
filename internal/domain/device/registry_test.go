package device

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/logstream"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/monitoring"
	"github.com/yadavnikhil03/scrcpy-gui/internal/testutil"
)

func devices(ids ...string) collaborator.DeviceList {
	return collaborator.DeviceList{Devices: ids}
}

func TestRefreshEmitsDiffLogs(t *testing.T) {
	adb := testutil.NewMockCollaborator(t)
	adb.On("ListDevices", mock.Anything, "").Return(devices("A"), nil).Once()
	adb.On("ListDevices", mock.Anything, "").Return(devices("A", "B"), nil).Once()

	logs := logstream.New(0)
	r := NewRegistry(adb, logs, nil)
	ctx := context.Background()

	_, err := r.Refresh(ctx, RefreshOptions{Silent: true})
	require.NoError(t, err)
	logs.Clear()

	diff, err := r.Refresh(ctx, RefreshOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"B"}, diff.Added)
	assert.Empty(t, diff.Removed)
	assert.Equal(t, []string{"[SYSTEM] New device discovered: B"}, logs.Messages())
	assert.Equal(t, []string{"A", "B"}, r.Snapshot())
}

func TestRefreshRemovedAndUntouched(t *testing.T) {
	adb := testutil.NewMockCollaborator(t)
	adb.On("ListDevices", mock.Anything, mock.Anything).Return(devices("A", "B", "C"), nil).Once()
	adb.On("ListDevices", mock.Anything, mock.Anything).Return(devices("C", "D"), nil).Once()

	logs := logstream.New(0)
	r := NewRegistry(adb, logs, nil)
	ctx := context.Background()

	_, err := r.Refresh(ctx, RefreshOptions{Silent: true})
	require.NoError(t, err)
	logs.Clear()

	diff, err := r.Refresh(ctx, RefreshOptions{Silent: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"D"}, diff.Added)
	assert.Equal(t, []string{"A", "B"}, diff.Removed)
	assert.Equal(t, []string{
		"[SYSTEM] New device discovered: D",
		"[SYSTEM] Device disconnected: A",
		"[SYSTEM] Device disconnected: B",
	}, logs.Messages())
	for _, m := range logs.Messages() {
		assert.NotContains(t, m, ": C", "devices present in both snapshots are not logged")
	}
}

func TestRefreshHeartbeat(t *testing.T) {
	adb := testutil.NewMockCollaborator(t)
	adb.On("ListDevices", mock.Anything, mock.Anything).Return(devices("A", "B"), nil)

	logs := logstream.New(0)
	r := NewRegistry(adb, logs, nil)
	ctx := context.Background()

	_, err := r.Refresh(ctx, RefreshOptions{Silent: true})
	require.NoError(t, err)
	logs.Clear()

	_, err = r.Refresh(ctx, RefreshOptions{Silent: true})
	require.NoError(t, err)
	assert.Empty(t, logs.Messages(), "silent refresh with no change is quiet")

	_, err = r.Refresh(ctx, RefreshOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"[SYSTEM] Discovery active: 2 device(s) found."}, logs.Messages())
}

func TestRefreshErrorKeepsSnapshot(t *testing.T) {
	adb := testutil.NewMockCollaborator(t)
	adb.On("ListDevices", mock.Anything, mock.Anything).Return(devices("A"), nil).Once()
	adb.On("ListDevices", mock.Anything, mock.Anything).
		Return(collaborator.DeviceList{Error: "adb server version mismatch"}, nil).Once()
	adb.On("ListDevices", mock.Anything, mock.Anything).
		Return(collaborator.DeviceList{}, errors.New("exec: adb not found")).Once()

	logs := logstream.New(0)
	r := NewRegistry(adb, logs, nil)
	ctx := context.Background()

	_, err := r.Refresh(ctx, RefreshOptions{Silent: true})
	require.NoError(t, err)
	logs.Clear()

	_, err = r.Refresh(ctx, RefreshOptions{})
	var de *DiscoveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "adb server version mismatch", de.Reported)
	assert.Equal(t, []string{"A"}, r.Snapshot())

	_, err = r.Refresh(ctx, RefreshOptions{})
	require.ErrorAs(t, err, &de)
	assert.Error(t, errors.Unwrap(de))
	assert.Equal(t, []string{"A"}, r.Snapshot())

	assert.Equal(t, []string{
		"[SYSTEM] Discovery error: adb server version mismatch",
		"[SYSTEM] Error refreshing devices: exec: adb not found",
	}, logs.Messages())
}

func TestRefreshSelectsFirstDevice(t *testing.T) {
	adb := testutil.NewMockCollaborator(t)
	adb.On("ListDevices", mock.Anything, mock.Anything).Return(devices("Z", "A"), nil).Once()
	adb.On("ListDevices", mock.Anything, mock.Anything).Return(devices("A"), nil).Once()

	r := NewRegistry(adb, logstream.New(0), nil)
	var changes []string
	r.OnActiveChange(func(id string) { changes = append(changes, id) })

	_, err := r.Refresh(context.Background(), RefreshOptions{Silent: true})
	require.NoError(t, err)
	assert.Equal(t, "Z", r.Active(), "collaborator order, not sorted")

	_, err = r.Refresh(context.Background(), RefreshOptions{Silent: true})
	require.NoError(t, err)
	assert.Equal(t, "Z", r.Active(), "an existing selection is kept")
	assert.Equal(t, []string{"Z"}, changes)
}

func TestRefreshUsesOverrideThenDefaultPath(t *testing.T) {
	adb := testutil.NewMockCollaborator(t)
	adb.On("ListDevices", mock.Anything, "/opt/custom").Return(devices(), nil).Once()
	adb.On("ListDevices", mock.Anything, "/opt/configured").Return(devices(), nil).Once()

	r := NewRegistry(adb, logstream.New(0), nil).
		WithDefaultPath(func() string { return "/opt/configured" })

	_, err := r.Refresh(context.Background(), RefreshOptions{PathOverride: "/opt/custom"})
	require.NoError(t, err)
	_, err = r.Refresh(context.Background(), RefreshOptions{})
	require.NoError(t, err)
}

func TestConcurrentRefreshIsDropped(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	adb := testutil.NewMockCollaborator(t)
	adb.On("ListDevices", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(devices("A"), nil).Once()

	r := NewRegistry(adb, logstream.New(0), nil).WithMetrics(monitoring.NewMetrics())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = r.Refresh(context.Background(), RefreshOptions{})
	}()
	<-entered

	for i := 0; i < 5; i++ {
		diff, err := r.Refresh(context.Background(), RefreshOptions{})
		require.NoError(t, err)
		assert.True(t, diff.Skipped)
	}

	close(release)
	wg.Wait()
	adb.AssertNumberOfCalls(t, "ListDevices", 1)
	assert.False(t, r.Busy())
}

func TestReserveBlocksRefresh(t *testing.T) {
	adb := testutil.NewMockCollaborator(t)
	r := NewRegistry(adb, logstream.New(0), nil)

	release, ok := r.Reserve()
	require.True(t, ok)

	_, ok2 := r.Reserve()
	assert.False(t, ok2)

	diff, err := r.Refresh(context.Background(), RefreshOptions{})
	require.NoError(t, err)
	assert.True(t, diff.Skipped)

	release()
	release()
	assert.False(t, r.Busy())
	adb.AssertNotCalled(t, "ListDevices", mock.Anything, mock.Anything)
}

func TestSelectActiveNotifiesOnChange(t *testing.T) {
	r := NewRegistry(testutil.NewMockCollaborator(t), logstream.New(0), nil)

	var got []string
	unsubscribe := r.OnActiveChange(func(id string) { got = append(got, id) })

	r.SelectActive("A")
	r.SelectActive("A")
	r.SelectActive("B")
	unsubscribe()
	r.SelectActive("C")

	assert.Equal(t, []string{"A", "B"}, got)
	assert.Equal(t, "C", r.Active())
}

func TestDevicesAnnotates(t *testing.T) {
	adb := testutil.NewMockCollaborator(t)
	adb.On("ListDevices", mock.Anything, mock.Anything).
		Return(devices("R58M", "192.168.1.4:5555", "R58M"), nil)

	r := NewRegistry(adb, logstream.New(0), nil)
	_, err := r.Refresh(context.Background(), RefreshOptions{Silent: true})
	require.NoError(t, err)

	assert.Equal(t, []Info{
		{ID: "R58M", Transport: TransportUSB, Active: true},
		{ID: "192.168.1.4:5555", Transport: TransportNetwork},
	}, r.Devices())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		id   string
		want Transport
	}{
		{"R58M123ABC", TransportUSB},
		{"192.168.1.10:5555", TransportNetwork},
		{"adb-R58M-abc._adb-tls-connect._tcp", TransportUSB},
		{":5555", TransportUSB},
		{"host:", TransportUSB},
	}
	for _, tt := range tests {
		if got := Classify(tt.id); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.id, got, tt.want)
		}
	}
}
