package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator"
	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator/installer"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/control"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/session"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/settings"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/resilience"
	"github.com/yadavnikhil03/scrcpy-gui/internal/testutil"
)

type stubInstaller struct {
	dir string
	err error
}

func (s stubInstaller) Install(context.Context) (string, error) { return s.dir, s.err }

func setupRouter(t *testing.T, m *testutil.MockCollaborator, deps control.Deps) (*gin.Engine, *control.Controller) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	deps.Collaborator = m
	dir := t.TempDir()
	ctl := control.New(deps, control.Options{
		RefreshInterval: time.Hour,
		Sleeper:         &testutil.Sleeper{},
		VideosDir:       func() (string, error) { return dir, nil },
		DownloadsDir:    func() (string, error) { return dir, nil },
	}, nil)
	t.Cleanup(ctl.Close)

	router := gin.New()
	NewHandlers(ctl, nil).WithTimeout(5 * time.Second).Register(router)
	return router, ctl
}

func do(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t, testutil.NewMockCollaborator(t), control.Deps{})

	w, body := do(t, router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 0, body["devices"])
}

func TestRefreshAndSelectDevice(t *testing.T) {
	m := testutil.NewMockCollaborator(t)
	m.On("ListDevices", mock.Anything, "").
		Return(collaborator.DeviceList{Devices: []string{"R58M", "10.0.0.5:5555"}}, nil).Once()
	router, ctl := setupRouter(t, m, control.Deps{})

	w, body := do(t, router, "POST", "/devices/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "R58M", body["active"])
	diff := body["diff"].(map[string]any)
	assert.EqualValues(t, 2, diff["total"])

	w, body = do(t, router, "POST", "/devices/active", `{"device":"10.0.0.5:5555"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10.0.0.5:5555", body["active"])
	assert.Equal(t, "10.0.0.5:5555", ctl.ActiveDevice())

	w, body = do(t, router, "GET", "/devices", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["devices"], 2)
}

func TestRefreshFailure(t *testing.T) {
	m := testutil.NewMockCollaborator(t)
	m.On("ListDevices", mock.Anything, "").
		Return(collaborator.DeviceList{Error: "ADB returned error"}, nil).Once()
	router, _ := setupRouter(t, m, control.Deps{})

	w, body := do(t, router, "POST", "/devices/refresh", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestConnectValidation(t *testing.T) {
	router, _ := setupRouter(t, testutil.NewMockCollaborator(t), control.Deps{})

	w, _ := do(t, router, "POST", "/devices/connect", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, "POST", "/devices/pair", `{"endpoint":"10.0.0.5:37000"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConnectOutcomeInBody(t *testing.T) {
	m := testutil.NewMockCollaborator(t)
	m.On("Connect", mock.Anything, "10.0.0.5:5555", "").
		Return(collaborator.Attempt{Success: true, Message: "connected to 10.0.0.5:5555"}, nil).Once()
	m.WithDefaults()
	router, ctl := setupRouter(t, m, control.Deps{})

	w, body := do(t, router, "POST", "/devices/connect", `{"endpoint":"10.0.0.5:5555"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []string{"10.0.0.5:5555"}, ctl.History())

	w, body = do(t, router, "GET", "/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"10.0.0.5:5555"}, body["history"])

	w, _ = do(t, router, "DELETE", "/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ctl.History())
}

func TestConfigRoundTrip(t *testing.T) {
	router, ctl := setupRouter(t, testutil.NewMockCollaborator(t), control.Deps{})

	w, body := do(t, router, "PUT", "/config", `{"sessionMode":"desktop","vdWidth":2560}`)
	require.Equal(t, http.StatusOK, w.Code)
	cfg := body["config"].(map[string]any)
	assert.Equal(t, "desktop", cfg["sessionMode"])
	assert.EqualValues(t, 2560, cfg["vdWidth"])
	assert.Equal(t, settings.ModeDesktop, ctl.Preferences().Config.SessionMode)

	w, _ = do(t, router, "PUT", "/config", `{"sessionMode":"vr"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, "PUT", "/config", `{"bitrate":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = do(t, router, "GET", "/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["autoConnect"])
}

func TestThemeAndAutoConnect(t *testing.T) {
	router, ctl := setupRouter(t, testutil.NewMockCollaborator(t), control.Deps{})

	w, body := do(t, router, "PUT", "/theme", `{"theme":"midnight"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "midnight", body["theme"])

	w, body = do(t, router, "GET", "/theme", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "midnight", body["theme"])

	w, _ = do(t, router, "PUT", "/auto-connect", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, "PUT", "/auto-connect", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, ctl.Preferences().AutoConnect)
}

func TestSessionsLifecycle(t *testing.T) {
	m := testutil.NewMockCollaborator(t)
	m.On("StartSession", mock.Anything, mock.MatchedBy(func(cfg settings.SessionConfig) bool {
		return cfg.Device == "R58M"
	})).Return(nil).Once()
	m.On("StartSession", mock.Anything, mock.MatchedBy(func(cfg settings.SessionConfig) bool {
		return cfg.Device == "busy"
	})).Return(collaborator.ErrSessionRunning).Once()
	m.On("StopSession", mock.Anything, "R58M").Return(nil).Once()
	router, ctl := setupRouter(t, m, control.Deps{})

	w, _ := do(t, router, "POST", "/sessions/start", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ctl.SelectDevice("R58M")
	w, _ = do(t, router, "POST", "/sessions/start", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w, _ = do(t, router, "POST", "/sessions/start", `{"device":"busy"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, router, "POST", "/sessions/stop", `{}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := do(t, router, "GET", "/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["running"])
}

func TestCapabilities(t *testing.T) {
	m := testutil.NewMockCollaborator(t)
	m.On("ListOptions", mock.Anything, "R58M", "--list-cameras", "").
		Return("    --camera-id=1    (front, 3264x2448, fps=[15, 30])", nil).Once()
	router, ctl := setupRouter(t, m, control.Deps{})

	w, _ := do(t, router, "POST", "/capabilities", `{"arg":"cameras"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, "POST", "/capabilities", `{"arg":"--list-cameras"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "no active device")

	ctl.SelectDevice("R58M")
	w, body := do(t, router, "POST", "/capabilities", `{"arg":"--list-cameras"}`)
	require.Equal(t, http.StatusOK, w.Code)
	cameras := body["cameras"].([]any)
	require.Len(t, cameras, 1)
	assert.Equal(t, "1", cameras[0].(map[string]any)["id"])
}

func TestCommand(t *testing.T) {
	m := testutil.NewMockCollaborator(t)
	m.On("RunCommand", mock.Anything, "", "  ", "").
		Return(collaborator.CommandOutput{}, collaborator.ErrEmptyCommand).Once()
	m.On("RunCommand", mock.Anything, "", "devices", "").
		Return(collaborator.CommandOutput{Stdout: "List of devices attached", Binary: "adb"}, nil).Once()
	router, _ := setupRouter(t, m, control.Deps{})

	w, _ := do(t, router, "POST", "/command", `{"command":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := do(t, router, "POST", "/command", `{"command":"devices"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "adb", body["binary"])
	assert.Equal(t, "List of devices attached", body["stdout"])
}

func TestFiles(t *testing.T) {
	m := testutil.NewMockCollaborator(t)
	m.On("InstallPackage", mock.Anything, "R58M", "/tmp/app.apk", "").
		Return(collaborator.Transfer{Success: true, Message: "Success"}, nil).Once()
	router, ctl := setupRouter(t, m, control.Deps{})
	ctl.SelectDevice("R58M")

	w, _ := do(t, router, "POST", "/files", `{"files":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := do(t, router, "POST", "/files", `{"files":["/tmp/app.apk"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	results := body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "install", results[0].(map[string]any)["kind"])
}

func TestBinaryAndDownload(t *testing.T) {
	m := testutil.NewMockCollaborator(t)
	m.On("CheckBinary", mock.Anything, "").
		Return(collaborator.BinaryStatus{Found: false, Message: "Scrcpy not found"}).Once()
	router, _ := setupRouter(t, m, control.Deps{
		Installer: stubInstaller{err: installer.ErrInProgress},
	})

	w, body := do(t, router, "GET", "/binary?recheck=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["found"])

	w, _ = do(t, router, "POST", "/binary/download", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDownloadSuccess(t *testing.T) {
	router, _ := setupRouter(t, testutil.NewMockCollaborator(t), control.Deps{
		Installer: stubInstaller{dir: "/opt/app/scrcpy-bin"},
	})

	w, body := do(t, router, "POST", "/binary/download", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/opt/app/scrcpy-bin", body["path"])
}

func TestLogs(t *testing.T) {
	router, ctl := setupRouter(t, testutil.NewMockCollaborator(t), control.Deps{})

	w, _ := do(t, router, "POST", "/logs", `{"lines":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, router, "POST", "/logs", `{"lines":["first","second"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, body := do(t, router, "GET", "/logs", "")
	require.Equal(t, http.StatusOK, w.Code)
	entries := body["entries"].([]any)
	require.Len(t, entries, 2)

	first := entries[0].(map[string]any)["id"].(string)
	w, body = do(t, router, "GET", "/logs?after="+first, "")
	require.Equal(t, http.StatusOK, w.Code)
	newer := body["entries"].([]any)
	require.Len(t, newer, 1)
	assert.Equal(t, "second", newer[0].(map[string]any)["message"])

	last := newer[0].(map[string]any)["id"].(string)
	w, body = do(t, router, "GET", "/logs?after="+last, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, body["entries"], "entries serialize as [] when up to date")

	w, body = do(t, router, "POST", "/logs/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["path"])

	w, _ = do(t, router, "DELETE", "/logs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ctl.LogEntries())
}

func TestMdns(t *testing.T) {
	m := testutil.NewMockCollaborator(t)
	m.On("MdnsServices", mock.Anything, "").Return(nil, collaborator.ErrMdnsFailed).Once()
	router, _ := setupRouter(t, m, control.Deps{})

	w, body := do(t, router, "GET", "/devices/mdns", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, collaborator.ErrMdnsFailed.Error(), body["error"])
}

func TestKillServer(t *testing.T) {
	m := testutil.NewMockCollaborator(t)
	m.On("KillServer", mock.Anything, "").Return(nil).Once()
	m.On("ListDevices", mock.Anything, "").Return(collaborator.DeviceList{}, nil).Once()
	router, _ := setupRouter(t, m, control.Deps{})

	w, body := do(t, router, "POST", "/adb/kill", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{session.ErrNoDevice, http.StatusBadRequest},
		{&session.SessionError{Device: "A", Op: "start", Cause: collaborator.ErrSessionRunning}, http.StatusConflict},
		{resilience.ErrCircuitOpen, http.StatusServiceUnavailable},
		{control.ErrNoInstaller, http.StatusNotImplemented},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
