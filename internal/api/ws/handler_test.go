package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/logstream"
	"github.com/yadavnikhil03/scrcpy-gui/internal/events"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/monitoring"
	"github.com/yadavnikhil03/scrcpy-gui/internal/testutil"
)

func setup(t *testing.T) (*logstream.Stream, *events.Bus, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logs := logstream.New(0)
	bus := events.NewBus(nil)
	router := gin.New()
	router.GET("/stream", NewHandler(logs, bus, nil).WithMetrics(monitoring.NewMetrics()).HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var hello Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, TypeSystem, hello.Type)
	return logs, bus, conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestStreamPushesLogEntries(t *testing.T) {
	logs, _, conn := setup(t)

	logs.System("New device discovered: R58M")

	msg := read(t, conn)
	assert.Equal(t, TypeLog, msg.Type)
	require.NotNil(t, msg.Entry)
	assert.Equal(t, "[SYSTEM] New device discovered: R58M", msg.Entry.Message)
	assert.NotEmpty(t, msg.Entry.ID)
}

func TestStreamPushesStatusEvents(t *testing.T) {
	_, bus, conn := setup(t)

	bus.PublishStatus(events.SessionStarted("R58M"))

	msg := read(t, conn)
	assert.Equal(t, TypeStatus, msg.Type)
	require.NotNil(t, msg.Status)
	assert.Equal(t, events.StatusSession, msg.Status.Type)
	assert.Equal(t, "R58M", msg.Status.Device)
	assert.True(t, msg.Status.Running)
}

func TestStreamPingAndUnknown(t *testing.T) {
	_, _, conn := setup(t)

	require.NoError(t, conn.WriteJSON(Message{Type: "ping"}))
	assert.Equal(t, TypePong, read(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Message{Type: "subscribe"}))
	msg := read(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, "unknown message type", msg.Message)
}

func TestStreamUnsubscribesOnClose(t *testing.T) {
	_, bus, conn := setup(t)

	status, _ := bus.Subscribers()
	assert.Equal(t, 1, status)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	testutil.Eventually(t, func() bool {
		status, _ := bus.Subscribers()
		return status == 0
	}, "status subscription removed")
}

func TestStreamRejectsForeignOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/stream", NewHandler(logstream.New(0), events.NewBus(nil), nil).
		WithOrigins([]string{"http://localhost:1420"}).
		HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "http://localhost:1420")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}
