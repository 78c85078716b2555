package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/api/middleware"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/logstream"
	"github.com/yadavnikhil03/scrcpy-gui/internal/events"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/monitoring"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// sendBuffer is the number of frames queued per connection before
	// frames are dropped.
	sendBuffer = 256
)


// Message types pushed to the client.
const (
	TypeSystem = "system"
	TypeLog    = "log"
	TypeStatus = "status"
	TypePong   = "pong"
	TypeError  = "error"
)

// Message is one frame in either direction.
type Message struct {
	Type    string           `json:"type"`
	Message string           `json:"message,omitempty"`
	Entry   *logstream.Entry `json:"entry,omitempty"`
	Status  *events.Status   `json:"status,omitempty"`
	Time    int64            `json:"timestamp"`
}

// Handler manages WebSocket connections
type Handler struct {
	upgrader websocket.Upgrader
	logs     *logstream.Stream
	bus      *events.Bus
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandler creates a handler pushing console entries from logs and
// status events from bus.
func NewHandler(logs *logstream.Stream, bus *events.Bus, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin(nil)},
		logs:     logs,
		bus:      bus,
		logger:   logger,
	}
}

// WithOrigins sets the browser origins allowed to open the stream. Clients
// that send no Origin header and same-host pages are always accepted.
func (h *Handler) WithOrigins(origins []string) *Handler {
	h.upgrader.CheckOrigin = checkOrigin(origins)
	return h
}

func checkOrigin(origins []string) func(r *http.Request) bool {
	allowed := middleware.OriginAllowed(origins)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || middleware.SameHost(r, origin) || allowed(origin)
	}
}

// WithMetrics enables connection and message counters.
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// HandleConnection upgrades the request and streams until the client goes
// away. Both subscriptions are removed when it does.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := newClient(conn, h.logger)
	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	unsubLogs := h.logs.Subscribe(func(e logstream.Entry) {
		entry := e
		h.push(cl, Message{Type: TypeLog, Entry: &entry, Time: e.Time.Unix()})
	})
	unsubStatus := h.bus.SubscribeStatus(func(s events.Status) {
		status := s
		h.push(cl, Message{Type: TypeStatus, Status: &status, Time: s.At.Unix()})
	})
	defer func() {
		unsubLogs()
		unsubStatus()
		cl.close()
		h.logger.Debug("websocket client disconnected")
	}()

	go cl.writePump()
	h.push(cl, Message{Type: TypeSystem, Message: "Connected to scrcpy-gui daemon", Time: time.Now().Unix()})
	h.readPump(cl)
}

// readPump consumes client frames until the connection fails.
func (h *Handler) readPump(cl *client) {
	cl.conn.SetReadLimit(4096)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}

		switch msg.Type {
		case "ping":
			h.push(cl, Message{Type: TypePong, Time: time.Now().Unix()})
		default:
			h.push(cl, Message{Type: TypeError, Message: "unknown message type", Time: time.Now().Unix()})
		}
	}
}

func (h *Handler) push(cl *client, msg Message) {
	if !cl.enqueue(msg) {
		h.logger.Debug("websocket frame dropped", zap.String("type", msg.Type))
		return
	}
	if h.metrics != nil {
		h.metrics.RecordWSMessage("out", msg.Type)
	}
}

// client owns one connection. Only writePump writes to conn.
type client struct {
	conn   *websocket.Conn
	send   chan Message
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

func newClient(conn *websocket.Conn, logger *zap.Logger) *client {
	return &client{
		conn:   conn,
		send:   make(chan Message, sendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// enqueue never blocks; it reports false when the frame was dropped.
func (c *client) enqueue(msg Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
