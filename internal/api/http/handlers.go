// Package http exposes the controller's intents as a JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator"
	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator/installer"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/control"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/session"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/settings"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/resilience"
)

// DefaultTimeout bounds collaborator calls made on behalf of a request.
const DefaultTimeout = 60 * time.Second

// Handlers contains all HTTP handlers
type Handlers struct {
	ctl     *control.Controller
	timeout time.Duration
	logger  *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(ctl *control.Controller, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{ctl: ctl, timeout: DefaultTimeout, logger: logger}
}

// WithTimeout changes the per-request collaborator deadline.
func (h *Handlers) WithTimeout(d time.Duration) *Handlers {
	if d > 0 {
		h.timeout = d
	}
	return h
}

// Register mounts every route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	r.GET("/devices", h.ListDevices)
	r.POST("/devices/refresh", h.RefreshDevices)
	r.POST("/devices/active", h.SelectDevice)
	r.POST("/devices/connect", h.Connect)
	r.POST("/devices/pair", h.Pair)
	r.GET("/devices/mdns", h.MdnsServices)
	r.POST("/adb/kill", h.KillServer)

	r.GET("/config", h.GetConfig)
	r.PUT("/config", h.UpdateConfig)
	r.GET("/theme", h.GetTheme)
	r.PUT("/theme", h.SetTheme)
	r.PUT("/auto-connect", h.SetAutoConnect)
	r.GET("/history", h.GetHistory)
	r.DELETE("/history", h.ClearHistory)

	r.GET("/logs", h.GetLogs)
	r.POST("/logs", h.AppendLogs)
	r.DELETE("/logs", h.ClearLogs)
	r.POST("/logs/report", h.SaveReport)

	r.GET("/sessions", h.ListSessions)
	r.POST("/sessions/start", h.StartSession)
	r.POST("/sessions/stop", h.StopSession)
	r.POST("/capabilities", h.ListOptions)
	r.POST("/command", h.RunCommand)
	r.POST("/files", h.SendFiles)
	r.GET("/binary", h.Binary)
	r.POST("/binary/download", h.DownloadBinary)
}

// Health reports liveness plus a summary of the orchestration state.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "scrcpy-gui",
		"devices":  len(h.ctl.Devices()),
		"active":   h.ctl.ActiveDevice(),
		"sessions": len(h.ctl.Sessions()),
		"binary":   h.ctl.Binary(),
	})
}

func (h *Handlers) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		h.logger.Debug("request rejected", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNoDevice),
		errors.Is(err, settings.ErrUnknownMode),
		errors.Is(err, settings.ErrInvalidConfig),
		errors.Is(err, collaborator.ErrEmptyCommand):
		return http.StatusBadRequest
	case errors.Is(err, collaborator.ErrSessionRunning),
		errors.Is(err, installer.ErrInProgress):
		return http.StatusConflict
	case errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, resilience.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	case errors.Is(err, control.ErrNoInstaller),
		errors.Is(err, installer.ErrUnsupportedPlatform):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
