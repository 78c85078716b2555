package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/shared/id"
)

// AppendLogsRequest carries console lines produced by the UI.
type AppendLogsRequest struct {
	Lines []string `json:"lines" binding:"required"`
}

// GetLogs returns the console window. ?after=<id> returns only newer
// entries.
func (h *Handlers) GetLogs(c *gin.Context) {
	after := id.LogID(c.Query("after"))
	if after == "" {
		c.JSON(http.StatusOK, gin.H{"entries": h.ctl.LogEntries()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": h.ctl.Logs().Since(after)})
}

// AppendLogs adds UI lines to the console.
func (h *Handlers) AppendLogs(c *gin.Context) {
	var req AppendLogsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Lines) == 0 {
		badRequest(c, "No log lines provided")
		return
	}
	h.ctl.AppendLog(req.Lines...)
	c.JSON(http.StatusOK, gin.H{"success": true, "received": len(req.Lines)})
}

// ClearLogs empties the console.
func (h *Handlers) ClearLogs(c *gin.Context) {
	h.ctl.ClearLogs()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SaveReport writes a diagnostic bundle to the downloads folder.
func (h *Handlers) SaveReport(c *gin.Context) {
	path, err := h.ctl.SaveReport()
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("diagnostic report requested", zap.String("path", path))
	c.JSON(http.StatusOK, gin.H{"success": true, "path": path})
}
