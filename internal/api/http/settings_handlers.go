package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ThemeRequest sets the UI theme.
type ThemeRequest struct {
	Theme string `json:"theme"`
}

// AutoConnectRequest toggles background refresh.
type AutoConnectRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// GetConfig returns the configuration and the other preferences.
func (h *Handlers) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.ctl.Preferences())
}

// UpdateConfig merges a partial configuration object.
func (h *Handlers) UpdateConfig(c *gin.Context) {
	patch, err := io.ReadAll(c.Request.Body)
	if err != nil || len(patch) == 0 {
		badRequest(c, "Invalid config format")
		return
	}
	cfg, err := h.ctl.UpdateConfig(patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "config": cfg})
}

// GetTheme returns the UI theme.
func (h *Handlers) GetTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theme": h.ctl.Theme()})
}

// SetTheme changes the UI theme. An empty theme restores the default.
func (h *Handlers) SetTheme(c *gin.Context) {
	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid theme format")
		return
	}
	if err := h.ctl.SetTheme(req.Theme); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "theme": h.ctl.Theme()})
}

// SetAutoConnect toggles background refresh.
func (h *Handlers) SetAutoConnect(c *gin.Context) {
	var req AutoConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "enabled is required")
		return
	}
	if err := h.ctl.SetAutoConnect(*req.Enabled); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "enabled": *req.Enabled})
}

// GetHistory returns recent endpoints, newest first.
func (h *Handlers) GetHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": h.ctl.History()})
}

// ClearHistory forgets every recent endpoint.
func (h *Handlers) ClearHistory(c *gin.Context) {
	if err := h.ctl.ClearHistory(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
