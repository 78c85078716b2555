package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ConnectRequest names a network endpoint.
type ConnectRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// PairRequest names a pairing endpoint and its code.
type PairRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Code     string `json:"code" binding:"required"`
}

// SelectRequest names the device to make active.
type SelectRequest struct {
	Device string `json:"device"`
}

// ListDevices returns the snapshot and the active device.
func (h *Handlers) ListDevices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"devices": h.ctl.Devices(),
		"active":  h.ctl.ActiveDevice(),
	})
}

// RefreshDevices reloads the snapshot. ?silent=true suppresses the
// heartbeat console line.
func (h *Handlers) RefreshDevices(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	diff, err := h.ctl.Refresh(ctx, c.Query("silent") == "true")
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"diff":    diff,
		"devices": h.ctl.Devices(),
		"active":  h.ctl.ActiveDevice(),
	})
}

// SelectDevice changes the active device.
func (h *Handlers) SelectDevice(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	h.ctl.SelectDevice(req.Device)
	c.JSON(http.StatusOK, gin.H{"success": true, "active": h.ctl.ActiveDevice()})
}

// Connect connects to a network endpoint. A failed attempt is still a
// 200; the outcome is in the body.
func (h *Handlers) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Endpoint) == "" {
		badRequest(c, "endpoint is required")
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	c.JSON(http.StatusOK, h.ctl.Connect(ctx, req.Endpoint))
}

// Pair pairs with a wireless-debugging endpoint.
func (h *Handlers) Pair(c *gin.Context) {
	var req PairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "endpoint and code are required")
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	c.JSON(http.StatusOK, h.ctl.Pair(ctx, req.Endpoint, req.Code))
}

// MdnsServices lists advertised wireless-debugging services.
func (h *Handlers) MdnsServices(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	services, err := h.ctl.MdnsServices(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// KillServer restarts the adb server.
func (h *Handlers) KillServer(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.ctl.KillServer(ctx); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
