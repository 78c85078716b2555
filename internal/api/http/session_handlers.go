package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionRequest optionally names a device; empty means the active one.
type SessionRequest struct {
	Device string `json:"device"`
}

// OptionsRequest is a scrcpy listing query such as --list-cameras.
type OptionsRequest struct {
	Arg string `json:"arg" binding:"required"`
}

// CommandRequest is an ad-hoc adb or scrcpy command line.
type CommandRequest struct {
	Command string `json:"command"`
}

// FilesRequest lists local files to send to the active device.
type FilesRequest struct {
	Files []string `json:"files" binding:"required"`
}

// ListSessions returns running sessions and the download state.
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running":  h.ctl.Sessions(),
		"download": h.ctl.DownloadState(),
	})
}

// StartSession launches a mirroring session with the saved configuration.
func (h *Handlers) StartSession(c *gin.Context) {
	var req SessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request format")
			return
		}
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.ctl.StartSession(ctx, req.Device); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// StopSession stops a mirroring session.
func (h *Handlers) StopSession(c *gin.Context) {
	var req SessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request format")
			return
		}
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.ctl.StopSession(ctx, req.Device); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListOptions runs a listing query against the active device.
func (h *Handlers) ListOptions(c *gin.Context) {
	var req OptionsRequest
	if err := c.ShouldBindJSON(&req); err != nil || !strings.HasPrefix(req.Arg, "--") {
		badRequest(c, "arg must be a --list-* flag")
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	out, cameras, err := h.ctl.ListOptions(ctx, req.Arg)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"output": out, "cameras": cameras})
}

// RunCommand runs an ad-hoc command against the active device.
func (h *Handlers) RunCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	out, err := h.ctl.RunCommand(ctx, req.Command)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// SendFiles installs packages and pushes other files to the active device.
func (h *Handlers) SendFiles(c *gin.Context) {
	var req FilesRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Files) == 0 {
		badRequest(c, "files are required")
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	c.JSON(http.StatusOK, gin.H{"results": h.ctl.SendFiles(ctx, req.Files)})
}

// Binary reports the last availability check. ?recheck=true probes again.
func (h *Handlers) Binary(c *gin.Context) {
	if c.Query("recheck") == "true" {
		ctx, cancel := h.requestContext(c)
		defer cancel()
		c.JSON(http.StatusOK, h.ctl.CheckBinary(ctx))
		return
	}
	c.JSON(http.StatusOK, h.ctl.Binary())
}

// DownloadBinary fetches the latest scrcpy release. Progress is pushed on
// the stream; the response arrives when the install finishes.
func (h *Handlers) DownloadBinary(c *gin.Context) {
	dir, err := h.ctl.Download(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "path": dir})
}
