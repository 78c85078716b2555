// Package transfer routes files dropped onto a device: Android packages are
// installed, anything else is pushed to the device's Downloads folder.
package transfer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator"
	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/logstream"
)

// Kind is how a file is sent.
type Kind string

const (
	KindPush    Kind = "push"
	KindInstall Kind = "install"
)

const apkMIME = "application/vnd.android.package-archive"

// Client is the collaborator surface used for transfers.
type Client interface {
	PushFile(ctx context.Context, device, file, path string) (collaborator.Transfer, error)
	InstallPackage(ctx context.Context, device, file, path string) (collaborator.Transfer, error)
}

// Result is the outcome for one file.
type Result struct {
	File    string `json:"file"`
	Kind    Kind   `json:"kind"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Classify decides how file is sent. The .apk extension is decisive;
// otherwise the content is sniffed so renamed packages still install.
func Classify(file string) Kind {
	if strings.EqualFold(filepath.Ext(file), ".apk") {
		return KindInstall
	}
	mt, err := mimetype.DetectFile(file)
	if err == nil && mt.Is(apkMIME) {
		return KindInstall
	}
	return KindPush
}

// Router sends files to the active device.
type Router struct {
	client Client
	logs   *logstream.Stream
	logger *zap.Logger
}

// NewRouter creates a router.
func NewRouter(client Client, logs *logstream.Stream, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{client: client, logs: logs, logger: logger}
}

// Send installs or pushes every file to device, in order. With no device
// it logs a warning and sends nothing.
func (r *Router) Send(ctx context.Context, device string, files []string, path string) []Result {
	if device == "" {
		r.logs.Append(logstream.PrefixWarn + "No device selected for drag-and-drop operation.")
		return nil
	}

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, r.sendOne(ctx, device, file, path))
	}
	return results
}

func (r *Router) sendOne(ctx context.Context, device, file, path string) Result {
	kind := Classify(file)

	var (
		res collaborator.Transfer
		err error
	)
	switch kind {
	case KindInstall:
		r.logs.System(fmt.Sprintf("Installing APK on %s: %s...", device, file))
		res, err = r.client.InstallPackage(ctx, device, file, path)
	default:
		r.logs.System(fmt.Sprintf("Pushing file to %s: %s...", device, file))
		res, err = r.client.PushFile(ctx, device, file, path)
	}

	if err != nil {
		r.logs.Append(fmt.Sprintf("Error: %v", err))
		r.logger.Warn("transfer failed", zap.String("file", file), zap.String("kind", string(kind)), zap.Error(err))
		return Result{File: file, Kind: kind, Message: err.Error()}
	}

	r.logs.Append(logstream.PrefixADB + res.Message)
	return Result{File: file, Kind: kind, Success: res.Success, Message: res.Message}
}
