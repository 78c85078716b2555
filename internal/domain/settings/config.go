// Package settings owns the persisted session configuration together with
// the small UI preferences stored next to it (theme, auto-connect, default
// recording folder).
package settings

import (
	"errors"
	"fmt"
)

// Mode selects what a session streams.
type Mode string

const (
	ModeMirror  Mode = "mirror"
	ModeCamera  Mode = "camera"
	ModeDesktop Mode = "desktop"
)

// ErrUnknownMode is returned for a session mode outside Mode's values.
var ErrUnknownMode = errors.New("unknown session mode")

// ErrInvalidConfig is returned for a configuration patch that does not
// decode.
var ErrInvalidConfig = errors.New("invalid config patch")

// Validate reports whether m is a known mode.
func (m Mode) Validate() error {
	switch m {
	case ModeMirror, ModeCamera, ModeDesktop:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownMode, string(m))
}

// Label is the human-readable session kind.
func (m Mode) Label() string {
	switch m {
	case ModeCamera:
		return "Camera Mode"
	case ModeDesktop:
		return "Desktop Mode"
	}
	return "Screen Mirroring"
}

// SessionConfig is the flat set of session parameters. Zero values of the
// optional string and numeric fields mean "not set".
type SessionConfig struct {
	Device          string `json:"device"`
	SessionMode     Mode   `json:"sessionMode"`
	Bitrate         int    `json:"bitrate"`
	FPS             int    `json:"fps"`
	Res             string `json:"res"`
	Rotation        string `json:"rotation"`
	StayAwake       bool   `json:"stayAwake"`
	TurnOff         bool   `json:"turnOff"`
	AudioEnabled    bool   `json:"audioEnabled"`
	AlwaysOnTop     bool   `json:"alwaysOnTop"`
	Fullscreen      bool   `json:"fullscreen"`
	Borderless      bool   `json:"borderless"`
	Record          bool   `json:"record"`
	RecordPath      string `json:"recordPath"`
	ScrcpyPath      string `json:"scrcpyPath"`
	OtgEnabled      bool   `json:"otgEnabled"`
	OtgPure         bool   `json:"otgPure"`
	CameraFacing    string `json:"cameraFacing"`
	CameraID        string `json:"cameraId"`
	CameraAr        string `json:"cameraAr"`
	CameraHighSpeed bool   `json:"cameraHighSpeed"`
	Codec           string `json:"codec"`
	VdWidth         int    `json:"vdWidth"`
	VdHeight        int    `json:"vdHeight"`
	VdDpi           int    `json:"vdDpi"`
	AspectRatioLock bool   `json:"aspectRatioLock"`
}

// Defaults returns the configuration used before anything is persisted.
func Defaults() SessionConfig {
	return SessionConfig{
		SessionMode:     ModeMirror,
		Bitrate:         8,
		FPS:             60,
		Res:             "0",
		AudioEnabled:    true,
		VdWidth:         1920,
		VdHeight:        1080,
		VdDpi:           420,
		AspectRatioLock: true,
	}
}

// DefaultTheme is the theme used when none is stored.
const DefaultTheme = "ultraviolet"
