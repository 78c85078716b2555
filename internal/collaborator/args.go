package collaborator

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/settings"
)

// Virtual display defaults for desktop mode.
const (
	defaultDisplayWidth  = 1920
	defaultDisplayHeight = 1080
	defaultDisplayDPI    = 420
)

// BuildArgs renders cfg as scrcpy arguments. recordFallback is used when
// recording is on and cfg.RecordPath is blank; now stamps the recording
// file name.
func BuildArgs(cfg settings.SessionConfig, recordFallback string, now time.Time) []string {
	var args []string

	if cfg.Device != "" {
		args = append(args, "-s", cfg.Device)
	}

	codec := cfg.Codec
	if codec == "" {
		codec = "h264"
	}
	args = append(args, "--video-codec="+codec)

	mode := cfg.SessionMode
	if mode == settings.ModeMirror && cfg.OtgEnabled && cfg.OtgPure {
		// Pure OTG needs a USB link; over the network fall back to HID
		// forwarding without video.
		if strings.ContainsAny(cfg.Device, ".:") {
			args = append(args, "--no-video", "--no-audio", "--keyboard=uhid", "--mouse=uhid")
		} else {
			args = append(args, "--otg")
		}
		return args
	}

	if cfg.Bitrate > 0 {
		args = append(args, "--video-bit-rate", fmt.Sprintf("%dM", cfg.Bitrate))
	}
	if !cfg.AudioEnabled {
		args = append(args, "--no-audio")
	}
	if cfg.AlwaysOnTop {
		args = append(args, "--always-on-top")
	}
	if cfg.Fullscreen {
		args = append(args, "--fullscreen")
	}
	if cfg.Borderless {
		args = append(args, "--window-borderless")
	}
	if isSet(cfg.Rotation) {
		args = append(args, "--orientation", cfg.Rotation)
	}

	// The camera source cannot be controlled.
	if mode != settings.ModeCamera {
		if cfg.StayAwake {
			args = append(args, "--stay-awake")
		}
		if cfg.TurnOff {
			args = append(args, "--turn-screen-off", "--no-power-on")
		}
	}

	switch mode {
	case settings.ModeCamera:
		args = append(args, "--video-source=camera")
		if cfg.CameraID != "" {
			args = append(args, "--camera-id="+cfg.CameraID)
		} else if cfg.CameraFacing != "" {
			args = append(args, "--camera-facing="+cfg.CameraFacing)
		}
		if isSet(cfg.CameraAr) {
			args = append(args, "--camera-ar="+cfg.CameraAr)
		}
		if cfg.CameraHighSpeed {
			args = append(args, "--camera-high-speed")
		}
	case settings.ModeDesktop:
		w := orDefault(cfg.VdWidth, defaultDisplayWidth)
		h := orDefault(cfg.VdHeight, defaultDisplayHeight)
		dpi := orDefault(cfg.VdDpi, defaultDisplayDPI)
		args = append(args, fmt.Sprintf("--new-display=%dx%d/%d", w, h, dpi), "--video-buffer=100")
	default:
		if cfg.OtgEnabled {
			args = append(args, "--keyboard=uhid", "--mouse=uhid")
		}
	}

	switch {
	case cfg.FPS > 0 && mode == settings.ModeCamera:
		args = append(args, "--camera-fps", strconv.Itoa(cfg.FPS))
	case cfg.FPS > 0:
		args = append(args, "--max-fps", strconv.Itoa(cfg.FPS))
	case mode == settings.ModeCamera && cfg.CameraHighSpeed:
		args = append(args, "--camera-fps", "60")
	}

	if isSet(cfg.Res) {
		args = append(args, "--max-size", cfg.Res)
	}

	if cfg.Record {
		dir := strings.TrimSpace(cfg.RecordPath)
		if dir == "" {
			dir = recordFallback
		}
		if dir == "" {
			dir = "."
		}
		args = append(args, "--record="+filepath.Join(dir, RecordingName(cfg.Device, now)))
	}

	return args
}

// RecordingName is the file a session records to.
func RecordingName(device string, now time.Time) string {
	return fmt.Sprintf("scrcpy_%s_%s.mkv", strings.ReplaceAll(device, ":", "-"), now.Format("20060102_150405"))
}

// sessionSummary renders the console lines announcing a session.
func sessionSummary(cfg settings.SessionConfig, args []string) []string {
	res := "Original"
	if isSet(cfg.Res) {
		res = cfg.Res
	}
	lines := []string{
		fmt.Sprintf("[SYSTEM] Starting %s session...", cfg.SessionMode.Label()),
		fmt.Sprintf("[SYSTEM] Target: %s | Config: %s @ %dMbps, %dfps",
			cfg.Device, res, orDefault(cfg.Bitrate, 8), orDefault(cfg.FPS, 60)),
	}
	if cfg.Record {
		out := cfg.RecordPath
		if out == "" {
			out = "Videos"
		}
		lines = append(lines, "[SYSTEM] Recording enabled -> output to "+out)
	}
	return append(lines, "> scrcpy "+strings.Join(args, " "))
}

// isSet treats "" and "0" as unset.
func isSet(v string) bool {
	return v != "" && v != "0"
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
