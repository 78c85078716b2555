package collaborator

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yadavnikhil03/scrcpy-gui/internal/domain/settings"
)

var stamp = time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)

func mirror(device string) settings.SessionConfig {
	cfg := settings.Defaults()
	cfg.Device = device
	return cfg
}

func TestBuildArgsMirrorDefaults(t *testing.T) {
	args := BuildArgs(mirror("device1"), "", stamp)
	assert.Equal(t, []string{
		"-s", "device1",
		"--video-codec=h264",
		"--video-bit-rate", "8M",
		"--max-fps", "60",
	}, args)
}

func TestBuildArgsWindowAndControlFlags(t *testing.T) {
	cfg := mirror("R58M")
	cfg.AudioEnabled = false
	cfg.AlwaysOnTop = true
	cfg.Fullscreen = true
	cfg.Borderless = true
	cfg.Rotation = "90"
	cfg.StayAwake = true
	cfg.TurnOff = true
	cfg.OtgEnabled = true
	cfg.Res = "1024"
	cfg.Codec = "h265"

	assert.Equal(t, []string{
		"-s", "R58M",
		"--video-codec=h265",
		"--video-bit-rate", "8M",
		"--no-audio",
		"--always-on-top",
		"--fullscreen",
		"--window-borderless",
		"--orientation", "90",
		"--stay-awake",
		"--turn-screen-off", "--no-power-on",
		"--keyboard=uhid", "--mouse=uhid",
		"--max-fps", "60",
		"--max-size", "1024",
	}, BuildArgs(cfg, "", stamp))
}

func TestBuildArgsPureOTG(t *testing.T) {
	usb := mirror("R58M")
	usb.OtgEnabled, usb.OtgPure = true, true
	assert.Equal(t, []string{"-s", "R58M", "--video-codec=h264", "--otg"}, BuildArgs(usb, "", stamp))

	wifi := mirror("192.168.1.4:5555")
	wifi.OtgEnabled, wifi.OtgPure = true, true
	assert.Equal(t, []string{
		"-s", "192.168.1.4:5555", "--video-codec=h264",
		"--no-video", "--no-audio", "--keyboard=uhid", "--mouse=uhid",
	}, BuildArgs(wifi, "", stamp))

	camera := usb
	camera.SessionMode = settings.ModeCamera
	assert.NotContains(t, BuildArgs(camera, "", stamp), "--otg", "pure OTG applies to mirroring only")
}

func TestBuildArgsCamera(t *testing.T) {
	cfg := mirror("device1")
	cfg.SessionMode = settings.ModeCamera
	cfg.FPS = 30
	cfg.CameraFacing = "front"
	cfg.StayAwake = true
	cfg.TurnOff = true

	args := BuildArgs(cfg, "", stamp)
	assert.Contains(t, args, "--video-source=camera")
	assert.Contains(t, args, "--camera-facing=front")
	assert.Contains(t, args, "--camera-fps")
	assert.Contains(t, args, "30")
	assert.NotContains(t, args, "--stay-awake")
	assert.NotContains(t, args, "--turn-screen-off")
	assert.NotContains(t, args, "--max-fps")
}

func TestBuildArgsCameraIDWinsOverFacing(t *testing.T) {
	cfg := mirror("device1")
	cfg.SessionMode = settings.ModeCamera
	cfg.CameraID = "2"
	cfg.CameraFacing = "back"
	cfg.CameraAr = "16:9"
	cfg.CameraHighSpeed = true
	cfg.FPS = 0

	args := BuildArgs(cfg, "", stamp)
	assert.Contains(t, args, "--camera-id=2")
	assert.NotContains(t, args, "--camera-facing=back")
	assert.Contains(t, args, "--camera-ar=16:9")
	assert.Contains(t, args, "--camera-high-speed")
	assert.Equal(t, []string{"--camera-fps", "60"}, args[len(args)-2:])
}

func TestBuildArgsDesktop(t *testing.T) {
	cfg := mirror("device1")
	cfg.SessionMode = settings.ModeDesktop
	cfg.VdWidth, cfg.VdHeight, cfg.VdDpi = 2560, 1440, 0

	args := BuildArgs(cfg, "", stamp)
	assert.Contains(t, args, "--new-display=2560x1440/420")
	assert.Contains(t, args, "--video-buffer=100")
	assert.Contains(t, args, "--max-fps")
}

func TestBuildArgsRecording(t *testing.T) {
	cfg := mirror("10.0.0.7:5555")
	cfg.Record = true

	args := BuildArgs(cfg, "/home/u/Videos", stamp)
	want := "--record=" + filepath.Join("/home/u/Videos", "scrcpy_10.0.0.7-5555_20260314_092653.mkv")
	assert.Equal(t, want, args[len(args)-1])

	cfg.RecordPath = "/captures"
	args = BuildArgs(cfg, "/home/u/Videos", stamp)
	assert.Equal(t, "--record="+filepath.Join("/captures", "scrcpy_10.0.0.7-5555_20260314_092653.mkv"), args[len(args)-1])

	cfg.RecordPath = "  "
	args = BuildArgs(cfg, "", stamp)
	assert.Equal(t, "--record="+filepath.Join(".", "scrcpy_10.0.0.7-5555_20260314_092653.mkv"), args[len(args)-1])
}

func TestSessionSummary(t *testing.T) {
	cfg := mirror("R58M")
	cfg.SessionMode = settings.ModeDesktop
	cfg.Res = "0"
	cfg.Record = true

	lines := sessionSummary(cfg, []string{"-s", "R58M"})
	assert.Equal(t, []string{
		"[SYSTEM] Starting Desktop Mode session...",
		"[SYSTEM] Target: R58M | Config: Original @ 8Mbps, 60fps",
		"[SYSTEM] Recording enabled -> output to Videos",
		"> scrcpy -s R58M",
	}, lines)
}
