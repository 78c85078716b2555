//go:build windows

package collaborator

import (
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

const createNoWindow = 0x08000000

func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: createNoWindow,
	}
}

// terminate asks a session process to exit. Console programs on Windows
// have no SIGTERM, so taskkill without /F sends a close request instead.
func terminate(p *os.Process) error {
	cmd := exec.Command("taskkill", "/PID", strconv.Itoa(p.Pid))
	hideWindow(cmd)
	return cmd.Run()
}

func strayKillCommand() (string, []string) {
	return "taskkill", []string{"/F", "/IM", "adb.exe", "/T"}
}
