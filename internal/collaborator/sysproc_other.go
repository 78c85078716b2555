//go:build !windows

package collaborator

import (
	"os"
	"os/exec"
	"syscall"
)

func hideWindow(*exec.Cmd) {}

// terminate asks a session process to exit.
func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}

// strayKillCommand removes adb daemons left behind by kill-server.
func strayKillCommand() (string, []string) {
	return "pkill", []string{"adb"}
}
