//go:build !windows

package daemon

import (
	"os"
	"syscall"
)

func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setsid: true, // new session, no controlling terminal
	}
}

func alive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// terminate sends SIGTERM so the tracker can shut down cleanly.
func terminate(process *os.Process) error {
	return process.Signal(syscall.SIGTERM)
}
