//go:build windows

package daemon

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

const (
	detachedProcess = 0x00000008
	wsaeconnrefused = syscall.Errno(10061)
)

func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: detachedProcess | syscall.CREATE_NEW_PROCESS_GROUP,
		HideWindow:    true,
	}
}

// processAlive reports whether pid exists. FindProcess opens the process on
// windows, so it fails for pids that are gone.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	proc.Release()
	return true
}

func connRefused(err error) bool {
	return errors.Is(err, wsaeconnrefused) || errors.Is(err, syscall.ECONNREFUSED)
}
