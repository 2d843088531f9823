//go:build unix

package isolate

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureProcessGroup starts the worker in its own process group and
// kills the whole group when the context is done.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
}

// killProcessGroup removes descendants a worker may have left behind.
func killProcessGroup(pid int) {
	_ = unix.Kill(-pid, unix.SIGKILL)
}
