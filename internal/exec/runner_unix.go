//go:build unix

package exec

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// killGroup starts cmd in its own process group and makes cancellation
// kill the whole group, so grandchildren (pip build backends, npm
// lifecycle scripts) die with it and release the output pipes.
func killGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
}
