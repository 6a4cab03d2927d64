//go:build unix

package lock

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isPIDAlive sends signal 0, which checks for existence without
// delivering anything. EPERM means the process exists under another user.
func isPIDAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
