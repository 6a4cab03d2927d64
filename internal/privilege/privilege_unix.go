//go:build unix

package privilege

import "golang.org/x/sys/unix"

const requireMessage = "administrator privileges required; re-run with sudo"

// Check reports whether the effective user is root.
func Check() (bool, error) {
	return unix.Geteuid() == 0, nil
}
