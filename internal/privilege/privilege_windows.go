//go:build windows

package privilege

import "golang.org/x/sys/windows"

const requireMessage = "administrator privileges required; re-run from an elevated terminal"

// Check reports whether the process token is elevated.
func Check() (bool, error) {
	return windows.GetCurrentProcessToken().IsElevated(), nil
}
