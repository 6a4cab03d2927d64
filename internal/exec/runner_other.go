//go:build !unix

package exec

import "os/exec"

// killGroup keeps the default cancellation, which kills the direct child
// only; WaitDelay then closes pipes a surviving grandchild still holds.
func killGroup(cmd *exec.Cmd) {}
