// Package privilege reports whether the process runs with administrator
// rights: root on unix, an elevated token on windows.
package privilege

import "github.com/NielsdaWheelz/gemkit/internal/errors"

// Checker reports whether the current process is elevated.
type Checker func() (bool, error)

// Require returns E_PRIVILEGE unless check reports an elevated process.
func Require(check Checker) error {
	elevated, err := check()
	if err != nil {
		return errors.Wrap(errors.EPrivilege, "could not determine process privileges", err)
	}
	if !elevated {
		return errors.New(errors.EPrivilege, requireMessage)
	}
	return nil
}
