// Package errors defines the stable error code system for gemkit.
package errors

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// Code is a stable error code string.
type Code string

// Error codes. Printed verbatim on stderr; scripts may match on them.
const (
	EUsage    Code = "E_USAGE"
	EInternal Code = "E_INTERNAL"
	ELocked   Code = "E_LOCKED"

	// Installer
	EPrivilege      Code = "E_PRIVILEGE"
	ERuntimeInstall Code = "E_RUNTIME_INSTALL"
	EVerify         Code = "E_VERIFY"

	// Bootstrapper
	EEnvCreate      Code = "E_ENV_CREATE"
	EPackageInstall Code = "E_PACKAGE_INSTALL"
	EManifest       Code = "E_MANIFEST"
	EFS             Code = "E_FS"
	ESecret         Code = "E_SECRET"

	// Recoverable; surfaced as warnings, never returned from a command.
	ENetworkFetch Code = "E_NETWORK_FETCH"

	// Config / diagnostics
	EInvalidConfig   Code = "E_INVALID_CONFIG"
	EToolNotFound    Code = "E_TOOL_NOT_FOUND"
	EKeyVerifyFailed Code = "E_KEY_VERIFY_FAILED"
)

// GemkitError is the standard error type for gemkit errors.
type GemkitError struct {
	Code    Code
	Msg     string
	Cause   error
	Details map[string]string // optional structured context
}

// Error returns the stable error format: "CODE: message".
func (e *GemkitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *GemkitError) Unwrap() error {
	return e.Cause
}

// New creates a new GemkitError with the given code and message.
func New(code Code, msg string) error {
	return &GemkitError{Code: code, Msg: msg}
}

// NewWithDetails creates a new GemkitError with code, message, and details.
func NewWithDetails(code Code, msg string, details map[string]string) error {
	return &GemkitError{Code: code, Msg: msg, Details: copyDetails(details)}
}

// Wrap creates a new GemkitError wrapping an underlying error.
func Wrap(code Code, msg string, err error) error {
	return &GemkitError{Code: code, Msg: msg, Cause: err}
}

// WrapWithDetails creates a new GemkitError wrapping an underlying error with details.
func WrapWithDetails(code Code, msg string, err error, details map[string]string) error {
	return &GemkitError{Code: code, Msg: msg, Cause: err, Details: copyDetails(details)}
}

// GetCode extracts the error code from an error, or empty string if not a GemkitError.
func GetCode(err error) Code {
	var ge *GemkitError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// AsGemkitError returns (*GemkitError, true) if err is or wraps a GemkitError.
func AsGemkitError(err error) (*GemkitError, bool) {
	var ge *GemkitError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}
	cp := make(map[string]string, len(details))
	for k, v := range details {
		cp[k] = v
	}
	return cp
}

// ExitCode returns the appropriate exit code for an error.
// Returns 0 if err is nil, 2 for E_USAGE, 1 for all other errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if GetCode(err) == EUsage {
		return 2
	}
	return 1
}

// Print writes the error to w in the stable stderr format:
//
//	error_code: <CODE>
//	<message>
//	<key>: <value>   (one per detail, sorted)
//	cause: <cause>   (if any)
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	ge, ok := AsGemkitError(err)
	if !ok {
		fmt.Fprintln(w, err.Error())
		return
	}
	fmt.Fprintf(w, "error_code: %s\n", ge.Code)
	fmt.Fprintln(w, ge.Msg)

	keys := make([]string, 0, len(ge.Details))
	for k := range ge.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", k, ge.Details[k])
	}
	if ge.Cause != nil {
		fmt.Fprintf(w, "cause: %v\n", ge.Cause)
	}
}
