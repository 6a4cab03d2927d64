package secret

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Prompter reads one secret value from the operator.
// The returned Buffer is owned by the caller, who must Close it.
type Prompter interface {
	ReadSecret(prompt string) (*Buffer, error)
}

// TerminalPrompter reads from a terminal with echo disabled.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

// ReadSecret prints prompt, reads a line without echo, and returns it with
// surrounding whitespace trimmed. Every intermediate copy is zeroed.
func (p *TerminalPrompter) ReadSecret(prompt string) (*Buffer, error) {
	fd := int(p.In.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("no terminal available for interactive prompt")
	}

	fmt.Fprint(p.Out, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(p.Out)
	if err != nil {
		Zero(raw)
		return nil, fmt.Errorf("reading secret: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		Zero(raw)
		return nil, fmt.Errorf("secret is empty")
	}

	// NewFromBytes zeros trimmed; raw covers any whitespace around it.
	buffer, err := NewFromBytes(trimmed)
	Zero(raw)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}
