package exec

import "strings"

// QuotePosix returns a single shell token using single-quote strategy.
// Plain tokens (letters, digits, and -_./:=@+,%) are returned unquoted.
// example: abc -> abc
// example: a b -> 'a b'
// example: a'b -> 'a'"'"'b'
// example: "" -> ''
func QuotePosix(s string) string {
	if s == "" {
		return "''"
	}
	if isPlainToken(s) {
		return s
	}
	escaped := strings.ReplaceAll(s, "'", "'\"'\"'")
	return "'" + escaped + "'"
}

// FormatCommand renders name and args as a copy-pasteable command line.
// Used in error details so an operator can re-run the failing command.
func FormatCommand(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, QuotePosix(name))
	for _, a := range args {
		parts = append(parts, QuotePosix(a))
	}
	return strings.Join(parts, " ")
}

func isPlainToken(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_./:=@+,%", r):
		default:
			return false
		}
	}
	return true
}

// Tail returns the last n lines of output, trimmed, for error details.
func Tail(output string, n int) string {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
