package version

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Runtime is a major.minor.patch version of an installed runtime.
// The zero value (0.0.0) stands for "not installed".
type Runtime struct {
	Major int
	Minor int
	Patch int
}

// Zero is the version reported for an absent runtime.
var Zero = Runtime{}

// Parse reads a dotted version such as "v20.9.0", "20.9.0" or "20.9".
// A leading "v", surrounding whitespace and any pre-release or build
// suffix ("-nightly", "+meta") are ignored. Missing components are 0.
func Parse(s string) (Runtime, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "v")
	if i := strings.IndexAny(raw, "-+"); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return Zero, fmt.Errorf("empty version string")
	}

	parts := strings.Split(raw, ".")
	if len(parts) > 3 {
		return Zero, fmt.Errorf("invalid version %q: too many components", s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Zero, fmt.Errorf("invalid version %q: component %q is not a number", s, p)
		}
		nums[i] = n
	}
	return Runtime{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParse is Parse for compile-time constants; it panics on error.
func MustParse(s string) Runtime {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns "major.minor.patch".
func (v Runtime) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsZero reports whether v is 0.0.0.
func (v Runtime) IsZero() bool {
	return v == Zero
}

// Compare returns -1, 0 or +1 ordering a and b by numeric
// (major, minor, patch), so 20.9.0 < 20.10.0.
func Compare(a, b Runtime) int {
	return semver.Compare(a.semver(), b.semver())
}

// AtLeast reports whether v >= min.
func (v Runtime) AtLeast(min Runtime) bool {
	return Compare(v, min) >= 0
}

func (v Runtime) semver() string {
	return "v" + v.String()
}
