package version

import (
	"fmt"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Runtime
		wantErr bool
	}{
		{"v20.9.0", Runtime{20, 9, 0}, false},
		{"20.10.1\n", Runtime{20, 10, 1}, false},
		{"  v18.19.0  ", Runtime{18, 19, 0}, false},
		{"22.1", Runtime{22, 1, 0}, false},
		{"22", Runtime{22, 0, 0}, false},
		{"v23.0.0-nightly20240101", Runtime{23, 0, 0}, false},
		{"1.2.3+build.5", Runtime{1, 2, 3}, false},
		{"", Zero, true},
		{"v", Zero, true},
		{"1.2.3.4", Zero, true},
		{"1.x.0", Zero, true},
		{"node: command not found", Zero, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompare_NumericNotLexical(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"20.9.0", "20.10.0", -1},
		{"9.0.0", "10.0.0", -1},
		{"1.2.10", "1.2.9", 1},
		{"20.10.0", "20.10.0", 0},
		{"0.0.0", "18.0.0", -1},
		{"22.0.0", "20.99.99", 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_vs_%s", tt.a, tt.b), func(t *testing.T) {
			got := Compare(MustParse(tt.a), MustParse(tt.b))
			if got != tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

// Compare must agree with plain tuple ordering for every pair in a grid
// that crosses the single/double digit boundary in each component.
func TestCompare_AgreesWithTupleOrder(t *testing.T) {
	values := []int{0, 1, 2, 9, 10, 11, 99, 100}
	var all []Runtime
	for _, maj := range values {
		for _, min := range values {
			for _, pat := range []int{0, 9, 10} {
				all = append(all, Runtime{maj, min, pat})
			}
		}
	}

	for _, a := range all {
		for _, b := range all {
			if got, want := Compare(a, b), tupleCompare(a, b); got != want {
				t.Fatalf("Compare(%v, %v) = %d, tuple order says %d", a, b, got, want)
			}
		}
	}
}

func tupleCompare(a, b Runtime) int {
	for _, d := range []int{a.Major - b.Major, a.Minor - b.Minor, a.Patch - b.Patch} {
		if d < 0 {
			return -1
		}
		if d > 0 {
			return 1
		}
	}
	return 0
}

func TestAtLeast(t *testing.T) {
	min := MustParse("20.0.0")
	if !MustParse("20.0.0").AtLeast(min) {
		t.Error("equal version should satisfy minimum")
	}
	if !MustParse("20.10.0").AtLeast(MustParse("20.9.0")) {
		t.Error("20.10.0 should satisfy 20.9.0")
	}
	if Zero.AtLeast(min) {
		t.Error("absent runtime should never satisfy a minimum")
	}
}

func TestString(t *testing.T) {
	if got := (Runtime{20, 9, 1}).String(); got != "20.9.1" {
		t.Errorf("String() = %q, want %q", got, "20.9.1")
	}
	if !Zero.IsZero() {
		t.Error("Zero.IsZero() = false")
	}
}
