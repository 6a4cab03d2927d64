package privilege

import (
	stderrors "errors"
	"testing"

	"github.com/NielsdaWheelz/gemkit/internal/errors"
)

func TestRequire(t *testing.T) {
	tests := []struct {
		name    string
		check   Checker
		wantErr bool
	}{
		{"elevated", func() (bool, error) { return true, nil }, false},
		{"not elevated", func() (bool, error) { return false, nil }, true},
		{"check failed", func() (bool, error) { return false, stderrors.New("token unavailable") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Require(tt.check)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Require() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && errors.GetCode(err) != errors.EPrivilege {
				t.Errorf("code = %q, want E_PRIVILEGE", errors.GetCode(err))
			}
		})
	}
}

func TestCheck_DoesNotFail(t *testing.T) {
	if _, err := Check(); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
}
