package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil-ish plain error", errors.New("boom"), KindInternal},
		{"not found", NotFound("no such club"), KindNotFound},
		{"conflict", Conflict("already assigned"), KindConflict},
		{"wrapped taxonomy error", fmt.Errorf("outer: %w", Forbidden("nope")), KindForbidden},
		{"internal wrap", Internal(errors.New("driver broke")), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageOf_NeverLeaksCause(t *testing.T) {
	cause := errors.New("connection refused 10.0.0.3:27017")
	err := Internal(cause)
	if got := MessageOf(err); got != "internal error" {
		t.Errorf("MessageOf() = %q, want generic message", got)
	}
	if got := MessageOf(cause); got != "internal error" {
		t.Errorf("MessageOf(plain error) = %q, want generic message", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("dup key")
	err := Wrap(KindConflict, "already a member", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the wrapped cause")
	}
}
