package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewScopeError(t *testing.T) {
	cause := errors.New("underlying error")
	fixes := []FixAction{{Type: RunCommand, Command: "git status"}}

	err := NewScopeError(VCSFailed, "git status failed", cause, fixes)

	if err.Code != VCSFailed {
		t.Errorf("Code = %v, want %v", err.Code, VCSFailed)
	}
	if err.Message != "git status failed" {
		t.Errorf("Message = %q, want %q", err.Message, "git status failed")
	}
	if len(err.SuggestedFixes) != 1 {
		t.Errorf("len(SuggestedFixes) = %d, want 1", len(err.SuggestedFixes))
	}
}

func TestScopeError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      BackendUnavailable,
			message:   "git not found",
			cause:     errors.New("exec: not found"),
			wantParts: []string{"BACKEND_UNAVAILABLE", "git not found", "exec: not found"},
		},
		{
			name:      "without cause",
			code:      FileNotInPool,
			message:   "a.py is not in the pool",
			cause:     nil,
			wantParts: []string{"FILE_NOT_IN_POOL", "a.py is not in the pool"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewScopeError(tt.code, tt.message, tt.cause, nil)
			got := err.Error()

			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestScopeError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}

	errNoCause := New(Timeout, "git timed out", nil)
	if errNoCause.Unwrap() != nil {
		t.Errorf("Unwrap() on error without cause should return nil")
	}
}

func TestNew_DefaultFixes(t *testing.T) {
	err := New(ConfigInvalid, "no extensions", nil)
	if len(err.SuggestedFixes) == 0 {
		t.Fatal("ConfigInvalid should carry suggested fixes")
	}

	err = New(ParseFailed, "bad syntax", nil)
	if err.SuggestedFixes != nil {
		t.Errorf("ParseFailed fixes = %v, want nil", err.SuggestedFixes)
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("scoring: %w", New(VCSFailed, "diff failed", nil))

	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"direct", New(IOFailed, "read", nil), IOFailed},
		{"wrapped", wrapped, VCSFailed},
		{"plain", errors.New("boom"), InternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsDegradableAndFatal(t *testing.T) {
	tests := []struct {
		code       ErrorCode
		degradable bool
		fatal      bool
	}{
		{ParseFailed, true, false},
		{IOFailed, true, false},
		{VCSFailed, true, false},
		{Timeout, true, false},
		{ConfigInvalid, false, true},
		{BackendUnavailable, false, true},
		{FileNotInPool, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "x", nil)
			if got := IsDegradable(err); got != tt.degradable {
				t.Errorf("IsDegradable() = %v, want %v", got, tt.degradable)
			}
			if got := IsFatal(err); got != tt.fatal {
				t.Errorf("IsFatal() = %v, want %v", got, tt.fatal)
			}
		})
	}
}

func TestWithDetails(t *testing.T) {
	err := New(VCSFailed, "git diff failed", nil).WithDetails(map[string]interface{}{
		"args": []string{"diff", "--numstat"},
	})
	if err.Details == nil {
		t.Error("Details should be set")
	}
	if !Is(err, VCSFailed) {
		t.Error("Is(VCSFailed) should be true")
	}
}

func TestNewDegradation(t *testing.T) {
	d := NewDegradation("a.py", StageFingerprint, New(ParseFailed, "bad syntax", nil))
	if d.Code != ParseFailed {
		t.Errorf("Code = %q, want %q", d.Code, ParseFailed)
	}
	if d.Path != "a.py" || d.Stage != StageFingerprint {
		t.Errorf("Degradation = %+v", d)
	}
	if !strings.Contains(d.Reason, "bad syntax") {
		t.Errorf("Reason = %q", d.Reason)
	}

	plain := NewDegradation("b.py", StageScore, errors.New("permission denied"))
	if plain.Code != InternalError {
		t.Errorf("Code = %q, want %q", plain.Code, InternalError)
	}
}
