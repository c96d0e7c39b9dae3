package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ConfigInvalid indicates configuration is missing or malformed
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// VCSFailed indicates a git status/diff/log query failed
	VCSFailed ErrorCode = "VCS_FAILED"
	// BackendUnavailable indicates git is not installed or the root is not a repository
	BackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	// Timeout indicates a collaborator call timed out
	Timeout ErrorCode = "TIMEOUT"
	// ParseFailed indicates a file could not be parsed
	ParseFailed ErrorCode = "PARSE_FAILED"
	// IOFailed indicates a file could not be read
	IOFailed ErrorCode = "IO_FAILED"
	// FileNotInPool indicates a center file is not part of the candidate pool
	FileNotInPool ErrorCode = "FILE_NOT_IN_POOL"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests changing a configuration value
	EditConfig FixActionType = "edit-config"
	// InstallTool suggests installing a tool
	InstallTool FixActionType = "install-tool"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	Field       string        `json:"field,omitempty"`
	Tool        string        `json:"tool,omitempty"`
}

// ScopeError represents a filescope error with code, message, and suggestions
type ScopeError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewScopeError creates a new ScopeError
func NewScopeError(code ErrorCode, message string, cause error, suggestedFixes []FixAction) *ScopeError {
	return &ScopeError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes,
	}
}

// New creates a ScopeError with the default suggested fixes for its code.
func New(code ErrorCode, message string, cause error) *ScopeError {
	return NewScopeError(code, message, cause, GetSuggestedFixes(code))
}

// Error implements the error interface
func (e *ScopeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ScopeError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *ScopeError) WithDetails(details interface{}) *ScopeError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first ScopeError in err's chain,
// or InternalError when there is none.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var se *ScopeError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return InternalError
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsDegradable reports whether err is a per-file failure that the pipeline
// absorbs instead of aborting the run.
func IsDegradable(err error) bool {
	switch CodeOf(err) {
	case ParseFailed, IOFailed, VCSFailed, Timeout:
		return true
	default:
		return false
	}
}

// IsFatal reports whether err must stop the run.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case ConfigInvalid, BackendUnavailable, InternalError:
		return true
	default:
		return false
	}
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "filescope config init",
			Safe:        true,
			Description: "Write a default .filescope/config.json",
		},
		{
			Type:        EditConfig,
			Field:       "changeDetection.extensions",
			Description: "List the file extensions change detection should admit",
		},
	},
	BackendUnavailable: {
		{
			Type:        RunCommand,
			Command:     "git status",
			Safe:        true,
			Description: "Verify you're in a git repository",
		},
		{
			Type:        InstallTool,
			Tool:        "git",
			Description: "Install git and make sure it is on PATH",
		},
	},
	VCSFailed: {
		{
			Type:        RunCommand,
			Command:     "git status --porcelain=v2",
			Safe:        true,
			Description: "Check that git can read the working tree",
		},
	},
	Timeout: {
		{
			Type:        EditConfig,
			Field:       "backends.git.timeoutMs",
			Description: "Raise the git query timeout",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
