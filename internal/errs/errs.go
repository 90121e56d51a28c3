// Package errs defines the error taxonomy shared across the pipeline.
// Handlers and the API map these onto user-visible messages and HTTP codes.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or wrong-typed input (uploads, CSV rows).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ExternalToolError reports a non-zero exit or timeout from a media tool
// invocation. Stage names match the compositor stages.
type ExternalToolError struct {
	Stage    string
	Cmd      string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalToolError) Error() string {
	if e.Cmd == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s failed (exit=%d): %s", e.Stage, e.Cmd, e.ExitCode, firstLine(e.Stderr))
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// ExternalAPIError reports a non-2xx or malformed response from the speech
// provider.
type ExternalAPIError struct {
	StatusCode int
	Msg        string
}

func (e *ExternalAPIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("speech API error: %d - %s", e.StatusCode, e.Msg)
	}
	return fmt.Sprintf("speech API error: %s", e.Msg)
}

// ConfigurationError reports missing runtime configuration, typically the
// speech credential.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string { return e.Key + " not set" }

// ResourceNotFoundError reports a requested artifact that is absent or was
// already cleaned up.
type ResourceNotFoundError struct {
	ID string
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource %s not found or has been cleaned up", e.ID)
}

// IsNotFound reports whether err wraps a ResourceNotFoundError.
func IsNotFound(err error) bool {
	var nf *ResourceNotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
