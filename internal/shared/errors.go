package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Domain outcomes. These are expected results rendered to the user, not faults.
	ErrNotFound      = fmt.Errorf("not found")
	ErrAlreadyExists = fmt.Errorf("already exists")
	ErrUsage         = fmt.Errorf("invalid command usage")
	ErrNotLoggedIn   = fmt.Errorf("not logged in")

	// ErrResolution marks an LLM answer that was absent or could not be parsed.
	ErrResolution = fmt.Errorf("could not resolve language model response")

	// Store and service errors
	ErrStoreFailure       = fmt.Errorf("backing store failure")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// UsageError reports a malformed explicit command. Syntax echoes the expected form.
type UsageError struct {
	Command string
	Syntax  string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%v: /%s expects %q", ErrUsage, e.Command, e.Syntax)
}

// Is lets errors.Is(err, ErrUsage) match any UsageError.
func (e *UsageError) Is(target error) bool {
	return target == ErrUsage
}

// NewUsageError builds a [UsageError] for command with the given expected syntax.
func NewUsageError(command, syntax string) error {
	return &UsageError{Command: command, Syntax: syntax}
}

// AsUsageError unwraps err into a [UsageError] when it carries one.
func AsUsageError(err error) (*UsageError, bool) {
	var ue *UsageError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
