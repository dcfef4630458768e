package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSource  = errors.New("unknown search source")
	ErrLeadNotFound   = errors.New("lead not found")
	ErrImportNotFound = errors.New("import not found")
)

// ValidationError reports a missing or malformed request parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// ProviderError is returned when an upstream search provider fails.
// StatusCode is zero for transport and decoding failures.
type ProviderError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream responded with status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
