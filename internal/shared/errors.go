package shared

import (
	"fmt"
	"sort"
	"strings"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrUnauthorized = fmt.Errorf("unauthorized")

	// Calendar credential errors
	ErrNotConnected     = fmt.Errorf("user has not connected Google Calendar")
	ErrExpiredNoRefresh = fmt.Errorf("access token expired and no refresh token available")
	ErrTokenExchange    = fmt.Errorf("error fetching access token")

	// Provider and sync errors
	ErrProvider      = fmt.Errorf("calendar provider request failed")
	ErrAlreadySynced = fmt.Errorf("meeting already synced to calendar")

	// Lookup and input validation errors
	ErrNotFound        = fmt.Errorf("not found")
	ErrValidation      = fmt.Errorf("validation failed")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ValidationError carries per-field messages for a rejected input.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty [ValidationError].
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Add records msg against field.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no field errors were recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns e when it holds field errors, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
