package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUserNotFound     = errors.New("user not found")
	ErrProfileNotFound  = errors.New("profile not found")

	ErrInvalidFrontDocument = fmt.Errorf("%w: front document not found or invalid", ErrInvalidInput)
	ErrInvalidBackDocument  = fmt.Errorf("%w: back document not found or invalid", ErrInvalidInput)
	ErrInvalidStatus        = fmt.Errorf("%w: status must be one of approved, rejected, pending", ErrInvalidInput)
	ErrNoSubmission         = fmt.Errorf("%w: user has not submitted verification documents", ErrInvalidInput)
)

// FieldError reports missing or malformed input fields by name.
type FieldError struct {
	Fields map[string]string
}

func (e *FieldError) Error() string {
	return formatFields(e.Fields)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}

func formatFields(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+fields[name])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}
