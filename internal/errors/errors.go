package errors

import (
	"errors"
	"fmt"
)

// Configuration errors shared by the command line and the client constructors
var (
	ErrMissingEnv   = errors.New("missing environment variable")
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Snippet shortens a response body for use in error messages and logs
func Snippet(body []byte, max int) string {
	if max <= 0 || len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
