package keyword

import (
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented matches every NotImplementedError.
	ErrNotImplemented = errors.New("keyword is not implemented")
	// ErrUnknownKeyword is returned for names missing from the Catalog.
	ErrUnknownKeyword = errors.New("no keyword with name")
	// ErrModifierNotImplemented is returned when a click keyword gets a modifier.
	ErrModifierNotImplemented = errors.New("modifier is not implemented")
	// ErrInvalidTimeout is returned for a zero or negative keyword timeout.
	ErrInvalidTimeout = errors.New("timeout must be positive")
)

// NotImplementedError is returned by declared keywords that have no
// implementation on top of the modern engine.
type NotImplementedError struct {
	Keyword string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Keyword, ErrNotImplemented)
}

func (e *NotImplementedError) Is(target error) bool {
	return target == ErrNotImplemented
}

// AssertionError reports a failed Should keyword.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string {
	return e.Message
}

func assertionFailed(message, format string, args ...any) error {
	if message != "" {
		return &AssertionError{Message: message}
	}
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}
