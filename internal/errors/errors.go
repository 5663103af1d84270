package errors

import (
	"errors"
	"fmt"
)

// Common error types for the session and authorization core
var (
	// Role lookup errors
	ErrRoleLookupFailure = errors.New("role lookup failed")
	ErrUnknownRole       = errors.New("unknown role")
	ErrStaleResult       = errors.New("stale role lookup result discarded")
	ErrStoreUnavailable  = errors.New("role store unavailable")

	// Identity provider errors
	ErrAdapterEvent       = errors.New("identity provider event failure")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrNoIDToken          = errors.New("no id token in token response")

	// Controller lifecycle errors
	ErrNotStarted     = errors.New("session controller not started")
	ErrAlreadyStarted = errors.New("session controller already started")
	ErrClosed         = errors.New("session controller closed")

	// General errors
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Join wraps cause under a sentinel so both match with Is
func Join(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
