package errors

import (
	"errors"
	"fmt"
)

// Common error types shared across packages
var (
	// Session errors
	ErrInconsistentSession = errors.New("inconsistent session")
	ErrNotLoggedIn         = errors.New("not logged in")

	// Configuration errors
	ErrMissingClientID    = errors.New("client id is not configured")
	ErrInvalidRedirectURI = errors.New("invalid redirect URI")
	ErrUnknownLauncher    = errors.New("unknown launcher")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
