package identity

import (
	"errors"
	"fmt"
)

// AuthErrorKind classifies sign-in failures. Every kind leaves the stored
// session logged out.
type AuthErrorKind int

const (
	FlowCancelled AuthErrorKind = iota + 1
	TokenMissing
	MalformedToken
	AudienceMismatch
	NonceMismatch
	StateMismatch
	TokenExpired
	SignatureInvalid
)

func (k AuthErrorKind) String() string {
	switch k {
	case FlowCancelled:
		return "authorization flow cancelled"
	case TokenMissing:
		return "identity token missing from redirect"
	case MalformedToken:
		return "malformed identity token"
	case AudienceMismatch:
		return "identity token audience mismatch"
	case NonceMismatch:
		return "nonce mismatch, possible replay attack"
	case StateMismatch:
		return "state mismatch"
	case TokenExpired:
		return "identity token expired"
	case SignatureInvalid:
		return "identity token signature invalid"
	}
	return fmt.Sprintf("auth error %d", int(k))
}

// AuthError is returned by Client.SignIn.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func newAuthError(kind AuthErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an AuthError of the given kind.
func IsKind(err error, kind AuthErrorKind) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Kind == kind
}

// ProviderError is an error reported by the identity provider in the redirect.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return "provider error: " + e.Code
	}
	return fmt.Sprintf("provider error: %s - %s", e.Code, e.Description)
}
