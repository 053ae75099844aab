// Package credentials holds the signed-in user's session: the login flag,
// the profile and the raw identity token. The three are always written
// together; there are no field-level setters.
package credentials

import (
	"context"
	"fmt"

	apperrors "github.com/jrsteele09/go-tabnews/internal/errors"
)

// Profile is the subset of ID token claims shown to the user.
type Profile struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	GivenName string `json:"given_name"`
}

// Session is the persisted login state. Build it with LoggedIn or LoggedOut.
type Session struct {
	LoggedIn      bool
	IdentityToken *string
	Profile       *Profile
}

// LoggedOut returns the canonical logged-out triple.
func LoggedOut() Session {
	return Session{}
}

// LoggedIn returns a complete logged-in session.
func LoggedIn(token string, profile Profile) Session {
	return Session{
		LoggedIn:      true,
		IdentityToken: &token,
		Profile:       &profile,
	}
}

// Validate enforces the triple invariant: logged in implies token and
// profile are present, logged out implies both are absent.
func (s Session) Validate() error {
	if s.LoggedIn {
		if s.IdentityToken == nil || *s.IdentityToken == "" || s.Profile == nil {
			return fmt.Errorf("%w: logged in without token or profile", apperrors.ErrInconsistentSession)
		}
		return nil
	}
	if s.IdentityToken != nil || s.Profile != nil {
		return fmt.Errorf("%w: logged out with token or profile", apperrors.ErrInconsistentSession)
	}
	return nil
}

// Token returns the identity token, if any.
func (s Session) Token() (string, bool) {
	if s.IdentityToken == nil || *s.IdentityToken == "" {
		return "", false
	}
	return *s.IdentityToken, true
}

func (s Session) clone() Session {
	c := Session{LoggedIn: s.LoggedIn}
	if s.IdentityToken != nil {
		token := *s.IdentityToken
		c.IdentityToken = &token
	}
	if s.Profile != nil {
		profile := *s.Profile
		c.Profile = &profile
	}
	return c
}

// Store persists a Session. Replace swaps the whole record atomically.
type Store interface {
	Load(ctx context.Context) (Session, error)
	Replace(ctx context.Context, session Session) error
}
