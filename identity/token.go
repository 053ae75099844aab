package identity

import (
	"encoding/hex"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-tabnews/credentials"
	"golang.org/x/crypto/blake2b"
)

// TokenPayload holds the decoded ID token claims. It only lives for the
// duration of a validation; the raw token is what gets persisted.
type TokenPayload struct {
	Audience  []string
	Nonce     string
	Email     string
	Name      string
	GivenName string
	Issuer    string
	Subject   string
	Expiry    *time.Time // nil when the token carries no exp claim
}

type idTokenClaims struct {
	jwtlib.RegisteredClaims
	Nonce     string `json:"nonce"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	GivenName string `json:"given_name"`
}

// DecodeToken decodes the claims segment of a JWT without verifying its
// signature.
func DecodeToken(rawToken string) (*TokenPayload, error) {
	var claims idTokenClaims
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, &claims); err != nil {
		return nil, fmt.Errorf("decoding identity token: %w", err)
	}

	payload := &TokenPayload{
		Audience:  claims.Audience,
		Nonce:     claims.Nonce,
		Email:     claims.Email,
		Name:      claims.Name,
		GivenName: claims.GivenName,
		Issuer:    claims.Issuer,
		Subject:   claims.Subject,
	}
	if claims.ExpiresAt != nil {
		expiry := claims.ExpiresAt.Time
		payload.Expiry = &expiry
	}
	return payload, nil
}

// Profile projects the claims shown to the user.
func (p *TokenPayload) Profile() credentials.Profile {
	return credentials.Profile{
		Email:     p.Email,
		Name:      p.Name,
		GivenName: p.GivenName,
	}
}

// Expired reports whether the token carries an exp claim at or before now.
func (p *TokenPayload) Expired(now time.Time) bool {
	return p.Expiry != nil && !now.Before(*p.Expiry)
}

// Fingerprint identifies a token in logs without revealing it.
func Fingerprint(rawToken string) string {
	sum := blake2b.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:6])
}
