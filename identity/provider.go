package identity

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// TokenVerifier checks an ID token's signature and standard claims.
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) error
}

// OIDCProvider wraps issuer discovery: it supplies the authorization
// endpoint and verifies tokens against the issuer's published keys.
type OIDCProvider struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

var _ TokenVerifier = (*OIDCProvider)(nil)

// NewOIDCProvider fetches the issuer's discovery document.
func NewOIDCProvider(ctx context.Context, issuer, clientID string) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return &OIDCProvider{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (p *OIDCProvider) Endpoint() oauth2.Endpoint {
	return p.provider.Endpoint()
}

// Verify checks signature, issuer, audience and expiry.
func (p *OIDCProvider) Verify(ctx context.Context, rawIDToken string) error {
	if _, err := p.verifier.Verify(ctx, rawIDToken); err != nil {
		return fmt.Errorf("ID token verification failed: %w", err)
	}
	return nil
}
