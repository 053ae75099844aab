// Package identity signs the user in with an OpenID Connect provider using
// the implicit flow (response_type=id_token) and keeps the resulting
// session in a credentials.Store.
//
// The ID token's signature is not verified unless a TokenVerifier is
// configured: by default the redirect channel and the provider endpoint are
// trusted. Audience and nonce are always checked.
package identity

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-tabnews/credentials"
	"github.com/jrsteele09/go-tabnews/internal/config"
	apperrors "github.com/jrsteele09/go-tabnews/internal/errors"
	"github.com/jrsteele09/go-tabnews/webauth"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const nonceLength = 32 // bytes, 256 bits

// Settings identifies this application to the provider.
type Settings struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
	Endpoint    oauth2.Endpoint
}

// SettingsFromConfig reads Settings from the OAuth configuration.
func SettingsFromConfig(c config.OAuthConfig) Settings {
	return Settings{
		ClientID:    c.GetClientID(),
		RedirectURI: c.GetRedirectURI(),
		Scopes:      c.GetScopes(),
		Endpoint:    oauth2.Endpoint{AuthURL: c.GetAuthURL()},
	}
}

// Client drives sign-in and sign-out. It is the only writer of the store.
type Client struct {
	settings Settings
	store    credentials.Store
	launcher webauth.Launcher
	verifier TokenVerifier
	newNonce func() (string, error)
	newState func() string
	nowTime  func() time.Time
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithVerifier enables signature verification of received tokens.
func WithVerifier(v TokenVerifier) ClientOption {
	return func(c *Client) {
		c.verifier = v
	}
}

// WithEndpoint overrides the authorization endpoint (e.g. from discovery).
func WithEndpoint(endpoint oauth2.Endpoint) ClientOption {
	return func(c *Client) {
		c.settings.Endpoint = endpoint
	}
}

// WithNonceGenerator replaces the random nonce source (primarily for testing)
func WithNonceGenerator(f func() (string, error)) ClientOption {
	return func(c *Client) {
		c.newNonce = f
	}
}

// WithStateGenerator replaces the random state source (primarily for testing)
func WithStateGenerator(f func() string) ClientOption {
	return func(c *Client) {
		c.newState = f
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// NewClient creates a Client. The launcher may be nil for clients that
// never sign in (status, sign out).
func NewClient(settings Settings, store credentials.Store, launcher webauth.Launcher, options ...ClientOption) (*Client, error) {
	if store == nil {
		return nil, errors.New("[NewClient] credentials store is required")
	}

	c := &Client{
		settings: settings,
		store:    store,
		launcher: launcher,
		newNonce: generateNonce,
		newState: uuid.NewString,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// AuthorizationURL builds the provider URL for an implicit-flow request.
func (c *Client) AuthorizationURL(nonce, state string) string {
	oauthConfig := oauth2.Config{
		ClientID:    c.settings.ClientID,
		Endpoint:    c.settings.Endpoint,
		RedirectURL: c.settings.RedirectURI,
		Scopes:      c.settings.Scopes,
	}
	return oauthConfig.AuthCodeURL(state,
		oauth2.SetAuthURLParam("response_type", "id_token"),
		oauth2.SetAuthURLParam("nonce", nonce),
	)
}

// SignIn runs the interactive flow and stores the verified session. On any
// failure the store is reset to the logged-out session before returning.
func (c *Client) SignIn(ctx context.Context) (credentials.Session, error) {
	if c.settings.ClientID == "" {
		return credentials.LoggedOut(), apperrors.ErrMissingClientID
	}
	if c.launcher == nil {
		return credentials.LoggedOut(), errors.New("[Client.SignIn] no authorization launcher configured")
	}

	nonce, err := c.newNonce()
	if err != nil {
		return credentials.LoggedOut(), fmt.Errorf("[Client.SignIn] generating nonce: %w", err)
	}
	state := c.newState()

	session, err := c.signIn(ctx, c.AuthorizationURL(nonce, state), nonce, state)
	if err != nil {
		log.Err(err).Msg("Sign-in failed")
		if rollbackErr := c.store.Replace(ctx, credentials.LoggedOut()); rollbackErr != nil {
			log.Err(rollbackErr).Msg("Failed to reset session after sign-in failure")
		}
		return credentials.LoggedOut(), err
	}
	return session, nil
}

func (c *Client) signIn(ctx context.Context, authURL, nonce, state string) (credentials.Session, error) {
	log.Debug().Str("redirect_uri", c.settings.RedirectURI).Msg("Launching authorization flow")

	redirected, err := c.launcher.Launch(ctx, authURL, c.settings.RedirectURI)
	if err != nil {
		return credentials.Session{}, newAuthError(FlowCancelled, err)
	}

	rawToken, err := extractIDToken(redirected, state)
	if err != nil {
		return credentials.Session{}, err
	}

	payload, err := DecodeToken(rawToken)
	if err != nil {
		return credentials.Session{}, newAuthError(MalformedToken, err)
	}

	if err := c.validate(ctx, rawToken, payload, nonce); err != nil {
		return credentials.Session{}, err
	}

	session := credentials.LoggedIn(rawToken, payload.Profile())
	if err := c.store.Replace(ctx, session); err != nil {
		return credentials.Session{}, fmt.Errorf("[Client.SignIn] storing session: %w", err)
	}

	log.Info().Str("email", payload.Email).Str("token", Fingerprint(rawToken)).Msg("Signed in")
	return session, nil
}

func (c *Client) validate(ctx context.Context, rawToken string, payload *TokenPayload, nonce string) error {
	if len(payload.Audience) != 1 || payload.Audience[0] != c.settings.ClientID {
		return newAuthError(AudienceMismatch, fmt.Errorf("token issued for %v", payload.Audience))
	}

	if subtle.ConstantTimeCompare([]byte(payload.Nonce), []byte(nonce)) != 1 {
		log.Warn().Str("token", Fingerprint(rawToken)).Msg("Nonce mismatch, rejecting token as a possible replay")
		return newAuthError(NonceMismatch, nil)
	}

	if payload.Expired(c.nowTime()) {
		return newAuthError(TokenExpired, fmt.Errorf("expired at %s", payload.Expiry.Format(time.RFC3339)))
	}

	if c.verifier != nil {
		if err := c.verifier.Verify(ctx, rawToken); err != nil {
			return newAuthError(SignatureInvalid, err)
		}
	}
	return nil
}

// extractIDToken reads id_token from the redirect URL fragment.
func extractIDToken(redirectURL, expectedState string) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", newAuthError(TokenMissing, fmt.Errorf("unparseable redirect: %w", err))
	}

	params, err := url.ParseQuery(u.EscapedFragment())
	if err != nil {
		return "", newAuthError(TokenMissing, fmt.Errorf("unparseable redirect fragment: %w", err))
	}

	for _, source := range []url.Values{params, u.Query()} {
		if code := source.Get("error"); code != "" {
			return "", newAuthError(FlowCancelled, &ProviderError{Code: code, Description: source.Get("error_description")})
		}
	}

	if state := params.Get("state"); state != "" && state != expectedState {
		return "", newAuthError(StateMismatch, nil)
	}

	rawToken := params.Get("id_token")
	if rawToken == "" {
		return "", newAuthError(TokenMissing, nil)
	}
	return rawToken, nil
}

// SignOut clears the stored session. It never fails from the caller's point
// of view; storage problems are logged.
func (c *Client) SignOut(ctx context.Context) {
	session, err := c.store.Load(ctx)
	if err != nil {
		log.Err(err).Msg("SignOut: failed to read session")
	} else if token, ok := session.Token(); ok {
		log.Debug().Str("token", Fingerprint(token)).Msg("SignOut: clearing stored identity token")
	}

	if err := c.store.Replace(ctx, credentials.LoggedOut()); err != nil {
		log.Err(err).Msg("SignOut: failed to clear session")
		return
	}
	log.Info().Msg("Signed out")
}

// CurrentToken returns the stored identity token without any network access.
func (c *Client) CurrentToken(ctx context.Context) (string, bool) {
	session, err := c.store.Load(ctx)
	if err != nil {
		log.Err(err).Msg("CurrentToken: failed to read session")
		return "", false
	}
	return session.Token()
}

// Status returns the stored session.
func (c *Client) Status(ctx context.Context) (credentials.Session, error) {
	return c.store.Load(ctx)
}

// CheckLogin validates the stored session at start-up. An inconsistent
// record, an undecodable token or an expired token signs the user out;
// tokens are never refreshed.
func (c *Client) CheckLogin(ctx context.Context) (credentials.Session, error) {
	session, err := c.store.Load(ctx)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrInconsistentSession) {
			return credentials.LoggedOut(), apperrors.Wrapf(err, "[Client.CheckLogin] loading session")
		}
		log.Warn().Err(err).Msg("Stored session is inconsistent, signing out")
		c.SignOut(ctx)
		return credentials.LoggedOut(), nil
	}

	token, ok := session.Token()
	if !session.LoggedIn || !ok {
		log.Debug().Msg("User not logged in on startup")
		return session, nil
	}

	payload, err := DecodeToken(token)
	if err != nil {
		log.Warn().Err(err).Msg("Stored identity token is unreadable, signing out")
		c.SignOut(ctx)
		return credentials.LoggedOut(), nil
	}
	if payload.Expired(c.nowTime()) {
		log.Info().Str("token", Fingerprint(token)).Msg("Stored identity token expired, signing out")
		c.SignOut(ctx)
		return credentials.LoggedOut(), nil
	}

	log.Debug().Str("email", payload.Email).Msg("User already logged in on startup")
	return session, nil
}

// generateNonce creates a random base64url string
func generateNonce() (string, error) {
	b := make([]byte, nonceLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
