package config

import "strings"

const (
	clientIDVar        = "TABNEWS_CLIENT_ID"
	redirectURIVar     = "TABNEWS_REDIRECT_URI"
	scopesVar          = "TABNEWS_SCOPES"
	authURLVar         = "TABNEWS_AUTH_URL"
	issuerVar          = "TABNEWS_ISSUER"
	discoveryVar       = "TABNEWS_OIDC_DISCOVERY"
	verifySignatureVar = "TABNEWS_VERIFY_SIGNATURE"
	launcherVar        = "TABNEWS_LAUNCHER"
)

const (
	LauncherLoopback = "loopback"
	LauncherChrome   = "chrome"
)

type OAuthConfig interface {
	GetClientID() string
	GetRedirectURI() string
	GetScopes() []string
	GetAuthURL() string
	GetIssuer() string
	GetDiscovery() bool
	GetVerifySignature() bool
	GetLauncher() string
}

type OAuth struct {
	file *OAuthFile
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetClientID() string {
	return lookup(clientIDVar, o.value(func(f *OAuthFile) string { return f.ClientID }), "")
}

// GetRedirectURI must point at a loopback address for the loopback launcher.
func (o OAuth) GetRedirectURI() string {
	return lookup(redirectURIVar, o.value(func(f *OAuthFile) string { return f.RedirectURI }), "http://127.0.0.1:8765/callback")
}

func (o OAuth) GetScopes() []string {
	fileScopes := ""
	if o.file != nil {
		fileScopes = strings.Join(o.file.Scopes, " ")
	}
	return strings.Fields(lookup(scopesVar, fileScopes, "openid email profile"))
}

func (o OAuth) GetAuthURL() string {
	return lookup(authURLVar, o.value(func(f *OAuthFile) string { return f.AuthURL }), "https://accounts.google.com/o/oauth2/v2/auth")
}

func (o OAuth) GetIssuer() string {
	return lookup(issuerVar, o.value(func(f *OAuthFile) string { return f.Issuer }), "https://accounts.google.com")
}

// GetDiscovery reports whether the authorization endpoint is discovered from
// the issuer instead of using GetAuthURL.
func (o OAuth) GetDiscovery() bool {
	var fileValue *bool
	if o.file != nil {
		fileValue = o.file.Discovery
	}
	return lookupBool(discoveryVar, fileValue, false)
}

// GetVerifySignature enables ID token signature verification against the
// issuer's published keys. Off by default: the redirect channel is trusted.
func (o OAuth) GetVerifySignature() bool {
	var fileValue *bool
	if o.file != nil {
		fileValue = o.file.VerifySignature
	}
	return lookupBool(verifySignatureVar, fileValue, false)
}

func (o OAuth) GetLauncher() string {
	return strings.ToLower(lookup(launcherVar, o.value(func(f *OAuthFile) string { return f.Launcher }), LauncherLoopback))
}

func (o OAuth) value(get func(*OAuthFile) string) string {
	if o.file == nil {
		return ""
	}
	return get(o.file)
}
