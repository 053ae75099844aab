package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jrsteele09/go-tabnews/credentials"
	"github.com/jrsteele09/go-tabnews/gateway"
	"github.com/jrsteele09/go-tabnews/identity"
	"github.com/jrsteele09/go-tabnews/internal/config"
	apperrors "github.com/jrsteele09/go-tabnews/internal/errors"
	"github.com/jrsteele09/go-tabnews/popup"
	"github.com/jrsteele09/go-tabnews/tabs"
	"github.com/jrsteele09/go-tabnews/webauth"
	"github.com/rs/zerolog/log"
)

// app wires the packages together from configuration.
type app struct {
	config config.Config
	out    io.Writer
}

func newApp(c config.Config, out io.Writer) *app {
	return &app{config: c, out: out}
}

// identityClient builds the client. A nil launcher gives a client that
// cannot sign in; the provider is only contacted for interactive clients
// with discovery or signature verification enabled.
func (a *app) identityClient(ctx context.Context, launcher webauth.Launcher) (*identity.Client, error) {
	store, err := credentials.NewFileStore(a.config.GetCredentialsFile())
	if err != nil {
		return nil, err
	}
	if launcher == nil {
		return identity.NewClient(identity.SettingsFromConfig(a.config), store, nil)
	}

	var opts []identity.ClientOption
	if a.config.GetDiscovery() || a.config.GetVerifySignature() {
		provider, err := identity.NewOIDCProvider(ctx, a.config.GetIssuer(), a.config.GetClientID())
		if err != nil {
			return nil, err
		}
		if a.config.GetDiscovery() {
			opts = append(opts, identity.WithEndpoint(provider.Endpoint()))
		}
		if a.config.GetVerifySignature() {
			opts = append(opts, identity.WithVerifier(provider))
		}
	}
	return identity.NewClient(identity.SettingsFromConfig(a.config), store, launcher, opts...)
}

// launcher builds the configured launcher. The loopback launcher prints
// the sign-in URL to output and passes it to showURL before opening a
// browser; either may be nil.
func (a *app) launcher(output io.Writer, showURL func(string)) (webauth.Launcher, error) {
	switch name := a.config.GetLauncher(); name {
	case config.LauncherLoopback:
		launcher := &webauth.LoopbackLauncher{AppName: a.config.GetAppName(), Output: output}
		if showURL != nil {
			launcher.Opener = func(authURL string) error {
				showURL(authURL)
				return webauth.OpenBrowser(authURL)
			}
		}
		return launcher, nil
	case config.LauncherChrome:
		return &webauth.ChromeLauncher{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownLauncher, name)
	}
}

func (a *app) collector() *tabs.Collector {
	var source tabs.Source = tabs.NewDevToolsSource(a.config.GetDevToolsURL())
	if file := a.config.GetTabsFile(); file != "" {
		source = tabs.NewSnapshotSource(file)
	}
	return tabs.NewCollector(source,
		tabs.WithScope(tabs.Scope(a.config.GetTabsScope())),
		tabs.WithRecency(a.config.GetTabsRecency()),
	)
}

func (a *app) gateway() *gateway.Gateway {
	return gateway.New(a.config.GetEndpoint())
}

func (a *app) popup(ctx context.Context) error {
	// The popup owns the terminal, so the sign-in URL is shown inside it.
	var program *tea.Program
	launcher, err := a.launcher(nil, func(authURL string) {
		program.Send(popup.AuthURLMsg{URL: authURL})
	})
	if err != nil {
		return err
	}
	client, err := a.identityClient(ctx, launcher)
	if err != nil {
		return err
	}

	program = popup.NewProgram(ctx, popup.New(ctx, client, a.collector(), a.gateway()))
	_, err = program.Run()
	return err
}

func (a *app) login(ctx context.Context) error {
	launcher, err := a.launcher(a.out, nil)
	if err != nil {
		return err
	}
	client, err := a.identityClient(ctx, launcher)
	if err != nil {
		return err
	}
	session, err := client.SignIn(ctx)
	if err != nil {
		return err
	}
	profile := session.Profile
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", profile.Name, profile.Email)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	client, err := a.identityClient(ctx, nil)
	if err != nil {
		return err
	}
	client.SignOut(ctx)
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *app) status(ctx context.Context) error {
	client, err := a.identityClient(ctx, nil)
	if err != nil {
		return err
	}
	session, err := client.Status(ctx)
	if err != nil {
		return err
	}
	token, ok := session.Token()
	if !session.LoggedIn || !ok {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}

	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", session.Profile.Name, session.Profile.Email)
	fmt.Fprintf(a.out, "Token:   %s\n", identity.Fingerprint(token))
	if payload, err := identity.DecodeToken(token); err == nil && payload.Expiry != nil {
		state := "valid"
		if payload.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(a.out, "Expires: %s (%s)\n", payload.Expiry.Local().Format(time.RFC1123), state)
	}
	return nil
}

func (a *app) listTabs(ctx context.Context) error {
	records, err := a.collector().ListCurrentWindowTabs(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(records)
}

// send is the non-interactive generate flow.
func (a *app) send(ctx context.Context) error {
	client, err := a.identityClient(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := client.CheckLogin(ctx); err != nil {
		return err
	}

	records, err := a.collector().ListCurrentWindowTabs(ctx)
	if err != nil {
		return err
	}
	token, ok := client.CurrentToken(ctx)
	if !ok {
		return fmt.Errorf("%w: run tabnews login first", apperrors.ErrNotLoggedIn)
	}

	result := a.gateway().Submit(ctx, records, token)
	if err := a.printJSON(result.Body); err != nil {
		return err
	}
	if !result.Succeeded() {
		log.Debug().Int("status", result.StatusCode).Msg("Newsletter request failed")
		return fmt.Errorf("newsletter request failed: %s", result.Message())
	}
	return nil
}

func (a *app) printJSON(v any) error {
	encoder := json.NewEncoder(a.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
