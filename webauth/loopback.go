package webauth

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	apperrors "github.com/jrsteele09/go-tabnews/internal/errors"
	"github.com/rs/zerolog/log"
)

// relayTemplate reads the URL fragment, which browsers never send to a
// server, and posts it back to the same path.
var relayTemplate = template.Must(template.New("relay").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.AppName}}</title></head>
<body>
<p>Completing sign-in...</p>
<form id="relay" method="POST" action="{{.Path}}">
<input type="hidden" name="fragment" id="fragment">
</form>
<script>
document.getElementById("fragment").value = window.location.hash.substring(1);
document.getElementById("relay").submit();
</script>
</body>
</html>`))

var doneTemplate = template.Must(template.New("done").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.AppName}}</title></head>
<body><p>{{.Message}}</p></body>
</html>`))

// LoopbackLauncher receives the redirect on a local HTTP listener bound to
// the redirect URI's host and port.
type LoopbackLauncher struct {
	// AppName is shown on the relay pages.
	AppName string
	// Opener shows authURL to the user. Defaults to the platform browser.
	Opener func(authURL string) error
	// Output receives the authorization URL for manual copy. May be nil.
	Output io.Writer
	// Listener is used instead of binding the redirect URI's address.
	Listener net.Listener
}

var _ Launcher = (*LoopbackLauncher)(nil)

// Launch serves the redirect path until the flow resolves or ctx ends.
func (l *LoopbackLauncher) Launch(ctx context.Context, authURL, redirectURI string) (string, error) {
	redirect, err := url.Parse(redirectURI)
	if err != nil || redirect.Host == "" {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidRedirectURI, redirectURI)
	}
	if redirect.Scheme != "http" {
		return "", fmt.Errorf("%w: loopback redirect must use http, got %q", apperrors.ErrInvalidRedirectURI, redirect.Scheme)
	}
	path := redirect.Path
	if path == "" {
		path = "/"
	}

	listener := l.Listener
	if listener == nil {
		listener, err = net.Listen("tcp", redirect.Host)
		if err != nil {
			return "", fmt.Errorf("listening on %s: %w", redirect.Host, err)
		}
	}

	result := newOutcome()
	mux := http.NewServeMux()
	mux.HandleFunc(path, l.callbackHandler(redirectURI, path, result))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			result.reject(fmt.Errorf("loopback server: %w", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Err(err).Msg("Failed to stop loopback server")
		}
	}()

	if l.Output != nil {
		fmt.Fprintf(l.Output, "Open this URL to sign in:\n\n  %s\n\n", authURL)
	}
	opener := l.Opener
	if opener == nil {
		opener = OpenBrowser
	}
	if err := opener(authURL); err != nil {
		log.Warn().Err(err).Msg("Could not open a browser, waiting for manual sign-in")
	}

	return result.wait(ctx)
}

func (l *LoopbackLauncher) callbackHandler(redirectURI, path string, result *outcome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			// Providers may report errors in the query string.
			if r.URL.Query().Get("error") != "" {
				result.resolve(redirectURI + "?" + r.URL.RawQuery)
				l.render(w, doneTemplate, "Sign-in was not completed. You can close this window.")
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			if err := relayTemplate.Execute(w, map[string]string{"AppName": l.appName(), "Path": path}); err != nil {
				log.Err(err).Msg("Failed to render relay page")
			}
		case http.MethodPost:
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form", http.StatusBadRequest)
				return
			}
			result.resolve(redirectURI + "#" + r.PostFormValue("fragment"))
			l.render(w, doneTemplate, "Sign-in complete. You can close this window.")
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (l *LoopbackLauncher) render(w http.ResponseWriter, tmpl *template.Template, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, map[string]string{"AppName": l.appName(), "Message": message}); err != nil {
		log.Err(err).Msg("Failed to render loopback page")
	}
}

func (l *LoopbackLauncher) appName() string {
	if l.AppName == "" {
		return "Sign in"
	}
	return l.AppName
}

// OpenBrowser asks the operating system to open url.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	return cmd.Start()
}
