package webauth

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// ChromeLauncher opens the authorization page in a dedicated, visible Chrome
// window and captures the redirect from the browser's network events, so
// the redirect URI does not need a listening server.
type ChromeLauncher struct {
	// ExecPath overrides the Chrome binary lookup.
	ExecPath string
	// UserDataDir keeps the provider's cookies between sign-ins when set.
	UserDataDir string
}

var _ Launcher = (*ChromeLauncher)(nil)

func (l *ChromeLauncher) Launch(ctx context.Context, authURL, redirectURI string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("hide-scrollbars", false),
		chromedp.Flag("mute-audio", false),
		chromedp.WindowSize(520, 720),
	)
	if l.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.ExecPath))
	}
	if l.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(l.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	result := newOutcome()

	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		e, ok := ev.(*network.EventRequestWillBeSent)
		if !ok || e.Request == nil {
			return
		}
		if redirected, ok := matchRedirect(e.Request.URL, e.Request.URLFragment, redirectURI); ok {
			result.resolve(redirected)
		}
	})

	if err := chromedp.Run(taskCtx, network.Enable()); err != nil {
		return "", fmt.Errorf("starting chrome: %w", err)
	}

	// The page target only exists once Run has attached.
	pageID := chromedp.FromContext(taskCtx).Target.TargetID
	chromedp.ListenBrowser(taskCtx, func(ev interface{}) {
		if e, ok := ev.(*target.EventTargetDestroyed); ok && e.TargetID == pageID {
			result.reject(ErrCancelled)
		}
	})

	go func() {
		<-taskCtx.Done()
		result.reject(ErrCancelled)
	}()

	go func() {
		// Navigate reports an error once the browser tries to load the
		// redirect URI; that is expected when nothing listens there.
		if err := chromedp.Run(taskCtx, chromedp.Navigate(authURL)); err != nil {
			log.Debug().Err(err).Msg("Authorization page navigation ended")
		}
	}()

	return result.wait(ctx)
}

// matchRedirect reports whether a request URL targets redirectURI and, if
// so, returns it with its fragment reattached.
func matchRedirect(requestURL, fragment, redirectURI string) (string, bool) {
	if !strings.HasPrefix(requestURL, redirectURI) {
		return "", false
	}
	rest := requestURL[len(redirectURI):]
	if rest != "" && !strings.HasPrefix(rest, "?") && !strings.HasPrefix(rest, "#") {
		return "", false
	}
	if fragment != "" && !strings.Contains(requestURL, "#") {
		requestURL += fragment
	}
	return requestURL, true
}
