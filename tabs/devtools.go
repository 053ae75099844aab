package tabs

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// DevToolsSource lists the page targets of a browser started with
// --remote-debugging-port. Chrome reports targets most recently activated
// first, so the first page's window is taken as the current window.
// DevTools has no last-access time; every tab it reports passes the recency
// filter.
type DevToolsSource struct {
	URL string
}

var _ Source = (*DevToolsSource)(nil)

func NewDevToolsSource(url string) *DevToolsSource {
	return &DevToolsSource{URL: url}
}

func (s *DevToolsSource) Snapshot(ctx context.Context) (Snapshot, error) {
	allocCtx, cancel := chromedp.NewRemoteAllocator(ctx, s.URL)
	defer cancel()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	infos, err := chromedp.Targets(browserCtx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("listing targets at %s: %w", s.URL, err)
	}

	executor := cdp.WithExecutor(browserCtx, chromedp.FromContext(browserCtx).Browser)
	return buildSnapshot(infos, func(id target.ID) (int64, error) {
		windowID, _, err := browser.GetWindowForTarget().WithTargetID(id).Do(executor)
		return int64(windowID), err
	})
}

// buildSnapshot keeps page targets in order and resolves their windows.
func buildSnapshot(infos []*target.Info, windowOf func(target.ID) (int64, error)) (Snapshot, error) {
	var snapshot Snapshot
	for _, info := range infos {
		if info == nil || info.Type != "page" || strings.HasPrefix(info.URL, "devtools://") {
			continue
		}
		windowID, err := windowOf(info.TargetID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("resolving window of target %s: %w", info.TargetID, err)
		}
		if snapshot.CurrentWindowID == 0 {
			snapshot.CurrentWindowID = windowID
		}
		snapshot.Tabs = append(snapshot.Tabs, Tab{
			ID:       string(info.TargetID),
			WindowID: windowID,
			Title:    info.Title,
			URL:      info.URL,
		})
	}
	log.Debug().Int("targets", len(infos)).Int("pages", len(snapshot.Tabs)).Msg("Enumerated DevTools targets")
	return snapshot, nil
}
