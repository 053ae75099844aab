// Package tabs enumerates the user's open browser tabs and projects them to
// the title/url records sent to the newsletter backend.
package tabs

import (
	"context"
	"time"
)

// TabRecord is the wire projection of a tab.
type TabRecord struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Tab is a host browser tab.
type Tab struct {
	ID           string
	WindowID     int64
	Title        string
	URL          string
	LastAccessed time.Time // zero when the host does not report it
}

// Record projects the tab to its wire form.
func (t Tab) Record() TabRecord {
	return TabRecord{Title: t.Title, URL: t.URL}
}

// Snapshot is one enumeration of the host's tabs, in host order.
type Snapshot struct {
	// CurrentWindowID is zero when the host cannot tell which window is
	// focused; every tab is then treated as part of the current window.
	CurrentWindowID int64
	Tabs            []Tab
}

// Source enumerates tabs.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(ctx context.Context) (Snapshot, error)

func (f SourceFunc) Snapshot(ctx context.Context) (Snapshot, error) {
	return f(ctx)
}

// Scope selects which windows' tabs are collected.
type Scope string

const (
	ScopeCurrentWindow Scope = "current"
	ScopeAllWindows    Scope = "all"
)
