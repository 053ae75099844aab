package config

import (
	"strings"
	"time"
)

const (
	devToolsURLVar  = "TABNEWS_DEVTOOLS_URL"
	tabsFileVar     = "TABNEWS_TABS_FILE"
	tabsScopeVar    = "TABNEWS_TABS_SCOPE"
	tabsRecencyVar  = "TABNEWS_TABS_RECENCY"
	defaultRecency  = 24 * time.Hour
	ScopeCurrentWin = "current"
	ScopeAllWindows = "all"
)

type TabsConfig interface {
	GetDevToolsURL() string
	GetTabsFile() string
	GetTabsScope() string
	GetTabsRecency() time.Duration
}

type Tabs struct {
	file *TabsFile
}

var _ TabsConfig = Tabs{}

func (t Tabs) GetDevToolsURL() string {
	return lookup(devToolsURLVar, t.value(func(f *TabsFile) string { return f.DevToolsURL }), "http://127.0.0.1:9222")
}

// GetTabsFile names a tab snapshot to read instead of a live browser.
func (t Tabs) GetTabsFile() string {
	return lookup(tabsFileVar, t.value(func(f *TabsFile) string { return f.SnapshotFile }), "")
}

func (t Tabs) GetTabsScope() string {
	scope := strings.ToLower(lookup(tabsScopeVar, t.value(func(f *TabsFile) string { return f.Scope }), ScopeCurrentWin))
	if scope != ScopeAllWindows {
		return ScopeCurrentWin
	}
	return scope
}

// GetTabsRecency is the last-access threshold; zero disables filtering.
func (t Tabs) GetTabsRecency() time.Duration {
	return lookupDuration(tabsRecencyVar, t.value(func(f *TabsFile) string { return f.Recency }), defaultRecency)
}

func (t Tabs) value(get func(*TabsFile) string) string {
	if t.file == nil {
		return ""
	}
	return get(t.file)
}
