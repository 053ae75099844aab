package tabs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultRecency drops tabs not used in the last day.
const DefaultRecency = 24 * time.Hour

// Collector filters a Source's tabs down to the records worth summarising.
type Collector struct {
	source  Source
	scope   Scope
	recency time.Duration
	nowTime func() time.Time
}

// CollectorOption defines a function type to modify the Collector instance.
type CollectorOption func(*Collector)

func WithScope(scope Scope) CollectorOption {
	return func(c *Collector) {
		c.scope = scope
	}
}

// WithRecency sets the last-access threshold. Zero keeps every tab.
func WithRecency(d time.Duration) CollectorOption {
	return func(c *Collector) {
		c.recency = d
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) CollectorOption {
	return func(c *Collector) {
		c.nowTime = nowFunc
	}
}

func NewCollector(source Source, options ...CollectorOption) *Collector {
	c := &Collector{
		source:  source,
		scope:   ScopeCurrentWindow,
		recency: DefaultRecency,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// ListCurrentWindowTabs returns the in-scope, recently used tabs as records,
// in host order. It never modifies the host.
func (c *Collector) ListCurrentWindowTabs(ctx context.Context) ([]TabRecord, error) {
	snapshot, err := c.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("[Collector.ListCurrentWindowTabs] enumerating tabs: %w", err)
	}

	var cutoff time.Time
	if c.recency > 0 {
		cutoff = c.nowTime().Add(-c.recency)
	}

	records := make([]TabRecord, 0, len(snapshot.Tabs))
	for _, tab := range snapshot.Tabs {
		if !c.inScope(snapshot.CurrentWindowID, tab) {
			continue
		}
		if !cutoff.IsZero() && !tab.LastAccessed.IsZero() && tab.LastAccessed.Before(cutoff) {
			continue
		}
		records = append(records, tab.Record())
	}

	log.Debug().
		Int("enumerated", len(snapshot.Tabs)).
		Int("collected", len(records)).
		Str("scope", string(c.scope)).
		Msg("Collected tabs")
	return records, nil
}

func (c *Collector) inScope(currentWindowID int64, tab Tab) bool {
	if c.scope == ScopeAllWindows || currentWindowID == 0 {
		return true
	}
	return tab.WindowID == currentWindowID
}
