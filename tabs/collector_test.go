package tabs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-tabnews/tabs"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func staticSource(snapshot tabs.Snapshot) tabs.Source {
	return tabs.SourceFunc(func(context.Context) (tabs.Snapshot, error) {
		return snapshot, nil
	})
}

func fixtureSnapshot() tabs.Snapshot {
	return tabs.Snapshot{
		CurrentWindowID: 1,
		Tabs: []tabs.Tab{
			{ID: "1", WindowID: 1, Title: "Go", URL: "https://go.dev", LastAccessed: testNow.Add(-time.Minute)},
			{ID: "2", WindowID: 2, Title: "Other window", URL: "https://example.org", LastAccessed: testNow.Add(-time.Minute)},
			{ID: "3", WindowID: 1, Title: "Stale", URL: "https://old.example.com", LastAccessed: testNow.Add(-48 * time.Hour)},
			{ID: "4", WindowID: 1, Title: "Unknown age", URL: "https://news.example.com"},
		},
	}
}

func TestCollector_ListCurrentWindowTabs(t *testing.T) {
	ctx := context.Background()
	now := tabs.WithNowTime(func() time.Time { return testNow })

	t.Run("current window and recent", func(t *testing.T) {
		collector := tabs.NewCollector(staticSource(fixtureSnapshot()), now)

		records, err := collector.ListCurrentWindowTabs(ctx)
		require.NoError(t, err)
		require.Equal(t, []tabs.TabRecord{
			{Title: "Go", URL: "https://go.dev"},
			{Title: "Unknown age", URL: "https://news.example.com"},
		}, records)
	})

	t.Run("all windows", func(t *testing.T) {
		collector := tabs.NewCollector(staticSource(fixtureSnapshot()), now, tabs.WithScope(tabs.ScopeAllWindows))

		records, err := collector.ListCurrentWindowTabs(ctx)
		require.NoError(t, err)
		require.Equal(t, []tabs.TabRecord{
			{Title: "Go", URL: "https://go.dev"},
			{Title: "Other window", URL: "https://example.org"},
			{Title: "Unknown age", URL: "https://news.example.com"},
		}, records)
	})

	t.Run("recency disabled", func(t *testing.T) {
		collector := tabs.NewCollector(staticSource(fixtureSnapshot()), now, tabs.WithRecency(0))

		records, err := collector.ListCurrentWindowTabs(ctx)
		require.NoError(t, err)
		require.Len(t, records, 3)
		require.Equal(t, "Stale", records[1].Title)
	})

	t.Run("unknown current window keeps every window", func(t *testing.T) {
		snapshot := fixtureSnapshot()
		snapshot.CurrentWindowID = 0
		collector := tabs.NewCollector(staticSource(snapshot), now)

		records, err := collector.ListCurrentWindowTabs(ctx)
		require.NoError(t, err)
		require.Len(t, records, 3)
	})

	t.Run("no tabs", func(t *testing.T) {
		collector := tabs.NewCollector(staticSource(tabs.Snapshot{}), now)

		records, err := collector.ListCurrentWindowTabs(ctx)
		require.NoError(t, err)
		require.NotNil(t, records)
		require.Empty(t, records)
	})

	t.Run("source failure", func(t *testing.T) {
		cause := errors.New("browser not reachable")
		collector := tabs.NewCollector(tabs.SourceFunc(func(context.Context) (tabs.Snapshot, error) {
			return tabs.Snapshot{}, cause
		}))

		_, err := collector.ListCurrentWindowTabs(ctx)
		require.ErrorIs(t, err, cause)
	})
}
