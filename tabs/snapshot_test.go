package tabs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-tabnews/tabs"
	"github.com/stretchr/testify/require"
)

func TestParseSnapshot(t *testing.T) {
	t.Run("array with comments", func(t *testing.T) {
		snapshot, err := tabs.ParseSnapshot([]byte(`
// exported from the extension console
[
  {"id": 11, "windowId": 3, "title": "Go", "url": "https://go.dev", "lastAccessed": 1760702400000},
  {"id": 12, "windowId": 3, "title": "Blog", "url": "https://go.dev/blog"}, /* no lastAccessed */
]`))
		require.NoError(t, err)
		require.Zero(t, snapshot.CurrentWindowID)
		require.Len(t, snapshot.Tabs, 2)

		require.Equal(t, "11", snapshot.Tabs[0].ID)
		require.Equal(t, int64(3), snapshot.Tabs[0].WindowID)
		require.True(t, snapshot.Tabs[0].LastAccessed.Equal(time.UnixMilli(1760702400000)))
		require.True(t, snapshot.Tabs[1].LastAccessed.IsZero())
		require.Equal(t, tabs.TabRecord{Title: "Blog", URL: "https://go.dev/blog"}, snapshot.Tabs[1].Record())
	})

	t.Run("object with current window", func(t *testing.T) {
		snapshot, err := tabs.ParseSnapshot([]byte(`{
  "currentWindowId": 7,
  "tabs": [
    {"id": 1, "windowId": 7, "title": "A", "url": "https://a.example"},
    {"windowId": 8, "title": "B", "url": "https://b.example"},
  ],
}`))
		require.NoError(t, err)
		require.Equal(t, int64(7), snapshot.CurrentWindowID)
		require.Len(t, snapshot.Tabs, 2)
		require.Equal(t, "1", snapshot.Tabs[1].ID)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := tabs.ParseSnapshot([]byte(`{"tabs": "nope"}`))
		require.Error(t, err)
	})
}

func TestSnapshotSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabs.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1, "windowId": 1, "title": "Go", "url": "https://go.dev"}]`), 0600))

	collector := tabs.NewCollector(tabs.NewSnapshotSource(path))
	records, err := collector.ListCurrentWindowTabs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []tabs.TabRecord{{Title: "Go", URL: "https://go.dev"}}, records)

	_, err = tabs.NewSnapshotSource(filepath.Join(t.TempDir(), "missing.json")).Snapshot(context.Background())
	require.Error(t, err)
}
