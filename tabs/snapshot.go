package tabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tidwall/jsonc"
)

// SnapshotSource reads tabs exported from the browser (the result of
// chrome.tabs.query) from a JSON file. Comments and trailing commas are
// allowed. The file holds either a bare array of tabs or an object
// {"currentWindowId": n, "tabs": [...]}.
type SnapshotSource struct {
	Path string
}

var _ Source = (*SnapshotSource)(nil)

func NewSnapshotSource(path string) *SnapshotSource {
	return &SnapshotSource{Path: path}
}

func (s *SnapshotSource) Snapshot(_ context.Context) (Snapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading tab snapshot: %w", err)
	}
	return ParseSnapshot(data)
}

type exportedTab struct {
	ID           json.Number `json:"id"`
	WindowID     int64       `json:"windowId"`
	Title        string      `json:"title"`
	URL          string      `json:"url"`
	LastAccessed float64     `json:"lastAccessed"` // epoch milliseconds
}

type exportedSnapshot struct {
	CurrentWindowID int64         `json:"currentWindowId"`
	Tabs            []exportedTab `json:"tabs"`
}

// ParseSnapshot decodes an exported tab list.
func ParseSnapshot(data []byte) (Snapshot, error) {
	data = bytes.TrimSpace(jsonc.ToJSON(data))

	var doc exportedSnapshot
	var err error
	if bytes.HasPrefix(data, []byte("[")) {
		err = json.Unmarshal(data, &doc.Tabs)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("parsing tab snapshot: %w", err)
	}

	snapshot := Snapshot{CurrentWindowID: doc.CurrentWindowID, Tabs: make([]Tab, 0, len(doc.Tabs))}
	for i, t := range doc.Tabs {
		tab := Tab{
			ID:       t.ID.String(),
			WindowID: t.WindowID,
			Title:    t.Title,
			URL:      t.URL,
		}
		if tab.ID == "" {
			tab.ID = strconv.Itoa(i)
		}
		if t.LastAccessed > 0 {
			tab.LastAccessed = time.UnixMilli(int64(t.LastAccessed))
		}
		snapshot.Tabs = append(snapshot.Tabs, tab)
	}
	return snapshot, nil
}
