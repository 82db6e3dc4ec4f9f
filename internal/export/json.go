package export

import (
	"encoding/json"
	"time"

	"github.com/lotas/tabtab/internal/grouping"
	"github.com/lotas/tabtab/internal/types"
)

type jsonExport struct {
	ExportedAt time.Time   `json:"exported_at"`
	Total      int         `json:"total"`
	Groups     []jsonGroup `json:"groups"`
}

type jsonGroup struct {
	Key    string    `json:"key"`
	Newest time.Time `json:"newest"`
	Tabs   []jsonTab `json:"tabs"`
}

type jsonTab struct {
	Title   string    `json:"title"`
	URL     string    `json:"url"`
	Domain  string    `json:"domain"`
	Favicon string    `json:"favicon"`
	SavedAt time.Time `json:"saved_at"`
	GroupID string    `json:"group_id,omitempty"`
}

// JSON formats the saved collection as a JSON document, grouped the same
// way as Text.
func JSON(tabs []types.SavedTab, now time.Time) (string, error) {
	groups := grouping.Group(tabs)
	out := jsonExport{
		ExportedAt: now,
		Total:      len(tabs),
		Groups:     make([]jsonGroup, 0, len(groups)),
	}

	for _, g := range groups {
		group := jsonGroup{
			Key:    g.Key,
			Newest: time.UnixMilli(g.Newest).UTC(),
			Tabs:   make([]jsonTab, 0, len(g.Tabs)),
		}
		for _, tab := range g.Tabs {
			favicon := tab.Favicon
			if favicon == "" {
				favicon = types.DefaultFavicon
			}
			group.Tabs = append(group.Tabs, jsonTab{
				Title:   tab.Title,
				URL:     tab.URL,
				Domain:  grouping.Host(tab.URL),
				Favicon: favicon,
				SavedAt: time.UnixMilli(tab.Date).UTC(),
				GroupID: tab.GroupID,
			})
		}
		out.Groups = append(out.Groups, group)
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
