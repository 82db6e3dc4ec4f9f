package grouping

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/lotas/tabtab/internal/types"
)

// Search keeps the tabs whose title or URL contains query, ignoring case.
// The query is matched as typed, spaces included. Groups left without tabs
// are dropped. An empty query returns groups as is.
func Search(groups []types.Group, query string) []types.Group {
	q := strings.ToLower(query)
	if q == "" {
		return groups
	}
	return filter(groups, func(tab types.SavedTab) bool {
		return strings.Contains(strings.ToLower(tab.Title), q) ||
			strings.Contains(strings.ToLower(tab.URL), q)
	})
}

// HostFilter matches tab hosts against a glob pattern. A single "*" stays
// within one domain label, "**" spans labels.
type HostFilter struct {
	pattern string
	g       glob.Glob
}

// NewHostFilter compiles pattern.
func NewHostFilter(pattern string) (*HostFilter, error) {
	g, err := glob.Compile(strings.ToLower(pattern), '.')
	if err != nil {
		return nil, fmt.Errorf("invalid host pattern %q: %w", pattern, err)
	}
	return &HostFilter{pattern: pattern, g: g}, nil
}

// Match reports whether the host of rawURL matches the pattern.
func (f *HostFilter) Match(rawURL string) bool {
	return f.g.Match(Host(rawURL))
}

// Apply keeps the tabs whose host matches, dropping empty groups.
func (f *HostFilter) Apply(groups []types.Group) []types.Group {
	return filter(groups, func(tab types.SavedTab) bool {
		return f.Match(tab.URL)
	})
}

func filter(groups []types.Group, keep func(types.SavedTab) bool) []types.Group {
	result := make([]types.Group, 0, len(groups))
	for _, g := range groups {
		var tabs []types.SavedTab
		for _, tab := range g.Tabs {
			if keep(tab) {
				tabs = append(tabs, tab)
			}
		}
		if len(tabs) == 0 {
			continue
		}
		result = append(result, types.Group{Key: g.Key, Newest: g.Newest, Tabs: tabs})
	}
	return result
}
