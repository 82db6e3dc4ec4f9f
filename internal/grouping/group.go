package grouping

import (
	"sort"

	"github.com/lotas/tabtab/internal/types"
)

// Group partitions tabs by effective group key. Groups are ordered by their
// newest tab, most recent first; tabs within a group are ordered by host.
// Both sorts are stable, so ties keep collection order.
func Group(tabs []types.SavedTab) []types.Group {
	index := make(map[string]int)
	var groups []types.Group
	for _, tab := range tabs {
		key := GroupKey(tab)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, types.Group{Key: key, Newest: tab.Date})
		}
		g := &groups[i]
		g.Tabs = append(g.Tabs, tab)
		if tab.Date > g.Newest {
			g.Newest = tab.Date
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Newest > groups[j].Newest
	})
	for i := range groups {
		SortByHost(groups[i].Tabs)
	}
	return groups
}

// SortByHost orders tabs by Host of their URL, keeping the relative order of
// tabs on the same host.
func SortByHost(tabs []types.SavedTab) {
	hosts := make([]string, len(tabs))
	for i, tab := range tabs {
		hosts[i] = Host(tab.URL)
	}
	idx := make([]int, len(tabs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return hosts[idx[a]] < hosts[idx[b]]
	})
	sorted := make([]types.SavedTab, len(tabs))
	for i, j := range idx {
		sorted[i] = tabs[j]
	}
	copy(tabs, sorted)
}

// Find returns the group with the given key.
func Find(groups []types.Group, key string) (types.Group, bool) {
	for _, g := range groups {
		if g.Key == key {
			return g, true
		}
	}
	return types.Group{}, false
}
