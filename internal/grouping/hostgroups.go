package grouping

import "github.com/lotas/tabtab/internal/types"

// GroupColors are the browser tab group colors, assigned to hosts in turn.
var GroupColors = []string{
	"grey", "blue", "red", "yellow", "green",
	"pink", "purple", "cyan", "orange",
}

// PlanHostGroups partitions open tabs into one browser tab group per host,
// in order of first appearance. Tabs without a URL are left alone.
func PlanHostGroups(tabs []types.OpenTab) []types.HostGroup {
	index := make(map[string]int)
	var groups []types.HostGroup
	for _, tab := range tabs {
		if tab.URL == "" {
			continue
		}
		host := Host(tab.URL)
		i, ok := index[host]
		if !ok {
			i = len(groups)
			index[host] = i
			groups = append(groups, types.HostGroup{
				Host:  host,
				Color: GroupColors[i%len(GroupColors)],
			})
		}
		groups[i].TabIDs = append(groups[i].TabIDs, tab.ID)
	}
	return groups
}
