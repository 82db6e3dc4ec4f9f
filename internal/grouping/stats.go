package grouping

import (
	"sort"

	"github.com/lotas/tabtab/internal/types"
)

// TopDomainLimit caps the number of domains reported by Stats.
const TopDomainLimit = 10

// Stats counts saved tabs and their hosts. TopDomains lists the busiest
// hosts by tab count; hosts with equal counts keep first-seen order.
func Stats(tabs []types.SavedTab) types.Stats {
	counts := make(map[string]int)
	var order []string
	for _, tab := range tabs {
		host := Host(tab.URL)
		if _, ok := counts[host]; !ok {
			order = append(order, host)
		}
		counts[host]++
	}

	top := make([]types.DomainCount, 0, len(order))
	for _, host := range order {
		top = append(top, types.DomainCount{Domain: host, Count: counts[host]})
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Count > top[j].Count
	})
	if len(top) > TopDomainLimit {
		top = top[:TopDomainLimit]
	}

	return types.Stats{
		Total:      len(tabs),
		Domains:    len(order),
		TopDomains: top,
	}
}
