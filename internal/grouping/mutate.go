package grouping

import "github.com/lotas/tabtab/internal/types"

// RemoveTab returns tabs without any record for url. Every record with that
// exact URL is dropped, the rest keep their order.
func RemoveTab(tabs []types.SavedTab, url string) []types.SavedTab {
	return keepIf(tabs, func(tab types.SavedTab) bool {
		return tab.URL != url
	})
}

// RemoveAllInGroup returns tabs without the records whose effective group
// key is key. A date-bucket key only matches legacy records from that day.
func RemoveAllInGroup(tabs []types.SavedTab, key string) []types.SavedTab {
	return keepIf(tabs, func(tab types.SavedTab) bool {
		return GroupKey(tab) != key
	})
}

// ListForOpen returns the records of group key in collection order. The
// caller opens the first one in the foreground and the rest in the
// background.
func ListForOpen(tabs []types.SavedTab, key string) []types.SavedTab {
	var result []types.SavedTab
	for _, tab := range tabs {
		if GroupKey(tab) == key {
			result = append(result, tab)
		}
	}
	return result
}

func keepIf(tabs []types.SavedTab, keep func(types.SavedTab) bool) []types.SavedTab {
	result := make([]types.SavedTab, 0, len(tabs))
	for _, tab := range tabs {
		if keep(tab) {
			result = append(result, tab)
		}
	}
	return result
}
