package types

// SavedTab is one persisted record of a previously open browser tab.
// The JSON shape matches the extension's savedTabs entries.
type SavedTab struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Favicon string `json:"favicon"`
	Date    int64  `json:"date"`              // milliseconds since epoch
	GroupID string `json:"groupId,omitempty"` // empty for legacy records
}

// DefaultFavicon is shown for tabs that were saved without a favicon.
const DefaultFavicon = `data:image/svg+xml,<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16"><circle cx="8" cy="8" r="8" fill="%23ddd"/></svg>`

// Group is a set of saved tabs sharing one effective group key.
type Group struct {
	Key    string
	Newest int64 // max Date of the group's tabs
	Tabs   []SavedTab
}

// DomainCount is the number of saved tabs for one host.
type DomainCount struct {
	Domain string
	Count  int
}

// Stats holds aggregate statistics over the saved collection.
type Stats struct {
	Total      int
	Domains    int
	TopDomains []DomainCount
}

// OpenTab describes a tab currently open in the browser.
type OpenTab struct {
	ID         int    `json:"id"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	FavIconURL string `json:"favIconUrl"`
}

// HostGroup is a planned browser tab group for all open tabs of one host.
type HostGroup struct {
	Host   string
	Color  string
	TabIDs []int
}
