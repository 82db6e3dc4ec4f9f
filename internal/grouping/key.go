package grouping

import (
	"strings"
	"time"

	"github.com/lotas/tabtab/internal/types"
)

// DatePrefix marks group keys derived from a tab's save date.
const DatePrefix = "date-"

// DateKey returns the date-bucket key ("date-YYYY-MM-DD") for a timestamp in
// milliseconds, using the local calendar day.
func DateKey(ms int64) string {
	return DatePrefix + time.UnixMilli(ms).Local().Format("2006-01-02")
}

// GroupKey returns the effective group key of a saved tab: its group id, or
// the date bucket for legacy records saved before groups existed.
func GroupKey(tab types.SavedTab) string {
	if tab.GroupID != "" {
		return tab.GroupID
	}
	return DateKey(tab.Date)
}

// IsDateKey reports whether key is a date-bucket pseudo key.
func IsDateKey(key string) bool {
	return strings.HasPrefix(key, DatePrefix)
}
