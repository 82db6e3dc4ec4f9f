package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/lotas/tabtab/internal/grouping"
	"github.com/lotas/tabtab/internal/types"
)

// Markdown formats the saved collection as a markdown document.
func Markdown(tabs []types.SavedTab, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Saved Tabs\n")
	fmt.Fprintf(&b, "> Exported %s\n", now.Format("2006-01-02 15:04"))

	for _, g := range grouping.Group(tabs) {
		n := len(g.Tabs)
		noun := "tabs"
		if n == 1 {
			noun = "tab"
		}
		fmt.Fprintf(&b, "\n## %s (%d %s)\n\n", FormatGroupDate(g.Newest), n, noun)

		for _, tab := range g.Tabs {
			title := tab.Title
			if title == "" {
				title = tab.URL
			}
			fmt.Fprintf(&b, "- [%s](%s) — %s\n", title, tab.URL, relativeTime(now, time.UnixMilli(tab.Date)))
		}
	}

	return b.String()
}

func relativeTime(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
