package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/lotas/tabtab/internal/grouping"
	"github.com/lotas/tabtab/internal/types"
)

const (
	// TextTitle is the first line of every text export.
	TextTitle     = "TabTab Exported Tabs"
	textSeparator = "====================="

	// UntitledTitle replaces empty titles in text exports.
	UntitledTitle = "Untitled"

	// GroupDateLayout renders a group's newest date in group headers.
	GroupDateLayout = "Monday, January 2, 2006"
)

// Text renders the saved collection as the plain-text export document:
//
//	TabTab Exported Tabs
//	=====================
//
//	== Monday, January 2, 2006 (2 tabs) ==
//
//	Title
//	https://example.com
//
// Groups and tabs follow grouping.Group order. The output parses back with
// importer.Parse.
func Text(tabs []types.SavedTab) string {
	var b strings.Builder

	b.WriteString(TextTitle + "\n")
	b.WriteString(textSeparator + "\n\n")

	for _, g := range grouping.Group(tabs) {
		fmt.Fprintf(&b, "%s\n\n", GroupHeader(g))
		for _, tab := range g.Tabs {
			title := tab.Title
			if title == "" {
				title = UntitledTitle
			}
			fmt.Fprintf(&b, "%s\n%s\n\n", title, tab.URL)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// GroupHeader returns the "== <date> (<n> tabs) ==" header line for g.
func GroupHeader(g types.Group) string {
	return fmt.Sprintf("== %s (%d tabs) ==", FormatGroupDate(g.Newest), len(g.Tabs))
}

// FormatGroupDate renders a millisecond timestamp in the local time zone
// using GroupDateLayout.
func FormatGroupDate(ms int64) string {
	return time.UnixMilli(ms).Local().Format(GroupDateLayout)
}

// Filename returns the download name for a text export made at now.
func Filename(now time.Time) string {
	return "tabtab-export-" + now.UTC().Format("2006-01-02") + ".txt"
}
