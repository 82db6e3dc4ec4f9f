package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/tabtab/internal/export"
	"github.com/lotas/tabtab/internal/grouping"
	"github.com/lotas/tabtab/internal/types"
	"github.com/mattn/go-runewidth"
)

// Empty-state messages.
const (
	NoSavedTabs = "No saved tabs yet."
	NoMatches   = "No tabs match your search"
)

// NoMatchesFor is the empty-state message for a search that found nothing.
func NoMatchesFor(query string) string {
	if query == "" {
		return NoMatches
	}
	return fmt.Sprintf("%s: %q", NoMatches, query)
}

// View is everything Render draws.
type View struct {
	Groups    []types.Group // groups to list, already filtered by Query
	Stats     types.Stats   // over the whole collection
	Query     string
	Collapsed map[string]bool
	Cursor    int // highlighted row, -1 for none
	Offset    int // first row shown
	Height    int // rows available for the list, 0 for all
	Footer    string
	Bridge    string // extension status, empty without a bridge
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	groupStyle  = lipgloss.NewStyle().Bold(true)
	hostStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	emptyStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Render draws the saved-tab browser: a stats header, the grouped list and
// an optional footer. It depends only on v and width.
func Render(v View, width int) string {
	if width < 20 {
		width = 80
	}

	var lines []string
	header := fmt.Sprintf("%d tabs · %d domains", v.Stats.Total, v.Stats.Domains)
	if v.Bridge != "" {
		header += " · " + v.Bridge
	}
	lines = append(lines, titleStyle.Render("TabTab")+"  "+header)
	if len(v.Stats.TopDomains) > 0 {
		var top []string
		for _, d := range v.Stats.TopDomains {
			top = append(top, fmt.Sprintf("%s %d", d.Domain, d.Count))
		}
		lines = append(lines, hostStyle.Render(truncate("Top: "+strings.Join(top, " · "), width)))
	}
	if v.Query != "" {
		lines = append(lines, truncate("Search: "+v.Query, width))
	}
	lines = append(lines, "")

	switch {
	case v.Stats.Total == 0:
		lines = append(lines, emptyStyle.Render(NoSavedTabs))
	case len(v.Groups) == 0:
		lines = append(lines, emptyStyle.Render(NoMatchesFor(v.Query)))
	default:
		lines = append(lines, renderRows(v, width)...)
	}

	if v.Footer != "" {
		lines = append(lines, "", footerStyle.Render(v.Footer))
	}
	return strings.Join(lines, "\n")
}

func renderRows(v View, width int) []string {
	nodes := Flatten(v.Groups, v.Collapsed)
	start := v.Offset
	if start < 0 || start >= len(nodes) {
		start = 0
	}
	end := len(nodes)
	if v.Height > 0 && start+v.Height < end {
		end = start + v.Height
	}

	var lines []string
	for i := start; i < end; i++ {
		node := nodes[i]
		var line string
		if node.Tab == nil {
			icon := "▼"
			if v.Collapsed[node.Group.Key] {
				icon = "▶"
			}
			label := fmt.Sprintf("%s %s (%d tabs)", icon, export.FormatGroupDate(node.Group.Newest), len(node.Group.Tabs))
			line = truncate(label, width)
			if i != v.Cursor {
				line = groupStyle.Render(line)
			}
		} else {
			line = tabLine(*node.Tab, width, i == v.Cursor)
		}
		if i == v.Cursor {
			line = cursorStyle.Render(runewidth.FillRight(line, width))
		}
		lines = append(lines, line)
	}
	return lines
}

func tabLine(tab types.SavedTab, width int, plain bool) string {
	title := tab.Title
	if title == "" {
		title = tab.URL
	}
	host := grouping.Host(tab.URL)
	room := width - 4 - runewidth.StringWidth(host) - 2
	if room < 10 {
		return truncate("  "+title, width)
	}
	title = truncate(title, room)
	if plain {
		return "  " + title + "  " + host
	}
	return "  " + title + "  " + hostStyle.Render(host)
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
