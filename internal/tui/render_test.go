package tui

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/lotas/tabtab/internal/grouping"
	"github.com/lotas/tabtab/internal/types"
	"github.com/mattn/go-runewidth"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func ms(y int, m time.Month, d, h int) int64 {
	return time.Date(y, m, d, h, 0, 0, 0, time.Local).UnixMilli()
}

func sampleTabs() []types.SavedTab {
	return []types.SavedTab{
		{Title: "Go docs", URL: "https://go.dev/doc", Date: ms(2024, time.March, 10, 9), GroupID: "g1"},
		{Title: "Example", URL: "https://example.com/", Date: ms(2024, time.March, 10, 8), GroupID: "g1"},
		{Title: "", URL: "http://rust-lang.org/", Date: ms(2024, time.March, 1, 10)},
	}
}

func sampleView() View {
	tabs := sampleTabs()
	return View{
		Groups: grouping.Group(tabs),
		Stats:  grouping.Stats(tabs),
		Cursor: -1,
	}
}

func TestRender(t *testing.T) {
	out := plain(Render(sampleView(), 80))
	lines := strings.Split(out, "\n")

	if lines[0] != "TabTab  3 tabs · 3 domains" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Top: go.dev 1 · example.com 1") {
		t.Errorf("unexpected top domains %q", lines[1])
	}

	want := []string{
		"▼ Sunday, March 10, 2024 (2 tabs)",
		"  Example  example.com",
		"  Go docs  go.dev",
		"▼ Friday, March 1, 2024 (1 tabs)",
		"  http://rust-lang.org/  rust-lang.org",
	}
	rows := lines[3:]
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d:\n%s", len(want), len(rows), out)
	}
	for i, w := range want {
		if rows[i] != w {
			t.Errorf("row %d: expected %q, got %q", i, w, rows[i])
		}
	}
}

func TestRender_Collapsed(t *testing.T) {
	v := sampleView()
	v.Collapsed = map[string]bool{"g1": true}
	out := plain(Render(v, 80))
	if strings.Contains(out, "Go docs") {
		t.Errorf("expected collapsed group to hide tabs:\n%s", out)
	}
	if !strings.Contains(out, "▶ Sunday, March 10, 2024 (2 tabs)") {
		t.Errorf("expected collapsed marker:\n%s", out)
	}
}

func TestRender_Cursor(t *testing.T) {
	v := sampleView()
	v.Cursor = 1
	out := plain(Render(v, 60))
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "  Example") {
			if w := runewidth.StringWidth(line); w != 60 {
				t.Errorf("expected cursor row padded to 60, got %d", w)
			}
			return
		}
	}
	t.Errorf("cursor row not found:\n%s", out)
}

func TestRender_EmptyStates(t *testing.T) {
	out := plain(Render(View{Cursor: -1}, 80))
	if !strings.Contains(out, NoSavedTabs) {
		t.Errorf("expected empty collection message:\n%s", out)
	}

	v := sampleView()
	v.Query = "nothing matches"
	v.Groups = grouping.Search(v.Groups, v.Query)
	out = plain(Render(v, 80))
	if !strings.Contains(out, `No tabs match your search: "nothing matches"`) {
		t.Errorf("expected no-match message with the query:\n%s", out)
	}
	if !strings.Contains(out, "Search: nothing matches") {
		t.Errorf("expected search line:\n%s", out)
	}
}

func TestRender_TruncatesToWidth(t *testing.T) {
	tabs := []types.SavedTab{{
		Title: strings.Repeat("very long title ", 10),
		URL:   "https://example.com/",
		Date:  ms(2024, time.March, 10, 9),
	}}
	v := View{Groups: grouping.Group(tabs), Stats: grouping.Stats(tabs), Cursor: -1}
	for _, line := range strings.Split(plain(Render(v, 40)), "\n") {
		if w := runewidth.StringWidth(line); w > 40 {
			t.Errorf("line wider than 40 (%d): %q", w, line)
		}
	}
}

func TestRender_HeightWindow(t *testing.T) {
	v := sampleView()
	v.Offset = 1
	v.Height = 2
	out := plain(Render(v, 80))
	if strings.Contains(out, "Sunday") || strings.Contains(out, "Friday") {
		t.Errorf("expected only rows 1-2:\n%s", out)
	}
	if !strings.Contains(out, "Example") || !strings.Contains(out, "Go docs") {
		t.Errorf("expected rows 1-2:\n%s", out)
	}
}

func TestRender_BridgeStatus(t *testing.T) {
	v := sampleView()
	if out := plain(Render(v, 80)); strings.Contains(out, "extension") {
		t.Errorf("expected no bridge status without a bridge:\n%s", out)
	}
	v.Bridge = "extension connected"
	if out := plain(Render(v, 80)); !strings.Contains(out, "3 tabs · 3 domains · extension connected") {
		t.Errorf("expected bridge status in header:\n%s", out)
	}
}

func TestNoMatchesFor(t *testing.T) {
	if got := NoMatchesFor(""); got != NoMatches {
		t.Errorf("empty query: got %q", got)
	}
	if got := NoMatchesFor(" go"); got != `No tabs match your search: " go"` {
		t.Errorf("got %q", got)
	}
}
