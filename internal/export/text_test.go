package export

import (
	"testing"
	"time"

	"github.com/lotas/tabtab/internal/types"
)

func ms(y int, m time.Month, d, h int) int64 {
	return time.Date(y, m, d, h, 0, 0, 0, time.Local).UnixMilli()
}

func sampleTabs() []types.SavedTab {
	return []types.SavedTab{
		{Title: "Go docs", URL: "https://go.dev/doc", Date: ms(2024, time.March, 10, 9), GroupID: "g1"},
		{Title: "", URL: "https://example.com/", Date: ms(2024, time.March, 10, 8), GroupID: "g1"},
		{Title: "Rust", URL: "http://rust-lang.org", Date: ms(2024, time.March, 1, 10)},
	}
}

func TestText(t *testing.T) {
	got := Text(sampleTabs())
	want := "TabTab Exported Tabs\n" +
		"=====================\n\n" +
		"== Sunday, March 10, 2024 (2 tabs) ==\n\n" +
		"Untitled\nhttps://example.com/\n\n" +
		"Go docs\nhttps://go.dev/doc\n\n" +
		"\n" +
		"== Friday, March 1, 2024 (1 tabs) ==\n\n" +
		"Rust\nhttp://rust-lang.org\n\n" +
		"\n"
	if got != want {
		t.Errorf("Text mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestText_Empty(t *testing.T) {
	got := Text(nil)
	want := "TabTab Exported Tabs\n=====================\n\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGroupHeader(t *testing.T) {
	g := types.Group{
		Key:    "date-2024-01-01",
		Newest: ms(2024, time.January, 1, 15),
		Tabs:   make([]types.SavedTab, 3),
	}
	if got := GroupHeader(g); got != "== Monday, January 1, 2024 (3 tabs) ==" {
		t.Errorf("unexpected header %q", got)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, time.March, 10, 23, 30, 0, 0, time.UTC)
	if got := Filename(now); got != "tabtab-export-2024-03-10.txt" {
		t.Errorf("unexpected filename %q", got)
	}
}
