package savedtabs

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lotas/tabtab/internal/grouping"
	"github.com/lotas/tabtab/internal/storage"
	"github.com/lotas/tabtab/internal/types"
)

type openCall struct {
	url    string
	active bool
}

type fakeOpener struct {
	calls []openCall
	err   error
}

func (f *fakeOpener) Open(ctx context.Context, url string, active bool) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, openCall{url, active})
	return nil
}

type fakeRecorder struct {
	records []storage.ImportRecord
}

func (f *fakeRecorder) Record(ctx context.Context, r storage.ImportRecord) error {
	f.records = append(f.records, r)
	return nil
}

func ms(y int, m time.Month, d, h int) int64 {
	return time.Date(y, m, d, h, 0, 0, 0, time.Local).UnixMilli()
}

func fixture() []types.SavedTab {
	return []types.SavedTab{
		{Title: "Go", URL: "https://go.dev/", Date: ms(2024, time.January, 1, 10), GroupID: "g1"},
		{Title: "Example", URL: "https://example.com/", Date: ms(2024, time.January, 1, 11), GroupID: "g1"},
		{Title: "Legacy", URL: "https://legacy.example/", Date: ms(2023, time.December, 31, 9)},
		{Title: "Go again", URL: "https://go.dev/", Date: ms(2023, time.December, 31, 8)},
	}
}

func newService(tabs ...types.SavedTab) (*Service, *storage.Memory) {
	store := storage.NewMemory(tabs...)
	svc := New(store)
	svc.Now = func() time.Time { return time.Date(2024, time.March, 10, 12, 0, 0, 0, time.Local) }
	svc.Intn = func(int) int { return 7 }
	svc.Rand = bytes.NewReader(make([]byte, 64))
	return svc, store
}

func TestGroups(t *testing.T) {
	svc, _ := newService(fixture()...)
	groups, err := svc.Groups(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Key != "g1" || groups[1].Key != "date-2023-12-31" {
		t.Errorf("unexpected order %q, %q", groups[0].Key, groups[1].Key)
	}
}

func TestStats(t *testing.T) {
	svc, _ := newService(fixture()...)
	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 4 || stats.Domains != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.TopDomains[0].Domain != "go.dev" || stats.TopDomains[0].Count != 2 {
		t.Errorf("unexpected top domain %+v", stats.TopDomains[0])
	}
}

func TestSearch(t *testing.T) {
	svc, _ := newService(fixture()...)
	ctx := context.Background()

	groups, err := svc.Search(ctx, "LEGACY", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || len(groups[0].Tabs) != 1 || groups[0].Tabs[0].Title != "Legacy" {
		t.Errorf("unexpected result %+v", groups)
	}

	filter, err := grouping.NewHostFilter("*.dev")
	if err != nil {
		t.Fatal(err)
	}
	groups, err = svc.Search(ctx, "", filter)
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, g := range groups {
		total += len(g.Tabs)
		for _, tab := range g.Tabs {
			if tab.URL != "https://go.dev/" {
				t.Errorf("unexpected tab %s", tab.URL)
			}
		}
	}
	if total != 2 {
		t.Errorf("expected 2 go.dev tabs, got %d", total)
	}
}

func TestRemoveTab(t *testing.T) {
	svc, store := newService(fixture()...)
	ctx := context.Background()

	n, err := svc.RemoveTab(ctx, "https://go.dev/")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	left, _ := store.Load(ctx)
	if len(left) != 2 || left[0].Title != "Example" || left[1].Title != "Legacy" {
		t.Errorf("unexpected remaining tabs %+v", left)
	}
}

func TestRemoveGroup_DateKey(t *testing.T) {
	svc, store := newService(fixture()...)
	ctx := context.Background()

	n, err := svc.RemoveGroup(ctx, "date-2023-12-31")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	left, _ := store.Load(ctx)
	for _, tab := range left {
		if tab.GroupID != "g1" {
			t.Errorf("unexpected survivor %+v", tab)
		}
	}
}

func TestOpenGroup(t *testing.T) {
	svc, _ := newService(fixture()...)
	opener := &fakeOpener{}

	n, err := svc.OpenGroup(context.Background(), "g1", opener)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 opened, got %d", n)
	}
	want := []openCall{{"https://go.dev/", true}, {"https://example.com/", false}}
	for i, c := range want {
		if opener.calls[i] != c {
			t.Errorf("call %d: expected %+v, got %+v", i, c, opener.calls[i])
		}
	}
}

func TestOpenGroup_Missing(t *testing.T) {
	svc, _ := newService(fixture()...)
	opener := &fakeOpener{}
	n, err := svc.OpenGroup(context.Background(), "nope", opener)
	if err != nil || n != 0 || len(opener.calls) != 0 {
		t.Errorf("expected nothing opened, got n=%d err=%v calls=%v", n, err, opener.calls)
	}
}

func TestOpenTab_Error(t *testing.T) {
	svc, _ := newService()
	boom := errors.New("not connected")
	err := svc.OpenTab(context.Background(), "https://go.dev/", &fakeOpener{err: boom})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src, _ := newService(fixture()...)
	ctx := context.Background()
	text, err := src.Export(ctx)
	if err != nil {
		t.Fatal(err)
	}

	dst, store := newService()
	rec := &fakeRecorder{}
	dst.Imports = rec
	res, err := dst.Import(ctx, text, "export.txt")
	if err != nil {
		t.Fatal(err)
	}
	// The duplicate go.dev URL is imported once.
	if res.Imported != 3 || res.Skipped != 1 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(rec.records) != 1 || rec.records[0].Source != "export.txt" || rec.records[0].Imported != 3 {
		t.Errorf("unexpected import history %+v", rec.records)
	}

	again, err := dst.Import(ctx, text, "export.txt")
	if err != nil {
		t.Fatal(err)
	}
	if again.Imported != 0 {
		t.Errorf("expected re-import to add nothing, got %d", again.Imported)
	}
	all, _ := store.Load(ctx)
	if len(all) != 3 {
		t.Errorf("expected 3 stored tabs, got %d", len(all))
	}
}

func TestSaveTabs(t *testing.T) {
	svc, store := newService(fixture()...)
	ctx := context.Background()

	open := []types.OpenTab{
		{ID: 11, URL: "https://news.example/", Title: "News", FavIconURL: "https://news.example/icon.png"},
		{ID: 12, URL: "chrome://settings", Title: "Settings"},
		{ID: 13, URL: "", Title: "Loading"},
		{ID: 14, URL: "https://blog.example/post", Title: "Post"},
	}
	saved, ids, err := svc.SaveTabs(ctx, open)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 2 {
		t.Fatalf("expected 2 saved, got %d", len(saved))
	}
	if len(ids) != 2 || ids[0] != 11 || ids[1] != 14 {
		t.Errorf("unexpected ids to close %v", ids)
	}
	wantGroup := "group-00000000-0000-4000-8000-000000000000"
	for _, tab := range saved {
		if tab.GroupID != wantGroup {
			t.Errorf("expected group %q, got %q", wantGroup, tab.GroupID)
		}
		if tab.Date != svc.Now().UnixMilli() {
			t.Errorf("expected date now, got %d", tab.Date)
		}
	}
	if saved[0].Favicon != "https://news.example/icon.png" {
		t.Errorf("unexpected favicon %q", saved[0].Favicon)
	}

	all, _ := store.Load(ctx)
	if len(all) != len(fixture())+2 {
		t.Errorf("expected %d stored tabs, got %d", len(fixture())+2, len(all))
	}
	groups := grouping.Group(all)
	if groups[0].Key != wantGroup {
		t.Errorf("expected the saved session first, got %q", groups[0].Key)
	}
}

func TestSaveTabs_NothingSavable(t *testing.T) {
	svc, store := newService()
	saved, ids, err := svc.SaveTabs(context.Background(), []types.OpenTab{{ID: 1, URL: "about:blank"}})
	if err != nil || saved != nil || ids != nil {
		t.Errorf("expected no-op, got %v %v %v", saved, ids, err)
	}
	if store.Saves() != 0 {
		t.Error("expected no write")
	}
}

func TestSavable(t *testing.T) {
	for url, want := range map[string]bool{
		"https://go.dev/":          true,
		"http://localhost:8080/":   true,
		"file:///tmp/a.html":       true,
		"chrome://extensions":      false,
		"chrome-extension://abc/x": false,
		"about:blank":              false,
		"":                         false,
	} {
		if got := Savable(url); got != want {
			t.Errorf("Savable(%q) = %v, want %v", url, got, want)
		}
	}
}

func TestExport_Header(t *testing.T) {
	svc, _ := newService()
	text, err := svc.Export(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "TabTab Exported Tabs\n") {
		t.Errorf("unexpected export %q", text)
	}
}
