package server

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lotas/tabtab/internal/types"
)

type fakeSaver struct {
	mu  sync.Mutex
	got []types.OpenTab
}

func (f *fakeSaver) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

func (f *fakeSaver) SaveTabs(ctx context.Context, open []types.OpenTab) ([]types.SavedTab, []int, error) {
	f.mu.Lock()
	f.got = open
	f.mu.Unlock()
	var ids []int
	for _, tab := range open {
		ids = append(ids, tab.ID)
	}
	return nil, ids, nil
}

func TestRunSaveClosesSavedTabs(t *testing.T) {
	srv := New(0)
	conn, ctx := dial(t, srv)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	saver := &fakeSaver{}
	go srv.Run(runCtx, saver)

	writeMsg(t, ctx, conn, map[string]any{
		"type": "save",
		"tabs": []map[string]any{
			{"id": 7, "url": "https://go.dev/", "title": "Go"},
			{"id": 9, "url": "https://example.com/", "title": "Example"},
		},
	})

	got := readCmd(t, ctx, conn)
	if got.Action != ActionClose || len(got.TabIDs) != 2 || got.TabIDs[0] != 7 || got.TabIDs[1] != 9 {
		t.Errorf("unexpected command %+v", got)
	}
	if n := saver.received(); n != 2 {
		t.Errorf("expected saver to receive 2 tabs, got %d", n)
	}
}

func TestRunGroupByHost(t *testing.T) {
	srv := New(0)
	conn, ctx := dial(t, srv)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go srv.Run(runCtx, &fakeSaver{})

	writeMsg(t, ctx, conn, map[string]any{
		"type": "group-by-host",
		"tabs": []map[string]any{
			{"id": 1, "url": "https://go.dev/a"},
			{"id": 2, "url": "https://example.com/"},
			{"id": 3, "url": "https://go.dev/b"},
		},
	})

	first := readCmd(t, ctx, conn)
	second := readCmd(t, ctx, conn)
	if first.Action != ActionGroup || first.Name != "go.dev" || first.Color != "grey" || len(first.TabIDs) != 2 {
		t.Errorf("unexpected first group %+v", first)
	}
	if second.Name != "example.com" || second.Color != "blue" || len(second.TabIDs) != 1 || second.TabIDs[0] != 2 {
		t.Errorf("unexpected second group %+v", second)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, &fakeSaver{}) }()
	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestUngroupAll(t *testing.T) {
	srv := New(0)
	conn, ctx := dial(t, srv)

	if err := srv.UngroupAll(ctx, []types.OpenTab{{ID: 4}, {ID: 5}}); err != nil {
		t.Fatal(err)
	}
	got := readCmd(t, ctx, conn)
	if got.Action != ActionUngroup || len(got.TabIDs) != 2 {
		t.Errorf("unexpected command %+v", got)
	}
}

func TestHandleMessageTypes(t *testing.T) {
	srv := New(0)
	ctx := context.Background()
	ok, failed := true, false

	if err := srv.handle(ctx, &fakeSaver{}, IncomingMsg{Type: TypeAck, ID: "cmd-1", OK: &ok}); err != nil {
		t.Errorf("successful ack: %v", err)
	}
	err := srv.handle(ctx, &fakeSaver{}, IncomingMsg{Type: TypeAck, ID: "cmd-2", OK: &failed, Error: "no such tab"})
	if err == nil || !strings.Contains(err.Error(), "cmd-2") || !strings.Contains(err.Error(), "no such tab") {
		t.Errorf("failed ack: got %v", err)
	}
	if err := srv.handle(ctx, &fakeSaver{}, IncomingMsg{Type: TypeTabs}); err != nil {
		t.Errorf("unsolicited tabs: %v", err)
	}
	if err := srv.handle(ctx, &fakeSaver{}, IncomingMsg{Type: "bogus"}); err == nil {
		t.Error("expected error for unknown message type")
	}
}
