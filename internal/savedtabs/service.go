// Package savedtabs runs the user-facing operations on the saved collection.
// Every operation re-reads the whole collection from the Store, works on a
// local copy and writes the whole collection back.
package savedtabs

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lotas/tabtab/internal/applog"
	"github.com/lotas/tabtab/internal/export"
	"github.com/lotas/tabtab/internal/grouping"
	"github.com/lotas/tabtab/internal/importer"
	"github.com/lotas/tabtab/internal/storage"
	"github.com/lotas/tabtab/internal/types"
)

// Opener opens a URL in the browser, in the foreground when active is set.
type Opener interface {
	Open(ctx context.Context, url string, active bool) error
}

// ImportRecorder keeps the history of imports.
type ImportRecorder interface {
	Record(ctx context.Context, r storage.ImportRecord) error
}

// Service holds the collaborators of the saved-tab operations. Only Store
// is required.
type Service struct {
	Store   storage.Store
	Imports ImportRecorder

	Now     func() time.Time
	Intn    func(n int) int
	Favicon func(host string) string
	// Rand is the entropy source for saved-session group ids.
	Rand io.Reader
}

// New returns a Service over store with the real clock and randomness.
func New(store storage.Store) *Service {
	return &Service{Store: store}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) load(ctx context.Context) ([]types.SavedTab, error) {
	tabs, err := s.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load saved tabs: %w", err)
	}
	return tabs, nil
}

func (s *Service) save(ctx context.Context, tabs []types.SavedTab) error {
	if err := s.Store.Save(ctx, tabs); err != nil {
		return fmt.Errorf("save tabs: %w", err)
	}
	return nil
}

// Groups returns the saved collection in display order.
func (s *Service) Groups(ctx context.Context) ([]types.Group, error) {
	tabs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return grouping.Group(tabs), nil
}

// Stats returns totals and top domains of the saved collection.
func (s *Service) Stats(ctx context.Context) (types.Stats, error) {
	tabs, err := s.load(ctx)
	if err != nil {
		return types.Stats{}, err
	}
	return grouping.Stats(tabs), nil
}

// Search returns the groups whose tabs match query, restricted to hosts
// matching filter when it is non-nil.
func (s *Service) Search(ctx context.Context, query string, filter *grouping.HostFilter) ([]types.Group, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return nil, err
	}
	if filter != nil {
		groups = filter.Apply(groups)
	}
	return grouping.Search(groups, query), nil
}

// RemoveTab deletes every saved record with url and reports how many went.
func (s *Service) RemoveTab(ctx context.Context, url string) (int, error) {
	tabs, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	kept := grouping.RemoveTab(tabs, url)
	if err := s.save(ctx, kept); err != nil {
		return 0, err
	}
	removed := len(tabs) - len(kept)
	applog.Info("tabs.removed", "url", url, "count", removed)
	return removed, nil
}

// RemoveGroup deletes every record whose effective group key is key.
func (s *Service) RemoveGroup(ctx context.Context, key string) (int, error) {
	tabs, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	kept := grouping.RemoveAllInGroup(tabs, key)
	if err := s.save(ctx, kept); err != nil {
		return 0, err
	}
	removed := len(tabs) - len(kept)
	applog.Info("tabs.removed", "group", key, "count", removed)
	return removed, nil
}

// OpenGroup opens the group's tabs in collection order, the first one in
// the foreground. It returns the number of tabs opened.
func (s *Service) OpenGroup(ctx context.Context, key string, opener Opener) (int, error) {
	tabs, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	group := grouping.ListForOpen(tabs, key)
	for i, tab := range group {
		if err := opener.Open(ctx, tab.URL, i == 0); err != nil {
			return i, fmt.Errorf("open %s: %w", tab.URL, err)
		}
	}
	return len(group), nil
}

// OpenTab opens one saved URL in the foreground.
func (s *Service) OpenTab(ctx context.Context, url string, opener Opener) error {
	if err := opener.Open(ctx, url, true); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

// Export renders the saved collection as the text export document.
func (s *Service) Export(ctx context.Context) (string, error) {
	tabs, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	return export.Text(tabs), nil
}

// Import adds the records of an export document to the collection and, when
// an ImportRecorder is set, appends the outcome to the import history.
func (s *Service) Import(ctx context.Context, text, source string) (importer.Result, error) {
	res, err := importer.Import(ctx, s.Store, text, importer.Options{
		Now:     s.Now,
		Intn:    s.Intn,
		Favicon: s.Favicon,
	})
	if err != nil {
		return importer.Result{}, err
	}
	if s.Imports != nil {
		rec := storage.ImportRecord{
			Source:   source,
			Imported: res.Imported,
			Groups:   res.Groups,
			Skipped:  res.Skipped,
		}
		if err := s.Imports.Record(ctx, rec); err != nil {
			applog.Error("import.record", err, "source", source)
		}
	}
	return res, nil
}

// Savable reports whether an open tab can be saved. Browser-internal pages
// and tabs without a URL are left open.
func Savable(url string) bool {
	if url == "" {
		return false
	}
	for _, prefix := range []string{"chrome://", "chrome-extension://", "edge://", "about:"} {
		if strings.HasPrefix(url, prefix) {
			return false
		}
	}
	return true
}

// SaveTabs appends the savable open tabs to the collection as one new group
// stamped with the current time. It returns the new records and the browser
// ids of the tabs that were saved, which the caller may close.
func (s *Service) SaveTabs(ctx context.Context, open []types.OpenTab) ([]types.SavedTab, []int, error) {
	var candidates []types.OpenTab
	for _, tab := range open {
		if Savable(tab.URL) {
			candidates = append(candidates, tab)
		}
	}
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	r := s.Rand
	if r == nil {
		r = rand.Reader
	}
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("generate group id: %w", err)
	}
	groupID := "group-" + id.String()
	date := s.now().UnixMilli()

	tabs, err := s.load(ctx)
	if err != nil {
		return nil, nil, err
	}

	saved := make([]types.SavedTab, 0, len(candidates))
	ids := make([]int, 0, len(candidates))
	for _, tab := range candidates {
		saved = append(saved, types.SavedTab{
			Title:   tab.Title,
			URL:     tab.URL,
			Favicon: tab.FavIconURL,
			Date:    date,
			GroupID: groupID,
		})
		ids = append(ids, tab.ID)
	}

	if err := s.save(ctx, append(tabs, saved...)); err != nil {
		return nil, nil, err
	}
	applog.Info("tabs.saved", "group", groupID, "count", len(saved))
	return saved, ids, nil
}
