package importer

import (
	"context"
	"fmt"

	"github.com/lotas/tabtab/internal/applog"
	"github.com/lotas/tabtab/internal/storage"
	"github.com/lotas/tabtab/internal/types"
)

// Result summarizes one import.
type Result struct {
	Imported int // records added to the collection
	Groups   int // distinct groups among the added records
	Skipped  int // parsed records dropped as duplicates
	Added    []types.SavedTab
}

// Message is the import summary shown to the user.
func (r Result) Message() string {
	return fmt.Sprintf("Successfully imported %d tabs in %d groups", r.Imported, r.Groups)
}

// ShortMessage is the summary without the group count.
func (r Result) ShortMessage() string {
	return fmt.Sprintf("Successfully imported %d tabs", r.Imported)
}

// Merge appends the candidates whose URL is not yet in existing. A URL is
// taken only once, even if the candidates repeat it.
func Merge(existing, candidates []types.SavedTab) (combined []types.SavedTab, res Result) {
	seen := make(map[string]bool, len(existing)+len(candidates))
	for _, tab := range existing {
		seen[tab.URL] = true
	}

	combined = make([]types.SavedTab, 0, len(existing)+len(candidates))
	combined = append(combined, existing...)
	groups := make(map[string]bool)
	for _, tab := range candidates {
		if seen[tab.URL] {
			res.Skipped++
			continue
		}
		seen[tab.URL] = true
		groups[tab.GroupID] = true
		res.Added = append(res.Added, tab)
		combined = append(combined, tab)
	}
	res.Imported = len(res.Added)
	res.Groups = len(groups)
	return combined, res
}

// Import parses text, appends the records whose URL is new to the store's
// collection and writes the collection back.
func Import(ctx context.Context, store storage.Store, text string, opts Options) (Result, error) {
	candidates := Parse(text, opts)

	existing, err := store.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load saved tabs: %w", err)
	}

	combined, res := Merge(existing, candidates)
	if err := store.Save(ctx, combined); err != nil {
		return Result{}, fmt.Errorf("save imported tabs: %w", err)
	}

	applog.Info("import.done", "parsed", len(candidates), "imported", res.Imported, "groups", res.Groups, "skipped", res.Skipped)
	return res, nil
}
