package taxonomy

import (
	"context"
	"fmt"

	"github.com/shopfeed/categorizer/internal/db"
	"github.com/shopfeed/categorizer/internal/domain"
)

// store is the consumer interface for the taxonomy repository (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo persists taxonomy entries as hashes keyed by category code.
type Repo struct {
	store store
}

// New creates a taxonomy repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Import stores taxonomy entries. Existing codes are overwritten, so a
// reimport of the same file is idempotent.
func (r *Repo) Import(ctx context.Context, entries []domain.TaxonomyEntry) (int, error) {
	items := make([]db.HashSetItem, 0, len(entries))
	for _, e := range entries {
		if e.Code == "" || e.Path == "" {
			continue
		}
		items = append(items, db.HashSetItem{Key: entryKey(e.Code), Fields: entryToHash(e)})
	}
	if len(items) == 0 {
		return 0, domain.ErrTaxonomyEmpty
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return 0, fmt.Errorf("hset taxonomy entries: %w", err)
	}
	return len(items), nil
}

// LoadCatalog reads every stored entry into an immutable in-memory catalog.
func (r *Repo) LoadCatalog(ctx context.Context) (*domain.Catalog, error) {
	keys, err := r.store.Scan(ctx, entryKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan taxonomy: %w", err)
	}
	if len(keys) == 0 {
		return nil, domain.ErrTaxonomyEmpty
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi taxonomy: %w", err)
	}

	entries := make([]domain.TaxonomyEntry, 0, len(results))
	for _, m := range results {
		if len(m) == 0 {
			continue
		}
		entries = append(entries, entryFromHash(m))
	}

	catalog := domain.NewCatalog(entries)
	if catalog.Len() == 0 {
		return nil, domain.ErrTaxonomyEmpty
	}
	return catalog, nil
}

// Count returns the number of stored taxonomy entries.
func (r *Repo) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, entryKey("*"))
	if err != nil {
		return 0, fmt.Errorf("scan taxonomy: %w", err)
	}
	return len(keys), nil
}

// Redis key pattern: categorizer:taxonomy:{code}

func entryKey(code string) string {
	return fmt.Sprintf("%staxonomy:%s", domain.KeyPrefix, code)
}
