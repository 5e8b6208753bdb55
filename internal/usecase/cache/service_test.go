package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/shopfeed/categorizer/internal/domain"
)

type memRepo struct {
	entries map[string]domain.CacheEntry
}

func newMemRepo() *memRepo {
	return &memRepo{entries: map[string]domain.CacheEntry{}}
}

func (m *memRepo) Get(ctx context.Context, key string) (domain.CacheEntry, error) {
	e, ok := m.entries[key]
	if !ok {
		return domain.CacheEntry{}, domain.ErrNotFound
	}
	return e, nil
}

func (m *memRepo) Put(ctx context.Context, entry domain.CacheEntry, force bool) error {
	m.entries[entry.Key] = entry
	return nil
}

func (m *memRepo) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func (m *memRepo) Stats(ctx context.Context) (domain.CacheStats, error) {
	return domain.CacheStats{Total: len(m.entries)}, nil
}

func testCatalog() *domain.Catalog {
	return domain.NewCatalog([]domain.TaxonomyEntry{
		{Code: "4143", Path: "Home & Garden > Linens & Bedding > Table Linens > Tablecloths"},
		{Code: "6325", Path: "Home & Garden > Linens & Bedding > Table Linens"},
	})
}

func TestCorrect(t *testing.T) {
	repo := newMemRepo()
	repo.entries["k1"] = domain.CacheEntry{
		Key:          "k1",
		CategoryCode: "6325",
		CategoryPath: "Home & Garden > Linens & Bedding > Table Linens",
		Confidence:   0.6,
		Source:       domain.SourcePipeline,
	}
	svc := New(repo, testCatalog())

	entry, err := svc.Correct(context.Background(), "k1", "4143", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.CategoryCode != "4143" {
		t.Errorf("unexpected code: %q", entry.CategoryCode)
	}
	if entry.Confidence != 1.0 {
		t.Errorf("expected full trust by default, got %f", entry.Confidence)
	}
	if entry.OriginalCode != "6325" {
		t.Errorf("expected previous pick in audit fields, got %q", entry.OriginalCode)
	}
}

func TestCorrect_MissingEntry(t *testing.T) {
	svc := New(newMemRepo(), testCatalog())

	if _, err := svc.Correct(context.Background(), "missing", "4143", 1.0); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCorrect_UnknownCategory(t *testing.T) {
	repo := newMemRepo()
	repo.entries["k1"] = domain.CacheEntry{Key: "k1", CategoryCode: "6325"}
	svc := New(repo, testCatalog())

	if _, err := svc.Correct(context.Background(), "k1", "9999", 1.0); !errors.Is(err, domain.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestDelete_Missing(t *testing.T) {
	svc := New(newMemRepo(), testCatalog())

	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
