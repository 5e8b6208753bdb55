package resolve

import (
	"context"

	"github.com/shopfeed/categorizer/internal/domain"
)

// mockRules implements RuleStore for tests.
type mockRules struct {
	getActiveFn func(ctx context.Context, productType string) (domain.TypeRule, error)

	incremented []string
	upserted    []domain.TypeRule
	upsertErr   error
}

func (m *mockRules) GetActive(ctx context.Context, productType string) (domain.TypeRule, error) {
	if m.getActiveFn != nil {
		return m.getActiveFn(ctx, productType)
	}
	return domain.TypeRule{}, domain.ErrNotFound
}

func (m *mockRules) IncrementUse(ctx context.Context, productType string) error {
	m.incremented = append(m.incremented, productType)
	return nil
}

func (m *mockRules) Upsert(ctx context.Context, rule domain.TypeRule, force bool) error {
	m.upserted = append(m.upserted, rule)
	return m.upsertErr
}

// mockCache implements CacheStore for tests.
type mockCache struct {
	getFn  func(ctx context.Context, key string) (domain.CacheEntry, error)
	putErr error

	touched []string
	puts    []domain.CacheEntry
	forced  []bool
}

func (m *mockCache) Get(ctx context.Context, key string) (domain.CacheEntry, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return domain.CacheEntry{}, domain.ErrNotFound
}

func (m *mockCache) Touch(ctx context.Context, key string) error {
	m.touched = append(m.touched, key)
	return nil
}

func (m *mockCache) Put(ctx context.Context, entry domain.CacheEntry, force bool) error {
	m.puts = append(m.puts, entry)
	m.forced = append(m.forced, force)
	return m.putErr
}

// mockDefiner implements Definer for tests.
type mockDefiner struct {
	def   domain.ProductDefinition
	calls int
}

func (m *mockDefiner) Define(ctx context.Context, p domain.Product) domain.ProductDefinition {
	m.calls++
	if m.def.Definition == "" && len(m.def.Keywords) == 0 {
		return domain.DefinitionFromTitle(p)
	}
	return m.def
}

// mockRetriever implements Retriever for tests, recording the depth floor
// of each call.
type mockRetriever struct {
	retrieveFn func(keywords []string, minDepth int) []domain.TaxonomyEntry

	depths []int
}

func (m *mockRetriever) Retrieve(keywords []string, minDepth int) []domain.TaxonomyEntry {
	m.depths = append(m.depths, minDepth)
	if m.retrieveFn != nil {
		return m.retrieveFn(keywords, minDepth)
	}
	return nil
}

// mockSelector implements Selector for tests, returning queued selections
// in order.
type mockSelector struct {
	selections []domain.Selection
	calls      int
}

func (m *mockSelector) Select(ctx context.Context, def domain.ProductDefinition, candidates []domain.TaxonomyEntry) domain.Selection {
	idx := m.calls
	m.calls++
	if idx >= len(m.selections) {
		return domain.Selection{}
	}
	return m.selections[idx]
}
