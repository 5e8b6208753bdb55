package chi

import (
	"context"
	"net/http"
	"sync"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shopfeed/categorizer/internal/domain"
	analyzeruc "github.com/shopfeed/categorizer/internal/usecase/analyzer"
	batchuc "github.com/shopfeed/categorizer/internal/usecase/batch"
	cacheuc "github.com/shopfeed/categorizer/internal/usecase/cache"
	healthuc "github.com/shopfeed/categorizer/internal/usecase/health"
	resolveuc "github.com/shopfeed/categorizer/internal/usecase/resolve"
	rulesuc "github.com/shopfeed/categorizer/internal/usecase/rules"
)

func testCatalog() *domain.Catalog {
	return domain.NewCatalog([]domain.TaxonomyEntry{
		{Code: "166", Path: "Home & Garden"},
		{Code: "569", Path: "Home & Garden > Linens & Bedding"},
		{Code: "6325", Path: "Home & Garden > Linens & Bedding > Table Linens"},
		{Code: "4143", Path: "Home & Garden > Linens & Bedding > Table Linens > Tablecloths"},
		{Code: "1", Path: "Uncategorized"},
	})
}

// memRuleStore backs both the resolution tier and the management API.
type memRuleStore struct {
	mu    sync.Mutex
	rules map[string]domain.TypeRule
}

func newMemRuleStore() *memRuleStore {
	return &memRuleStore{rules: map[string]domain.TypeRule{}}
}

func (m *memRuleStore) Get(ctx context.Context, productType string) (domain.TypeRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[productType]
	if !ok {
		return domain.TypeRule{}, domain.ErrNotFound
	}
	return r, nil
}

func (m *memRuleStore) GetActive(ctx context.Context, productType string) (domain.TypeRule, error) {
	r, err := m.Get(ctx, productType)
	if err != nil {
		return domain.TypeRule{}, err
	}
	if !r.Active {
		return domain.TypeRule{}, domain.ErrNotFound
	}
	return r, nil
}

func (m *memRuleStore) Create(ctx context.Context, rule domain.TypeRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[rule.ProductType]; ok {
		return domain.ErrAlreadyExists
	}
	m.rules[rule.ProductType] = rule
	return nil
}

func (m *memRuleStore) Upsert(ctx context.Context, rule domain.TypeRule, force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.rules[rule.ProductType]; ok && prev.Confidence >= 0.9 && !force {
		return domain.ErrProtected
	}
	m.rules[rule.ProductType] = rule
	return nil
}

func (m *memRuleStore) UpdateCategory(ctx context.Context, productType, code, path string, confidence float64) (domain.TypeRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[productType]
	if !ok {
		return domain.TypeRule{}, domain.ErrNotFound
	}
	r.CategoryCode = code
	r.CategoryPath = path
	r.Confidence = confidence
	m.rules[productType] = r
	return r, nil
}

func (m *memRuleStore) SetActive(ctx context.Context, productType string, active bool) (domain.TypeRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[productType]
	if !ok {
		return domain.TypeRule{}, domain.ErrNotFound
	}
	r.Active = active
	m.rules[productType] = r
	return r, nil
}

func (m *memRuleStore) Delete(ctx context.Context, productType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[productType]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rules, productType)
	return nil
}

func (m *memRuleStore) List(ctx context.Context) ([]domain.TypeRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TypeRule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRuleStore) IncrementUse(ctx context.Context, productType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rules[productType]
	r.UseCount++
	m.rules[productType] = r
	return nil
}

// memCacheStore serves the resolve tier, the management API and the analyzer.
type memCacheStore struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
}

func newMemCacheStore() *memCacheStore {
	return &memCacheStore{entries: map[string]domain.CacheEntry{}}
}

func (m *memCacheStore) Get(ctx context.Context, key string) (domain.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return domain.CacheEntry{}, domain.ErrNotFound
	}
	return e, nil
}

func (m *memCacheStore) Touch(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entries[key]
	e.UseCount++
	m.entries[key] = e
	return nil
}

func (m *memCacheStore) Put(ctx context.Context, entry domain.CacheEntry, force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.entries[entry.Key]; ok && prev.Confidence >= 0.9 && !force {
		return domain.ErrProtected
	}
	m.entries[entry.Key] = entry
	return nil
}

func (m *memCacheStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memCacheStore) All(ctx context.Context) ([]domain.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CacheEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

func (m *memCacheStore) Stats(ctx context.Context) (domain.CacheStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CacheStats{Total: len(m.entries)}, nil
}

type stubDefiner struct{}

func (stubDefiner) Define(ctx context.Context, p domain.Product) domain.ProductDefinition {
	return domain.DefinitionFromTitle(p)
}

type stubRetriever struct {
	candidates []domain.TaxonomyEntry
}

func (r stubRetriever) Retrieve(keywords []string, minDepth int) []domain.TaxonomyEntry {
	return r.candidates
}

type stubSelector struct {
	selection domain.Selection
}

func (s stubSelector) Select(ctx context.Context, def domain.ProductDefinition, candidates []domain.TaxonomyEntry) domain.Selection {
	return s.selection
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

type stubLLM struct{ err error }

func (l stubLLM) HealthCheck(ctx context.Context) error { return l.err }

// testEnv wires real services over in-memory stores behind a chi router.
type testEnv struct {
	handler http.Handler
	rules   *memRuleStore
	cache   *memCacheStore
}

func newTestEnv(selection domain.Selection) *testEnv {
	catalog := testCatalog()
	ruleStore := newMemRuleStore()
	cacheStore := newMemCacheStore()

	resolveSvc := resolveuc.New(
		ruleStore, cacheStore,
		stubDefiner{}, stubRetriever{candidates: catalog.Entries()}, stubSelector{selection: selection},
		catalog,
		resolveuc.Config{
			MaxAttempts:      2,
			MinDepth:         3,
			ReviewThreshold:  0.8,
			PromoteThreshold: 0.5,
			FallbackPath:     "Uncategorized",
		},
	)

	srv := NewServer(
		resolveSvc,
		batchuc.New(resolveSvc, 2),
		rulesuc.New(ruleStore, catalog),
		analyzeruc.New(cacheStore, ruleStore),
		cacheuc.New(cacheStore, catalog),
		healthuc.New(stubPinger{}, stubLLM{}),
		zap.NewNop(),
	)

	r := chirouter.NewRouter()
	srv.Routes(r)

	return &testEnv{handler: r, rules: ruleStore, cache: cacheStore}
}
