package resolve

import (
	"context"
	"testing"

	"github.com/shopfeed/categorizer/internal/domain"
)

const (
	pathTablecloths = "Home & Garden > Linens & Bedding > Table Linens > Tablecloths"
	pathTableLinens = "Home & Garden > Linens & Bedding > Table Linens"
	pathHomeGarden  = "Home & Garden"
)

func testCatalog() *domain.Catalog {
	return domain.NewCatalog([]domain.TaxonomyEntry{
		{Code: "536", Path: pathHomeGarden},
		{Code: "574", Path: "Home & Garden > Linens & Bedding"},
		{Code: "6325", Path: pathTableLinens},
		{Code: "4143", Path: pathTablecloths},
	})
}

func testConfig() Config {
	return Config{
		MaxAttempts:      2,
		MinDepth:         3,
		ReviewThreshold:  0.8,
		PromoteThreshold: 0.5,
		FallbackPath:     pathHomeGarden,
	}
}

type fixture struct {
	rules     *mockRules
	cache     *mockCache
	definer   *mockDefiner
	retriever *mockRetriever
	selector  *mockSelector
	svc       *Service
}

func newFixture(cfg Config) *fixture {
	f := &fixture{
		rules:     &mockRules{},
		cache:     &mockCache{},
		definer:   &mockDefiner{},
		retriever: &mockRetriever{},
		selector:  &mockSelector{},
	}
	f.svc = New(f.rules, f.cache, f.definer, f.retriever, f.selector, testCatalog(), cfg)
	return f
}

func testProduct() domain.Product {
	return domain.Product{Title: "Nappe en coton 160x200", Type: "TABLE", Vendor: "MaisonDeco"}
}

func selection(path string, conf float64) domain.Selection {
	return domain.Selection{Path: path, Confidence: conf, Rationale: "test"}
}

func TestResolve_RuleHitSkipsCacheAndPipeline(t *testing.T) {
	f := newFixture(testConfig())
	f.rules.getActiveFn = func(ctx context.Context, productType string) (domain.TypeRule, error) {
		if productType != "TABLE" {
			t.Errorf("expected normalized type TABLE, got %q", productType)
		}
		return domain.TypeRule{
			ProductType:  "TABLE",
			CategoryCode: "4143",
			CategoryPath: pathTablecloths,
			Confidence:   1.0,
			Active:       true,
		}, nil
	}

	res := f.svc.Resolve(context.Background(), testProduct())

	if res.Source != domain.SourceTypeMapping {
		t.Errorf("expected type_mapping source, got %q", res.Source)
	}
	if res.CategoryCode != "4143" || res.NeedsReview {
		t.Errorf("unexpected result: %+v", res)
	}
	if f.definer.calls != 0 || f.selector.calls != 0 {
		t.Error("pipeline must not run on a rule hit")
	}
	if len(f.rules.incremented) != 1 {
		t.Errorf("expected rule use counter bump, got %d", len(f.rules.incremented))
	}
}

func TestResolve_RuleHitWritesAuditCacheEntry(t *testing.T) {
	f := newFixture(testConfig())
	f.rules.getActiveFn = func(ctx context.Context, productType string) (domain.TypeRule, error) {
		return domain.TypeRule{
			ProductType:  "TABLE",
			CategoryCode: "4143",
			CategoryPath: pathTablecloths,
			Confidence:   1.0,
			Active:       true,
		}, nil
	}

	p := testProduct()
	f.svc.Resolve(context.Background(), p)

	if len(f.cache.puts) != 1 {
		t.Fatalf("expected 1 audit cache write, got %d", len(f.cache.puts))
	}
	audit := f.cache.puts[0]
	if audit.Source != domain.SourceTypeMapping {
		t.Errorf("expected type_mapping audit source, got %q", audit.Source)
	}
	if audit.Key != domain.CacheKey(p) {
		t.Error("audit entry keyed by product content hash")
	}
	if !f.cache.forced[0] {
		t.Error("audit writes must bypass protection")
	}
}

func TestResolve_NormalizedTypeMatchesRule(t *testing.T) {
	f := newFixture(testConfig())
	var seen string
	f.rules.getActiveFn = func(ctx context.Context, productType string) (domain.TypeRule, error) {
		seen = productType
		return domain.TypeRule{}, domain.ErrNotFound
	}

	p := testProduct()
	p.Type = "  linge de Lit "
	f.svc.Resolve(context.Background(), p)

	if seen != "LINGE DE LIT" {
		t.Errorf("expected normalized lookup, got %q", seen)
	}
}

func TestResolve_CacheHit(t *testing.T) {
	f := newFixture(testConfig())
	f.cache.getFn = func(ctx context.Context, key string) (domain.CacheEntry, error) {
		return domain.CacheEntry{
			Key:          key,
			CategoryCode: "4143",
			CategoryPath: pathTablecloths,
			Confidence:   0.9,
			Source:       domain.SourcePipeline,
		}, nil
	}

	res := f.svc.Resolve(context.Background(), testProduct())

	if res.Source != domain.SourceCache {
		t.Errorf("expected cache source, got %q", res.Source)
	}
	if res.NeedsReview {
		t.Error("high-confidence cache hit must not need review")
	}
	if len(f.cache.touched) != 1 {
		t.Errorf("expected cache touch, got %d", len(f.cache.touched))
	}
	if f.definer.calls != 0 {
		t.Error("pipeline must not run on a cache hit")
	}
}

func TestResolve_CacheHitLowConfidenceNeedsReview(t *testing.T) {
	f := newFixture(testConfig())
	f.cache.getFn = func(ctx context.Context, key string) (domain.CacheEntry, error) {
		return domain.CacheEntry{
			CategoryCode: "6325",
			CategoryPath: pathTableLinens,
			Confidence:   0.6,
			OriginalCode: "4143",
			OriginalPath: pathTablecloths,
		}, nil
	}

	res := f.svc.Resolve(context.Background(), testProduct())

	if !res.NeedsReview {
		t.Error("expected review below threshold")
	}
	if res.OriginalCategoryCode != "4143" {
		t.Error("expected audit fields carried from cache entry")
	}
}

func TestResolve_PipelineHighConfidence(t *testing.T) {
	f := newFixture(testConfig())
	f.retriever.retrieveFn = func(keywords []string, minDepth int) []domain.TaxonomyEntry {
		return []domain.TaxonomyEntry{{Code: "4143", Path: pathTablecloths}}
	}
	f.selector.selections = []domain.Selection{selection(pathTablecloths, 0.92)}

	res := f.svc.Resolve(context.Background(), testProduct())

	if res.Source != domain.SourcePipeline {
		t.Errorf("expected pipeline source, got %q", res.Source)
	}
	if res.CategoryCode != "4143" || res.NeedsReview {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.OriginalCategoryCode != "" {
		t.Error("no promotion expected at high confidence")
	}
	if f.selector.calls != 1 {
		t.Errorf("expected single attempt, got %d", f.selector.calls)
	}
}

func TestResolve_PipelineWriteBack(t *testing.T) {
	f := newFixture(testConfig())
	f.selector.selections = []domain.Selection{selection(pathTablecloths, 0.92)}

	p := testProduct()
	f.svc.Resolve(context.Background(), p)

	if len(f.cache.puts) != 1 {
		t.Fatalf("expected 1 write-back, got %d", len(f.cache.puts))
	}
	entry := f.cache.puts[0]
	if entry.Source != domain.SourcePipeline {
		t.Errorf("unexpected source: %q", entry.Source)
	}
	if entry.Key != domain.CacheKey(p) {
		t.Error("write-back keyed by product content hash")
	}
	if f.cache.forced[0] {
		t.Error("pipeline write-back must respect protection")
	}
}

func TestResolve_PipelineMediumConfidenceKeepsWithReview(t *testing.T) {
	f := newFixture(testConfig())
	f.selector.selections = []domain.Selection{selection(pathTablecloths, 0.79)}

	res := f.svc.Resolve(context.Background(), testProduct())

	if res.CategoryCode != "4143" {
		t.Errorf("expected category kept, got %q", res.CategoryCode)
	}
	if !res.NeedsReview {
		t.Error("expected review just below threshold")
	}
	if res.OriginalCategoryCode != "" {
		t.Error("no promotion expected in the medium band")
	}
}

func TestResolve_PipelineExactReviewThresholdNoReview(t *testing.T) {
	f := newFixture(testConfig())
	f.selector.selections = []domain.Selection{selection(pathTablecloths, 0.8)}

	res := f.svc.Resolve(context.Background(), testProduct())
	if res.NeedsReview {
		t.Error("confidence at the threshold must not need review")
	}
}

func TestResolve_PipelineLowConfidencePromotesToParent(t *testing.T) {
	f := newFixture(testConfig())
	f.selector.selections = []domain.Selection{selection(pathTablecloths, 0.49)}

	res := f.svc.Resolve(context.Background(), testProduct())

	if res.CategoryCode != "6325" || res.CategoryPath != pathTableLinens {
		t.Errorf("expected parent promotion, got %+v", res)
	}
	if !res.NeedsReview {
		t.Error("promoted result must need review")
	}
	if res.OriginalCategoryCode != "4143" || res.OriginalCategoryPath != pathTablecloths {
		t.Errorf("expected original pick preserved, got %+v", res)
	}
}

func TestResolve_PipelineExactPromoteThresholdKeeps(t *testing.T) {
	f := newFixture(testConfig())
	f.selector.selections = []domain.Selection{selection(pathTablecloths, 0.5)}

	res := f.svc.Resolve(context.Background(), testProduct())
	if res.CategoryCode != "4143" {
		t.Errorf("confidence at the promote threshold must keep the pick, got %q", res.CategoryCode)
	}
}

func TestResolve_PipelineRetriesOnShallowSelection(t *testing.T) {
	f := newFixture(testConfig())
	f.selector.selections = []domain.Selection{
		selection(pathHomeGarden, 0.9), // depth 1, rejected
		selection(pathTablecloths, 0.85),
	}

	res := f.svc.Resolve(context.Background(), testProduct())

	if f.selector.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", f.selector.calls)
	}
	if len(f.retriever.depths) != 2 || f.retriever.depths[0] != 0 || f.retriever.depths[1] != 3 {
		t.Errorf("expected depth floor tightened on retry, got %v", f.retriever.depths)
	}
	if res.CategoryCode != "4143" || res.NeedsReview {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestResolve_PipelineRetriesOnUnknownPath(t *testing.T) {
	f := newFixture(testConfig())
	f.selector.selections = []domain.Selection{
		selection("Made Up > Category > Path", 0.95),
		selection(pathTablecloths, 0.9),
	}

	res := f.svc.Resolve(context.Background(), testProduct())
	if f.selector.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", f.selector.calls)
	}
	if res.CategoryCode != "4143" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestResolve_PipelineExhaustionFallsBack(t *testing.T) {
	f := newFixture(testConfig())
	f.selector.selections = []domain.Selection{
		selection("Unknown > Path", 0.9),
		selection("Still > Unknown", 0.9),
	}

	res := f.svc.Resolve(context.Background(), testProduct())

	if res.CategoryPath != pathHomeGarden {
		t.Errorf("expected fallback category, got %q", res.CategoryPath)
	}
	if res.Confidence != 0 {
		t.Errorf("expected zero confidence, got %f", res.Confidence)
	}
	if !res.NeedsReview {
		t.Error("fallback must need review")
	}
	if res.Source != domain.SourcePipeline {
		t.Errorf("unexpected source: %q", res.Source)
	}
}

func TestResolve_AutoRulesWritesRule(t *testing.T) {
	cfg := testConfig()
	cfg.AutoRules = true
	f := newFixture(cfg)
	f.selector.selections = []domain.Selection{selection(pathTablecloths, 0.9)}

	f.svc.Resolve(context.Background(), testProduct())

	if len(f.rules.upserted) != 1 {
		t.Fatalf("expected 1 auto rule, got %d", len(f.rules.upserted))
	}
	rule := f.rules.upserted[0]
	if rule.ProductType != "TABLE" || rule.CreatedBy != domain.RuleCreatedByAuto {
		t.Errorf("unexpected auto rule: %+v", rule)
	}
	if !rule.Active {
		t.Error("auto rule should be active")
	}
}

func TestResolve_AutoRulesSkippedBelowThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.AutoRules = true
	f := newFixture(cfg)
	f.selector.selections = []domain.Selection{selection(pathTablecloths, 0.7)}

	f.svc.Resolve(context.Background(), testProduct())
	if len(f.rules.upserted) != 0 {
		t.Errorf("expected no auto rule below threshold, got %d", len(f.rules.upserted))
	}
}

func TestResolve_AutoRulesOffByDefault(t *testing.T) {
	f := newFixture(testConfig())
	f.selector.selections = []domain.Selection{selection(pathTablecloths, 0.95)}

	f.svc.Resolve(context.Background(), testProduct())
	if len(f.rules.upserted) != 0 {
		t.Errorf("expected no auto rule when disabled, got %d", len(f.rules.upserted))
	}
}

func TestResolve_ProtectedWriteBackIsNotAnError(t *testing.T) {
	f := newFixture(testConfig())
	f.cache.putErr = domain.ErrProtected
	f.selector.selections = []domain.Selection{selection(pathTablecloths, 0.9)}

	res := f.svc.Resolve(context.Background(), testProduct())
	if res.CategoryCode != "4143" {
		t.Errorf("resolution must succeed despite protected cache entry, got %+v", res)
	}
}

func TestResolve_RepeatProductServedFromCache(t *testing.T) {
	f := newFixture(testConfig())
	stored := map[string]domain.CacheEntry{}
	f.cache.getFn = func(ctx context.Context, key string) (domain.CacheEntry, error) {
		if e, ok := stored[key]; ok {
			return e, nil
		}
		return domain.CacheEntry{}, domain.ErrNotFound
	}
	f.selector.selections = []domain.Selection{selection(pathTablecloths, 0.9)}

	ctx := context.Background()
	p := testProduct()

	first := f.svc.Resolve(ctx, p)
	for _, e := range f.cache.puts {
		stored[e.Key] = e
	}
	second := f.svc.Resolve(ctx, p)

	if first.Source != domain.SourcePipeline {
		t.Errorf("first resolution should run the pipeline, got %q", first.Source)
	}
	if second.Source != domain.SourceCache {
		t.Errorf("second resolution should hit the cache, got %q", second.Source)
	}
	if second.CategoryCode != first.CategoryCode {
		t.Error("cached decision must match the original")
	}
	if f.definer.calls != 1 || f.selector.calls != 1 {
		t.Error("repeat resolution must not touch the pipeline")
	}
}

func TestResolve_UntypedProductSkipsRules(t *testing.T) {
	f := newFixture(testConfig())
	called := false
	f.rules.getActiveFn = func(ctx context.Context, productType string) (domain.TypeRule, error) {
		called = true
		return domain.TypeRule{}, domain.ErrNotFound
	}
	f.selector.selections = []domain.Selection{selection(pathTablecloths, 0.9)}

	p := testProduct()
	p.Type = ""
	res := f.svc.Resolve(context.Background(), p)

	if called {
		t.Error("rule lookup must be skipped without a product type")
	}
	if res.CategoryCode != "4143" {
		t.Errorf("unexpected result: %+v", res)
	}
}
