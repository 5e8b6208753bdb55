package resolve

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shopfeed/categorizer/internal/domain"
	"github.com/shopfeed/categorizer/internal/logger"
	"github.com/shopfeed/categorizer/internal/metrics"
)

// Config holds resolution thresholds and pipeline bounds.
type Config struct {
	MaxAttempts      int
	MinDepth         int
	ReviewThreshold  float64
	PromoteThreshold float64
	FallbackPath     string
	AutoRules        bool
}

// Service resolves products to taxonomy categories through three tiers:
// type rules, the decision cache, and the LLM pipeline. Resolve never
// fails; at worst it answers with the generic fallback flagged for review.
type Service struct {
	rules    RuleStore
	cache    CacheStore
	definer  Definer
	retrieve Retriever
	selector Selector
	catalog  *domain.Catalog
	cfg      Config
}

// New creates a resolution service.
func New(
	rules RuleStore, cache CacheStore,
	definer Definer, retrieve Retriever, selector Selector,
	catalog *domain.Catalog, cfg Config,
) *Service {
	return &Service{
		rules: rules, cache: cache,
		definer: definer, retrieve: retrieve, selector: selector,
		catalog: catalog, cfg: cfg,
	}
}

// Resolve categorizes one product.
func (s *Service) Resolve(ctx context.Context, p domain.Product) domain.Result {
	log := logger.FromContext(ctx)

	// Tier 1: type rule
	normalized := domain.NormalizeType(p.Type)
	if normalized != "" {
		rule, err := s.rules.GetActive(ctx, normalized)
		if err == nil {
			return s.resolveByRule(ctx, p, rule)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("rule lookup failed, continuing to cache", zap.Error(err))
		}
	}

	// Tier 2: decision cache
	key := domain.CacheKey(p)
	entry, err := s.cache.Get(ctx, key)
	if err == nil {
		metrics.CategoryCacheTotal.WithLabelValues("hit").Inc()
		metrics.ResolutionsTotal.WithLabelValues(domain.SourceCache).Inc()
		if touchErr := s.cache.Touch(ctx, key); touchErr != nil {
			log.Warn("cache touch failed", zap.String("key", key), zap.Error(touchErr))
		}
		return domain.Result{
			CategoryCode:         entry.CategoryCode,
			CategoryPath:         entry.CategoryPath,
			Confidence:           entry.Confidence,
			NeedsReview:          entry.Confidence < s.cfg.ReviewThreshold,
			Rationale:            entry.Rationale,
			Source:               domain.SourceCache,
			OriginalCategoryCode: entry.OriginalCode,
			OriginalCategoryPath: entry.OriginalPath,
		}
	}
	if !errors.Is(err, domain.ErrNotFound) {
		log.Warn("cache lookup failed, continuing to pipeline", zap.String("key", key), zap.Error(err))
	}
	metrics.CategoryCacheTotal.WithLabelValues("miss").Inc()

	// Tier 3: LLM pipeline
	return s.resolveByPipeline(ctx, p, normalized, key)
}

// resolveByRule answers from a type rule and records the decision in the
// cache so the audit trail covers rule hits too.
func (s *Service) resolveByRule(ctx context.Context, p domain.Product, rule domain.TypeRule) domain.Result {
	log := logger.FromContext(ctx)
	metrics.ResolutionsTotal.WithLabelValues(domain.SourceTypeMapping).Inc()

	if err := s.rules.IncrementUse(ctx, rule.ProductType); err != nil {
		log.Warn("rule use counter failed", zap.String("type", rule.ProductType), zap.Error(err))
	}

	audit := domain.CacheEntry{
		Key:          domain.CacheKey(p),
		Title:        p.Title,
		ProductType:  p.Type,
		Vendor:       p.Vendor,
		CategoryCode: rule.CategoryCode,
		CategoryPath: rule.CategoryPath,
		Confidence:   rule.Confidence,
		Rationale:    fmt.Sprintf("type rule %s (used %d times)", rule.ProductType, rule.UseCount+1),
		Source:       domain.SourceTypeMapping,
	}
	if err := s.cache.Put(ctx, audit, true); err != nil {
		log.Warn("rule audit cache write failed", zap.Error(err))
	}

	return domain.Result{
		CategoryCode: rule.CategoryCode,
		CategoryPath: rule.CategoryPath,
		Confidence:   rule.Confidence,
		NeedsReview:  false,
		Source:       domain.SourceTypeMapping,
	}
}

// resolveByPipeline runs define, retrieve and select, validates the pick,
// applies the confidence policy and writes the decision back.
func (s *Service) resolveByPipeline(ctx context.Context, p domain.Product, normalized, key string) domain.Result {
	log := logger.FromContext(ctx)
	metrics.ResolutionsTotal.WithLabelValues(domain.SourcePipeline).Inc()

	def := s.definer.Define(ctx, p)

	var (
		chosen domain.TaxonomyEntry
		sel    domain.Selection
		valid  bool
	)
	minDepth := 0
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			// Tighten the candidate floor so the retry sees a different set.
			minDepth = s.cfg.MinDepth
			metrics.PipelineRetriesTotal.Inc()
		}

		candidates := s.retrieve.Retrieve(def.Keywords, minDepth)
		sel = s.selector.Select(ctx, def, candidates)

		entry, ok := s.catalog.ByPath(sel.Path)
		if ok && entry.Depth() >= s.cfg.MinDepth {
			chosen = entry
			valid = true
			break
		}
		log.Debug("selection rejected",
			zap.Int("attempt", attempt),
			zap.String("path", sel.Path),
			zap.Bool("known", ok))
	}

	var v verdict
	if valid {
		v = s.applyPolicy(chosen, sel.Confidence)
	} else {
		v = s.exhausted(ctx, sel)
	}

	result := domain.Result{
		CategoryCode: v.entry.Code,
		CategoryPath: v.entry.Path,
		Confidence:   v.confidence,
		NeedsReview:  v.needsReview,
		Rationale:    sel.Rationale,
		Source:       domain.SourcePipeline,
	}
	if v.promoted {
		result.OriginalCategoryCode = v.original.Code
		result.OriginalCategoryPath = v.original.Path
	}

	s.writeBack(ctx, p, key, result)

	if s.cfg.AutoRules && normalized != "" && valid && result.Confidence >= s.cfg.ReviewThreshold {
		rule := domain.TypeRule{
			ProductType:  normalized,
			CategoryCode: result.CategoryCode,
			CategoryPath: result.CategoryPath,
			Confidence:   result.Confidence,
			CreatedBy:    domain.RuleCreatedByAuto,
			Active:       true,
		}
		if err := s.rules.Upsert(ctx, rule, false); err != nil && !errors.Is(err, domain.ErrProtected) {
			log.Warn("auto rule write failed", zap.String("type", normalized), zap.Error(err))
		}
	}

	return result
}

// exhausted builds the last-resort verdict after all attempts failed:
// the generic fallback category with zero confidence, flagged for review.
func (s *Service) exhausted(ctx context.Context, sel domain.Selection) verdict {
	log := logger.FromContext(ctx)
	log.Warn("pipeline exhausted attempts, using fallback category",
		zap.String("last_path", sel.Path))

	if entry, ok := s.catalog.ByPath(s.cfg.FallbackPath); ok {
		return verdict{entry: entry, confidence: 0, needsReview: true}
	}
	// Fallback path not in the catalog; answer with the raw path anyway.
	return verdict{
		entry:       domain.TaxonomyEntry{Path: s.cfg.FallbackPath},
		confidence:  0,
		needsReview: true,
	}
}

// writeBack stores the pipeline decision. Protected entries are left alone.
func (s *Service) writeBack(ctx context.Context, p domain.Product, key string, result domain.Result) {
	log := logger.FromContext(ctx)

	entry := domain.CacheEntry{
		Key:          key,
		Title:        p.Title,
		ProductType:  p.Type,
		Vendor:       p.Vendor,
		CategoryCode: result.CategoryCode,
		CategoryPath: result.CategoryPath,
		OriginalCode: result.OriginalCategoryCode,
		OriginalPath: result.OriginalCategoryPath,
		Confidence:   result.Confidence,
		Rationale:    result.Rationale,
		Source:       domain.SourcePipeline,
	}
	if err := s.cache.Put(ctx, entry, false); err != nil {
		if errors.Is(err, domain.ErrProtected) {
			log.Debug("cache entry protected, skipping write-back", zap.String("key", key))
			return
		}
		log.Warn("cache write-back failed", zap.String("key", key), zap.Error(err))
	}
}
