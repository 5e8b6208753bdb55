package categorizer

import (
	"context"

	"github.com/shopfeed/categorizer/internal/domain"
	cacheuc "github.com/shopfeed/categorizer/internal/usecase/cache"
	rulesuc "github.com/shopfeed/categorizer/internal/usecase/rules"
)

// RuleService manages type rules.
type RuleService struct {
	svc *rulesuc.Service
}

// List returns all rules sorted by product type.
func (s *RuleService) List(ctx context.Context) ([]Rule, error) {
	rules, err := s.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = fromDomainRule(r)
	}
	return out, nil
}

// Get returns a rule by product type.
func (s *RuleService) Get(ctx context.Context, productType string) (Rule, error) {
	r, err := s.svc.Get(ctx, productType)
	if err != nil {
		return Rule{}, err
	}
	return fromDomainRule(r), nil
}

// Create stores a new manual rule. The category code must exist in the
// taxonomy.
func (s *RuleService) Create(ctx context.Context, productType, categoryCode string, confidence float64) (Rule, error) {
	r, err := s.svc.Create(ctx, productType, categoryCode, confidence)
	if err != nil {
		return Rule{}, err
	}
	return fromDomainRule(r), nil
}

// Replace overwrites a rule. Protected rules require force.
func (s *RuleService) Replace(ctx context.Context, productType, categoryCode string, confidence float64, force bool) (Rule, error) {
	r, err := s.svc.Replace(ctx, productType, categoryCode, confidence, force)
	if err != nil {
		return Rule{}, err
	}
	return fromDomainRule(r), nil
}

// UpdateCategory points an existing rule at a different category.
func (s *RuleService) UpdateCategory(ctx context.Context, productType, categoryCode string, confidence float64) (Rule, error) {
	r, err := s.svc.UpdateCategory(ctx, productType, categoryCode, confidence)
	if err != nil {
		return Rule{}, err
	}
	return fromDomainRule(r), nil
}

// Toggle flips a rule between active and inactive.
func (s *RuleService) Toggle(ctx context.Context, productType string, active bool) (Rule, error) {
	r, err := s.svc.Toggle(ctx, productType, active)
	if err != nil {
		return Rule{}, err
	}
	return fromDomainRule(r), nil
}

// Delete removes a rule.
func (s *RuleService) Delete(ctx context.Context, productType string) error {
	return s.svc.Delete(ctx, productType)
}

// Accept turns an analyzer proposal into an active rule.
func (s *RuleService) Accept(ctx context.Context, p Proposal, force bool) (Rule, error) {
	r, err := s.svc.AcceptProposal(ctx, domain.RuleProposal{
		ID:            p.ID,
		ProductType:   p.ProductType,
		CategoryCode:  p.CategoryCode,
		CategoryPath:  p.CategoryPath,
		Count:         p.Count,
		AvgConfidence: p.AvgConfidence,
	}, force)
	if err != nil {
		return Rule{}, err
	}
	return fromDomainRule(r), nil
}

// CacheService manages the decision cache.
type CacheService struct {
	svc *cacheuc.Service
}

// Stats summarizes the cache contents.
func (s *CacheService) Stats(ctx context.Context) (CacheStats, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return CacheStats{}, err
	}
	return fromDomainStats(stats), nil
}

// Get returns a single cache entry.
func (s *CacheService) Get(ctx context.Context, key string) (CacheEntry, error) {
	e, err := s.svc.Get(ctx, key)
	if err != nil {
		return CacheEntry{}, err
	}
	return fromDomainEntry(e), nil
}

// Correct rewrites the category of an existing entry, bypassing
// protection. A non-positive confidence means full trust.
func (s *CacheService) Correct(ctx context.Context, key, categoryCode string, confidence float64) (CacheEntry, error) {
	e, err := s.svc.Correct(ctx, key, categoryCode, confidence)
	if err != nil {
		return CacheEntry{}, err
	}
	return fromDomainEntry(e), nil
}

// Delete removes a cache entry so the next resolution re-runs the pipeline.
func (s *CacheService) Delete(ctx context.Context, key string) error {
	return s.svc.Delete(ctx, key)
}
