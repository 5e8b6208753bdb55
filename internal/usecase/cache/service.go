package cache

import (
	"context"
	"fmt"

	"github.com/shopfeed/categorizer/internal/domain"
)

// Service manages the decision cache: operational stats and manual
// corrections of individual entries.
type Service struct {
	repo    Repository
	catalog *domain.Catalog
}

// New creates a cache management service.
func New(repo Repository, catalog *domain.Catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// Stats summarizes the cache contents.
func (s *Service) Stats(ctx context.Context) (domain.CacheStats, error) {
	return s.repo.Stats(ctx)
}

// Get returns a single cache entry.
func (s *Service) Get(ctx context.Context, key string) (domain.CacheEntry, error) {
	return s.repo.Get(ctx, key)
}

// Correct rewrites the category of an existing entry, bypassing protection.
// The previous pick moves to the audit fields; a non-positive confidence
// means full trust in the correction.
func (s *Service) Correct(ctx context.Context, key, categoryCode string, confidence float64) (domain.CacheEntry, error) {
	entry, err := s.repo.Get(ctx, key)
	if err != nil {
		return domain.CacheEntry{}, err
	}

	target, ok := s.catalog.ByCode(categoryCode)
	if !ok {
		return domain.CacheEntry{}, fmt.Errorf("category %s: %w", categoryCode, domain.ErrUnknownCategory)
	}
	if confidence <= 0 {
		confidence = 1.0
	}
	if confidence > 1 {
		return domain.CacheEntry{}, fmt.Errorf("confidence %.2f out of range: %w", confidence, domain.ErrInvalidRule)
	}

	entry.OriginalCode = entry.CategoryCode
	entry.OriginalPath = entry.CategoryPath
	entry.CategoryCode = target.Code
	entry.CategoryPath = target.Path
	entry.Confidence = confidence
	entry.Rationale = "manual correction"

	if err := s.repo.Put(ctx, entry, true); err != nil {
		return domain.CacheEntry{}, err
	}
	return s.repo.Get(ctx, key)
}

// Delete removes a cache entry so the next resolution re-runs the pipeline.
func (s *Service) Delete(ctx context.Context, key string) error {
	if _, err := s.repo.Get(ctx, key); err != nil {
		return err
	}
	return s.repo.Delete(ctx, key)
}
