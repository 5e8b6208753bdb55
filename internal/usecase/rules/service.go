package rules

import (
	"context"
	"fmt"

	"github.com/shopfeed/categorizer/internal/domain"
)

// Service manages type rules: validation against the taxonomy plus
// persistence through the repository.
type Service struct {
	repo    Repository
	catalog *domain.Catalog
}

// New creates a rule management service.
func New(repo Repository, catalog *domain.Catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// List returns all rules.
func (s *Service) List(ctx context.Context) ([]domain.TypeRule, error) {
	return s.repo.List(ctx)
}

// Get returns a rule by product type, normalizing the lookup.
func (s *Service) Get(ctx context.Context, productType string) (domain.TypeRule, error) {
	normalized := domain.NormalizeType(productType)
	if normalized == "" {
		return domain.TypeRule{}, fmt.Errorf("empty product type: %w", domain.ErrInvalidRule)
	}
	return s.repo.Get(ctx, normalized)
}

// Create validates and stores a new manual rule. The category code must
// exist in the taxonomy; the stored path is always the taxonomy's.
func (s *Service) Create(ctx context.Context, productType, categoryCode string, confidence float64) (domain.TypeRule, error) {
	rule, err := s.buildRule(productType, categoryCode, confidence)
	if err != nil {
		return domain.TypeRule{}, err
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return domain.TypeRule{}, err
	}
	return s.repo.Get(ctx, rule.ProductType)
}

// Replace validates and stores a rule, overwriting an existing one.
// Protected rules require force.
func (s *Service) Replace(ctx context.Context, productType, categoryCode string, confidence float64, force bool) (domain.TypeRule, error) {
	rule, err := s.buildRule(productType, categoryCode, confidence)
	if err != nil {
		return domain.TypeRule{}, err
	}
	if err := s.repo.Upsert(ctx, rule, force); err != nil {
		return domain.TypeRule{}, err
	}
	return s.repo.Get(ctx, rule.ProductType)
}

// UpdateCategory points an existing rule at a different category.
func (s *Service) UpdateCategory(ctx context.Context, productType, categoryCode string, confidence float64) (domain.TypeRule, error) {
	normalized := domain.NormalizeType(productType)
	entry, ok := s.catalog.ByCode(categoryCode)
	if !ok {
		return domain.TypeRule{}, fmt.Errorf("category %s: %w", categoryCode, domain.ErrUnknownCategory)
	}
	if confidence <= 0 || confidence > 1 {
		return domain.TypeRule{}, fmt.Errorf("confidence %.2f out of range: %w", confidence, domain.ErrInvalidRule)
	}
	return s.repo.UpdateCategory(ctx, normalized, entry.Code, entry.Path, confidence)
}

// Toggle flips a rule between active and inactive.
func (s *Service) Toggle(ctx context.Context, productType string, active bool) (domain.TypeRule, error) {
	return s.repo.SetActive(ctx, domain.NormalizeType(productType), active)
}

// Delete removes a rule.
func (s *Service) Delete(ctx context.Context, productType string) error {
	return s.repo.Delete(ctx, domain.NormalizeType(productType))
}

// AcceptProposal turns an analyzer proposal into an active rule. The rule
// keeps the auto_suggestion origin so accepted proposals stay auditable.
func (s *Service) AcceptProposal(ctx context.Context, proposal domain.RuleProposal, force bool) (domain.TypeRule, error) {
	rule, err := s.buildRule(proposal.ProductType, proposal.CategoryCode, proposal.AvgConfidence)
	if err != nil {
		return domain.TypeRule{}, err
	}
	rule.CreatedBy = domain.RuleCreatedByAuto
	if err := s.repo.Upsert(ctx, rule, force); err != nil {
		return domain.TypeRule{}, err
	}
	return s.repo.Get(ctx, rule.ProductType)
}

func (s *Service) buildRule(productType, categoryCode string, confidence float64) (domain.TypeRule, error) {
	normalized := domain.NormalizeType(productType)
	if normalized == "" {
		return domain.TypeRule{}, fmt.Errorf("empty product type: %w", domain.ErrInvalidRule)
	}
	if confidence <= 0 || confidence > 1 {
		return domain.TypeRule{}, fmt.Errorf("confidence %.2f out of range: %w", confidence, domain.ErrInvalidRule)
	}
	entry, ok := s.catalog.ByCode(categoryCode)
	if !ok {
		return domain.TypeRule{}, fmt.Errorf("category %s: %w", categoryCode, domain.ErrUnknownCategory)
	}
	return domain.TypeRule{
		ProductType:  normalized,
		CategoryCode: entry.Code,
		CategoryPath: entry.Path,
		Confidence:   confidence,
		CreatedBy:    domain.RuleCreatedByManual,
		Active:       true,
	}, nil
}
