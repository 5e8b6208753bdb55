package rules

import (
	"context"

	"github.com/shopfeed/categorizer/internal/domain"
)

// Repository is the rule persistence contract.
type Repository interface {
	Get(ctx context.Context, productType string) (domain.TypeRule, error)
	Create(ctx context.Context, rule domain.TypeRule) error
	Upsert(ctx context.Context, rule domain.TypeRule, force bool) error
	UpdateCategory(ctx context.Context, productType, code, path string, confidence float64) (domain.TypeRule, error)
	SetActive(ctx context.Context, productType string, active bool) (domain.TypeRule, error)
	Delete(ctx context.Context, productType string) error
	List(ctx context.Context) ([]domain.TypeRule, error)
}
