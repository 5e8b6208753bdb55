package analyzer

import (
	"context"

	"github.com/shopfeed/categorizer/internal/domain"
)

// CacheReader lists stored categorization decisions.
type CacheReader interface {
	All(ctx context.Context) ([]domain.CacheEntry, error)
}

// RuleReader checks for existing active rules.
type RuleReader interface {
	GetActive(ctx context.Context, productType string) (domain.TypeRule, error)
}
