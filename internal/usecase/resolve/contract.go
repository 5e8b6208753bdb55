package resolve

import (
	"context"

	"github.com/shopfeed/categorizer/internal/domain"
)

// RuleStore reads and maintains type rules.
type RuleStore interface {
	GetActive(ctx context.Context, productType string) (domain.TypeRule, error)
	IncrementUse(ctx context.Context, productType string) error
	Upsert(ctx context.Context, rule domain.TypeRule, force bool) error
}

// CacheStore reads and writes categorization decisions.
type CacheStore interface {
	Get(ctx context.Context, key string) (domain.CacheEntry, error)
	Touch(ctx context.Context, key string) error
	Put(ctx context.Context, entry domain.CacheEntry, force bool) error
}

// Definer runs the product agent.
type Definer interface {
	Define(ctx context.Context, p domain.Product) domain.ProductDefinition
}

// Retriever ranks taxonomy candidates for definition keywords.
type Retriever interface {
	Retrieve(keywords []string, minDepth int) []domain.TaxonomyEntry
}

// Selector runs the taxonomy agent over a candidate set.
type Selector interface {
	Select(ctx context.Context, def domain.ProductDefinition, candidates []domain.TaxonomyEntry) domain.Selection
}
