package cache

import (
	"context"

	"github.com/shopfeed/categorizer/internal/domain"
)

// Repository is the decision cache persistence contract.
type Repository interface {
	Get(ctx context.Context, key string) (domain.CacheEntry, error)
	Put(ctx context.Context, entry domain.CacheEntry, force bool) error
	Delete(ctx context.Context, key string) error
	Stats(ctx context.Context) (domain.CacheStats, error)
}
