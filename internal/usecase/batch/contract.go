package batch

import (
	"context"

	"github.com/shopfeed/categorizer/internal/domain"
)

// Resolver categorizes a single product.
type Resolver interface {
	Resolve(ctx context.Context, p domain.Product) domain.Result
}
