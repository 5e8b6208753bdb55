package batch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/shopfeed/categorizer/internal/domain"
)

// MaxBatchSize is the maximum number of products per batch request.
const MaxBatchSize = 100

// Service resolves product batches concurrently. Results keep the input
// order; individual resolutions never fail, so neither does the batch.
type Service struct {
	resolver    Resolver
	concurrency int
	maxSize     int
}

// New creates a batch service.
func New(resolver Resolver, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{resolver: resolver, concurrency: concurrency, maxSize: MaxBatchSize}
}

// WithMaxSize configures the maximum batch size.
func (s *Service) WithMaxSize(size int) *Service {
	if size > 0 {
		s.maxSize = size
	}
	return s
}

// MaxSize returns the configured batch size limit.
func (s *Service) MaxSize() int {
	return s.maxSize
}

// Resolve categorizes all products, at most `concurrency` at a time.
func (s *Service) Resolve(ctx context.Context, products []domain.Product) []domain.Result {
	results := make([]domain.Result, len(products))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, p := range products {
		i, p := i, p
		g.Go(func() error {
			results[i] = s.resolver.Resolve(ctx, p)
			return nil
		})
	}

	// Workers never return errors; Wait only orders the writes.
	_ = g.Wait()
	return results
}
