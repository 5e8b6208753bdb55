package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/shopfeed/categorizer/internal/domain"
)

// Defaults for proposal thresholds.
const (
	DefaultMinCount      = 5
	DefaultMinConfidence = 0.85
)

// Service mines the decision cache for recurring pipeline picks and turns
// them into type rule proposals.
type Service struct {
	cache CacheReader
	rules RuleReader
}

// New creates an analyzer service.
func New(cache CacheReader, rules RuleReader) *Service {
	return &Service{cache: cache, rules: rules}
}

type group struct {
	productType string
	code        string
	path        string
	count       int
	confSum     float64
}

// Analyze groups pipeline decisions by normalized product type and final
// category. A group becomes a proposal when it has at least minCount
// entries with average confidence of at least minConfidence, and no active
// rule covers the type yet. Non-positive thresholds fall back to defaults.
func (s *Service) Analyze(ctx context.Context, minCount int, minConfidence float64) ([]domain.RuleProposal, error) {
	if minCount <= 0 {
		minCount = DefaultMinCount
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}

	entries, err := s.cache.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	groups := map[string]*group{}
	for _, e := range entries {
		if e.Source != domain.SourcePipeline {
			continue
		}
		normalized := domain.NormalizeType(e.ProductType)
		if normalized == "" || e.CategoryCode == "" {
			continue
		}
		k := normalized + "\x00" + e.CategoryCode
		g := groups[k]
		if g == nil {
			g = &group{productType: normalized, code: e.CategoryCode, path: e.CategoryPath}
			groups[k] = g
		}
		g.count++
		g.confSum += e.Confidence
	}

	var proposals []domain.RuleProposal
	for _, g := range groups {
		if g.count < minCount {
			continue
		}
		avg := g.confSum / float64(g.count)
		if avg < minConfidence {
			continue
		}

		// Types already covered by an active rule never reach the pipeline
		// again; proposing for them would be noise.
		if _, err := s.rules.GetActive(ctx, g.productType); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("check rule %s: %w", g.productType, err)
		}

		proposals = append(proposals, domain.RuleProposal{
			ID:            uuid.NewString(),
			ProductType:   g.productType,
			CategoryCode:  g.code,
			CategoryPath:  g.path,
			Count:         g.count,
			AvgConfidence: avg,
		})
	}

	sort.Slice(proposals, func(i, j int) bool {
		if proposals[i].Count != proposals[j].Count {
			return proposals[i].Count > proposals[j].Count
		}
		return proposals[i].ProductType < proposals[j].ProductType
	})
	return proposals, nil
}
