package selection

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shopfeed/categorizer/internal/domain"
	"github.com/shopfeed/categorizer/internal/logger"
)

const agentName = "taxonomy"

// Fallback confidences for degraded selections.
const (
	firstCandidateConfidence = 0.3
	genericConfidence        = 0.05
)

// Service is the taxonomy agent: it picks one category from a candidate
// set for a defined product.
type Service struct {
	llm          Completer
	fallbackPath string
}

// New creates a selection service. fallbackPath is the generic category
// used when there are no candidates at all.
func New(llm Completer, fallbackPath string) *Service {
	return &Service{llm: llm, fallbackPath: fallbackPath}
}

// Select picks a category from the candidates. It never fails: when the
// backend errors or returns nothing usable, it degrades to the first
// candidate, then to the generic fallback.
func (s *Service) Select(ctx context.Context, def domain.ProductDefinition, candidates []domain.TaxonomyEntry) domain.Selection {
	log := logger.FromContext(ctx)

	if len(candidates) == 0 {
		return domain.Selection{
			Path:       s.fallbackPath,
			Confidence: genericConfidence,
			Rationale:  "no candidate categories",
		}
	}

	raw, err := s.llm.Complete(ctx, agentName, buildPrompt(def, candidates))
	if err != nil {
		log.Warn("taxonomy agent failed, falling back to top candidate", zap.Error(err))
		return s.fallback(candidates)
	}

	sel, ok := parseSelection(raw)
	if !ok {
		log.Warn("taxonomy agent output unparseable, falling back to top candidate",
			zap.String("raw", truncate(raw, 200)))
		return s.fallback(candidates)
	}
	return sel
}

func (s *Service) fallback(candidates []domain.TaxonomyEntry) domain.Selection {
	return domain.Selection{
		Path:       candidates[0].Path,
		Confidence: firstCandidateConfidence,
		Rationale:  "fallback to highest-ranked candidate",
	}
}

func buildPrompt(def domain.ProductDefinition, candidates []domain.TaxonomyEntry) string {
	var b strings.Builder
	b.WriteString("You are a retail taxonomy expert. Pick the single best category ")
	b.WriteString("for the product below from the candidate list. Use the exact path text.\n\n")
	fmt.Fprintf(&b, "Product: %s\n", def.Definition)
	if def.ProductKind != "" {
		fmt.Fprintf(&b, "Kind: %s\n", def.ProductKind)
	}
	if len(def.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(def.Keywords, ", "))
	}
	b.WriteString("\nCandidates:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s\n", c.Path)
	}
	b.WriteString("\nAnswer with JSON only:\n")
	b.WriteString(`{"path": "...", "confidence": 0.0, "rationale": "..."}`)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
