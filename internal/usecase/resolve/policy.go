package resolve

import "github.com/shopfeed/categorizer/internal/domain"

// verdict is the outcome of the confidence policy.
type verdict struct {
	entry       domain.TaxonomyEntry
	confidence  float64
	needsReview bool
	// set when the pick was promoted to its parent
	original domain.TaxonomyEntry
	promoted bool
}

// applyPolicy grades a pipeline pick by confidence. High confidence is
// accepted as is, medium is accepted but flagged for review, low is
// promoted to the parent category with the original kept for audit. A root
// entry with no parent stays where it is.
func (s *Service) applyPolicy(entry domain.TaxonomyEntry, confidence float64) verdict {
	switch {
	case confidence >= s.cfg.ReviewThreshold:
		return verdict{entry: entry, confidence: confidence}
	case confidence >= s.cfg.PromoteThreshold:
		return verdict{entry: entry, confidence: confidence, needsReview: true}
	default:
		parent, ok := s.catalog.Parent(entry)
		if !ok {
			return verdict{entry: entry, confidence: confidence, needsReview: true}
		}
		return verdict{
			entry:       parent,
			confidence:  confidence,
			needsReview: true,
			original:    entry,
			promoted:    true,
		}
	}
}
