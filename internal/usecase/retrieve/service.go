package retrieve

import (
	"sort"
	"strings"

	"github.com/shopfeed/categorizer/internal/domain"
)

// Service ranks taxonomy entries against definition keywords. The catalog
// lives in memory, so retrieval is a pure scoring pass without I/O.
type Service struct {
	catalog        *domain.Catalog
	preferredRoots map[string]bool
	limit          int
}

// New creates a retrieval service. preferredRoots lists taxonomy roots that
// get a score bonus, for feeds dominated by one department.
func New(catalog *domain.Catalog, preferredRoots []string, limit int) *Service {
	roots := make(map[string]bool, len(preferredRoots))
	for _, r := range preferredRoots {
		roots[foldLower(r)] = true
	}
	return &Service{catalog: catalog, preferredRoots: roots, limit: limit}
}

type scored struct {
	entry domain.TaxonomyEntry
	score int
}

// Retrieve returns the top candidate categories for the given keywords.
// Entries shallower than minDepth are excluded before ranking, so a retry
// with a higher floor yields a genuinely different candidate set.
func (s *Service) Retrieve(keywords []string, minDepth int) []domain.TaxonomyEntry {
	folded := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = foldLower(kw)
		if kw != "" {
			folded = append(folded, kw)
		}
	}
	if len(folded) == 0 {
		return nil
	}

	var candidates []scored
	for _, entry := range s.catalog.Entries() {
		if entry.Depth() < minDepth {
			continue
		}
		score := s.score(entry, folded)
		if score > 0 {
			candidates = append(candidates, scored{entry: entry, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		// Prefer deeper entries on ties: more specific wins.
		return candidates[i].entry.Depth() > candidates[j].entry.Depth()
	})

	n := len(candidates)
	if s.limit > 0 && n > s.limit {
		n = s.limit
	}
	out := make([]domain.TaxonomyEntry, n)
	for i := 0; i < n; i++ {
		out[i] = candidates[i].entry
	}
	return out
}

// score counts keyword hits in the folded path, two points per hit, plus
// one point when the entry sits under a preferred root.
func (s *Service) score(entry domain.TaxonomyEntry, keywords []string) int {
	path := foldLower(entry.Path)
	score := 0
	for _, kw := range keywords {
		if strings.Contains(path, kw) {
			score += 2
		}
	}
	if score > 0 && s.preferredRoots[foldLower(entry.Root())] {
		score++
	}
	return score
}

func foldLower(s string) string {
	return strings.ToLower(strings.TrimSpace(domain.Fold(s)))
}
