package categorizer

import (
	"time"

	"github.com/shopfeed/categorizer/internal/domain"
)

// Product is an item to categorize. Title is required; the other fields
// sharpen the decision when present.
type Product struct {
	Title       string
	Type        string
	Vendor      string
	Description string
	Tags        []string
}

// Result is a categorization decision.
type Result struct {
	CategoryCode         string
	CategoryPath         string
	Confidence           float64
	NeedsReview          bool
	Rationale            string
	Source               string
	OriginalCategoryCode string
	OriginalCategoryPath string
}

// Rule maps a product type directly to a category, bypassing the pipeline.
type Rule struct {
	ProductType  string
	CategoryCode string
	CategoryPath string
	Confidence   float64
	UseCount     int64
	CreatedBy    string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Proposal is a rule candidate mined from recurring pipeline decisions.
type Proposal struct {
	ID            string
	ProductType   string
	CategoryCode  string
	CategoryPath  string
	Count         int
	AvgConfidence float64
}

// CacheEntry is a stored categorization decision.
type CacheEntry struct {
	Key          string
	Title        string
	ProductType  string
	Vendor       string
	CategoryCode string
	CategoryPath string
	OriginalCode string
	OriginalPath string
	Confidence   float64
	Rationale    string
	Source       string
	UseCount     int64
	CreatedAt    time.Time
	LastUsedAt   time.Time
}

// CacheStats summarizes the decision cache.
type CacheStats struct {
	Total         int
	BySource      map[string]int
	AvgConfidence float64
	TotalUses     int64
}

func toDomainProduct(p Product) domain.Product {
	return domain.Product{
		Title:       p.Title,
		Type:        p.Type,
		Vendor:      p.Vendor,
		Description: p.Description,
		Tags:        p.Tags,
	}
}

func fromDomainResult(r domain.Result) Result {
	return Result{
		CategoryCode:         r.CategoryCode,
		CategoryPath:         r.CategoryPath,
		Confidence:           r.Confidence,
		NeedsReview:          r.NeedsReview,
		Rationale:            r.Rationale,
		Source:               r.Source,
		OriginalCategoryCode: r.OriginalCategoryCode,
		OriginalCategoryPath: r.OriginalCategoryPath,
	}
}

func fromDomainRule(r domain.TypeRule) Rule {
	return Rule{
		ProductType:  r.ProductType,
		CategoryCode: r.CategoryCode,
		CategoryPath: r.CategoryPath,
		Confidence:   r.Confidence,
		UseCount:     r.UseCount,
		CreatedBy:    r.CreatedBy,
		Active:       r.Active,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func fromDomainProposal(p domain.RuleProposal) Proposal {
	return Proposal{
		ID:            p.ID,
		ProductType:   p.ProductType,
		CategoryCode:  p.CategoryCode,
		CategoryPath:  p.CategoryPath,
		Count:         p.Count,
		AvgConfidence: p.AvgConfidence,
	}
}

func fromDomainEntry(e domain.CacheEntry) CacheEntry {
	return CacheEntry{
		Key:          e.Key,
		Title:        e.Title,
		ProductType:  e.ProductType,
		Vendor:       e.Vendor,
		CategoryCode: e.CategoryCode,
		CategoryPath: e.CategoryPath,
		OriginalCode: e.OriginalCode,
		OriginalPath: e.OriginalPath,
		Confidence:   e.Confidence,
		Rationale:    e.Rationale,
		Source:       e.Source,
		UseCount:     e.UseCount,
		CreatedAt:    e.CreatedAt,
		LastUsedAt:   e.LastUsedAt,
	}
}

func fromDomainStats(s domain.CacheStats) CacheStats {
	return CacheStats{
		Total:         s.Total,
		BySource:      s.BySource,
		AvgConfidence: s.AvgConfidence,
		TotalUses:     s.TotalUses,
	}
}
