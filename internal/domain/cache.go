package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Resolution sources, in tier order.
const (
	SourceTypeMapping = "type_mapping"
	SourceCache       = "cache"
	SourcePipeline    = "pipeline"
)

// CacheEntry is a remembered categorization decision, keyed by a content
// hash of the product identity. Original fields preserve the pipeline's
// pre-policy pick for audit when the final category was promoted.
type CacheEntry struct {
	Key          string    `json:"key"`
	Title        string    `json:"title"`
	ProductType  string    `json:"product_type,omitempty"`
	Vendor       string    `json:"vendor,omitempty"`
	CategoryCode string    `json:"category_code"`
	CategoryPath string    `json:"category_path"`
	OriginalCode string    `json:"original_code,omitempty"`
	OriginalPath string    `json:"original_path,omitempty"`
	Confidence   float64   `json:"confidence"`
	Rationale    string    `json:"rationale,omitempty"`
	Source       string    `json:"source"`
	UseCount     int64     `json:"use_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsedAt   time.Time `json:"last_used_at"`
}

// CacheKey derives the content hash for a product. Title, type and vendor
// are lowercased and trimmed first, so cosmetic differences hit the same
// entry.
func CacheKey(p Product) string {
	ident := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(p.Title)),
		strings.ToLower(strings.TrimSpace(p.Type)),
		strings.ToLower(strings.TrimSpace(p.Vendor)),
	}, "|")
	sum := sha256.Sum256([]byte(ident))
	return hex.EncodeToString(sum[:])
}

// CacheStats summarizes the cache contents for operational inspection.
type CacheStats struct {
	Total         int            `json:"total"`
	BySource      map[string]int `json:"by_source"`
	AvgConfidence float64        `json:"avg_confidence"`
	TotalUses     int64          `json:"total_uses"`
}
