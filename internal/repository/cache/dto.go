package cache

import (
	"strconv"
	"time"

	"github.com/shopfeed/categorizer/internal/domain"
)

// entryToHash converts a cache entry to a map for HSET.
func entryToHash(e domain.CacheEntry) map[string]string {
	return map[string]string{
		"title":         e.Title,
		"product_type":  e.ProductType,
		"vendor":        e.Vendor,
		"category_code": e.CategoryCode,
		"category_path": e.CategoryPath,
		"original_code": e.OriginalCode,
		"original_path": e.OriginalPath,
		"confidence":    strconv.FormatFloat(e.Confidence, 'f', -1, 64),
		"rationale":     e.Rationale,
		"source":        e.Source,
		"use_count":     strconv.FormatInt(e.UseCount, 10),
		"created_at":    e.CreatedAt.UTC().Format(time.RFC3339),
		"last_used_at":  e.LastUsedAt.UTC().Format(time.RFC3339),
	}
}

// entryFromHash hydrates a cache entry from an HGETALL result map.
func entryFromHash(key string, m map[string]string) domain.CacheEntry {
	e := domain.CacheEntry{
		Key:          key,
		Title:        m["title"],
		ProductType:  m["product_type"],
		Vendor:       m["vendor"],
		CategoryCode: m["category_code"],
		CategoryPath: m["category_path"],
		OriginalCode: m["original_code"],
		OriginalPath: m["original_path"],
		Rationale:    m["rationale"],
		Source:       m["source"],
	}
	e.Confidence, _ = strconv.ParseFloat(m["confidence"], 64)
	e.UseCount, _ = strconv.ParseInt(m["use_count"], 10, 64)
	e.CreatedAt, _ = time.Parse(time.RFC3339, m["created_at"])
	e.LastUsedAt, _ = time.Parse(time.RFC3339, m["last_used_at"])
	return e
}
