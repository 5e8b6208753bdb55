package rules

import (
	"strconv"
	"time"

	"github.com/shopfeed/categorizer/internal/domain"
)

// ruleToHash converts a type rule to a map for HSET.
func ruleToHash(rule domain.TypeRule) map[string]string {
	return map[string]string{
		"product_type":  rule.ProductType,
		"category_code": rule.CategoryCode,
		"category_path": rule.CategoryPath,
		"confidence":    strconv.FormatFloat(rule.Confidence, 'f', -1, 64),
		"use_count":     strconv.FormatInt(rule.UseCount, 10),
		"created_by":    rule.CreatedBy,
		"active":        strconv.FormatBool(rule.Active),
		"created_at":    rule.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":    rule.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ruleFromHash hydrates a type rule from an HGETALL result map. Malformed
// numeric fields fall back to zero values.
func ruleFromHash(m map[string]string) domain.TypeRule {
	rule := domain.TypeRule{
		ProductType:  m["product_type"],
		CategoryCode: m["category_code"],
		CategoryPath: m["category_path"],
		CreatedBy:    m["created_by"],
	}
	rule.Confidence, _ = strconv.ParseFloat(m["confidence"], 64)
	rule.UseCount, _ = strconv.ParseInt(m["use_count"], 10, 64)
	rule.Active, _ = strconv.ParseBool(m["active"])
	rule.CreatedAt, _ = time.Parse(time.RFC3339, m["created_at"])
	rule.UpdatedAt, _ = time.Parse(time.RFC3339, m["updated_at"])
	return rule
}
