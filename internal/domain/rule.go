package domain

import "time"

// Rule origins.
const (
	RuleCreatedByManual = "manual"
	RuleCreatedByAuto   = "auto_suggestion"
)

// TypeRule maps a normalized merchant product type directly to a taxonomy
// category, bypassing the LLM pipeline entirely.
type TypeRule struct {
	ProductType  string    `json:"product_type"` // normalized, see NormalizeType
	CategoryCode string    `json:"category_code"`
	CategoryPath string    `json:"category_path"`
	Confidence   float64   `json:"confidence"`
	UseCount     int64     `json:"use_count"`
	CreatedBy    string    `json:"created_by"` // manual or auto_suggestion
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
