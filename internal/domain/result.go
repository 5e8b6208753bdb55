package domain

// Selection is the taxonomy agent's pick from a candidate set.
type Selection struct {
	Path       string  `json:"path"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale,omitempty"`
}

// Result is the outcome of a resolution. Resolution never fails: every
// product gets a category, at worst the generic fallback flagged for review.
type Result struct {
	CategoryCode string  `json:"category_code"`
	CategoryPath string  `json:"category_path"`
	Confidence   float64 `json:"confidence"`
	NeedsReview  bool    `json:"needs_review"`
	Rationale    string  `json:"rationale,omitempty"`
	Source       string  `json:"source"`
	// Original fields carry the pre-promotion pick when the confidence
	// policy moved the result to a parent category.
	OriginalCategoryCode string `json:"original_category_code,omitempty"`
	OriginalCategoryPath string `json:"original_category_path,omitempty"`
}
