package domain

// RuleProposal is an analyzer suggestion to promote a recurring pipeline
// decision into a type rule.
type RuleProposal struct {
	ID            string  `json:"id"`
	ProductType   string  `json:"product_type"`
	CategoryCode  string  `json:"category_code"`
	CategoryPath  string  `json:"category_path"`
	Count         int     `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
}
