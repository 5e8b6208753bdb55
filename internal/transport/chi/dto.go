package chi

import (
	"time"

	"github.com/shopfeed/categorizer/internal/domain"
)

// Error codes returned in JSON error responses.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeAlreadyExists    = "already_exists"
	codeProtected        = "protected"
	codeUnknownCategory  = "unknown_category"
	codeLLMProviderError = "llm_provider_error"
	codeInternalError    = "internal_error"
	codeUnauthorized     = "unauthorized"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type resolveRequest struct {
	Title       string   `json:"title"`
	ProductType string   `json:"product_type,omitempty"`
	Vendor      string   `json:"vendor,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (r resolveRequest) product() domain.Product {
	return domain.Product{
		Title:       r.Title,
		Type:        r.ProductType,
		Vendor:      r.Vendor,
		Description: r.Description,
		Tags:        r.Tags,
	}
}

type batchResolveRequest struct {
	Products []resolveRequest `json:"products"`
}

type batchResolveResponse struct {
	Results []domain.Result `json:"results"`
}

type createRuleRequest struct {
	ProductType  string  `json:"product_type"`
	CategoryCode string  `json:"category_code"`
	Confidence   float64 `json:"confidence"`
}

type updateRuleRequest struct {
	CategoryCode string  `json:"category_code"`
	Confidence   float64 `json:"confidence"`
}

type toggleRuleRequest struct {
	Active bool `json:"active"`
}

type ruleResponse struct {
	ProductType  string    `json:"product_type"`
	CategoryCode string    `json:"category_code"`
	CategoryPath string    `json:"category_path"`
	Confidence   float64   `json:"confidence"`
	UseCount     int64     `json:"use_count"`
	CreatedBy    string    `json:"created_by"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ruleToResponse(r domain.TypeRule) ruleResponse {
	return ruleResponse{
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

type ruleListResponse struct {
	Items []ruleResponse `json:"items"`
}

type proposalListResponse struct {
	Items []domain.RuleProposal `json:"items"`
}

type acceptProposalRequest struct {
	ProductType   string  `json:"product_type"`
	CategoryCode  string  `json:"category_code"`
	AvgConfidence float64 `json:"avg_confidence"`
	Force         bool    `json:"force"`
}

type correctCacheRequest struct {
	CategoryCode string  `json:"category_code"`
	Confidence   float64 `json:"confidence,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
