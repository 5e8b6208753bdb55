package define

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shopfeed/categorizer/internal/domain"
	"github.com/shopfeed/categorizer/internal/logger"
)

const agentName = "product"

// Service is the product agent: it turns raw product fields into a
// structured definition with retrieval keywords.
type Service struct {
	llm Completer
}

// New creates a definition service.
func New(llm Completer) *Service {
	return &Service{llm: llm}
}

// Define builds a product definition. It never fails: on backend errors or
// unparseable output it degrades to a definition derived from the raw title.
func (s *Service) Define(ctx context.Context, p domain.Product) domain.ProductDefinition {
	log := logger.FromContext(ctx)

	raw, err := s.llm.Complete(ctx, agentName, buildPrompt(p))
	if err != nil {
		log.Warn("product agent failed, falling back to title keywords",
			zap.String("title", p.Title), zap.Error(err))
		return domain.DefinitionFromTitle(p)
	}

	def, ok := parseDefinition(raw)
	if !ok {
		log.Warn("product agent output unparseable, falling back to title keywords",
			zap.String("title", p.Title))
		return domain.DefinitionFromTitle(p)
	}
	return def
}

func buildPrompt(p domain.Product) string {
	var b strings.Builder
	b.WriteString("You are a product analyst. Describe what the product below actually is, ")
	b.WriteString("in one or two sentences, and list search keywords for finding its category ")
	b.WriteString("in a retail taxonomy.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	if p.Type != "" {
		fmt.Fprintf(&b, "Merchant type: %s\n", p.Type)
	}
	if p.Vendor != "" {
		fmt.Fprintf(&b, "Vendor: %s\n", p.Vendor)
	}
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(p.Tags, ", "))
	}
	b.WriteString("\nAnswer with JSON only:\n")
	b.WriteString(`{"definition": "...", "keywords": ["...", "..."], "product_kind": "..."}`)
	return b.String()
}

// parseDefinition decodes the agent output, tolerating markdown code fences.
func parseDefinition(raw string) (domain.ProductDefinition, bool) {
	var def domain.ProductDefinition
	if err := json.Unmarshal([]byte(stripFences(raw)), &def); err != nil {
		return domain.ProductDefinition{}, false
	}
	if def.Definition == "" && len(def.Keywords) == 0 {
		return domain.ProductDefinition{}, false
	}
	return def, true
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
