package domain

import "strings"

// ProductDefinition is the product agent's structured understanding of a
// product, fed to retrieval and selection.
type ProductDefinition struct {
	Definition  string   `json:"definition"`
	Keywords    []string `json:"keywords"`
	ProductKind string   `json:"product_kind,omitempty"`
}

// DefinitionFromTitle builds a degraded definition straight from the raw
// product fields. Used when the product agent output cannot be parsed.
func DefinitionFromTitle(p Product) ProductDefinition {
	keywords := strings.Fields(Fold(strings.ToLower(p.Title)))
	if p.Type != "" {
		keywords = append(keywords, strings.Fields(Fold(strings.ToLower(p.Type)))...)
	}
	return ProductDefinition{
		Definition: p.Title,
		Keywords:   keywords,
	}
}
