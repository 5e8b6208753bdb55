package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Product is the input to a categorization request. Title is the only
// required field; the rest sharpen the result when present.
type Product struct {
	Title       string   `json:"title"`
	Type        string   `json:"product_type,omitempty"`
	Vendor      string   `json:"vendor,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// NormalizeType canonicalizes a merchant product type for rule lookup:
// diacritics folded, uppercased, interior whitespace collapsed.
// "Linge de Lit " and "LINGE DE LIT" normalize to the same key.
func NormalizeType(s string) string {
	return strings.ToUpper(collapseSpaces(Fold(s)))
}

// Fold strips diacritic marks so that accented and unaccented spellings
// compare equal ("Décoration" -> "Decoration").
func Fold(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
