package selection

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopfeed/categorizer/internal/domain"
)

// Degraded-parse confidences. A selection whose confidence the agent did
// not state is usable but not trustworthy; a selection whose confidence
// was malformed is trusted even less.
const (
	missingConfidence   = 0.6
	malformedConfidence = 0.5
)

var pathFieldRe = regexp.MustCompile(`"path"\s*:\s*"((?:[^"\\]|\\.)*)"`)

// parseSelection decodes agent output in tiers: well-formed JSON first,
// then JSON with a missing or malformed confidence, then a regex grab of
// the path field out of otherwise broken output.
func parseSelection(raw string) (domain.Selection, bool) {
	cleaned := stripFences(raw)

	var loose struct {
		Path       string          `json:"path"`
		Confidence json.RawMessage `json:"confidence"`
		Rationale  string          `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(cleaned), &loose); err == nil && loose.Path != "" {
		return domain.Selection{
			Path:       loose.Path,
			Confidence: parseConfidence(loose.Confidence),
			Rationale:  loose.Rationale,
		}, true
	}

	// Broken JSON, but a path field may still be recoverable.
	if m := pathFieldRe.FindStringSubmatch(cleaned); m != nil {
		var path string
		if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &path); err != nil || path == "" {
			return domain.Selection{}, false
		}
		return domain.Selection{
			Path:       path,
			Confidence: missingConfidence,
			Rationale:  "recovered from malformed agent output",
		}, true
	}

	return domain.Selection{}, false
}

// parseConfidence interprets the raw confidence field. Missing maps to the
// missing default, anything non-numeric or out of range to the malformed
// default.
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return missingConfidence
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		// Tolerate a quoted number.
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return malformedConfidence
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return malformedConfidence
		}
		f = parsed
	}

	if f < 0 || f > 1 {
		return malformedConfidence
	}
	return f
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
