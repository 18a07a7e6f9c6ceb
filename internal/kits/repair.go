package kits

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// rawKit is the wire shape of one kit in a model response. Pointer fields
// distinguish "absent" from a literal zero so the composer knows what to
// recompute.
type rawKit struct {
	Name             string    `json:"kit_name"`
	TargetAudience   string    `json:"target_audience"`
	Products         []int     `json:"products"`
	IndividualPrices []float64 `json:"individual_prices"`
	TotalPrice       *float64  `json:"total_price"`
	KitPrice         *float64  `json:"kit_price"`
	Discount         *float64  `json:"discount"`
	AverageScore     *float64  `json:"average_score"`
	Reasoning        string    `json:"reasoning"`
	MarketingPitch   string    `json:"marketing_pitch"`
}

var (
	numericKeyPattern = regexp.MustCompile(`(\s*})(\s*,?\s*)([\d]+)(\s*):`)
	nanPattern        = regexp.MustCompile(`\bNaN\b`)
	undefinedPattern  = regexp.MustCompile(`\bundefined\b`)
	arrayPattern      = regexp.MustCompile(`(?s)\[\s*\{(.+?)\}\s*\]`)
)

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

// fixQuotes swaps single quotes for double quotes. Models that emit
// Python-style literals produce otherwise-valid JSON this way.
func fixQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `"`)
}

// quoteNumericKeys wraps bare numeric object keys in quotes.
func quoteNumericKeys(s string) string {
	return numericKeyPattern.ReplaceAllString(s, `$1$2"$3"$4:`)
}

// nullifyTokens replaces NaN and undefined literals with null.
func nullifyTokens(s string) string {
	s = nanPattern.ReplaceAllString(s, "null")
	return undefinedPattern.ReplaceAllString(s, "null")
}

// extractArray pulls the first JSON object array out of surrounding prose.
// Last resort when the cleaned text still fails strict parsing.
func extractArray(s string) (string, bool) {
	m := arrayPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return "[{" + m[1] + "}]", true
}

// repairAndDecode runs the normalization stages in order and decodes the
// result. Stages are ordered from cheap to desperate: fence strip, quote
// fix, numeric-key quoting, NaN/undefined to null, strict parse, and only
// then the regex array extraction.
func repairAndDecode(response string) ([]rawKit, error) {
	cleaned := stripFences(response)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}
	cleaned = fixQuotes(cleaned)
	cleaned = quoteNumericKeys(cleaned)
	cleaned = nullifyTokens(cleaned)

	var kits []rawKit
	if err := json.Unmarshal([]byte(cleaned), &kits); err != nil {
		extracted, ok := extractArray(cleaned)
		if !ok {
			return nil, fmt.Errorf("no kit array in response: %w", err)
		}
		if err := json.Unmarshal([]byte(extracted), &kits); err != nil {
			return nil, fmt.Errorf("extracted array is not valid JSON: %w", err)
		}
	}
	return kits, nil
}
