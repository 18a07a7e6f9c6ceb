package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mercascan/mercascan/internal/domain"
)

var (
	// Code token, description, optional trailing quantity and price.
	codeDescLine = regexp.MustCompile(`^([A-Z0-9]{2,12}-?[A-Z0-9]{1,8})\s+(.*?)(?:\s+\d+\s+[\d.,]+|\s*$)`)

	// Bare code token as a whole field.
	codeToken = regexp.MustCompile(`^[A-Z0-9]{2,12}-?[A-Z0-9]{1,8}$`)

	// Leading code token with its trailing separator, for stripping.
	leadingCode = regexp.MustCompile(`^([A-Z0-9]{2,15}[-/]?[A-Z0-9]{0,10})\s+`)

	// First decimal number anywhere in the line, locale comma or dot.
	anyPrice = regexp.MustCompile(`(\d+[,.]\d+)`)

	// Runs of two or more spaces, or tabs, splitting columnar lines.
	columnSplit = regexp.MustCompile(`\s{2,}|\t`)
)

const (
	minDescriptionLen = 5
	minBareLineLen    = 10
)

// ParsePrice normalizes a Brazilian-locale numeric string (thousands dots,
// decimal comma) and parses it. Returns nil on anything non-numeric; parsing
// never fails loudly.
func ParsePrice(raw string) *decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// ParseProductLine extracts a product record from one line of catalog text.
// Three attempts, in order: the columnar code+description+qty+price shape,
// a two-column split on wide whitespace, and finally the whole line as a
// bare description. Returns nil when the line yields nothing usable.
func ParseProductLine(line string) *domain.ProductRecord {
	if m := codeDescLine.FindStringSubmatch(line); m != nil {
		code := strings.TrimSpace(m[1])
		desc := strings.TrimSpace(m[2])

		var price *decimal.Decimal
		if pm := anyPrice.FindStringSubmatch(line); pm != nil {
			price = ParsePrice(pm[1])
		}

		if len(desc) >= minDescriptionLen && !IsNoise(desc) {
			return &domain.ProductRecord{Code: code, Description: desc, Price: price}
		}
	}

	parts := columnSplit.Split(line, -1)
	if len(parts) >= 2 && codeToken.MatchString(parts[0]) {
		desc := strings.TrimSpace(parts[1])
		if len(desc) >= minDescriptionLen && !IsNoise(desc) {
			return &domain.ProductRecord{Code: parts[0], Description: desc}
		}
	}

	if len(line) >= minBareLineLen && !IsNoise(line) {
		return &domain.ProductRecord{Description: line}
	}

	return nil
}
