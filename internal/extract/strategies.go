package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mercascan/mercascan/internal/domain"
)

// Strategy scans full document text and produces candidate product records.
// All strategies run unconditionally; a single deduplication pass merges
// their outputs.
type Strategy interface {
	Name() string
	Extract(text string) []domain.ProductRecord
}

// ---- header-anchored strategy ----

var tableHeaderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Img|Image).*(?:Item|Código).*Descrição`),
	regexp.MustCompile(`(?i)Descrição.*(?:Qtde|Quantidade).*Valor`),
	regexp.MustCompile(`(?i)Código.*Produto.*Descrição`),
}

var pageFurniturePrefix = regexp.MustCompile(`^(?:Página|Total|Subtotal|Emissão|Pedido)`)

// headerStrategy locates a product table by its column-header line and parses
// every subsequent line. Without a header it delegates entirely to the
// keyword strategy.
type headerStrategy struct {
	fallback Strategy
}

func (s *headerStrategy) Name() string { return "header" }

func (s *headerStrategy) Extract(text string) []domain.ProductRecord {
	lines := strings.Split(text, "\n")

	headerIdx := -1
	for i, line := range lines {
		for _, pat := range tableHeaderPatterns {
			if pat.MatchString(line) {
				if headerIdx == -1 || i < headerIdx {
					headerIdx = i
				}
			}
		}
	}

	if headerIdx == -1 {
		return s.fallback.Extract(text)
	}

	var records []domain.ProductRecord
	for _, raw := range lines[headerIdx+1:] {
		line := strings.TrimSpace(raw)
		if line == "" || len(line) < minDescriptionLen {
			continue
		}
		if pageFurniturePrefix.MatchString(line) {
			continue
		}
		if rec := ParseProductLine(line); rec != nil && rec.Description != "" {
			records = append(records, *rec)
		}
	}
	return records
}

// ---- keyword-anchored strategy ----

var (
	codeLeadLine     = regexp.MustCompile(`^[A-Z0-9]{2,12}-?[A-Z0-9]{1,8}\s+[A-Z0-9]`)
	furnitureKeyword = regexp.MustCompile(`(?i)\b(MESA|CADEIRA|ARMÁRIO|SOFÁ|CAMA|ESTANTE|GABINETE|KIT)\b`)
)

// keywordStrategy accepts lines that open with a code-like token or mention
// a furniture-domain keyword.
type keywordStrategy struct{}

func (s *keywordStrategy) Name() string { return "keyword" }

func (s *keywordStrategy) Extract(text string) []domain.ProductRecord {
	var records []domain.ProductRecord
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || len(line) < minBareLineLen {
			continue
		}
		switch {
		case codeLeadLine.MatchString(line):
			if rec := ParseProductLine(line); rec != nil {
				records = append(records, *rec)
			}
		case furnitureKeyword.MatchString(line):
			if !IsNoise(line) {
				records = append(records, domain.ProductRecord{Description: line})
			}
		}
	}
	return records
}

// ---- line-pattern strategy ----

var (
	linePatternCode  = regexp.MustCompile(`(?i)^([A-Z0-9]{2,15}[-/]?[A-Z0-9]{0,10})\s+(.*?)(?:\s+[\d.,]+)?$`)
	linePatternParen = regexp.MustCompile(`(?i)^(.*?)\s+\(([A-Z0-9]{2,15}[-/]?[A-Z0-9]{0,10})\)(?:\s+[\d.,]+)?$`)
	linePatternQty   = regexp.MustCompile(`(?i)^(.*?)\s+(\d+)\s+(?:UN|PC|KG|MT)?\s+([\d.,]+)$`)

	codePrefix    = regexp.MustCompile(`^[A-Z0-9]{2,15}`)
	trailingPrice = regexp.MustCompile(`R?\$?\s*([\d.,]+)(?:\s*(?:UN|PC|un|pc|cada))?$`)
)

var linePatternIgnoreTerms = []string{
	"página", "total", "subtotal", "descrição do produto", "código",
	"qtde", "emissão", "pedido", "valor", "preço",
}

// linePatternStrategy tries three ordered line templates, then falls back to
// stripping a trailing price and a leading code from any long enough line.
type linePatternStrategy struct{}

func (s *linePatternStrategy) Name() string { return "line-pattern" }

func (s *linePatternStrategy) Extract(text string) []domain.ProductRecord {
	var records []domain.ProductRecord

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || len(line) < minDescriptionLen {
			continue
		}
		if containsAny(strings.ToLower(line), linePatternIgnoreTerms) {
			continue
		}

		rec := s.matchTemplates(line)
		if rec == nil && len(line) > minBareLineLen {
			rec = s.fallbackParse(line)
		}

		if rec != nil && len(rec.Description) >= minDescriptionLen {
			records = append(records, *rec)
		}
	}
	return records
}

// matchTemplates applies the ordered regex templates, taking the first that
// yields a plausible record.
func (s *linePatternStrategy) matchTemplates(line string) *domain.ProductRecord {
	if m := linePatternCode.FindStringSubmatch(line); m != nil && codePrefix.MatchString(m[1]) {
		return &domain.ProductRecord{
			Code:        strings.TrimSpace(m[1]),
			Description: strings.TrimSpace(m[2]),
		}
	}
	if m := linePatternParen.FindStringSubmatch(line); m != nil && codePrefix.MatchString(m[2]) {
		return &domain.ProductRecord{
			Code:        strings.TrimSpace(m[2]),
			Description: strings.TrimSpace(m[1]),
		}
	}
	if m := linePatternQty.FindStringSubmatch(line); m != nil {
		if price := ParsePrice(m[3]); price != nil {
			return &domain.ProductRecord{
				Description: strings.TrimSpace(m[1]),
				Price:       price,
			}
		}
	}
	return nil
}

// fallbackParse keeps the remainder of a line after stripping a trailing
// price token and a leading code token, when what is left still reads like
// a description.
func (s *linePatternStrategy) fallbackParse(line string) *domain.ProductRecord {
	desc := line
	var price *decimal.Decimal

	if loc := trailingPrice.FindStringSubmatchIndex(line); loc != nil {
		if p := ParsePrice(line[loc[2]:loc[3]]); p != nil {
			price = p
			desc = strings.TrimSpace(line[:loc[0]])
		}
	}

	if len(desc) < minDescriptionLen || IsNoise(desc) {
		return nil
	}

	rec := &domain.ProductRecord{Description: desc, Price: price}
	if m := leadingCode.FindStringSubmatch(desc); m != nil {
		rec.Code = m[1]
		rec.Description = strings.TrimSpace(desc[len(m[0]):])
	}
	return rec
}

// ---- price-anchored strategy ----

var priceTemplates = []*regexp.Regexp{
	regexp.MustCompile(`(?i)R\$\s*([\d.,]+)`),
	regexp.MustCompile(`(?i)([\d.,]+)\s*reais`),
	regexp.MustCompile(`(?i)([\d.,]+)(?:\s*(?:UN|PC|un|pc|cada))?$`),
}

// pricePatternStrategy anchors on a price token (currency-prefixed,
// "reais"-suffixed, or bare decimal at line end) and treats the text before
// it as the description.
type pricePatternStrategy struct{}

func (s *pricePatternStrategy) Name() string { return "price-pattern" }

func (s *pricePatternStrategy) Extract(text string) []domain.ProductRecord {
	var records []domain.ProductRecord

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || len(line) < minBareLineLen {
			continue
		}

		for _, pat := range priceTemplates {
			loc := pat.FindStringSubmatchIndex(line)
			if loc == nil {
				continue
			}
			price := ParsePrice(line[loc[2]:loc[3]])
			if price == nil {
				break
			}

			desc := strings.TrimSpace(line[:loc[0]])
			rec := domain.ProductRecord{Description: desc, Price: price}
			if m := leadingCode.FindStringSubmatch(desc); m != nil {
				rec.Code = m[1]
				rec.Description = strings.TrimSpace(desc[len(m[0]):])
			}

			if len(rec.Description) >= minDescriptionLen && !IsNoise(rec.Description) {
				records = append(records, rec)
			}
			break
		}
	}
	return records
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
