// Package extract turns raw catalog page text into product records. Four
// independent line-scanning strategies run over the full text; their outputs
// are merged and deduplicated by normalized description.
package extract

import (
	"regexp"
	"strings"
)

// Vocabulary found in page furniture: table headers, footers, issuer data.
// Matched as substrings against short lines only, since a real product
// description is long enough to survive the length gate.
var noiseTerms = []string{
	"unid", "valor", "quantidade", "qtde", "total", "subtotal",
	"página", "page", "item", "código", "pedido", "emissão",
	"cnpj", "cpf", "telefone", "email", "www", "http", "endereço",
}

// Additional furniture vocabulary only the strict classifier checks.
var strictNoiseTerms = []string{
	"data", "orçamento", "cotação", "nota fiscal", "nf-e", "nfe",
	"cliente", "fornecedor", "contato", "frete", "entrega", "prazo",
	"preço", "valor unit", "catálogo", "referência", "ref",
}

// Positional patterns anchored at line start, strict classifier only.
var strictNoisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^página\s+\d+\s+de\s+\d+$`),
	regexp.MustCompile(`^pedido\s+n[º°]?\s*\d+`),
	regexp.MustCompile(`^emissão:\s+\d{2}/\d{2}/\d{4}`),
	regexp.MustCompile(`^data:`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}\s+\d{2}:\d{2}`),
	regexp.MustCompile(`^nome:`),
	regexp.MustCompile(`^fone:`),
	regexp.MustCompile(`^produto\s+descrição\s+valor`),
	regexp.MustCompile(`^cod\.?\s+produto`),
	regexp.MustCompile(`^nenhum registro encontrado`),
	regexp.MustCompile(`^-+$`),
}

// shortLineLimit is the length under which the keyword check applies; longer
// lines are assumed to be substantive regardless of vocabulary.
const shortLineLimit = 25

// IsNoise reports whether a line is page furniture rather than product data.
// Pure function of the text: same line, same verdict.
func IsNoise(line string) bool {
	if line == "" {
		return true
	}
	if len(line) >= shortLineLimit {
		return false
	}
	lower := strings.ToLower(line)
	for _, term := range noiseTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// IsNoiseStrict is the improved classifier: a strict superset of IsNoise.
// Every line IsNoise flags, IsNoiseStrict flags too; it additionally matches
// a wider vocabulary and positional patterns anchored at line start.
func IsNoiseStrict(line string) bool {
	if IsNoise(line) {
		return true
	}
	lower := strings.ToLower(line)
	if len(line) < shortLineLimit {
		for _, term := range strictNoiseTerms {
			if strings.Contains(lower, term) {
				return true
			}
		}
	}
	for _, pat := range strictNoisePatterns {
		if pat.MatchString(lower) {
			return true
		}
	}
	return false
}
