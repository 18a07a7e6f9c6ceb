package extract

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/mercascan/mercascan/internal/domain"
)

// Extractor runs an ordered list of strategies over document text and merges
// their findings. Adding a fifth strategy is appending to the list.
type Extractor struct {
	strategies []Strategy
	log        zerolog.Logger
}

// New creates an extractor with the four default strategies.
func New(log zerolog.Logger) *Extractor {
	return &Extractor{
		strategies: []Strategy{
			&headerStrategy{fallback: &keywordStrategy{}},
			&keywordStrategy{},
			&linePatternStrategy{},
			&pricePatternStrategy{},
		},
		log: log,
	}
}

// Extract scans the joined page text with every strategy and returns the
// deduplicated product list. A strategy that finds nothing is not an error;
// an empty document yields an empty list.
func (e *Extractor) Extract(pages []string) []domain.ProductRecord {
	text := strings.Join(pages, "\n\n")

	var all []domain.ProductRecord
	for _, s := range e.strategies {
		found := s.Extract(text)
		e.log.Debug().
			Str("strategy", s.Name()).
			Int("records", len(found)).
			Msg("strategy pass complete")
		all = append(all, found...)
	}

	unique := Dedupe(all)
	e.log.Info().
		Int("candidates", len(all)).
		Int("unique", len(unique)).
		Msg("product extraction complete")
	return unique
}

// Dedupe merges candidate records by normalized description, preserving the
// order of first occurrence. A code-bearing record replaces a previously kept
// code-less duplicate in place.
func Dedupe(records []domain.ProductRecord) []domain.ProductRecord {
	kept := make([]domain.ProductRecord, 0, len(records))
	index := make(map[string]int, len(records))

	for _, rec := range records {
		key := rec.NormalizedDescription()
		if key == "" {
			continue
		}
		at, seen := index[key]
		if !seen {
			index[key] = len(kept)
			kept = append(kept, rec)
			continue
		}
		if kept[at].Code == "" && rec.Code != "" {
			kept[at] = rec
		}
	}
	return kept
}
