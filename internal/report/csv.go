package report

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/mercascan/mercascan/internal/domain"
)

// CSVSink writes the primary table as a plain CSV file. It is the degraded
// fallback when the workbook cannot be written; summary sheets are dropped.
type CSVSink struct {
	log zerolog.Logger
}

func NewCSVSink(log zerolog.Logger) *CSVSink {
	return &CSVSink{log: log.With().Str("component", "report").Logger()}
}

func (s *CSVSink) Write(doc Document, path string) error {
	if len(doc.Tables) == 0 {
		return domain.InputError("nothing to export", nil)
	}
	table := doc.Tables[0]

	file, err := os.Create(path)
	if err != nil {
		return domain.ExportError(fmt.Sprintf("creating %s", path), err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(table.Columns); err != nil {
		return domain.ExportError("writing CSV header", err)
	}
	for _, row := range table.Rows {
		record := make([]string, 0, len(row.Cells))
		for _, value := range row.Cells {
			record = append(record, fmt.Sprint(value))
		}
		if err := w.Write(record); err != nil {
			return domain.ExportError("writing CSV row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return domain.ExportError("flushing CSV", err)
	}

	s.log.Info().Str("path", path).Int("rows", len(table.Rows)).Msg("CSV written")
	return nil
}
