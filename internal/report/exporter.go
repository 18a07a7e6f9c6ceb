package report

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/mercascan/mercascan/internal/domain"
)

// Exporter writes a document through the Excel sink and degrades to CSV
// when that fails. Only when both sinks fail does the caller see an error.
type Exporter struct {
	excel Sink
	csv   Sink
	log   zerolog.Logger
}

func NewExporter(log zerolog.Logger) *Exporter {
	return &Exporter{
		excel: NewExcelSink(log),
		csv:   NewCSVSink(log),
		log:   log.With().Str("component", "report").Logger(),
	}
}

// Export writes doc to path and returns the path actually written, which
// differs from the requested one when the CSV fallback kicked in.
func (e *Exporter) Export(doc Document, path string) (string, error) {
	excelErr := e.excel.Write(doc, path)
	if excelErr == nil {
		return path, nil
	}
	e.log.Warn().Err(excelErr).Str("path", path).Msg("workbook export failed, falling back to CSV")

	csvPath := strings.TrimSuffix(path, ".xlsx") + ".csv"
	if err := e.csv.Write(doc, csvPath); err != nil {
		return "", domain.ExportError("both Excel and CSV export failed", excelErr)
	}
	return csvPath, nil
}
