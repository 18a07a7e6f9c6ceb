package report

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/mercascan/mercascan/internal/domain"
)

// Fill colors, one per severity plus the header band.
const (
	headerColor   = "4F81BD"
	goodColor     = "C6EFCE"
	warnColor     = "FFEB9C"
	badColor      = "FFC7CE"
	criticalColor = "FF9999"
)

// ExcelSink writes a document as a styled .xlsx workbook: one sheet per
// table, colored header row, severity-colored data rows and auto-sized
// columns.
type ExcelSink struct {
	log zerolog.Logger
}

func NewExcelSink(log zerolog.Logger) *ExcelSink {
	return &ExcelSink{log: log.With().Str("component", "report").Logger()}
}

func (s *ExcelSink) Write(doc Document, path string) error {
	if len(doc.Tables) == 0 {
		return domain.InputError("nothing to export", nil)
	}

	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyleSet(f)
	if err != nil {
		return domain.ExportError("building cell styles", err)
	}

	for i, table := range doc.Tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", table.Sheet); err != nil {
				return domain.ExportError("renaming sheet", err)
			}
		} else if _, err := f.NewSheet(table.Sheet); err != nil {
			return domain.ExportError("adding sheet", err)
		}
		if err := s.writeTable(f, table, styles); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return domain.ExportError(fmt.Sprintf("saving workbook to %s", path), err)
	}
	s.log.Info().Str("path", path).Int("sheets", len(doc.Tables)).Msg("workbook written")
	return nil
}

func (s *ExcelSink) writeTable(f *excelize.File, table Table, styles styleSet) error {
	widths := make([]int, len(table.Columns))

	for col, name := range table.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return domain.ExportError("computing cell name", err)
		}
		if err := f.SetCellValue(table.Sheet, cell, name); err != nil {
			return domain.ExportError("writing header", err)
		}
		widths[col] = len([]rune(name))
	}
	if len(table.Columns) > 0 {
		first, _ := excelize.CoordinatesToCellName(1, 1)
		last, _ := excelize.CoordinatesToCellName(len(table.Columns), 1)
		if err := f.SetCellStyle(table.Sheet, first, last, styles.header); err != nil {
			return domain.ExportError("styling header", err)
		}
	}

	for r, row := range table.Rows {
		for c, value := range row.Cells {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return domain.ExportError("computing cell name", err)
			}
			if err := f.SetCellValue(table.Sheet, cell, value); err != nil {
				return domain.ExportError("writing cell", err)
			}
			if c < len(widths) {
				if w := cellWidth(value); w > widths[c] {
					widths[c] = w
				}
			}
		}
		if style, ok := styles.bySeverity[row.Severity]; ok && len(row.Cells) > 0 {
			first, _ := excelize.CoordinatesToCellName(1, r+2)
			last, _ := excelize.CoordinatesToCellName(len(table.Columns), r+2)
			if err := f.SetCellStyle(table.Sheet, first, last, style); err != nil {
				return domain.ExportError("styling row", err)
			}
		}
	}

	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return domain.ExportError("computing column name", err)
		}
		if err := f.SetColWidth(table.Sheet, name, name, float64(width+2)); err != nil {
			return domain.ExportError("sizing column", err)
		}
	}
	return nil
}

// cellWidth approximates the rendered width of a value: the longest line
// of its string form.
func cellWidth(value any) int {
	var widest, current int
	for _, r := range fmt.Sprint(value) {
		if r == '\n' {
			current = 0
			continue
		}
		current++
		if current > widest {
			widest = current
		}
	}
	return widest
}

type styleSet struct {
	header     int
	bySeverity map[Severity]int
}

func newStyleSet(f *excelize.File) (styleSet, error) {
	header, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
	})
	if err != nil {
		return styleSet{}, err
	}

	set := styleSet{header: header, bySeverity: make(map[Severity]int, 4)}
	for severity, color := range map[Severity]string{
		SeverityGood:     goodColor,
		SeverityWarn:     warnColor,
		SeverityBad:      badColor,
		SeverityCritical: criticalColor,
	} {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return styleSet{}, err
		}
		set.bySeverity[severity] = style
	}
	return set, nil
}
