// Package report renders analysis results into spreadsheet files. Builders
// translate domain values into ordered tables; sinks write tables to disk.
// The Excel sink is the primary output, with a CSV fallback when writing
// the workbook fails.
package report

// Severity drives the row fill color in the rendered spreadsheet. The zero
// value leaves the row unfilled.
type Severity string

const (
	SeverityNone     Severity = ""
	SeverityGood     Severity = "good"
	SeverityWarn     Severity = "warn"
	SeverityBad      Severity = "bad"
	SeverityCritical Severity = "critical"
)

// SeverityForScore maps an overall score to a row severity using the same
// 7/5/3 cuts that drive recommendations.
func SeverityForScore(score float64) Severity {
	switch {
	case score >= 7:
		return SeverityGood
	case score >= 5:
		return SeverityWarn
	case score >= 3:
		return SeverityBad
	default:
		return SeverityCritical
	}
}

// Row is one rendered line: cell values aligned with the table's columns.
type Row struct {
	Cells    []any
	Severity Severity
}

// Table is a single sheet worth of rows.
type Table struct {
	Sheet   string
	Columns []string
	Rows    []Row
}

// Document is an ordered set of tables. The first table is the primary
// one; the CSV fallback writes only that.
type Document struct {
	Tables []Table
}

// Sink writes a document to a file.
type Sink interface {
	Write(doc Document, path string) error
}
