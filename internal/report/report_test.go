package report

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mercascan/mercascan/internal/domain"
)

func foundAnalysis(name string, score float64) domain.Analysis {
	price := decimal.NewFromInt(100)
	return domain.Analysis{
		ProductName:         name,
		InitialPrice:        &price,
		Found:               true,
		PriceAnalysis:       domain.AxisAnalysis{Score: 8, Metric: 120.5, Details: "boa margem"},
		CompetitionAnalysis: domain.AxisAnalysis{Score: 6, Metric: 45, Details: "concorrência moderada"},
		DemandAnalysis:      domain.AxisAnalysis{Score: 10, Metric: 1500, Details: "demanda alta"},
		MarginPercent:       35.5,
		OverallScore:        score,
		Recommendation:      domain.RecommendationForScore(score),
		ImprovementSuggestions: []string{
			"Pesquise os concorrentes",
			"Melhore as fotos do anúncio",
		},
	}
}

func TestSeverityForScore(t *testing.T) {
	assert.Equal(t, SeverityGood, SeverityForScore(7))
	assert.Equal(t, SeverityWarn, SeverityForScore(5.5))
	assert.Equal(t, SeverityBad, SeverityForScore(3))
	assert.Equal(t, SeverityCritical, SeverityForScore(2.9))
}

func TestBuildProductReport(t *testing.T) {
	analyses := []domain.Analysis{
		foundAnalysis("Mesa de Escritório", 8.2),
		foundAnalysis("Cadeira Presidente", 4.1),
		{ProductName: "Produto Fantasma", Found: false, Recommendation: domain.NotRecommended},
	}

	doc := BuildProductReport(analyses)
	require.Len(t, doc.Tables, 3)

	products := doc.Tables[0]
	assert.Equal(t, "Análise de Produtos", products.Sheet)
	assert.Equal(t, productColumns, products.Columns)
	require.Len(t, products.Rows, 3)

	first := products.Rows[0]
	require.Len(t, first.Cells, len(productColumns))
	assert.Equal(t, "Mesa de Escritório", first.Cells[0])
	assert.Equal(t, 100.0, first.Cells[1])
	assert.Equal(t, 120.5, first.Cells[2])
	assert.Equal(t, string(domain.HighlyRecommended), first.Cells[10])
	assert.Equal(t, SeverityGood, first.Severity)

	ghost := products.Rows[2]
	assert.Equal(t, "N/A", ghost.Cells[1])
	assert.Equal(t, 0.0, ghost.Cells[2])
	assert.Equal(t, "Não encontrado", ghost.Cells[10])
	assert.Equal(t, SeverityCritical, ghost.Severity)

	summary := doc.Tables[1]
	assert.Equal(t, "Resumo", summary.Sheet)
	assert.Equal(t, []any{"Total de Produtos Analisados", 3}, summary.Rows[0].Cells)
	assert.Equal(t, []any{"Produtos Encontrados no ML", 2}, summary.Rows[1].Cells)
	assert.Equal(t, []any{"Produtos Não Encontrados", 1}, summary.Rows[2].Cells)

	top := doc.Tables[2]
	require.Len(t, top.Rows, 2)
	assert.Equal(t, "Mesa de Escritório", top.Rows[0].Cells[1])
	assert.Equal(t, "Cadeira Presidente", top.Rows[1].Cells[1])
}

func TestBuildKitReport(t *testing.T) {
	doc := BuildKitReport([]domain.Kit{{
		Name:           "Kit Escritório Completo",
		TargetAudience: "Profissionais",
		Products:       []string{"Mesa", "Cadeira", "Luminária"},
		TotalPrice:     decimal.NewFromInt(900),
		KitPrice:       decimal.NewFromInt(810),
		Discount:       10,
		AverageScore:   7.5,
		Reasoning:      "Produtos complementares",
	}})

	require.Len(t, doc.Tables, 1)
	table := doc.Tables[0]
	assert.Equal(t, "Recomendações de Kits", table.Sheet)
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	assert.Equal(t, "Kit Escritório Completo", row.Cells[0])
	assert.Equal(t, "\n• Mesa\n• Cadeira\n• Luminária", row.Cells[2])
	assert.Equal(t, 900.0, row.Cells[3])
	assert.Equal(t, SeverityGood, row.Severity)
}

func TestExcelSink_WriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analise.xlsx")
	doc := BuildProductReport([]domain.Analysis{foundAnalysis("Mesa de Escritório", 8.2)})

	sink := NewExcelSink(zerolog.Nop())
	require.NoError(t, sink.Write(doc, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Análise de Produtos", "Resumo", "Top Produtos"}, f.GetSheetList())

	header, err := f.GetCellValue("Análise de Produtos", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Produto", header)

	name, err := f.GetCellValue("Análise de Produtos", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Mesa de Escritório", name)
}

func TestCSVSink_WritesPrimaryTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analise.csv")
	doc := BuildProductReport([]domain.Analysis{foundAnalysis("Mesa de Escritório", 8.2)})

	sink := NewCSVSink(zerolog.Nop())
	require.NoError(t, sink.Write(doc, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Produto,Preço Inicial (PDF)")
	assert.Contains(t, string(content), "Mesa de Escritório")
}

type failingSink struct{}

func (failingSink) Write(Document, string) error {
	return fmt.Errorf("disk on fire")
}

func TestExporter_FallsBackToCSV(t *testing.T) {
	dir := t.TempDir()
	e := &Exporter{excel: failingSink{}, csv: NewCSVSink(zerolog.Nop()), log: zerolog.Nop()}

	doc := BuildProductReport([]domain.Analysis{foundAnalysis("Mesa de Escritório", 8.2)})
	path, err := e.Export(doc, filepath.Join(dir, "analise.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "analise.csv"), path)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestExporter_BothSinksFail(t *testing.T) {
	e := &Exporter{excel: failingSink{}, csv: failingSink{}, log: zerolog.Nop()}
	_, err := e.Export(Document{Tables: []Table{{Sheet: "x"}}}, "out.xlsx")
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindExport, domain.KindOf(err))
}
