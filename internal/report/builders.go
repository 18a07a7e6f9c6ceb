package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mercascan/mercascan/internal/domain"
)

const notAvailable = "N/A"

var productColumns = []string{
	"Produto",
	"Preço Inicial (PDF)",
	"Preço Médio (ML)",
	"Margem (%)",
	"Análise de Preço",
	"Vendedores de Alto Nível (%)",
	"Análise de Concorrência",
	"Vendas Médias",
	"Análise de Demanda",
	"Pontuação Geral",
	"Recomendação",
	"Sugestões",
}

var kitColumns = []string{
	"Nome do Kit",
	"Público-alvo",
	"Produtos",
	"Preço Total Individual",
	"Preço do Kit",
	"Desconto (%)",
	"Pontuação Média",
	"Justificativa",
}

// BuildProductReport renders analyses into the product workbook: the
// detailed sheet first, then a summary sheet and a top-10 ranking.
// Products without market data keep their row, zero-filled, so the report
// always covers the whole input document.
func BuildProductReport(analyses []domain.Analysis) Document {
	rows := make([]Row, 0, len(analyses))
	for _, a := range analyses {
		rows = append(rows, productRow(a))
	}

	doc := Document{Tables: []Table{{
		Sheet:   "Análise de Produtos",
		Columns: productColumns,
		Rows:    rows,
	}}}
	doc.Tables = append(doc.Tables, summaryTable(analyses), topProductsTable(analyses))
	return doc
}

func productRow(a domain.Analysis) Row {
	initial := any(notAvailable)
	if a.InitialPrice != nil {
		initial = a.InitialPrice.InexactFloat64()
	}

	if !a.Found {
		return Row{
			Cells: []any{
				a.ProductName, initial, 0.0, 0.0, notAvailable, 0.0,
				notAvailable, 0.0, notAvailable, 0.0, "Não encontrado", notAvailable,
			},
			Severity: SeverityCritical,
		}
	}

	return Row{
		Cells: []any{
			a.ProductName,
			initial,
			a.PriceAnalysis.Metric,
			a.MarginPercent,
			a.PriceAnalysis.Details,
			a.CompetitionAnalysis.Metric,
			a.CompetitionAnalysis.Details,
			a.DemandAnalysis.Metric,
			a.DemandAnalysis.Details,
			a.OverallScore,
			string(a.Recommendation),
			formatList(a.ImprovementSuggestions),
		},
		Severity: SeverityForScore(a.OverallScore),
	}
}

func summaryTable(analyses []domain.Analysis) Table {
	var found int
	var priceSum, marginSum, scoreSum float64
	counts := make(map[domain.Recommendation]int)

	for _, a := range analyses {
		if !a.Found {
			continue
		}
		found++
		priceSum += a.PriceAnalysis.Metric
		marginSum += a.MarginPercent
		scoreSum += a.OverallScore
		counts[a.Recommendation]++
	}

	rows := []Row{
		{Cells: []any{"Total de Produtos Analisados", len(analyses)}},
		{Cells: []any{"Produtos Encontrados no ML", found}},
		{Cells: []any{"Produtos Não Encontrados", len(analyses) - found}},
	}
	if found > 0 {
		n := float64(found)
		rows = append(rows,
			Row{Cells: []any{"Preço Médio (R$)", priceSum / n}},
			Row{Cells: []any{"Margem Média (%)", marginSum / n}},
			Row{Cells: []any{"Pontuação Média", scoreSum / n}},
		)
	}
	for _, rec := range []domain.Recommendation{
		domain.HighlyRecommended, domain.Recommended, domain.Neutral, domain.NotRecommended,
	} {
		if counts[rec] > 0 {
			rows = append(rows, Row{Cells: []any{fmt.Sprintf("Produtos %s", rec), counts[rec]}})
		}
	}

	return Table{Sheet: "Resumo", Columns: []string{"Métrica", "Valor"}, Rows: rows}
}

func topProductsTable(analyses []domain.Analysis) Table {
	ranked := make([]domain.Analysis, 0, len(analyses))
	for _, a := range analyses {
		if a.Found {
			ranked = append(ranked, a)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OverallScore > ranked[j].OverallScore
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	rows := make([]Row, 0, len(ranked))
	for i, a := range ranked {
		rows = append(rows, Row{
			Cells: []any{
				i + 1,
				a.ProductName,
				a.OverallScore,
				a.PriceAnalysis.Metric,
				a.MarginPercent,
				a.DemandAnalysis.Metric,
				string(a.Recommendation),
			},
			Severity: SeverityForScore(a.OverallScore),
		})
	}

	return Table{
		Sheet:   "Top Produtos",
		Columns: []string{"Ranking", "Produto", "Pontuação", "Preço Médio", "Margem", "Vendas", "Recomendação"},
		Rows:    rows,
	}
}

// BuildKitReport renders kit recommendations into a single-sheet document.
func BuildKitReport(kits []domain.Kit) Document {
	rows := make([]Row, 0, len(kits))
	for _, kit := range kits {
		rows = append(rows, Row{
			Cells: []any{
				kit.Name,
				kit.TargetAudience,
				formatList(kit.Products),
				decimalCell(kit.TotalPrice),
				decimalCell(kit.KitPrice),
				kit.Discount,
				kit.AverageScore,
				kit.Reasoning,
			},
			Severity: SeverityForScore(kit.AverageScore),
		})
	}

	return Document{Tables: []Table{{
		Sheet:   "Recomendações de Kits",
		Columns: kitColumns,
		Rows:    rows,
	}}}
}

// formatList renders a string list as a bulleted block inside one cell.
func formatList(items []string) string {
	if len(items) == 0 {
		return notAvailable
	}
	return "\n• " + strings.Join(items, "\n• ")
}

func decimalCell(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
