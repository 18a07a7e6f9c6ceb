package extract

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercascan/mercascan/internal/domain"
)

func TestDedupe_CodePreference(t *testing.T) {
	merged := Dedupe([]domain.ProductRecord{
		{Description: "Mesa de Escritório 120cm"},
		{Code: "MSA-102", Description: "mesa de escritório 120CM"},
	})

	require.Len(t, merged, 1)
	assert.Equal(t, "MSA-102", merged[0].Code)
}

func TestDedupe_FirstOccurrenceOrderAndCode(t *testing.T) {
	merged := Dedupe([]domain.ProductRecord{
		{Code: "CAD01", Description: "Cadeira Presidente"},
		{Description: "Estante de Aço"},
		{Code: "CAD99", Description: "cadeira presidente"},
		{Code: "EST05", Description: "estante de aço"},
	})

	require.Len(t, merged, 2)
	// first code-bearing record wins; the later CAD99 does not displace it
	assert.Equal(t, "CAD01", merged[0].Code)
	assert.Equal(t, "EST05", merged[1].Code)
}

func TestDedupe_DropsEmptyDescriptions(t *testing.T) {
	merged := Dedupe([]domain.ProductRecord{
		{Code: "XYZ-1", Description: "   "},
		{Description: ""},
	})
	assert.Empty(t, merged)
}

func TestExtractor_HeaderedTable(t *testing.T) {
	page := "Pedido 4521\n" +
		"Código Produto Descrição Qtde Valor\n" +
		"MSA-102  Mesa de Escritório 120cm   2   350,00\n" +
		"CAD-771  Cadeira Presidente Couro   1   899,90\n" +
		"Página 1 de 1\n"

	e := New(zerolog.Nop())
	products := e.Extract([]string{page})

	require.GreaterOrEqual(t, len(products), 2)

	byCode := map[string]domain.ProductRecord{}
	for _, p := range products {
		byCode[p.Code] = p
	}
	mesa, ok := byCode["MSA-102"]
	require.True(t, ok)
	assert.Equal(t, "Mesa de Escritório 120cm", mesa.Description)
	require.NotNil(t, mesa.Price)
	assert.Equal(t, 350.0, mesa.Price.InexactFloat64())

	_, ok = byCode["CAD-771"]
	assert.True(t, ok)
}

func TestExtractor_EmptyDocument(t *testing.T) {
	e := New(zerolog.Nop())
	assert.Empty(t, e.Extract(nil))
	assert.Empty(t, e.Extract([]string{"", "   "}))
}
