package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductLine_CodeDescriptionQtyPrice(t *testing.T) {
	rec := ParseProductLine("MSA-102  Mesa de Escritório 120cm   2   350,00")
	require.NotNil(t, rec)

	assert.Equal(t, "MSA-102", rec.Code)
	assert.Equal(t, "Mesa de Escritório 120cm", rec.Description)
	require.NotNil(t, rec.Price)
	assert.True(t, rec.Price.Equal(decimal.NewFromInt(350)), "got %s", rec.Price)
}

func TestParseProductLine_ColumnarSplit(t *testing.T) {
	rec := ParseProductLine("CAD01\tCadeira Presidente Couro")
	require.NotNil(t, rec)

	assert.Equal(t, "CAD01", rec.Code)
	assert.Equal(t, "Cadeira Presidente Couro", rec.Description)
	assert.Nil(t, rec.Price)
}

func TestParseProductLine_BareDescription(t *testing.T) {
	rec := ParseProductLine("Estante para livros em aço")
	require.NotNil(t, rec)

	assert.Empty(t, rec.Code)
	assert.Equal(t, "Estante para livros em aço", rec.Description)
}

func TestParseProductLine_RejectsShortAndNoise(t *testing.T) {
	assert.Nil(t, ParseProductLine("xx"))
	assert.Nil(t, ParseProductLine("Subtotal"))
}

func TestParsePrice_LocaleNormalization(t *testing.T) {
	cases := []struct {
		raw  string
		want decimal.Decimal
	}{
		{"350,00", decimal.NewFromInt(350)},
		{"1.234,56", decimal.RequireFromString("1234.56")},
		{"79", decimal.NewFromInt(79)},
	}
	for _, tc := range cases {
		got := ParsePrice(tc.raw)
		require.NotNil(t, got, "raw: %q", tc.raw)
		assert.True(t, got.Equal(tc.want), "raw: %q got %s", tc.raw, got)
	}
}

func TestParsePrice_NonNumericYieldsNil(t *testing.T) {
	assert.Nil(t, ParsePrice(""))
	assert.Nil(t, ParsePrice("abc"))
	assert.Nil(t, ParsePrice("12,34,56,78x"))
}
