package market

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeFees_NonPositivePrice(t *testing.T) {
	zero := ComputeFees(decimal.Zero, "")
	assert.True(t, zero.Price.IsZero())
	assert.True(t, zero.Fee.IsZero())
	assert.True(t, zero.Net.IsZero())
	assert.Zero(t, zero.MarginPercent)

	negative := ComputeFees(decimal.NewFromInt(-5), "Móveis")
	assert.True(t, negative.Fee.IsZero())
}

func TestComputeFees_DefaultCategory(t *testing.T) {
	b := ComputeFees(decimal.NewFromInt(100), "")

	assert.InDelta(t, 16, b.BaseFeePercent, 0.001)
	assert.True(t, b.SaleFee.Equal(decimal.NewFromInt(16)), "sale fee %s", b.SaleFee)
	// 100 is above the flat-fee cutoff and below the antifraud cutoff
	assert.True(t, b.FixedFee.IsZero())
	assert.True(t, b.AntifraudFee.IsZero())
	assert.True(t, b.Net.Equal(decimal.NewFromInt(84)), "net %s", b.Net)
	assert.InDelta(t, 84, b.MarginPercent, 0.001)
}

func TestComputeFees_FlatFeeBelowCutoff(t *testing.T) {
	b := ComputeFees(decimal.NewFromInt(50), "")
	assert.True(t, b.FixedFee.Equal(decimal.NewFromInt(5)), "fixed fee %s", b.FixedFee)
	// 50*0.16 + 5 = 13
	assert.True(t, b.Fee.Equal(decimal.NewFromInt(13)), "fee %s", b.Fee)
}

func TestComputeFees_AntifraudAboveCutoff(t *testing.T) {
	b := ComputeFees(decimal.NewFromInt(200), "")
	assert.True(t, b.AntifraudFee.Equal(decimal.NewFromInt(3)), "antifraud %s", b.AntifraudFee)
	assert.True(t, b.FixedFee.IsZero())
}

func TestComputeFees_CategoryRates(t *testing.T) {
	cases := []struct {
		category string
		want     float64
	}{
		{"Celulares e Smartphones", 17},
		{"Informática", 16},
		{"Móveis e Decoração", 15},
		{"Decoração", 15},
		{"Brinquedos", 16},
	}
	for _, tc := range cases {
		b := ComputeFees(decimal.NewFromInt(500), tc.category)
		assert.InDelta(t, tc.want, b.BaseFeePercent, 0.001, "category %q", tc.category)
	}
}

func TestProfitability(t *testing.T) {
	assert.Equal(t, "Excellent", Profitability(85))
	assert.Equal(t, "Good", Profitability(80))
	assert.Equal(t, "Average", Profitability(75))
	assert.Equal(t, "Low", Profitability(70))
	assert.Equal(t, "Very low", Profitability(69.9))
}
