package market

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mercascan/mercascan/internal/domain"
)

// Marketplace fee schedule. Values come from the published seller fee tables;
// the antifraud component is an estimate.
var (
	baseFeeRate      = decimal.NewFromFloat(0.16)
	phoneFeeRate     = decimal.NewFromFloat(0.17)
	computingFeeRate = decimal.NewFromFloat(0.16)
	furnitureFeeRate = decimal.NewFromFloat(0.15)
	antifraudRate    = decimal.NewFromFloat(0.015)
	flatFee          = decimal.NewFromInt(5)
	flatFeeBelow     = decimal.NewFromInt(79)
	antifraudAbove   = decimal.NewFromInt(120)
	oneHundred       = decimal.NewFromInt(100)
)

// feeRateFor picks the category-adjusted base rate by keyword match on the
// category label.
func feeRateFor(category string) decimal.Decimal {
	c := strings.ToLower(category)
	switch {
	case strings.Contains(c, "celular") || strings.Contains(c, "smartphone"):
		return phoneFeeRate
	case strings.Contains(c, "informática") || strings.Contains(c, "computador"):
		return computingFeeRate
	case strings.Contains(c, "móveis") || strings.Contains(c, "decoração"):
		return furnitureFeeRate
	}
	return baseFeeRate
}

// ComputeFees applies the marketplace fee schedule to one listing price.
// A non-positive price yields an all-zero breakdown; this never fails.
func ComputeFees(price decimal.Decimal, category string) domain.FeeBreakdown {
	if !price.IsPositive() {
		return domain.FeeBreakdown{}
	}

	rate := feeRateFor(category)
	saleFee := price.Mul(rate)

	fixedFee := decimal.Zero
	if price.LessThan(flatFeeBelow) {
		fixedFee = flatFee
	}

	antifraudFee := decimal.Zero
	if price.GreaterThan(antifraudAbove) {
		antifraudFee = price.Mul(antifraudRate)
	}

	fee := saleFee.Add(fixedFee).Add(antifraudFee)
	net := price.Sub(fee)

	return domain.FeeBreakdown{
		Price:          price,
		Fee:            fee,
		Net:            net,
		MarginPercent:  net.Div(price).Mul(oneHundred).InexactFloat64(),
		BaseFeePercent: rate.Mul(oneHundred).InexactFloat64(),
		SaleFee:        saleFee,
		FixedFee:       fixedFee,
		AntifraudFee:   antifraudFee,
	}
}

// Profitability classifies a margin percentage into the coarse labels used
// in reports.
func Profitability(marginPercent float64) string {
	switch {
	case marginPercent >= 85:
		return "Excellent"
	case marginPercent >= 80:
		return "Good"
	case marginPercent >= 75:
		return "Average"
	case marginPercent >= 70:
		return "Low"
	default:
		return "Very low"
	}
}
