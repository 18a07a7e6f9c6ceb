// Package scoring turns aggregated market signals into a scored analysis
// per product. Two engines share the same contract: a deterministic
// rule-based one and an AI-assisted one that validates strictly and falls
// back to the rules.
package scoring

import (
	"context"

	"github.com/mercascan/mercascan/internal/domain"
)

// Engine produces the full analysis for one product.
type Engine interface {
	Analyze(ctx context.Context, product domain.ProductRecord, listings []domain.MarketListing, sellers []domain.SellerSignal, fees domain.FeeBreakdown) domain.Analysis
}

// Axis weights. Demand weighs heaviest; a product nobody buys is not saved
// by a good margin.
const (
	priceWeight       = 0.3
	competitionWeight = 0.3
	demandWeight      = 0.4
)

// overall combines the three axis scores.
func overall(price, competition, demand float64) float64 {
	return price*priceWeight + competition*competitionWeight + demand*demandWeight
}

// minimalAnalysis is the unscored result for a product with no market data.
func minimalAnalysis(product domain.ProductRecord) domain.Analysis {
	return domain.Analysis{
		ProductName:    product.Description,
		ProductCode:    product.Code,
		InitialPrice:   product.Price,
		Found:          false,
		Recommendation: domain.NotRecommended,
	}
}
