package scoring

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mercascan/mercascan/internal/domain"
	"github.com/mercascan/mercascan/internal/market"
)

// RuleEngine scores with fixed thresholds. It is both the default engine and
// the fallback behind the AI engine, so it never fails.
type RuleEngine struct {
	log zerolog.Logger
}

// NewRuleEngine creates the deterministic engine.
func NewRuleEngine(log zerolog.Logger) *RuleEngine {
	return &RuleEngine{log: log}
}

func (e *RuleEngine) Analyze(ctx context.Context, product domain.ProductRecord, listings []domain.MarketListing, sellers []domain.SellerSignal, fees domain.FeeBreakdown) domain.Analysis {
	if len(listings) == 0 {
		return minimalAnalysis(product)
	}

	metrics := market.Aggregate(listings)
	sellerMetrics := market.AggregateSellers(sellers)

	priceScore, priceDetails := scorePrice(fees.MarginPercent)
	competitionScore, competitionDetails := scoreCompetition(sellerMetrics.HighTierPercent)
	demandScore, demandDetails := scoreDemand(metrics.AvgSold)

	score := overall(priceScore, competitionScore, demandScore)

	analysis := domain.Analysis{
		ProductName:  product.Description,
		ProductCode:  product.Code,
		InitialPrice: product.Price,
		Found:        true,

		PriceAnalysis:       domain.AxisAnalysis{Score: priceScore, Metric: metrics.AvgPrice, Details: priceDetails},
		CompetitionAnalysis: domain.AxisAnalysis{Score: competitionScore, Metric: sellerMetrics.HighTierPercent, Details: competitionDetails},
		DemandAnalysis:      domain.AxisAnalysis{Score: demandScore, Metric: metrics.AvgSold, Details: demandDetails},
		MarginPercent:       fees.MarginPercent,

		OverallScore:   score,
		Recommendation: domain.RecommendationForScore(score),
		ImprovementSuggestions: buildSuggestions(
			priceScore, competitionScore, demandScore, metrics.AvgPrice),
	}

	enrichTrends(&analysis, listings, sellers)
	return analysis
}

func scorePrice(marginPercent float64) (float64, string) {
	switch {
	case marginPercent >= 85:
		return 10, "Excellent margin, well above the market average."
	case marginPercent >= 80:
		return 8, "Good margin, above the market average."
	case marginPercent >= 75:
		return 6, "Reasonable margin, in line with the market."
	case marginPercent >= 70:
		return 4, "Low margin, below the market average."
	default:
		return 2, "Very low margin, significantly below the market."
	}
}

func scoreCompetition(highTierPercent float64) (float64, string) {
	switch {
	case highTierPercent <= 20:
		return 10, "Very low competition, few established sellers."
	case highTierPercent <= 40:
		return 8, "Low competition, a good scenario for new sellers."
	case highTierPercent <= 60:
		return 6, "Moderate competition, typical of established products."
	case highTierPercent <= 80:
		return 4, "High competition, dominated by experienced sellers."
	default:
		return 2, "Very high competition, market saturated with elite sellers."
	}
}

func scoreDemand(avgSold float64) (float64, string) {
	switch {
	case avgSold >= 1000:
		return 10, "Extremely high demand, a heavily searched product."
	case avgSold >= 500:
		return 8, "High demand, good sales volume."
	case avgSold >= 200:
		return 6, "Moderate demand, average sales volume."
	case avgSold >= 50:
		return 4, "Low demand, few recorded sales."
	default:
		return 2, "Very low demand, almost no recorded sales."
	}
}

// genericSuggestions tops the list up to three entries when the axis-specific
// ones are not enough.
var genericSuggestions = []string{
	"Keep response times short to build marketplace reputation",
	"Track competitor prices regularly and adjust your strategy",
	"Invest in a complete product description with detailed specifications",
	"Use high-quality images from multiple angles",
	"Offer an extended warranty to increase buyer confidence",
}

// buildSuggestions targets the weakest axis first, then fills from the
// generic pool to exactly three entries without duplicates.
func buildSuggestions(priceScore, competitionScore, demandScore, avgPrice float64) []string {
	var suggestions []string

	lowest := priceScore
	if competitionScore < lowest {
		lowest = competitionScore
	}
	if demandScore < lowest {
		lowest = demandScore
	}

	if lowest == priceScore && priceScore <= 4 {
		suggestions = append(suggestions,
			fmt.Sprintf("Optimize your price to improve margin, considering the market average of R$ %.2f", avgPrice),
			"Look for alternative suppliers to reduce acquisition cost")
	}
	if lowest == competitionScore && competitionScore <= 4 {
		suggestions = append(suggestions,
			"Stand out from competitors with more detailed descriptions and better photos",
			"Offer exclusive perks such as free shipping or small gifts")
	}
	if lowest == demandScore && demandScore <= 4 {
		suggestions = append(suggestions,
			"Invest in sponsored ads to increase product visibility",
			"Consider promotional bundles or kits to raise the average ticket")
	}

	for _, s := range genericSuggestions {
		if len(suggestions) >= 3 {
			break
		}
		duplicate := false
		for _, existing := range suggestions {
			if existing == s {
				duplicate = true
				break
			}
		}
		if !duplicate {
			suggestions = append(suggestions, s)
		}
	}

	return suggestions[:3]
}
