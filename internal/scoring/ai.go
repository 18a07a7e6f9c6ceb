package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mercascan/mercascan/internal/config"
	"github.com/mercascan/mercascan/internal/domain"
	"github.com/mercascan/mercascan/internal/llm"
	"github.com/mercascan/mercascan/internal/market"
)

const systemPrompt = `You are a marketplace analyst with years of e-commerce experience.
Your analysis must be precise, objective and give the seller practical, actionable insight.
Use only the numbers provided; never invent figures.
Respond with exactly the requested JSON structure and no additional text.`

// AIEngine asks the completion service for an analysis and validates the
// response strictly. Any failure after the configured retries falls back to
// the rule engine; callers always get a usable analysis.
type AIEngine struct {
	completer llm.Completer
	fallback  *RuleEngine
	cfg       config.ScoringConfig
	log       zerolog.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewAIEngine wires the AI engine over a completion client and its rule-based
// fallback.
func NewAIEngine(completer llm.Completer, fallback *RuleEngine, cfg config.ScoringConfig, log zerolog.Logger) *AIEngine {
	return &AIEngine{
		completer: completer,
		fallback:  fallback,
		cfg:       cfg,
		log:       log,
		sleep:     time.Sleep,
	}
}

func (e *AIEngine) Analyze(ctx context.Context, product domain.ProductRecord, listings []domain.MarketListing, sellers []domain.SellerSignal, fees domain.FeeBreakdown) domain.Analysis {
	if len(listings) == 0 {
		return minimalAnalysis(product)
	}

	metrics := market.Aggregate(listings)
	sellerMetrics := market.AggregateSellers(sellers)
	prompt := buildPrompt(product, metrics, sellerMetrics, fees)

	for attempt := 0; attempt <= e.cfg.Retries; attempt++ {
		if attempt > 0 {
			e.sleep(e.cfg.RetryDelay)
		}

		response, err := e.completer.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			if !domain.Retryable(err) {
				e.log.Warn().Err(err).Msg("completion failed with a non-retryable error")
				break
			}
			e.log.Warn().Err(err).Int("attempt", attempt+1).Msg("completion request failed")
			continue
		}

		parsed, err := parseAndValidate(response)
		if err != nil {
			e.log.Warn().Err(err).Int("attempt", attempt+1).Msg("AI analysis rejected")
			continue
		}

		analysis := parsed.toAnalysis(product, fees)
		enrichTrends(&analysis, listings, sellers)
		return analysis
	}

	e.log.Warn().Str("product", product.Description).Msg("AI analysis exhausted retries, using rule engine")
	return e.fallback.Analyze(ctx, product, listings, sellers, fees)
}

// buildPrompt embeds the aggregated metrics. Every number the model sees
// comes from the aggregator; the response schema repeats the key figures so
// the model anchors on them.
func buildPrompt(product domain.ProductRecord, m domain.MarketMetrics, s domain.SellerMetrics, fees domain.FeeBreakdown) string {
	var b strings.Builder

	price := "not available"
	if product.Price != nil {
		price = "R$ " + product.Price.StringFixed(2)
	}

	fmt.Fprintf(&b, "Analyze this product for marketplace resale:\n\n")
	fmt.Fprintf(&b, "===== PRODUCT =====\n")
	fmt.Fprintf(&b, "Name: %s\nStock price: %s\n\n", product.Description, price)

	fmt.Fprintf(&b, "===== MARKET DATA =====\n")
	fmt.Fprintf(&b, "PRICES:\n")
	fmt.Fprintf(&b, "- Average listed price: R$ %.2f\n", m.AvgPrice)
	fmt.Fprintf(&b, "- Minimum price: R$ %.2f\n", m.MinPrice)
	fmt.Fprintf(&b, "- Maximum price: R$ %.2f\n", m.MaxPrice)
	fmt.Fprintf(&b, "- Price variation: %s (std dev: %.2f)\n\n", m.PriceVariation, m.PriceStdDev)

	fmt.Fprintf(&b, "DEMAND:\n")
	fmt.Fprintf(&b, "- Average units sold: %.1f\n", m.AvgSold)
	fmt.Fprintf(&b, "- Maximum units sold: %d\n", m.MaxSold)
	fmt.Fprintf(&b, "- Demand level: %s\n", m.DemandLevel)
	fmt.Fprintf(&b, "- Total competitors: %d\n\n", m.TotalCompetitors)

	fmt.Fprintf(&b, "COMPETITION:\n")
	fmt.Fprintf(&b, "- High-tier sellers: %.1f%%\n", s.HighTierPercent)
	fmt.Fprintf(&b, "- Average seller rating: %.1f/5\n", s.AvgRating)
	fmt.Fprintf(&b, "- Average sales per seller: %.0f\n", s.AvgSales)
	fmt.Fprintf(&b, "- Competition level: %s\n\n", s.CompetitionLevel)

	fmt.Fprintf(&b, "FINANCIAL:\n")
	fmt.Fprintf(&b, "- Margin after fees: %.1f%%\n", fees.MarginPercent)
	fmt.Fprintf(&b, "- Marketplace fee: %.1f%%\n", fees.BaseFeePercent)
	fmt.Fprintf(&b, "- Profitability: %s\n\n", market.Profitability(fees.MarginPercent))

	fmt.Fprintf(&b, "===== RESPONSE FORMAT =====\n")
	fmt.Fprintf(&b, `Respond with this exact JSON structure:
{
    "price_analysis": {"score": [0-10], "average_price": %.2f, "details": "your price and margin analysis"},
    "competition_analysis": {"score": [0-10], "high_level_sellers": %.1f, "details": "your competition analysis"},
    "demand_analysis": {"score": [0-10], "average_sold": %.1f, "details": "your demand analysis"},
    "overall_score": [0-10],
    "recommendation": "your final verdict",
    "improvement_suggestions": ["suggestion 1", "suggestion 2", "suggestion 3"]
}

Scoring rules:
- Price: margins above 85%% are excellent (10 points), below 70%% are poor (2 points)
- Competition: under 20%% high-tier sellers is excellent (10 points), over 80%% is poor (2 points)
- Demand: over 1000 sales is excellent (10 points), under 50 is poor (2 points)
- overall_score must be the weighted average (price 30%%, competition 30%%, demand 40%%)
- recommendation must be one of: "Highly Recommended" (score >= 7), "Recommended" (score >= 5), "Neutral" (score >= 3), "Not Recommended" (score < 3)
- include 2-3 practical improvement_suggestions

Respond with the JSON only, no additional text.
`, m.AvgPrice, s.HighTierPercent, m.AvgSold)

	return b.String()
}
