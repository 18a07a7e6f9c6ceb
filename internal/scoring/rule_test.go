package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercascan/mercascan/internal/domain"
	"github.com/mercascan/mercascan/internal/market"
)

func timeInMonth(t *testing.T, month int) time.Time {
	t.Helper()
	return time.Date(2026, time.Month(month), 15, 12, 0, 0, 0, time.UTC)
}

func someListings(price float64, sold int, n int) []domain.MarketListing {
	out := make([]domain.MarketListing, n)
	for i := range out {
		out[i] = domain.MarketListing{Price: decimal.NewFromFloat(price), SoldCount: sold}
	}
	return out
}

func TestScorePrice_Thresholds(t *testing.T) {
	cases := []struct {
		margin float64
		want   float64
	}{
		{86, 10}, {85, 10}, {80, 8}, {75, 6}, {72, 4}, {70, 4}, {69.9, 2},
	}
	for _, tc := range cases {
		got, _ := scorePrice(tc.margin)
		assert.Equal(t, tc.want, got, "margin %.1f", tc.margin)
	}

	score, details := scorePrice(86)
	assert.Equal(t, 10.0, score)
	assert.Contains(t, details, "Excellent margin")
}

func TestScoreCompetition_Thresholds(t *testing.T) {
	cases := []struct {
		percent float64
		want    float64
	}{
		{10, 10}, {20, 10}, {40, 8}, {60, 6}, {80, 4}, {81, 2},
	}
	for _, tc := range cases {
		got, _ := scoreCompetition(tc.percent)
		assert.Equal(t, tc.want, got, "high-tier %.0f%%", tc.percent)
	}
}

func TestScoreDemand_MonotonicAcrossThresholds(t *testing.T) {
	previous := 0.0
	for _, avgSold := range []float64{0, 49, 50, 199, 200, 499, 500, 999, 1000, 5000} {
		got, _ := scoreDemand(avgSold)
		assert.GreaterOrEqual(t, got, previous, "avg_sold %.0f", avgSold)
		previous = got
	}
}

func TestRuleEngine_OverallIsExactWeighting(t *testing.T) {
	e := NewRuleEngine(zerolog.Nop())
	product := domain.ProductRecord{Description: "Mesa de Escritório"}
	listings := someListings(100, 300, 4)
	fees := market.ComputeFees(decimal.NewFromInt(100), "")

	a := e.Analyze(context.Background(), product, listings, nil, fees)

	require.True(t, a.Found)
	expected := a.PriceAnalysis.Score*0.3 + a.CompetitionAnalysis.Score*0.3 + a.DemandAnalysis.Score*0.4
	assert.Equal(t, expected, a.OverallScore)
	assert.GreaterOrEqual(t, a.OverallScore, 0.0)
	assert.LessOrEqual(t, a.OverallScore, 10.0)
	assert.Equal(t, domain.RecommendationForScore(a.OverallScore), a.Recommendation)
}

func TestRuleEngine_SuggestionsExactlyThreeNoDuplicates(t *testing.T) {
	e := NewRuleEngine(zerolog.Nop())
	product := domain.ProductRecord{Description: "Produto"}
	// low margin makes price the weakest axis
	fees := domain.FeeBreakdown{MarginPercent: 50}
	listings := someListings(100, 800, 3)

	a := e.Analyze(context.Background(), product, listings, nil, fees)

	require.Len(t, a.ImprovementSuggestions, 3)
	seen := map[string]bool{}
	for _, s := range a.ImprovementSuggestions {
		assert.False(t, seen[s], "duplicate suggestion %q", s)
		seen[s] = true
	}
	// the weakest axis gets targeted first, citing the market average
	assert.Contains(t, a.ImprovementSuggestions[0], "R$ 100.00")
}

func TestRuleEngine_NoMarketData(t *testing.T) {
	e := NewRuleEngine(zerolog.Nop())
	price := decimal.NewFromInt(50)
	product := domain.ProductRecord{Code: "XYZ-1", Description: "Produto raro", Price: &price}

	a := e.Analyze(context.Background(), product, nil, nil, domain.FeeBreakdown{})

	assert.False(t, a.Found)
	assert.Equal(t, "Produto raro", a.ProductName)
	assert.Equal(t, "XYZ-1", a.ProductCode)
	assert.Zero(t, a.OverallScore)
	assert.Empty(t, a.ImprovementSuggestions)
}

func TestBuildTrends_Volatility(t *testing.T) {
	stable := buildTrends(someListings(100, 0, 5), nil, timeInMonth(t, 1))
	assert.Equal(t, "Stable", stable.PriceTrend)

	listings := []domain.MarketListing{
		{Price: decimal.NewFromInt(100)},
		{Price: decimal.NewFromInt(110)},
		{Price: decimal.NewFromInt(90)},
		{Price: decimal.NewFromInt(105)},
		{Price: decimal.NewFromInt(1000)},
	}
	volatile := buildTrends(listings, nil, timeInMonth(t, 1))
	assert.Equal(t, "Volatile", volatile.PriceTrend)
	assert.Greater(t, volatile.PriceVariance, 0.2)
}

func TestBuildTrends_SeasonalAndQuality(t *testing.T) {
	sellers := []domain.SellerSignal{{Rating: 4.9}, {Rating: 4.8}}
	trends := buildTrends(nil, sellers, timeInMonth(t, 12))

	assert.Equal(t, domain.LevelHigh, trends.SeasonalDemand)
	assert.Equal(t, "Excellent", trends.CompetitorQuality)

	low := buildTrends(nil, []domain.SellerSignal{{Rating: 3.2}}, timeInMonth(t, 6))
	assert.Equal(t, domain.LevelLow, low.SeasonalDemand)
	assert.Equal(t, "Low", low.CompetitorQuality)
}
