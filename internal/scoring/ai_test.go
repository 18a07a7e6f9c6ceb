package scoring

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercascan/mercascan/internal/config"
	"github.com/mercascan/mercascan/internal/domain"
)

type stubCompleter struct {
	responses []string
	err       error
	calls     int
}

func (s *stubCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	idx := s.calls - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], nil
}

const validResponse = `{
	"price_analysis": {"score": 8, "average_price": 120.5, "details": "good margin"},
	"competition_analysis": {"score": 6, "high_level_sellers": 45, "details": "moderate"},
	"demand_analysis": {"score": 10, "average_sold": 1500, "details": "very high"},
	"overall_score": 8.2,
	"recommendation": "Highly Recommended",
	"improvement_suggestions": ["a", "b", "c"]
}`

func newTestAIEngine(completer *stubCompleter) *AIEngine {
	e := NewAIEngine(completer, NewRuleEngine(zerolog.Nop()), config.ScoringConfig{
		UseAI:      true,
		Retries:    2,
		RetryDelay: time.Millisecond,
	}, zerolog.Nop())
	e.sleep = func(time.Duration) {}
	return e
}

func TestAIEngine_AcceptsValidResponse(t *testing.T) {
	stub := &stubCompleter{responses: []string{validResponse}}
	e := newTestAIEngine(stub)

	a := e.Analyze(context.Background(), domain.ProductRecord{Description: "Mesa"},
		someListings(100, 200, 3), nil, domain.FeeBreakdown{MarginPercent: 80})

	require.True(t, a.Found)
	// the weighting invariant holds regardless of the model's own overall_score
	assert.InDelta(t, 8*0.3+6*0.3+10*0.4, a.OverallScore, 1e-9)
	assert.Equal(t, domain.HighlyRecommended, a.Recommendation)
	assert.Equal(t, []string{"a", "b", "c"}, a.ImprovementSuggestions)
	assert.Equal(t, 120.5, a.PriceAnalysis.Metric)
	assert.NotNil(t, a.Trends)
	assert.Equal(t, 1, stub.calls)
}

func TestAIEngine_RetriesThenFallsBack(t *testing.T) {
	stub := &stubCompleter{responses: []string{"not json at all"}}
	e := newTestAIEngine(stub)

	a := e.Analyze(context.Background(), domain.ProductRecord{Description: "Mesa"},
		someListings(100, 200, 3), nil, domain.FeeBreakdown{MarginPercent: 80})

	// retries = 2 means three attempts before the rule engine takes over
	assert.Equal(t, 3, stub.calls)
	require.True(t, a.Found)
	expected := a.PriceAnalysis.Score*0.3 + a.CompetitionAnalysis.Score*0.3 + a.DemandAnalysis.Score*0.4
	assert.Equal(t, expected, a.OverallScore)
	assert.Len(t, a.ImprovementSuggestions, 3)
}

func TestAIEngine_InflatedAxisScoreFallsBack(t *testing.T) {
	inflated := `{
		"price_analysis": {"score": 50, "average_price": 120.5, "details": "x"},
		"competition_analysis": {"score": 6, "high_level_sellers": 45, "details": "x"},
		"demand_analysis": {"score": 10, "average_sold": 1500, "details": "x"},
		"overall_score": 9,
		"recommendation": "Highly Recommended"
	}`
	stub := &stubCompleter{responses: []string{inflated}}
	e := newTestAIEngine(stub)

	a := e.Analyze(context.Background(), domain.ProductRecord{Description: "Mesa"},
		someListings(100, 200, 3), nil, domain.FeeBreakdown{MarginPercent: 80})

	assert.Equal(t, 3, stub.calls)
	require.True(t, a.Found)
	assert.GreaterOrEqual(t, a.OverallScore, 0.0)
	assert.LessOrEqual(t, a.OverallScore, 10.0)
	assert.Equal(t, domain.RecommendationForScore(a.OverallScore), a.Recommendation)
}

func TestAIEngine_LabelAgreesWithRecomputedScore(t *testing.T) {
	// price 3, competition 4, demand 5 recompute to 4.1: the model label
	// says Highly Recommended, the score says Neutral and the score wins
	inconsistent := `{
		"price_analysis": {"score": 3, "average_price": 120.5, "details": "x"},
		"competition_analysis": {"score": 4, "high_level_sellers": 45, "details": "x"},
		"demand_analysis": {"score": 5, "average_sold": 1500, "details": "x"},
		"overall_score": 4.1,
		"recommendation": "Highly Recommended"
	}`
	stub := &stubCompleter{responses: []string{inconsistent}}
	e := newTestAIEngine(stub)

	a := e.Analyze(context.Background(), domain.ProductRecord{Description: "Mesa"},
		someListings(100, 200, 3), nil, domain.FeeBreakdown{MarginPercent: 80})

	require.True(t, a.Found)
	assert.InDelta(t, 4.1, a.OverallScore, 1e-9)
	assert.Equal(t, domain.Neutral, a.Recommendation)
}

func TestAIEngine_RequestErrorFallsBack(t *testing.T) {
	stub := &stubCompleter{err: fmt.Errorf("boom")}
	e := newTestAIEngine(stub)

	a := e.Analyze(context.Background(), domain.ProductRecord{Description: "Mesa"},
		someListings(100, 200, 3), nil, domain.FeeBreakdown{MarginPercent: 90})

	assert.Equal(t, 3, stub.calls)
	assert.True(t, a.Found)
}

func TestAIEngine_NonRetryableErrorSkipsRetries(t *testing.T) {
	// an unconfigured API key cannot heal between attempts
	stub := &stubCompleter{err: domain.InputError("completion API key not configured", nil)}
	e := newTestAIEngine(stub)

	a := e.Analyze(context.Background(), domain.ProductRecord{Description: "Mesa"},
		someListings(100, 200, 3), nil, domain.FeeBreakdown{MarginPercent: 80})

	assert.Equal(t, 1, stub.calls)
	assert.True(t, a.Found)
}

func TestAIEngine_NoMarketData(t *testing.T) {
	stub := &stubCompleter{responses: []string{validResponse}}
	e := newTestAIEngine(stub)

	price := decimal.NewFromInt(10)
	a := e.Analyze(context.Background(), domain.ProductRecord{Description: "Raro", Price: &price}, nil, nil, domain.FeeBreakdown{})

	assert.False(t, a.Found)
	assert.Zero(t, stub.calls)
}

func TestParseAndValidate_StripsCodeFences(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	parsed, err := parseAndValidate(fenced)
	require.NoError(t, err)
	assert.Equal(t, 8.2, parsed.OverallScore)
}

func TestParseAndValidate_MissingField(t *testing.T) {
	_, err := parseAndValidate(`{"price_analysis": {"score": 5, "details": "x"}, "overall_score": 5, "recommendation": "Neutral"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "competition_analysis")
}

func TestParseAndValidate_AxisWithoutScore(t *testing.T) {
	_, err := parseAndValidate(`{
		"price_analysis": {"details": "x"},
		"competition_analysis": {"score": 5, "details": "x"},
		"demand_analysis": {"score": 5, "details": "x"},
		"overall_score": 5,
		"recommendation": "Neutral"
	}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no score")
}

func TestParseAndValidate_OverallOutOfRange(t *testing.T) {
	_, err := parseAndValidate(`{
		"price_analysis": {"score": 5, "details": "x"},
		"competition_analysis": {"score": 5, "details": "x"},
		"demand_analysis": {"score": 5, "details": "x"},
		"overall_score": 12,
		"recommendation": "Neutral"
	}`)
	require.Error(t, err)
}

func TestParseAndValidate_AxisScoreOutOfRange(t *testing.T) {
	// an inflated axis score would leak past an in-range overall_score once
	// the overall is recomputed from the axes
	_, err := parseAndValidate(`{
		"price_analysis": {"score": 50, "details": "x"},
		"competition_analysis": {"score": 5, "details": "x"},
		"demand_analysis": {"score": 5, "details": "x"},
		"overall_score": 9,
		"recommendation": "Neutral"
	}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestParseAndValidate_IgnoresUnknownLabel(t *testing.T) {
	parsed, err := parseAndValidate(`{
		"price_analysis": {"score": 5, "details": "x"},
		"competition_analysis": {"score": 5, "details": "x"},
		"demand_analysis": {"score": 5, "details": "x"},
		"overall_score": 6.1,
		"recommendation": "Compre já!"
	}`)
	require.NoError(t, err)
	assert.Equal(t, 6.1, parsed.OverallScore)
}

func TestParseAndValidate_DefaultSuggestions(t *testing.T) {
	parsed, err := parseAndValidate(`{
		"price_analysis": {"score": 5, "details": "x"},
		"competition_analysis": {"score": 5, "details": "x"},
		"demand_analysis": {"score": 5, "details": "x"},
		"overall_score": 5,
		"recommendation": "Neutral"
	}`)
	require.NoError(t, err)
	assert.Len(t, parsed.Suggestions, 3)
}
