package scoring

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mercascan/mercascan/internal/domain"
)

// aiAxis is one scored axis in the model's response.
type aiAxis struct {
	Score            *float64 `json:"score"`
	AveragePrice     *float64 `json:"average_price"`
	HighLevelSellers *float64 `json:"high_level_sellers"`
	AverageSold      *float64 `json:"average_sold"`
	Details          *string  `json:"details"`
}

// aiAnalysis is the validated shape of an accepted model response.
type aiAnalysis struct {
	Price        aiAxis
	Competition  aiAxis
	Demand       aiAxis
	OverallScore float64
	Suggestions  []string
}

// defaultSuggestions stand in when the model returns no suggestions.
var defaultSuggestions = []string{
	"Research competitors to optimize your price",
	"Improve the product images and description",
	"Consider offering free shipping to raise conversion",
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

// parseAndValidate accepts a model response only when it is well-formed:
// strict JSON, all five required fields present, every axis an object with
// a score in [0,10] and details, overall_score numeric within [0,10].
// The recommendation label must be a string but its value is ignored; the
// final label is always derived from the recomputed overall score.
func parseAndValidate(response string) (*aiAnalysis, error) {
	cleaned := stripFences(response)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}

	for _, required := range []string{"price_analysis", "competition_analysis", "demand_analysis", "overall_score", "recommendation"} {
		if _, ok := fields[required]; !ok {
			return nil, fmt.Errorf("missing required field %q", required)
		}
	}

	parsed := &aiAnalysis{}

	axes := []struct {
		name string
		dst  *aiAxis
	}{
		{"price_analysis", &parsed.Price},
		{"competition_analysis", &parsed.Competition},
		{"demand_analysis", &parsed.Demand},
	}
	for _, axis := range axes {
		if err := json.Unmarshal(fields[axis.name], axis.dst); err != nil {
			return nil, fmt.Errorf("field %q is not an object: %w", axis.name, err)
		}
		if axis.dst.Score == nil {
			return nil, fmt.Errorf("field %q has no score", axis.name)
		}
		if *axis.dst.Score < 0 || *axis.dst.Score > 10 {
			return nil, fmt.Errorf("field %q score %v out of range", axis.name, *axis.dst.Score)
		}
		if axis.dst.Details == nil {
			return nil, fmt.Errorf("field %q has no details", axis.name)
		}
	}

	if err := json.Unmarshal(fields["overall_score"], &parsed.OverallScore); err != nil {
		return nil, fmt.Errorf("overall_score is not numeric: %w", err)
	}
	if parsed.OverallScore < 0 || parsed.OverallScore > 10 {
		return nil, fmt.Errorf("overall_score %v out of range", parsed.OverallScore)
	}

	var label string
	if err := json.Unmarshal(fields["recommendation"], &label); err != nil {
		return nil, fmt.Errorf("recommendation is not a string: %w", err)
	}

	if raw, ok := fields["improvement_suggestions"]; ok {
		_ = json.Unmarshal(raw, &parsed.Suggestions)
	}
	if len(parsed.Suggestions) == 0 {
		parsed.Suggestions = append([]string(nil), defaultSuggestions...)
	}
	if len(parsed.Suggestions) > 3 {
		parsed.Suggestions = parsed.Suggestions[:3]
	}

	return parsed, nil
}

// toAnalysis converts a validated response into the domain shape. The
// overall score is recomputed from the axis scores and the recommendation
// derived from it, so the weighting invariant holds and label and score
// agree regardless of what the model wrote.
func (p *aiAnalysis) toAnalysis(product domain.ProductRecord, fees domain.FeeBreakdown) domain.Analysis {
	score := overall(*p.Price.Score, *p.Competition.Score, *p.Demand.Score)

	metric := func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	}

	return domain.Analysis{
		ProductName:  product.Description,
		ProductCode:  product.Code,
		InitialPrice: product.Price,
		Found:        true,

		PriceAnalysis:       domain.AxisAnalysis{Score: *p.Price.Score, Metric: metric(p.Price.AveragePrice), Details: *p.Price.Details},
		CompetitionAnalysis: domain.AxisAnalysis{Score: *p.Competition.Score, Metric: metric(p.Competition.HighLevelSellers), Details: *p.Competition.Details},
		DemandAnalysis:      domain.AxisAnalysis{Score: *p.Demand.Score, Metric: metric(p.Demand.AverageSold), Details: *p.Demand.Details},
		MarginPercent:       fees.MarginPercent,

		OverallScore:           score,
		Recommendation:         domain.RecommendationForScore(score),
		ImprovementSuggestions: p.Suggestions,
	}
}
