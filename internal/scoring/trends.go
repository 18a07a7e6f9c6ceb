package scoring

import (
	"math"
	"time"

	"github.com/mercascan/mercascan/internal/domain"
)

// seasonalDemand maps the calendar month to an expected demand level:
// summer and the holiday season run hot, winter runs cold.
var seasonalDemand = map[time.Month]domain.Level{
	time.January:   domain.LevelHigh,
	time.February:  domain.LevelHigh,
	time.March:     domain.LevelMedium,
	time.April:     domain.LevelMedium,
	time.May:       domain.LevelLow,
	time.June:      domain.LevelLow,
	time.July:      domain.LevelLow,
	time.August:    domain.LevelLow,
	time.September: domain.LevelMedium,
	time.October:   domain.LevelMedium,
	time.November:  domain.LevelHigh,
	time.December:  domain.LevelHigh,
}

// enrichTrends attaches the best-effort trend block to a finished analysis.
// It never fails the analysis; with nothing computable the trends stay nil.
func enrichTrends(analysis *domain.Analysis, listings []domain.MarketListing, sellers []domain.SellerSignal) {
	trends := buildTrends(listings, sellers, time.Now())
	analysis.Trends = trends
}

func buildTrends(listings []domain.MarketListing, sellers []domain.SellerSignal, now time.Time) *domain.Trends {
	trends := &domain.Trends{
		SeasonalDemand: seasonalDemand[now.Month()],
	}

	var prices []float64
	for _, l := range listings {
		if p := l.Price.InexactFloat64(); p > 0 {
			prices = append(prices, p)
		}
	}
	if len(prices) >= 5 {
		mean := 0.0
		for _, p := range prices {
			mean += p
		}
		mean /= float64(len(prices))

		variance := 0.0
		if mean > 0 {
			var sq float64
			for _, p := range prices {
				sq += (p - mean) * (p - mean)
			}
			variance = math.Sqrt(sq/float64(len(prices))) / mean
		}

		trends.PriceVariance = variance
		trends.PriceTrend = "Stable"
		if variance > 0.2 {
			trends.PriceTrend = "Volatile"
		}
	}

	var ratingSum float64
	var ratingCount int
	for _, s := range sellers {
		if s.Rating > 0 {
			ratingSum += s.Rating
			ratingCount++
		}
	}
	if len(sellers) > 0 {
		avgRating := 0.0
		if ratingCount > 0 {
			avgRating = ratingSum / float64(ratingCount)
		}
		switch {
		case avgRating >= 4.8:
			trends.CompetitorQuality = "Excellent"
		case avgRating >= 4.5:
			trends.CompetitorQuality = "Good"
		case avgRating >= 4.0:
			trends.CompetitorQuality = "Average"
		default:
			trends.CompetitorQuality = "Low"
		}
	}

	return trends
}
