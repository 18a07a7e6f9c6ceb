// Package market turns raw marketplace listings and seller signals into the
// normalized metrics the scoring engine consumes.
package market

import (
	"math"
	"strings"

	"github.com/mercascan/mercascan/internal/domain"
)

// Levels used by listing aggregation. A listing with price 0 carries no
// price information; a sold count of 0 means "not reported".
const (
	variationHighRatio   = 0.2
	variationMediumRatio = 0.1
	demandHighAvgSold    = 500
	demandMediumAvgSold  = 100
)

// Aggregate computes price and demand statistics over the competing listings
// for one product. Unpriced listings are excluded from the price statistics;
// listings without a reported sold count are excluded from the demand average
// and counted separately.
func Aggregate(listings []domain.MarketListing) domain.MarketMetrics {
	m := domain.MarketMetrics{
		TotalCompetitors: len(listings),
		PriceVariation:   domain.LevelLow,
		DemandLevel:      domain.LevelLow,
	}

	var prices []float64
	for _, l := range listings {
		if p := l.Price.InexactFloat64(); p > 0 {
			prices = append(prices, p)
		}
	}
	if len(prices) > 0 {
		m.MinPrice = prices[0]
		m.MaxPrice = prices[0]
		var sum float64
		for _, p := range prices {
			sum += p
			m.MinPrice = math.Min(m.MinPrice, p)
			m.MaxPrice = math.Max(m.MaxPrice, p)
		}
		m.AvgPrice = sum / float64(len(prices))
		m.PriceRange = m.MaxPrice - m.MinPrice
		m.PriceStdDev = stdDev(prices)
	}

	var soldSum int
	var soldCount int
	for _, l := range listings {
		if l.SoldCount <= 0 {
			m.Unreported++
			continue
		}
		if soldCount == 0 {
			m.MinSold = l.SoldCount
			m.MaxSold = l.SoldCount
		} else {
			if l.SoldCount < m.MinSold {
				m.MinSold = l.SoldCount
			}
			if l.SoldCount > m.MaxSold {
				m.MaxSold = l.SoldCount
			}
		}
		soldSum += l.SoldCount
		soldCount++
	}
	if soldCount > 0 {
		m.AvgSold = float64(soldSum) / float64(soldCount)
	}

	if m.PriceStdDev > m.AvgPrice*variationHighRatio {
		m.PriceVariation = domain.LevelHigh
	} else if m.PriceStdDev > m.AvgPrice*variationMediumRatio {
		m.PriceVariation = domain.LevelMedium
	}

	if m.AvgSold >= demandHighAvgSold {
		m.DemandLevel = domain.LevelHigh
	} else if m.AvgSold >= demandMediumAvgSold {
		m.DemandLevel = domain.LevelMedium
	}

	return m
}

// stdDev is the population standard deviation; fewer than two values have no
// spread.
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// highTierMarkers flag a seller reputation worth treating as serious
// competition. Portuguese and English variants of the marketplace labels.
var highTierMarkers = []string{"líder", "leader", "platinum", "gold", "excelente", "excellent"}

// AggregateSellers summarizes seller reputation across the competing
// listings. With no signals at all, competition is unknown rather than low.
func AggregateSellers(signals []domain.SellerSignal) domain.SellerMetrics {
	if len(signals) == 0 {
		return domain.SellerMetrics{CompetitionLevel: domain.LevelUnknown}
	}

	var highTier int
	for _, s := range signals {
		level := strings.ToLower(s.SellerLevel)
		for _, marker := range highTierMarkers {
			if strings.Contains(level, marker) {
				highTier++
				break
			}
		}
	}

	m := domain.SellerMetrics{
		HighTierPercent: float64(highTier) / float64(len(signals)) * 100,
	}

	var ratingSum float64
	var ratingCount int
	for _, s := range signals {
		if s.Rating > 0 {
			ratingSum += s.Rating
			ratingCount++
		}
	}
	if ratingCount > 0 {
		m.AvgRating = ratingSum / float64(ratingCount)
	}

	var salesSum, salesCount int
	for _, s := range signals {
		if s.Sales > 0 {
			salesSum += s.Sales
			salesCount++
		}
	}
	if salesCount > 0 {
		m.AvgSales = float64(salesSum) / float64(salesCount)
	}

	m.CompetitionLevel = domain.LevelLow
	if m.HighTierPercent >= 70 {
		m.CompetitionLevel = domain.LevelHigh
	} else if m.HighTierPercent >= 40 {
		m.CompetitionLevel = domain.LevelMedium
	}
	// Uniformly excellent ratings make a medium field crowd like a hard one.
	if m.CompetitionLevel == domain.LevelMedium && m.AvgRating >= 4.7 {
		m.CompetitionLevel = domain.LevelHigh
	}

	return m
}
