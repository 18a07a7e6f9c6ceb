// Package domain defines the core value objects shared across the analysis
// pipeline. All types here are plain values: once a record leaves the stage
// that produced it, nothing mutates it.
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductRecord is one product extracted from the source document.
// Identity is the normalized (trimmed, lower-cased) description; Code is
// optional and preferred over a code-less duplicate during deduplication.
type ProductRecord struct {
	Code        string
	Description string
	Price       *decimal.Decimal // nil when the document carries no price
}

// NormalizedDescription returns the identity key for deduplication.
func (p ProductRecord) NormalizedDescription() string {
	return strings.ToLower(strings.TrimSpace(p.Description))
}

// MarketListing is one marketplace search result for a product query.
// SoldCount of zero means "not reported", not zero demand.
type MarketListing struct {
	Title     string
	Price     decimal.Decimal
	Link      string
	SoldCount int
}

// SellerSignal describes the seller behind one listing. Defaults signal
// "unknown", never null: Rating 0 means unknown, SellerLevel carries the
// marketplace's own "not informed" label when the page gave nothing.
type SellerSignal struct {
	SellerLevel string
	Sales       int
	Rating      float64 // in [0,5], 0 when unknown
}

// UnknownSellerLevel is the label used when a detail page yields no
// reputation information.
const UnknownSellerLevel = "Não informado"

// FeeBreakdown is the marketplace fee schedule applied to one price.
// Always recomputed, never stored independently.
type FeeBreakdown struct {
	Price         decimal.Decimal
	Fee           decimal.Decimal
	Net           decimal.Decimal
	MarginPercent float64

	BaseFeePercent float64
	SaleFee        decimal.Decimal
	FixedFee       decimal.Decimal
	AntifraudFee   decimal.Decimal
}

// Level classifies an aggregated signal (price variation, demand,
// competition) into three coarse buckets.
type Level string

const (
	LevelHigh    Level = "High"
	LevelMedium  Level = "Medium"
	LevelLow     Level = "Low"
	LevelUnknown Level = "Unknown"
)

// MarketMetrics summarizes the competing listings for one product.
type MarketMetrics struct {
	AvgPrice    float64
	MinPrice    float64
	MaxPrice    float64
	PriceRange  float64
	PriceStdDev float64

	AvgSold          float64
	MinSold          int
	MaxSold          int
	Unreported       int // listings with sold_count == 0, excluded from AvgSold
	TotalCompetitors int

	PriceVariation Level
	DemandLevel    Level
}

// SellerMetrics summarizes the sellers behind the competing listings.
type SellerMetrics struct {
	HighTierPercent  float64
	AvgRating        float64
	AvgSales         float64
	CompetitionLevel Level
}

// Recommendation is the categorical verdict derived from an overall score.
type Recommendation string

const (
	HighlyRecommended Recommendation = "Highly Recommended"
	Recommended       Recommendation = "Recommended"
	Neutral           Recommendation = "Neutral"
	NotRecommended    Recommendation = "Not Recommended"
)

// RecommendationForScore maps an overall score to its canonical label using
// the fixed 7/5/3 thresholds.
func RecommendationForScore(score float64) Recommendation {
	switch {
	case score >= 7:
		return HighlyRecommended
	case score >= 5:
		return Recommended
	case score >= 3:
		return Neutral
	default:
		return NotRecommended
	}
}

// AxisAnalysis is one scored axis (price, competition or demand) of an
// Analysis, with the metric that drove it and a short free-text reading.
type AxisAnalysis struct {
	Score   float64
	Metric  float64 // average price / high-tier seller % / average sold
	Details string
}

// Trends is the optional best-effort enrichment attached after scoring.
type Trends struct {
	PriceTrend        string
	PriceVariance     float64
	SeasonalDemand    Level
	CompetitorQuality string
}

// Analysis is the full verdict for one product. Built once by the scoring
// engine, read-only afterwards. OverallScore is always the 0.3/0.3/0.4
// weighted combination of the three axis scores and stays within [0,10]
// on every path, fallback included.
type Analysis struct {
	ProductName  string
	ProductCode  string
	Category     string
	InitialPrice *decimal.Decimal
	Found        bool // false when no market data existed, axes unscored

	PriceAnalysis       AxisAnalysis
	CompetitionAnalysis AxisAnalysis
	DemandAnalysis      AxisAnalysis
	MarginPercent       float64

	OverallScore           float64
	Recommendation         Recommendation
	ImprovementSuggestions []string // at most 3, ordered
	Trends                 *Trends  // nil when enrichment was unavailable
}

// Kit is a bundle of KitSize scored products sold together at a discount.
// It copies product names, prices and scores by value; later mutation of an
// Analysis cannot corrupt a built Kit.
type Kit struct {
	Name             string
	TargetAudience   string
	Products         []string
	IndividualPrices []decimal.Decimal // aligned 1:1 with Products
	TotalPrice       decimal.Decimal
	KitPrice         decimal.Decimal
	Discount         float64 // percent, in [5,15]
	AverageScore     float64
	Reasoning        string
	MarketingPitch   string
}
