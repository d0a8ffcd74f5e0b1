package pricing

import (
	"fmt"
	"math"
	"sort"

	"pricewatch/models"
)

// maxAdjustment caps how far a recommendation may move from the current
// price in one step (25%).
const maxAdjustment = 0.25

// Advisor turns a reference price and competitor prices into a
// competitive-position analysis and a pricing recommendation.
type Advisor struct{}

// NewAdvisor creates a pricing advisor.
func NewAdvisor() *Advisor {
	return &Advisor{}
}

// Analyze computes aggregate competitor statistics and the competitive
// index for a reference price.
func (a *Advisor) Analyze(referencePrice float64, competitorPrices []float64) models.AggregateAnalysis {
	valid := filterValid(competitorPrices)
	analysis := models.AggregateAnalysis{
		CompetitorsFound: len(valid),
		CompetitiveIndex: a.CompetitiveIndex(referencePrice, competitorPrices),
	}
	if len(valid) == 0 {
		return analysis
	}

	analysis.MinCompetitor = round2(minOf(valid))
	analysis.MaxCompetitor = round2(maxOf(valid))
	analysis.AvgCompetitor = round2(avgOf(valid))
	analysis.MedianCompetitor = round2(median(valid))
	return analysis
}

// CompetitiveIndex scores 0-100 how favorably the reference price sits in
// the observed competitor spread; lower price relative to the spread yields
// a higher index. 50 means unknown (no data), 100 means best possible.
func (a *Advisor) CompetitiveIndex(referencePrice float64, competitorPrices []float64) int {
	valid := filterValid(competitorPrices)
	if len(valid) == 0 || referencePrice == 0 {
		return 50
	}

	min, max := minOf(valid), maxOf(valid)
	if max == min {
		return 100
	}

	index := (max - referencePrice) / (max - min) * 100
	if referencePrice <= min {
		index = math.Min(100, index+10)
	}
	return int(math.Round(math.Max(0, math.Min(100, index))))
}

// Recommend computes a recommended price for the given strategy, clamped to
// ±25% of the reference price, together with alerts.
func (a *Advisor) Recommend(referencePrice float64, competitorPrices []float64, strategy models.Strategy) models.PriceAdvice {
	valid := filterValid(competitorPrices)
	if len(valid) == 0 {
		return models.PriceAdvice{
			RecommendedPrice: referencePrice,
			Strategy:         models.StrategyNoData,
			Confidence:       0,
			Reasoning:        "No competitor data available",
			Alerts:           []string{"⚠️ No competitor data - unable to assess market position"},
		}
	}

	min, max := minOf(valid), maxOf(valid)
	med := median(valid)

	var recommended float64
	var reasoning string
	var confidence int

	switch strategy {
	case models.StrategyAggressive:
		recommended = min * 0.98
		reasoning = "Aggressive pricing to capture market share"
		confidence = 75

	case models.StrategyPremium:
		recommended = med * 1.05
		reasoning = "Premium positioning with competitive awareness"
		confidence = 70

	default:
		strategy = models.StrategyCompetitive
		switch {
		case referencePrice < min:
			recommended = min * 0.99
			reasoning = "Currently cheapest - room to increase margin"
			confidence = 85
		case referencePrice > max:
			recommended = med * 1.02
			reasoning = "Currently most expensive - reduce to median level"
			confidence = 90
		default:
			recommended = med
			reasoning = "Competitive position - align with market median"
			confidence = 80
		}
	}

	// Never suggest moving more than 25% from the current price in one step
	if referencePrice > 0 {
		floor := referencePrice * (1 - maxAdjustment)
		ceiling := referencePrice * (1 + maxAdjustment)
		recommended = math.Max(floor, math.Min(ceiling, recommended))
	}
	recommended = round2(recommended)

	return models.PriceAdvice{
		RecommendedPrice: recommended,
		Strategy:         strategy,
		Confidence:       confidence,
		Reasoning:        reasoning,
		Alerts:           a.GenerateAlerts(referencePrice, competitorPrices, recommended),
	}
}

// GenerateAlerts produces ordered advisory strings about the reference
// price's market position.
func (a *Advisor) GenerateAlerts(referencePrice float64, competitorPrices []float64, recommendedPrice float64) []string {
	valid := filterValid(competitorPrices)
	if len(valid) == 0 {
		return []string{"⚠️ No competitor data - unable to assess market position"}
	}

	min, max := minOf(valid), maxOf(valid)
	var alerts []string

	if referencePrice > max*1.1 {
		alerts = append(alerts, "🔴 Critical: Price 10%+ above highest competitor")
	} else if referencePrice > max {
		alerts = append(alerts, "⚠️ Warning: Highest price in market")
	}

	if referencePrice < min*0.9 {
		alerts = append(alerts, "💰 Opportunity: Significantly below market - consider price increase")
	}

	if referencePrice > 0 {
		percentDiff := math.Abs(referencePrice-recommendedPrice) / referencePrice * 100
		if percentDiff > 10 {
			alerts = append(alerts, fmt.Sprintf("📊 Recommendation: %.1f%% price adjustment suggested", percentDiff))
		}
	}

	if len(alerts) == 0 {
		alerts = append(alerts, "✅ Competitive: Price well-positioned in market")
	}
	return alerts
}

// Suggest classifies every catalog product against its competitor average:
// 🔴 too expensive, 🟢 competitive, 🟡 can optimize. Products without any
// valid competitor price are always 🟡 with the price left unchanged.
func (a *Advisor) Suggest(products []models.Product) []models.Suggestion {
	suggestions := make([]models.Suggestion, 0, len(products))

	for _, product := range products {
		valid := filterValid(product.CompetitorPrices)
		if len(valid) == 0 {
			suggestions = append(suggestions, models.Suggestion{
				Name:           product.Name,
				MyPrice:        product.MyPrice,
				Suggestion:     "🟡",
				SuggestedPrice: product.MyPrice,
			})
			continue
		}

		avg := avgOf(valid)
		s := models.Suggestion{
			Name:              product.Name,
			MyPrice:           product.MyPrice,
			CompetitorAverage: round2(avg),
		}

		switch {
		case product.MyPrice > avg*1.05:
			s.Suggestion = "🔴"
			s.SuggestedPrice = round2(avg * 0.95)
		case product.MyPrice <= avg:
			s.Suggestion = "🟢"
			s.SuggestedPrice = product.MyPrice
		default:
			s.Suggestion = "🟡"
			s.SuggestedPrice = round2(avg)
		}
		suggestions = append(suggestions, s)
	}

	return suggestions
}

func filterValid(prices []float64) []float64 {
	var valid []float64
	for _, p := range prices {
		if p > 0 {
			valid = append(valid, p)
		}
	}
	return valid
}

func minOf(prices []float64) float64 {
	m := prices[0]
	for _, p := range prices[1:] {
		if p < m {
			m = p
		}
	}
	return m
}

func maxOf(prices []float64) float64 {
	m := prices[0]
	for _, p := range prices[1:] {
		if p > m {
			m = p
		}
	}
	return m
}

func avgOf(prices []float64) float64 {
	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices))
}

func median(prices []float64) float64 {
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 != 0 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
