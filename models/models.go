package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// SourceQuery describes one product lookup sent to every configured source.
type SourceQuery struct {
	ProductName    string  `json:"product_name"`
	ReferencePrice float64 `json:"reference_price"` // 0 = unknown
}

// RawCandidate is the unvalidated (title, price text, url) tuple a source
// returns for a query. A source that finds nothing returns nil instead.
type RawCandidate struct {
	Title        string `json:"title"`
	RawPriceText string `json:"raw_price_text"`
	URL          string `json:"url"`
}

// CompetitorResult is the validated outcome of one (product, source) scrape
// attempt. Found implies Price > 0; a rejected or missing candidate keeps
// Price at 0 and carries the reason in Note.
type CompetitorResult struct {
	SourceID    string  `json:"source_id"`
	MatchedName string  `json:"matched_name,omitempty"`
	Price       float64 `json:"price"`
	URL         string  `json:"url,omitempty"`
	Found       bool    `json:"found"`
	MatchScore  int     `json:"match_score"`
	Note        string  `json:"note,omitempty"`
}

// ScrapeStatus is the terminal state of a product scrape.
type ScrapeStatus string

const (
	ScrapeCached  ScrapeStatus = "cached"
	ScrapeSuccess ScrapeStatus = "success"
	ScrapePartial ScrapeStatus = "partial"
	ScrapeFailed  ScrapeStatus = "failed"
)

// ScrapeResult aggregates the per-source results of one product scrape.
type ScrapeResult struct {
	ProductName string             `json:"product_name"`
	Status      ScrapeStatus       `json:"status"`
	Tier        string             `json:"tier"` // "browser" or "static"
	Results     []CompetitorResult `json:"results"`
	Analysis    *AggregateAnalysis `json:"analysis,omitempty"`
	ScrapedAt   time.Time          `json:"scraped_at"`
}

// Prices returns the per-source price list in source order. Sources that
// found nothing contribute 0, so a fully failed scrape yields a zero-filled
// slice of the expected length.
func (sr *ScrapeResult) Prices() []float64 {
	prices := make([]float64, len(sr.Results))
	for i, r := range sr.Results {
		if r.Found && r.Price > 0 {
			prices[i] = r.Price
		}
	}
	return prices
}

// FoundCount returns how many sources produced a usable price.
func (sr *ScrapeResult) FoundCount() int {
	n := 0
	for _, r := range sr.Results {
		if r.Found {
			n++
		}
	}
	return n
}

// AggregateAnalysis summarizes valid competitor prices against a reference
// price. All price fields are 0 when no valid competitor price exists.
type AggregateAnalysis struct {
	MinCompetitor    float64 `json:"min_competitor"`
	MaxCompetitor    float64 `json:"max_competitor"`
	AvgCompetitor    float64 `json:"avg_competitor"`
	MedianCompetitor float64 `json:"median_competitor"`
	CompetitorsFound int     `json:"competitors_found"`
	CompetitiveIndex int     `json:"competitive_index"` // 0-100, higher = more competitive
}

// Strategy selects the pricing posture used by the advisor.
type Strategy string

const (
	StrategyAggressive  Strategy = "aggressive"
	StrategyCompetitive Strategy = "competitive"
	StrategyPremium     Strategy = "premium"
	StrategyNoData      Strategy = "no_data"
)

// PriceAdvice is the advisor's recommendation for one product.
type PriceAdvice struct {
	RecommendedPrice float64  `json:"recommended_price"`
	Strategy         Strategy `json:"strategy"`
	Confidence       int      `json:"confidence"` // 0-100
	Reasoning        string   `json:"reasoning"`
	Alerts           []string `json:"alerts"`
}

// Product is a catalog item whose competitor prices are tracked.
type Product struct {
	ID        int             `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	MyPrice   float64         `json:"my_price" db:"my_price"`
	Currency  string          `json:"currency" db:"currency"`
	Link      sql.NullString  `json:"-" db:"link"`
	ScrapedAt *time.Time      `json:"scraped_at" db:"scraped_at"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`

	// CompetitorPrices holds the latest per-source snapshot prices, loaded
	// alongside the product. Not a database column.
	CompetitorPrices []float64 `json:"competitor_prices"`
}

// MarshalJSON flattens the nullable link column.
func (p *Product) MarshalJSON() ([]byte, error) {
	type Alias Product
	link := ""
	if p.Link.Valid {
		link = p.Link.String
	}
	return json.Marshal(&struct {
		*Alias
		Link string `json:"link"`
	}{
		Alias: (*Alias)(p),
		Link:  link,
	})
}

// HasCompetitorData returns true if at least one competitor price is usable.
func (p *Product) HasCompetitorData() bool {
	for _, price := range p.CompetitorPrices {
		if price > 0 {
			return true
		}
	}
	return false
}

// PriceSnapshot is one persisted CompetitorResult. Snapshots for a product
// are replaced wholesale on each refresh, never updated in place.
type PriceSnapshot struct {
	ID          int       `json:"id" db:"id"`
	ProductID   int       `json:"product_id" db:"product_id"`
	SourceID    string    `json:"source_id" db:"source_id"`
	MatchedName string    `json:"matched_name" db:"matched_name"`
	Price       float64   `json:"price" db:"price"`
	URL         string    `json:"url" db:"url"`
	Found       bool      `json:"found" db:"found"`
	MatchScore  int       `json:"match_score" db:"match_score"`
	Note        string    `json:"note" db:"note"`
	ScrapedAt   time.Time `json:"scraped_at" db:"scraped_at"`
}

// Suggestion is one row of the bulk catalog summary.
type Suggestion struct {
	Name              string  `json:"name"`
	MyPrice           float64 `json:"my_price"`
	CompetitorAverage float64 `json:"competitor_average"`
	Suggestion        string  `json:"suggestion"` // 🔴 / 🟢 / 🟡
	SuggestedPrice    float64 `json:"suggested_price"`
}

// CatalogItem is a product parsed from invoice text lines, before it is
// added to the catalog.
type CatalogItem struct {
	Name    string  `json:"name"`
	MyPrice float64 `json:"my_price"`
}

// AddProductRequest is the request to add a product to the catalog.
type AddProductRequest struct {
	Name    string  `json:"name" validate:"required"`
	MyPrice float64 `json:"my_price"`
	Link    string  `json:"link"`
}

// ParseInvoiceRequest carries already-extracted invoice text lines. The
// OCR/PDF step that produces them lives outside this service.
type ParseInvoiceRequest struct {
	Lines []string `json:"lines" validate:"required"`
}
