package scraper

import (
	"context"
	"fmt"
	"log"
	"time"

	"pricewatch/cache"
	"pricewatch/models"
	"pricewatch/pricing"

	"golang.org/x/sync/errgroup"
)

// Tier is a retrieval mechanism providing one source per configured shop.
type Tier interface {
	Name() string
	Sources() []Source
	Healthy() error
	Close()
}

// Options tunes the orchestrator's timing.
type Options struct {
	SourceTimeout time.Duration // per-source fetch budget
	BatchDelay    time.Duration // politeness pause between products in a batch
}

// DefaultOptions returns the reference timing: 30s per source, 1.5s between
// products.
func DefaultOptions() Options {
	return Options{
		SourceTimeout: 30 * time.Second,
		BatchDelay:    1500 * time.Millisecond,
	}
}

// Orchestrator fans a product query out to every configured source
// concurrently, validates candidates with the matcher, normalizes raw price
// text, and caches the aggregated result. When the primary (browser) tier
// is unavailable it falls back once to the static tier for the whole batch.
//
// Concurrent identical requests are not coalesced: two callers asking for
// the same uncached product both pay for the full fan-out.
type Orchestrator struct {
	primary  Tier
	fallback Tier
	matcher  *pricing.Matcher
	advisor  *pricing.Advisor
	results  *cache.Cache
	opts     Options
}

// New creates an orchestrator over a primary and fallback tier.
func New(primary, fallback Tier, matcher *pricing.Matcher, results *cache.Cache, opts Options) *Orchestrator {
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = DefaultOptions().SourceTimeout
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = DefaultOptions().BatchDelay
	}
	return &Orchestrator{
		primary:  primary,
		fallback: fallback,
		matcher:  matcher,
		advisor:  pricing.NewAdvisor(),
		results:  results,
		opts:     opts,
	}
}

// Close shuts both tiers down.
func (o *Orchestrator) Close() {
	if o.primary != nil {
		o.primary.Close()
	}
	if o.fallback != nil {
		o.fallback.Close()
	}
}

// ScrapeProduct resolves competitor prices for one product. It never
// returns an error: every failure mode degrades to a result whose status
// tells the caller what happened, down to a zero-filled FAILED result when
// no source produced a usable price.
func (o *Orchestrator) ScrapeProduct(ctx context.Context, query models.SourceQuery) *models.ScrapeResult {
	key := cache.NormalizeKey(query.ProductName)

	if value, ok := o.results.Get(key); ok {
		if cached, ok := value.(*models.ScrapeResult); ok {
			log.Printf("📦 Cache hit for %q", query.ProductName)
			hit := *cached
			hit.Status = models.ScrapeCached
			return &hit
		}
		// Unreadable cache payload counts as a miss
		o.results.Invalidate(key)
	}

	tier := o.primary
	if err := tier.Healthy(); err != nil {
		log.Printf("🔄 Primary tier unavailable (%v), falling back to %s fetch", err, o.fallback.Name())
		tier = o.fallback
	}

	sources := tier.Sources()
	results := make([]models.CompetitorResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			// Each source captures its own failure; nothing aborts the batch
			results[i] = o.fetchOne(gctx, src, query)
			return nil
		})
	}
	_ = g.Wait()

	result := &models.ScrapeResult{
		ProductName: query.ProductName,
		Tier:        tier.Name(),
		Results:     results,
		ScrapedAt:   time.Now(),
	}

	switch found := result.FoundCount(); {
	case found == 0:
		result.Status = models.ScrapeFailed
	case found == len(sources):
		result.Status = models.ScrapeSuccess
	default:
		result.Status = models.ScrapePartial
	}

	analysis := o.advisor.Analyze(query.ReferencePrice, result.Prices())
	result.Analysis = &analysis

	if result.Status != models.ScrapeFailed {
		o.results.Set(key, result)
	} else {
		log.Printf("❌ All sources failed for %q", query.ProductName)
	}

	return result
}

// fetchOne runs the full per-source pipeline: fetch, match, normalize.
// Failures never propagate; they downgrade the result with a diagnostic
// note so spurious matches are not silently dropped.
func (o *Orchestrator) fetchOne(ctx context.Context, src Source, query models.SourceQuery) models.CompetitorResult {
	result := models.CompetitorResult{SourceID: src.ID()}

	fetchCtx, cancel := context.WithTimeout(ctx, o.opts.SourceTimeout)
	defer cancel()

	candidate, err := src.FetchCandidate(fetchCtx, query.ProductName)
	if err != nil {
		log.Printf("⚠️ %s: %v", src.ID(), err)
		result.Note = fmt.Sprintf("source failed: %v", err)
		return result
	}
	if candidate == nil {
		result.Note = "no result"
		return result
	}

	result.MatchedName = candidate.Title
	result.URL = candidate.URL
	result.MatchScore = o.matcher.MatchScore(query.ProductName, candidate.Title)

	if !o.matcher.IsAcceptableMatch(result.MatchScore) {
		result.Note = fmt.Sprintf("rejected: match score %d below threshold %d", result.MatchScore, o.matcher.Threshold)
		return result
	}

	price := pricing.NormalizePrice(candidate.RawPriceText)
	if price == 0 {
		result.Note = fmt.Sprintf("unparseable price %q", candidate.RawPriceText)
		return result
	}

	result.Price = price
	result.Found = true
	return result
}

// ScrapeCatalog scrapes a batch of products sequentially with a fixed
// politeness delay between products. The delay is a deliberate throttle
// toward the upstream shops, not error recovery.
func (o *Orchestrator) ScrapeCatalog(ctx context.Context, queries []models.SourceQuery) []*models.ScrapeResult {
	results := make([]*models.ScrapeResult, 0, len(queries))

	for i, query := range queries {
		if i > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(o.opts.BatchDelay):
			}
		}
		results = append(results, o.ScrapeProduct(ctx, query))
	}
	return results
}
