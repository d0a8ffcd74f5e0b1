package scraper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"pricewatch/cache"
	"pricewatch/models"
	"pricewatch/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	id        string
	candidate *models.RawCandidate
	err       error
	calls     atomic.Int32
}

func (s *fakeSource) ID() string { return s.id }

func (s *fakeSource) FetchCandidate(ctx context.Context, query string) (*models.RawCandidate, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.candidate, nil
}

type fakeTier struct {
	name       string
	sources    []Source
	healthyErr error
}

func (t *fakeTier) Name() string      { return t.name }
func (t *fakeTier) Sources() []Source { return t.sources }
func (t *fakeTier) Healthy() error    { return t.healthyErr }
func (t *fakeTier) Close()            {}

func newTestOrchestrator(primary, fallback Tier) *Orchestrator {
	return New(primary, fallback, pricing.NewMatcher(), cache.New(time.Hour), Options{
		SourceTimeout: time.Second,
		BatchDelay:    time.Millisecond,
	})
}

func TestScrapeProductSuccess(t *testing.T) {
	primary := &fakeTier{name: "browser", sources: []Source{
		&fakeSource{id: "domod", candidate: &models.RawCandidate{
			Title: "Samsung UE55RU7102 Smart TV", RawPriceText: "1.299,00 KM", URL: "https://domod.ba/p/1",
		}},
		&fakeSource{id: "ekupi", candidate: &models.RawCandidate{
			Title: "Samsung UE55RU7102 Smart TV 55", RawPriceText: "1,249.00", URL: "https://ekupi.ba/p/2",
		}},
	}}

	o := newTestOrchestrator(primary, &fakeTier{name: "static"})
	result := o.ScrapeProduct(context.Background(), models.SourceQuery{
		ProductName: "Samsung UE55RU7102 Smart TV", ReferencePrice: 1199,
	})

	require.Equal(t, models.ScrapeSuccess, result.Status)
	assert.Equal(t, "browser", result.Tier)
	require.Len(t, result.Results, 2)

	assert.True(t, result.Results[0].Found)
	assert.Equal(t, 1299.00, result.Results[0].Price)
	assert.True(t, result.Results[1].Found)
	assert.Equal(t, 1249.00, result.Results[1].Price)

	require.NotNil(t, result.Analysis)
	assert.Equal(t, 2, result.Analysis.CompetitorsFound)
	assert.Equal(t, 1249.00, result.Analysis.MinCompetitor)
}

func TestScrapeProductRejectsBadMatch(t *testing.T) {
	primary := &fakeTier{name: "browser", sources: []Source{
		&fakeSource{id: "domod", candidate: &models.RawCandidate{
			Title: "Samsung UE55RU7102 Smart TV", RawPriceText: "1.299,00 KM", URL: "https://domod.ba/p/1",
		}},
		&fakeSource{id: "ekupi", candidate: &models.RawCandidate{
			Title: "Gorenje NRK6192AW4 frižider", RawPriceText: "899,00 KM", URL: "https://ekupi.ba/p/9",
		}},
	}}

	o := newTestOrchestrator(primary, &fakeTier{name: "static"})
	result := o.ScrapeProduct(context.Background(), models.SourceQuery{
		ProductName: "Samsung UE55RU7102 Smart TV",
	})

	assert.Equal(t, models.ScrapePartial, result.Status)

	rejected := result.Results[1]
	assert.False(t, rejected.Found)
	assert.Equal(t, 0.0, rejected.Price)
	assert.Contains(t, rejected.Note, "rejected: match score")
	// The rejected candidate keeps its identity for diagnostics
	assert.Equal(t, "Gorenje NRK6192AW4 frižider", rejected.MatchedName)
}

func TestScrapeProductUnparseablePrice(t *testing.T) {
	primary := &fakeTier{name: "browser", sources: []Source{
		&fakeSource{id: "domod", candidate: &models.RawCandidate{
			Title: "Samsung UE55RU7102 Smart TV", RawPriceText: "Nema na stanju",
		}},
	}}

	o := newTestOrchestrator(primary, &fakeTier{name: "static"})
	result := o.ScrapeProduct(context.Background(), models.SourceQuery{
		ProductName: "Samsung UE55RU7102 Smart TV",
	})

	assert.Equal(t, models.ScrapeFailed, result.Status)
	assert.False(t, result.Results[0].Found)
	assert.Contains(t, result.Results[0].Note, "unparseable price")
}

func TestScrapeProductAllSourcesFail(t *testing.T) {
	src1 := &fakeSource{id: "domod", err: errors.New("timeout")}
	src2 := &fakeSource{id: "ekupi"} // nil candidate = no result
	primary := &fakeTier{name: "browser", sources: []Source{src1, src2}}

	o := newTestOrchestrator(primary, &fakeTier{name: "static"})
	query := models.SourceQuery{ProductName: "Samsung UE55RU7102"}

	result := o.ScrapeProduct(context.Background(), query)
	require.Equal(t, models.ScrapeFailed, result.Status)
	assert.Equal(t, []float64{0, 0}, result.Prices())
	assert.Contains(t, result.Results[0].Note, "source failed")
	assert.Equal(t, "no result", result.Results[1].Note)

	// Failed results are not cached; a retry hits the sources again
	o.ScrapeProduct(context.Background(), query)
	assert.Equal(t, int32(2), src1.calls.Load())
}

func TestScrapeProductCacheHit(t *testing.T) {
	src := &fakeSource{id: "domod", candidate: &models.RawCandidate{
		Title: "Samsung UE55RU7102 Smart TV", RawPriceText: "1.299,00 KM",
	}}
	primary := &fakeTier{name: "browser", sources: []Source{src}}

	o := newTestOrchestrator(primary, &fakeTier{name: "static"})

	first := o.ScrapeProduct(context.Background(), models.SourceQuery{ProductName: "Samsung UE55RU7102 Smart TV"})
	require.Equal(t, models.ScrapeSuccess, first.Status)

	// Key normalization makes the differently-cased query hit the cache
	second := o.ScrapeProduct(context.Background(), models.SourceQuery{ProductName: "  samsung  ue55ru7102 SMART tv "})
	assert.Equal(t, models.ScrapeCached, second.Status)
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, int32(1), src.calls.Load())

	// The cached copy's status does not leak back into the stored entry
	third := o.ScrapeProduct(context.Background(), models.SourceQuery{ProductName: "Samsung UE55RU7102 Smart TV"})
	assert.Equal(t, models.ScrapeCached, third.Status)
}

func TestScrapeProductFallsBackWhenPrimaryUnhealthy(t *testing.T) {
	primarySrc := &fakeSource{id: "domod", err: errors.New("browser gone")}
	fallbackSrc := &fakeSource{id: "domod", candidate: &models.RawCandidate{
		Title: "Samsung UE55RU7102 Smart TV", RawPriceText: "1.299,00 KM",
	}}

	primary := &fakeTier{name: "browser", sources: []Source{primarySrc}, healthyErr: errors.New("no browser on host")}
	fallback := &fakeTier{name: "static", sources: []Source{fallbackSrc}}

	o := newTestOrchestrator(primary, fallback)
	result := o.ScrapeProduct(context.Background(), models.SourceQuery{ProductName: "Samsung UE55RU7102 Smart TV"})

	assert.Equal(t, "static", result.Tier)
	assert.Equal(t, models.ScrapeSuccess, result.Status)
	assert.Equal(t, int32(0), primarySrc.calls.Load())
}

func TestScrapeCatalog(t *testing.T) {
	src := &fakeSource{id: "domod", candidate: &models.RawCandidate{
		Title: "Samsung UE55RU7102 Smart TV", RawPriceText: "1.299,00 KM",
	}}
	primary := &fakeTier{name: "browser", sources: []Source{src}}

	o := newTestOrchestrator(primary, &fakeTier{name: "static"})
	queries := []models.SourceQuery{
		{ProductName: "Samsung UE55RU7102 Smart TV"},
		{ProductName: "Samsung UE55RU7102 Smart TV"}, // duplicate hits the cache
	}

	results := o.ScrapeCatalog(context.Background(), queries)
	require.Len(t, results, 2)
	assert.Equal(t, models.ScrapeSuccess, results[0].Status)
	assert.Equal(t, models.ScrapeCached, results[1].Status)
}

func TestScrapeCatalogRespectsContextCancellation(t *testing.T) {
	src := &fakeSource{id: "domod", candidate: &models.RawCandidate{
		Title: "Samsung UE55RU7102 Smart TV", RawPriceText: "1.299,00 KM",
	}}
	primary := &fakeTier{name: "browser", sources: []Source{src}}

	o := New(primary, &fakeTier{name: "static"}, pricing.NewMatcher(), cache.New(time.Hour), Options{
		SourceTimeout: time.Second,
		BatchDelay:    time.Hour, // the cancel must cut the batch short
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	queries := []models.SourceQuery{
		{ProductName: "prvi proizvod"},
		{ProductName: "drugi proizvod"},
	}
	results := o.ScrapeCatalog(ctx, queries)
	assert.Len(t, results, 1)
}
