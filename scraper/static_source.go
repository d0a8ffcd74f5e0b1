package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"pricewatch/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const staticUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// fallbackPriceSelectors are tried in order when a shop's configured price
// selector finds nothing in the static markup.
var fallbackPriceSelectors = []string{".price", ".regular-price", ".sale-price", "[class*=price]", ".amount"}

// StaticTier is the secondary, lower-fidelity retrieval mechanism: plain
// HTTP fetch plus static markup parsing. It is used for an entire batch
// when the browser tier is unavailable.
type StaticTier struct {
	client   *http.Client
	detector *BotDetector
	sources  []Source

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewStaticTier builds a static source per config sharing one HTTP client
// and per-host politeness limiters.
func NewStaticTier(configs []SourceConfig, timeout time.Duration) *StaticTier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tier := &StaticTier{
		client:   &http.Client{Timeout: timeout},
		detector: NewBotDetector(),
		limiters: make(map[string]*rate.Limiter),
	}
	for _, cfg := range configs {
		tier.sources = append(tier.sources, &StaticSource{cfg: cfg, tier: tier})
	}
	return tier
}

// Sources returns the tier's sources in configuration order.
func (t *StaticTier) Sources() []Source {
	return t.sources
}

// Healthy always reports usable; plain HTTP has no backend to start.
func (t *StaticTier) Healthy() error {
	return nil
}

// Name identifies the tier in scrape results.
func (t *StaticTier) Name() string {
	return "static"
}

// Close is a no-op; the tier holds no long-lived backend.
func (t *StaticTier) Close() {}

// limiter returns the politeness limiter for a host, one request per second
// with a small burst.
func (t *StaticTier) limiter(host string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(1), 2)
		t.limiters[host] = l
	}
	return l
}

// fetchDocument GETs a search page with rate limiting and one retry, and
// rejects bot walls before parsing.
func (t *StaticTier) fetchDocument(ctx context.Context, searchURL string) (*goquery.Document, error) {
	parsed, err := url.Parse(searchURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search URL: %v", err)
	}
	if err := t.limiter(parsed.Host).Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Second):
			}
		}

		doc, err := t.fetchOnce(ctx, searchURL)
		if err == nil {
			return doc, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (t *StaticTier) fetchOnce(ctx context.Context, searchURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", staticUserAgent)
	req.Header.Set("Accept-Language", "bs-BA,bs;q=0.9,en;q=0.8")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %v", err)
	}

	if blocked, marker := t.detector.Detect(doc.Find("title").Text() + " " + doc.Find("body").Text()); blocked {
		return nil, fmt.Errorf("bot wall detected (%s)", marker)
	}
	return doc, nil
}

// StaticSource extracts one shop's first search result from static markup.
type StaticSource struct {
	cfg  SourceConfig
	tier *StaticTier
}

// ID returns the source identifier.
func (s *StaticSource) ID() string {
	return s.cfg.ID
}

// FetchCandidate fetches the shop's search page and extracts the first
// product card. Returns (nil, nil) when the page has no result.
func (s *StaticSource) FetchCandidate(ctx context.Context, query string) (*models.RawCandidate, error) {
	searchURL := s.cfg.BuildSearchURL(query)

	doc, err := s.tier.fetchDocument(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("static fetch failed for %s: %v", s.cfg.ID, err)
	}

	card := doc.Find(s.cfg.ItemSelector).First()
	if card.Length() == 0 {
		return nil, nil
	}

	title := strings.TrimSpace(card.Find(s.cfg.TitleSelector).First().Text())
	priceText := firstSelectionText(card, s.cfg.PriceSelector)
	if priceText == "" {
		for _, selector := range fallbackPriceSelectors {
			if priceText = firstSelectionText(card, selector); priceText != "" {
				break
			}
		}
	}
	if title == "" || priceText == "" {
		return nil, nil
	}

	link := searchURL
	if href, ok := card.Find(s.cfg.LinkSelector).First().Attr("href"); ok {
		link = resolveLink(href, searchURL)
	}

	return &models.RawCandidate{
		Title:        title,
		RawPriceText: priceText,
		URL:          link,
	}, nil
}

func firstSelectionText(card *goquery.Selection, selectors string) string {
	for _, selector := range strings.Split(selectors, ",") {
		selector = strings.TrimSpace(selector)
		if selector == "" {
			continue
		}
		if text := strings.TrimSpace(card.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
