package scraper

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"pricewatch/models"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// stealthScript hides the obvious automation markers that trip shop-side
// bot detection.
const stealthScript = `
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	Object.defineProperty(navigator, 'languages', { get: () => ['bs-BA', 'en-US'] });
	Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3] });
	window.chrome = { runtime: {} };
`

// BrowserTier is the primary retrieval mechanism: a shared headless browser
// with one BrowserSource per configured shop. If the browser fails to
// launch, Healthy reports the error and the orchestrator falls back to the
// static tier for the whole batch.
type BrowserTier struct {
	browser   *rod.Browser
	launchErr error
	sources   []Source
}

// NewBrowserTier launches the shared browser and builds a source per config.
// A launch failure is recorded rather than returned so the caller can still
// construct the orchestrator and rely on the fallback tier.
func NewBrowserTier(configs []SourceConfig) *BrowserTier {
	tier := &BrowserTier{}

	browser, err := launchBrowser()
	if err != nil {
		log.Printf("⚠️ Browser tier unavailable: %v", err)
		tier.launchErr = err
	} else {
		tier.browser = browser
	}

	for _, cfg := range configs {
		tier.sources = append(tier.sources, &BrowserSource{cfg: cfg, tier: tier})
	}
	return tier
}

// launchBrowser starts a headless browser, preferring the system Chromium
// when running in a container.
func launchBrowser() (browser *rod.Browser, err error) {
	err = rod.Try(func() {
		l := launcher.New().
			Headless(true).
			NoSandbox(true).
			Leakless(false)

		if _, statErr := os.Stat("/usr/bin/chromium-browser"); statErr == nil {
			l = l.Bin("/usr/bin/chromium-browser")
		}

		controlURL := l.MustLaunch()
		browser = rod.New().ControlURL(controlURL).MustConnect()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %v", err)
	}
	return browser, nil
}

// Sources returns the tier's sources in configuration order.
func (t *BrowserTier) Sources() []Source {
	return t.sources
}

// Healthy returns nil when the browser backend is usable.
func (t *BrowserTier) Healthy() error {
	if t.launchErr != nil {
		return t.launchErr
	}
	if t.browser == nil {
		return fmt.Errorf("browser not connected")
	}
	return nil
}

// Name identifies the tier in scrape results.
func (t *BrowserTier) Name() string {
	return "browser"
}

// Close shuts the shared browser down.
func (t *BrowserTier) Close() {
	if t.browser != nil {
		_ = rod.Try(func() { t.browser.MustClose() })
	}
}

// BrowserSource fetches one shop's first search result through the shared
// browser.
type BrowserSource struct {
	cfg  SourceConfig
	tier *BrowserTier
}

// ID returns the source identifier.
func (s *BrowserSource) ID() string {
	return s.cfg.ID
}

// FetchCandidate navigates to the shop's search page and extracts the first
// product card. Returns (nil, nil) when the page renders but has no result;
// navigation and extraction failures surface as errors.
func (s *BrowserSource) FetchCandidate(ctx context.Context, query string) (*models.RawCandidate, error) {
	if err := s.tier.Healthy(); err != nil {
		return nil, err
	}

	searchURL := s.cfg.BuildSearchURL(query)
	var candidate *models.RawCandidate

	err := rod.Try(func() {
		page := s.tier.browser.Context(ctx).MustPage(searchURL)
		defer page.MustClose()

		page.MustSetViewport(1280, 720, 1.0, false)
		page.MustEvalOnNewDocument(stealthScript)
		page.MustWaitLoad()
		time.Sleep(2 * time.Second) // dynamic search results

		hasItem, item, _ := page.Has(s.cfg.ItemSelector)
		if !hasItem {
			return
		}

		title, titleEl := firstElementText(item, s.cfg.TitleSelector)
		priceText, _ := firstElementText(item, s.cfg.PriceSelector)
		if title == "" || priceText == "" {
			return
		}

		link := searchURL
		if hasLink, linkEl, _ := item.Has(s.cfg.LinkSelector); hasLink {
			if href, hrefErr := linkEl.Attribute("href"); hrefErr == nil && href != nil {
				link = resolveLink(*href, searchURL)
			}
		} else if titleEl != nil {
			if href, hrefErr := titleEl.Attribute("href"); hrefErr == nil && href != nil {
				link = resolveLink(*href, searchURL)
			}
		}

		candidate = &models.RawCandidate{
			Title:        strings.TrimSpace(title),
			RawPriceText: strings.TrimSpace(priceText),
			URL:          link,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("browser fetch failed for %s: %v", s.cfg.ID, err)
	}
	return candidate, nil
}

// firstElementText returns the text of the first selector alternative that
// matches under the element.
func firstElementText(el *rod.Element, selectors string) (string, *rod.Element) {
	for _, selector := range strings.Split(selectors, ",") {
		selector = strings.TrimSpace(selector)
		if selector == "" {
			continue
		}
		if has, match, _ := el.Has(selector); has {
			text, err := match.Text()
			if err == nil && strings.TrimSpace(text) != "" {
				return text, match
			}
		}
	}
	return "", nil
}
