package scraper

import (
	"context"
	"net/url"
	"strings"

	"pricewatch/models"
)

// Source is one competitor site queried for a single candidate listing.
// FetchCandidate returns (nil, nil) when the site has no result for the
// query; an error means a transport-level failure only.
type Source interface {
	ID() string
	FetchCandidate(ctx context.Context, query string) (*models.RawCandidate, error)
}

// SourceConfig describes how to search one competitor site and where the
// first result's fields live in its markup.
type SourceConfig struct {
	ID           string
	SearchURL    string // printf-style pattern with one %s for the query
	ItemSelector string
	TitleSelector string
	PriceSelector string
	LinkSelector  string
}

// BuildSearchURL substitutes the URL-encoded query into the search pattern.
func (c SourceConfig) BuildSearchURL(query string) string {
	return strings.Replace(c.SearchURL, "%s", url.QueryEscape(query), 1)
}

// DefaultSourceConfigs returns the four reference competitor shops.
func DefaultSourceConfigs() []SourceConfig {
	return []SourceConfig{
		{
			ID:            "domod",
			SearchURL:     "https://domod.ba/pretraga?keywords=%s",
			ItemSelector:  ".product-item",
			TitleSelector: ".product-title a",
			PriceSelector: ".price-new, .price",
			LinkSelector:  ".product-title a",
		},
		{
			ID:            "ekupi",
			SearchURL:     "https://www.ekupi.ba/bs/search/?text=%s",
			ItemSelector:  ".product-item",
			TitleSelector: "a.name",
			PriceSelector: ".price",
			LinkSelector:  "a.name",
		},
		{
			ID:            "technoshop",
			SearchURL:     "https://technoshop.ba/pretraga?keywords=%s",
			ItemSelector:  ".product-card",
			TitleSelector: ".product-title a",
			PriceSelector: ".price-new, .price",
			LinkSelector:  ".product-title a",
		},
		{
			ID:            "tehnomag",
			SearchURL:     "https://tehnomag.com/pretraga?keywords=%s",
			ItemSelector:  ".product-layout",
			TitleSelector: ".product-title a",
			PriceSelector: ".price-new, .price",
			LinkSelector:  ".image a",
		},
	}
}

// resolveLink turns a possibly relative href into an absolute URL against
// the search page it came from.
func resolveLink(href, searchURL string) string {
	if href == "" {
		return searchURL
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(searchURL)
	if err != nil {
		return searchURL
	}
	ref, err := url.Parse(href)
	if err != nil {
		return searchURL
	}
	return base.ResolveReference(ref).String()
}
