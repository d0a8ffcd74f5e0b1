package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSearchURL(t *testing.T) {
	cfg := SourceConfig{SearchURL: "https://domod.ba/pretraga?keywords=%s"}
	assert.Equal(t,
		"https://domod.ba/pretraga?keywords=samsung+ue55+%2B+tv",
		cfg.BuildSearchURL("samsung ue55 + tv"))
}

func TestDefaultSourceConfigs(t *testing.T) {
	configs := DefaultSourceConfigs()
	assert.Len(t, configs, 4)

	seen := make(map[string]bool)
	for _, cfg := range configs {
		assert.False(t, seen[cfg.ID], "duplicate source id %s", cfg.ID)
		seen[cfg.ID] = true
		assert.Contains(t, cfg.SearchURL, "%s")
		assert.NotEmpty(t, cfg.ItemSelector)
		assert.NotEmpty(t, cfg.TitleSelector)
		assert.NotEmpty(t, cfg.PriceSelector)
	}
}

func TestResolveLink(t *testing.T) {
	search := "https://domod.ba/pretraga?keywords=tv"

	assert.Equal(t, "https://domod.ba/proizvod/1", resolveLink("/proizvod/1", search))
	assert.Equal(t, "https://other.ba/p/2", resolveLink("https://other.ba/p/2", search))
	// No href falls back to the search page itself
	assert.Equal(t, search, resolveLink("", search))
}

func TestBotDetector(t *testing.T) {
	bd := NewBotDetector()

	blocked, marker := bd.Detect("<html><title>Access Denied</title></html>")
	assert.True(t, blocked)
	assert.Equal(t, "access denied", marker)

	blocked, marker = bd.Detect("Please complete the CAPTCHA to continue")
	assert.True(t, blocked)
	assert.Equal(t, "captcha", marker)

	blocked, _ = bd.Detect("<div class=\"product-item\">Samsung TV 1.299,00 KM</div>")
	assert.False(t, blocked)
}
