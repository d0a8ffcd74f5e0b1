package scraper

import (
	"regexp"
	"strings"
)

// BotDetector spots bot walls, CAPTCHAs and block pages in fetched markup
// so the fallback tier can report them as transport failures instead of
// returning a bogus "no result".
type BotDetector struct {
	patterns []*regexp.Regexp
}

// NewBotDetector creates a detector with the known wall markers.
func NewBotDetector() *BotDetector {
	return &BotDetector{
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)access denied`),
			regexp.MustCompile(`(?i)bot detected`),
			regexp.MustCompile(`(?i)verify you are human`),
			regexp.MustCompile(`(?i)security check`),
			regexp.MustCompile(`(?i)checking your browser`),
			regexp.MustCompile(`(?i)ddos protection`),
			regexp.MustCompile(`(?i)captcha`),
			regexp.MustCompile(`(?i)too many requests`),
			regexp.MustCompile(`(?i)403 forbidden`),
			regexp.MustCompile(`(?i)503 service unavailable`),
		},
	}
}

// Detect returns true and the matched marker when the content looks like a
// bot wall or block page rather than a search result.
func (bd *BotDetector) Detect(content string) (bool, string) {
	lowered := strings.ToLower(content)
	for _, pattern := range bd.patterns {
		if marker := pattern.FindString(lowered); marker != "" {
			return true, marker
		}
	}
	return false, ""
}
