package pricing

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// DefaultMatchThreshold is the minimum score for a candidate to be accepted
// as the same product.
const DefaultMatchThreshold = 60

// knownBrands is the fixed lookup table for brand extraction. Matching is a
// case-insensitive substring check against the candidate name.
var knownBrands = []string{
	"Samsung", "LG", "Sony", "Bosch", "Whirlpool", "Electrolux",
	"Gorenje", "Beko", "Candy", "Indesit", "Hisense", "TCL",
	"Philips", "Panasonic", "Sharp", "Toshiba", "Haier", "Midea",
	"Ariston", "Zanussi", "AEG", "Miele", "Siemens", "Tefal", "Xiaomi",
}

var modelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[A-Za-z]+\s*-?\s*\d[A-Za-z\d]*`), // ABC-1234, UE55, A1234B
	regexp.MustCompile(`\d{3,}-?\d*`),                    // 1234 or 1234-56
}

var (
	punctRe      = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Matcher scores how likely two product names refer to the same physical
// product.
type Matcher struct {
	Threshold int
}

// NewMatcher creates a matcher with the default acceptance threshold.
func NewMatcher() *Matcher {
	return &Matcher{Threshold: DefaultMatchThreshold}
}

// NormalizeName lowercases a product name, replaces punctuation with spaces
// and collapses whitespace.
func NormalizeName(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = punctRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// MatchScore returns a 0-100 confidence that the candidate name refers to
// the queried product. The base is a word-order-independent token-set
// similarity; a brand mismatch is penalized harshly and a matching
// model/serial token is rewarded.
func (m *Matcher) MatchScore(query, candidate string) int {
	if strings.TrimSpace(query) == "" || strings.TrimSpace(candidate) == "" {
		return 0
	}

	score := tokenSetRatio(NormalizeName(query), NormalizeName(candidate))

	brand1 := ExtractBrand(query)
	brand2 := ExtractBrand(candidate)
	if brand1 != "" && brand2 != "" {
		if !strings.EqualFold(brand1, brand2) {
			score *= 0.3
		} else {
			score = math.Min(100, score*1.1)
		}
	}

	model1 := ExtractModel(query)
	model2 := ExtractModel(candidate)
	if model1 != "" && model2 != "" {
		if similarity(model1, model2) > 80 {
			score = math.Min(100, score*1.3)
		}
	}

	return int(math.Round(math.Max(0, math.Min(100, score))))
}

// IsAcceptableMatch reports whether a score clears the matcher's threshold.
func (m *Matcher) IsAcceptableMatch(score int) bool {
	threshold := m.Threshold
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	return score >= threshold
}

// FindBestMatch returns the index and score of the best-scoring candidate
// name at or above the threshold, or (-1, 0) when none qualifies.
func (m *Matcher) FindBestMatch(query string, names []string) (int, int) {
	bestIdx, bestScore := -1, 0
	for i, name := range names {
		score := m.MatchScore(query, name)
		if score > bestScore && m.IsAcceptableMatch(score) {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx, bestScore
}

// ExtractBrand returns the brand mentioned in a product name, falling back
// to the first word when no known brand is present.
func ExtractBrand(text string) string {
	lower := strings.ToLower(text)
	for _, brand := range knownBrands {
		if strings.Contains(lower, strings.ToLower(brand)) {
			return brand
		}
	}

	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) > 0 && len(fields[0]) > 2 {
		return fields[0]
	}
	return ""
}

// ExtractModel pulls model/serial tokens out of a product name: runs of
// letters+digits or digit runs of length >= 3, uppercased with separators
// removed.
func ExtractModel(text string) string {
	var tokens []string
	for _, pattern := range modelPatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			cleaned := strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(match))
			if len(cleaned) >= 3 && containsDigit(cleaned) {
				tokens = append(tokens, cleaned)
			}
		}
	}
	return strings.Join(tokens, " ")
}

func containsDigit(s string) bool {
	return strings.IndexAny(s, "0123456789") >= 0
}

// tokenSetRatio computes the fuzzball-style token-set similarity (0-100):
// the candidate token sets are split into intersection and remainders, and
// the best pairwise similarity of the rejoined strings wins. Word order and
// duplicate tokens do not affect the result.
func tokenSetRatio(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for tok := range tokensA {
		if _, ok := tokensB[tok]; ok {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tokensB {
		if _, ok := tokensA[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	combinedA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := similarity(base, combinedA)
	if s := similarity(base, combinedB); s > best {
		best = s
	}
	if s := similarity(combinedA, combinedB); s > best {
		best = s
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// similarity is the 0-100 pairwise string similarity used for both the
// token-set base score and model-token comparison.
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	return levenshtein.Similarity(a, b, nil) * 100
}
