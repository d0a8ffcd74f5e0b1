// Package invoice turns already-extracted invoice text lines into catalog
// items. OCR and PDF extraction happen upstream; this package only ever
// sees lines of text.
package invoice

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"pricewatch/models"
)

// headerStops mark table headers and invoice footers; name reconstruction
// and price collection never cross them.
var headerStops = []string{
	"RBŠifraNaziv",
	"ŠifraNaziv",
	"Cijena sa",
	"Vrijednost",
	"PDV broj",
	"PORESKE STOPE",
	"Ukupno",
	"Za platiti",
}

var (
	qtyRe        = regexp.MustCompile(`(?i)(\d+[.,]\d{2})\s*KOM`)
	singleLineRe = regexp.MustCompile(`(?i)^(.+?)\s+(\d+[.,]\d{2})(?:\s*KM)?$`)
	numberRe     = regexp.MustCompile(`\d[\d.,]*`)
	letterRe     = regexp.MustCompile(`[A-Za-zČĆŽŠĐčćžšđ]`)
	digitishRe   = regexp.MustCompile(`[\d.,]`)
)

// ParseLines extracts products with unit prices from invoice text lines.
// Quantity rows ("2,00 KOM") anchor multi-line items: the name is stitched
// from the preceding text lines and the unit price is the largest
// VAT-inclusive total near the row divided by the quantity. Lines that
// carry a single trailing price are taken as one-line items.
func ParseLines(rawLines []string) []models.CatalogItem {
	var lines []string
	for _, line := range rawLines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	var items []models.CatalogItem
	for i, line := range lines {
		qtyMatch := qtyRe.FindStringSubmatch(line)
		if qtyMatch == nil {
			if single := singleLineRe.FindStringSubmatch(line); single != nil {
				name := strings.TrimSpace(single[1])
				price := parsePriceToken(single[2])
				if name != "" && price > 0 {
					items = append(items, models.CatalogItem{Name: name, MyPrice: price})
				}
			}
			continue
		}

		qty := parsePriceToken(qtyMatch[1])
		if qty <= 0 {
			continue
		}

		name := reconstructName(lines, i)
		if name == "" {
			continue
		}

		total := largestPriceNear(lines, i)
		if total <= 0 {
			continue
		}

		unitPrice := math.Round(total/qty*100) / 100
		items = append(items, models.CatalogItem{Name: name, MyPrice: unitPrice})
	}
	return items
}

// reconstructName stitches up to four preceding text lines into the item
// name, skipping numeric rows and stopping at table headers.
func reconstructName(lines []string, idx int) string {
	var parts []string
	for j := idx - 1; j >= 0 && len(parts) < 4; j-- {
		prev := lines[j]
		if isHeaderLine(prev) {
			break
		}
		if isMostlyNumeric(prev) {
			continue
		}
		parts = append([]string{prev}, parts...)
	}
	name := strings.Join(parts, " ")
	return strings.TrimSpace(strings.Join(strings.Fields(name), " "))
}

// largestPriceNear collects price tokens on the quantity row and the rows
// after it (up to a header), returning the largest - the VAT-inclusive
// line total on the reference invoice layout.
func largestPriceNear(lines []string, idx int) float64 {
	best := 0.0
	for k := idx; k < len(lines) && k < idx+12; k++ {
		if k > idx && isHeaderLine(lines[k]) {
			break
		}
		for _, token := range numberRe.FindAllString(lines[k], -1) {
			if price := parsePriceToken(token); price > best {
				best = price
			}
		}
	}
	return best
}

func isHeaderLine(line string) bool {
	for _, stop := range headerStops {
		if strings.Contains(line, stop) {
			return true
		}
	}
	return false
}

func isMostlyNumeric(line string) bool {
	return digitishRe.MatchString(line) && !letterRe.MatchString(line)
}

// parsePriceToken parses one numeric token with invoice-specific locale
// rules. Unlike price normalization for scraped listings, a lone dot
// followed by exactly three digits is a thousand separator here ("1.234"
// is 1234, not 1.234).
func parsePriceToken(token string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			return r
		}
		return -1
	}, token)
	if cleaned == "" {
		return 0
	}

	hasDot := strings.Contains(cleaned, ".")
	hasComma := strings.Contains(cleaned, ",")
	switch {
	case hasDot && hasComma:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case hasComma:
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case hasDot:
		parts := strings.Split(cleaned, ".")
		if len(parts[len(parts)-1]) == 3 {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) {
		return 0
	}
	return value
}
