package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizePrice parses a raw, locale-ambiguous price string into a decimal
// amount. It handles both the European convention (1.299,00 KM) and the
// US/UK convention (1,299.00) by treating the rightmost separator as the
// decimal point when both occur. Invalid input degrades to 0, which callers
// interpret as "no usable price".
func NormalizePrice(raw string) float64 {
	cleaned := stripNonNumeric(raw)
	if cleaned == "" {
		return 0
	}

	commaCount := strings.Count(cleaned, ",")
	dotCount := strings.Count(cleaned, ".")

	switch {
	case commaCount > 0 && dotCount > 0:
		// Mixed format - the rightmost separator is the decimal point
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			// European: 1.299,00
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			// US: 1,299.00
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}

	case commaCount > 0:
		// Only commas - decimal separator when exactly one with <=2 trailing
		// digits, otherwise thousand separators
		parts := strings.Split(cleaned, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			cleaned = parts[0] + "." + parts[1]
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}

	case dotCount > 1:
		// Multiple dots - all but the last are thousand separators
		lastDot := strings.LastIndex(cleaned, ".")
		cleaned = strings.ReplaceAll(cleaned[:lastDot], ".", "") + cleaned[lastDot:]
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0
	}

	return math.Round(price*100) / 100
}

// stripNonNumeric keeps only digits, separators and a leading minus sign.
func stripNonNumeric(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// FormatPrice renders a price for display, e.g. "1299.00 KM".
func FormatPrice(price float64, currency string) string {
	if math.IsNaN(price) {
		return "N/A"
	}
	if currency == "" {
		currency = "KM"
	}
	return fmt.Sprintf("%.2f %s", price, currency)
}

// knownCurrencies in match order; KM (convertible mark) is the default for
// the reference deployment's market.
var knownCurrencies = []string{"BAM", "KM", "EUR", "USD"}

// ExtractCurrency returns the currency code mentioned in the text, or "KM"
// when none is recognized.
func ExtractCurrency(text string) string {
	upper := strings.ToUpper(text)
	for _, currency := range knownCurrencies {
		if strings.Contains(upper, currency) {
			return currency
		}
	}
	return "KM"
}

// IsValidPrice reports whether a parsed price is inside sane bounds.
func IsValidPrice(price float64) bool {
	return price >= 0.01 && price <= 999999
}
