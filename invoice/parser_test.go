package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLinesMultiLineItem(t *testing.T) {
	lines := []string{
		"RBŠifraNaziv artikla JM Količina",
		"Frižider Gorenje",
		"NRK6192AW4",
		"2,00 KOM",
		"899,00",
		"1.798,00",
	}

	items := ParseLines(lines)
	require.Len(t, items, 1)
	assert.Equal(t, "Frižider Gorenje NRK6192AW4", items[0].Name)
	assert.Equal(t, 899.00, items[0].MyPrice)
}

func TestParseLinesSkipsCodeRowsInName(t *testing.T) {
	lines := []string{
		"ŠifraNaziv artikla",
		"Klima uređaj Vivax",
		"123456",
		"1,00 KOM",
		"799,00",
	}

	items := ParseLines(lines)
	require.Len(t, items, 1)
	assert.Equal(t, "Klima uređaj Vivax", items[0].Name)
	assert.Equal(t, 799.00, items[0].MyPrice)
}

func TestParseLinesStopsPriceScanAtFooter(t *testing.T) {
	lines := []string{
		"ŠifraNaziv artikla",
		"Toster Tefal TT1650",
		"1,00 KOM",
		"89,90",
		"Ukupno 99.999,00",
	}

	items := ParseLines(lines)
	require.Len(t, items, 1)
	assert.Equal(t, 89.90, items[0].MyPrice, "the invoice total must not leak into the item price")
}

func TestParseLinesSingleLineItems(t *testing.T) {
	lines := []string{
		"Daljinski upravljač 25,50",
		"Kabl HDMI 2m 15,00 KM",
	}

	items := ParseLines(lines)
	require.Len(t, items, 2)
	assert.Equal(t, "Daljinski upravljač", items[0].Name)
	assert.Equal(t, 25.50, items[0].MyPrice)
	assert.Equal(t, "Kabl HDMI 2m", items[1].Name)
	assert.Equal(t, 15.00, items[1].MyPrice)
}

func TestParseLinesThousandSeparator(t *testing.T) {
	lines := []string{
		"ŠifraNaziv artikla",
		"Televizor Samsung UE65",
		"1,00 KOM",
		"2.599",
	}

	items := ParseLines(lines)
	require.Len(t, items, 1)
	assert.Equal(t, 2599.00, items[0].MyPrice)
}

func TestParseLinesEmptyInput(t *testing.T) {
	assert.Empty(t, ParseLines(nil))
	assert.Empty(t, ParseLines([]string{"", "   ", "PORESKE STOPE"}))
}

func TestParsePriceToken(t *testing.T) {
	tests := []struct {
		token string
		want  float64
	}{
		{"1.798,00", 1798.00},
		{"899,00", 899.00},
		{"2.599", 2599},  // lone dot with 3 trailing digits is a thousand separator
		{"89.90", 89.90}, // but 2 trailing digits is a decimal
		{"2,00", 2.00},
		{"", 0},
		{"KOM", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parsePriceToken(tt.token), "parsePriceToken(%q)", tt.token)
	}
}
