package parser

import (
	"testing"

	"signal-engine/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestAttributeNearestHeaderWins(t *testing.T) {
	r := NewRegistry()
	textBefore := "Gold (April contract)\n" +
		"Continues on a buy signal from 2,895 as long as there is no close below 2,870.\n" +
		"Silver (March contract)\n"

	attr := r.Attribute(textBefore)
	assert.Equal(t, "Silver", attr.Instrument)
	assert.Equal(t, "SI", attr.Ticker)
	assert.Equal(t, "Precious Metals", attr.AssetClass)
}

func TestAttributeNoHeaderIsUnknown(t *testing.T) {
	r := NewRegistry()
	attr := r.Attribute("No instrument header anywhere in this text.")
	assert.Equal(t, entity.TickerUnknown, attr.Ticker)
	assert.Equal(t, "Unknown", attr.Instrument)
}

func TestAttributeDollarGuard(t *testing.T) {
	r := NewRegistry()

	// "Dollar" followed by a parenthesis belongs to a currency pair
	// header, not the Dollar Index.
	attr := r.Attribute("Australian Dollar (AUD/USD)\n")
	assert.Equal(t, "AUD/USD", attr.Ticker)

	attr = r.Attribute("The Dollar\nContinues higher.\n")
	assert.Equal(t, "DXY", attr.Ticker)
}

func TestAttributeGoldmanSachsGuard(t *testing.T) {
	r := NewRegistry()
	attr := r.Attribute("Goldman Sachs Commodity Index\n")
	assert.Equal(t, entity.TickerUnknown, attr.Ticker)

	attr = r.Attribute("Goldman Sachs\n")
	assert.Equal(t, "GS", attr.Ticker)
}

func TestAttributeCombinedCryptoHeader(t *testing.T) {
	// The ETF fragment sits later in the combined header, so nearest-wins
	// attributes to GBTC; the magnitude reassignment corrects coin-scale
	// prices afterwards.
	r := NewRegistry()
	attr := r.Attribute("Bitcoin & GBTC\n")
	assert.Equal(t, "GBTC", attr.Ticker)
}

func TestHasTicker(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.HasTicker("GC"))
	assert.True(t, r.HasTicker("EUR/USD"))
	assert.False(t, r.HasTicker("ZZZ"))
}

func TestRegistryExtraInstruments(t *testing.T) {
	r := NewRegistry(Instrument{Name: "Platinum", Ticker: "PL", AssetClass: "Precious Metals"})
	assert.True(t, r.HasTicker("PL"))
}

func TestIdentifyPrefersLongerFragment(t *testing.T) {
	r := NewRegistry()
	attr := r.Identify("Australian Dollar weakness continued", "")
	assert.Equal(t, "AUD/USD", attr.Ticker)
}

func TestIdentifyFallsBackToContext(t *testing.T) {
	r := NewRegistry()
	attr := r.Identify("no instrument mentioned here", "Gold")
	assert.Equal(t, "GC", attr.Ticker)
}

func TestInstrumentsJSONIsSorted(t *testing.T) {
	r := NewRegistry()
	out := r.InstrumentsJSON()
	assert.Contains(t, out, `"ticker": "GC"`)
	assert.Contains(t, out, `"ticker": "BTC"`)
}
