package parser

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"signal-engine/internal/entity"
)

// Instrument is one canonical instrument the engine knows about.
type Instrument struct {
	Name       string   `json:"name"`
	Ticker     string   `json:"ticker"`
	AssetClass string   `json:"asset_class"`
	Aliases    []string `json:"aliases,omitempty"`
}

// Attribution is the resolved identity of a text span.
type Attribution struct {
	Instrument string
	Ticker     string
	AssetClass string
}

var unknownAttribution = Attribution{Instrument: "Unknown", Ticker: entity.TickerUnknown, AssetClass: "Unknown"}

type headerPattern struct {
	re            *regexp.Regexp
	notFollowedBy *regexp.Regexp
	instrument    string
	ticker        string
	assetClass    string
}

type lookupEntry struct {
	fragment   string
	instrument string
	ticker     string
	assetClass string
}

// Registry maps bulletin section headers and name fragments to canonical
// instruments. It is configuration data: extra instruments can be merged
// in from config without touching the matching logic.
type Registry struct {
	instruments map[string]Instrument
	headers     []headerPattern
	lookup      []lookupEntry
	tickers     map[string]struct{}
}

// NewRegistry builds the default registry, optionally extended with
// additional instruments.
func NewRegistry(extra ...Instrument) *Registry {
	r := &Registry{
		instruments: make(map[string]Instrument),
		tickers:     make(map[string]struct{}),
	}

	for _, inst := range defaultInstruments {
		r.add(inst)
	}
	for _, inst := range extra {
		r.add(inst)
	}

	// Longer fragments take priority in free-text identification.
	sort.SliceStable(r.lookup, func(i, j int) bool {
		return len(r.lookup[i].fragment) > len(r.lookup[j].fragment)
	})

	for _, h := range defaultSectionHeaders {
		hp := headerPattern{
			re:         regexp.MustCompile(h.pattern),
			instrument: h.instrument,
			ticker:     h.ticker,
			assetClass: h.assetClass,
		}
		if h.notFollowedBy != "" {
			hp.notFollowedBy = regexp.MustCompile(`^(?:` + h.notFollowedBy + `)`)
		}
		r.headers = append(r.headers, hp)
	}

	return r
}

func (r *Registry) add(inst Instrument) {
	r.instruments[inst.Name] = inst
	r.tickers[inst.Ticker] = struct{}{}
	r.lookup = append(r.lookup, lookupEntry{inst.Name, inst.Name, inst.Ticker, inst.AssetClass})
	for _, alias := range inst.Aliases {
		r.lookup = append(r.lookup, lookupEntry{alias, inst.Name, inst.Ticker, inst.AssetClass})
	}
}

// HasTicker reports whether a ticker resolves against the registry.
func (r *Registry) HasTicker(ticker string) bool {
	_, ok := r.tickers[ticker]
	return ok
}

// InstrumentsJSON renders the registry for inclusion in an extraction
// prompt.
func (r *Registry) InstrumentsJSON() string {
	insts := make([]Instrument, 0, len(r.instruments))
	for _, inst := range r.instruments {
		insts = append(insts, inst)
	}
	sort.Slice(insts, func(i, j int) bool { return insts[i].Name < insts[j].Name })
	b, _ := json.MarshalIndent(insts, "", "  ")
	return string(b)
}

// Attribute resolves the instrument governing a signal from the text that
// precedes it. Every section-header pattern is scanned over textBefore
// and the match starting at the largest offset wins: the header nearest
// to, but before, the signal sentence governs. When two headers both
// appear before a signal, the later one wins.
func (r *Registry) Attribute(textBefore string) Attribution {
	bestPos := -1
	best := unknownAttribution

	for _, h := range r.headers {
		for _, loc := range h.re.FindAllStringIndex(textBefore, -1) {
			if h.notFollowedBy != nil && h.notFollowedBy.MatchString(textBefore[loc[1]:]) {
				continue
			}
			if loc[0] > bestPos {
				bestPos = loc[0]
				best = Attribution{Instrument: h.instrument, Ticker: h.ticker, AssetClass: h.assetClass}
			}
		}
	}

	return best
}

// Identify resolves an instrument from a free-text fragment, preferring
// longer name/alias matches. Falls back to contextInstrument (a canonical
// name supplied by the caller) and then to the Unknown placeholder.
func (r *Registry) Identify(text, contextInstrument string) Attribution {
	for _, e := range r.lookup {
		if e.fragment != "" && strings.Contains(text, e.fragment) {
			return Attribution{Instrument: e.instrument, Ticker: e.ticker, AssetClass: e.assetClass}
		}
	}
	if inst, ok := r.instruments[contextInstrument]; ok {
		return Attribution{Instrument: inst.Name, Ticker: inst.Ticker, AssetClass: inst.AssetClass}
	}
	return unknownAttribution
}

var defaultInstruments = []Instrument{
	// Equity indices
	{Name: "S&P", Ticker: "ES", AssetClass: "Equity Index", Aliases: []string{"S&P 500", "S&P (March", "S&P (June", "S&P (Sep", "S&P (Dec"}},
	{Name: "Nasdaq", Ticker: "NQ", AssetClass: "Equity Index", Aliases: []string{"Nasdaq (March", "Nasdaq (June"}},
	{Name: "Dow Jones", Ticker: "YM", AssetClass: "Equity Index", Aliases: []string{"Dow"}},
	{Name: "FANG Index", Ticker: "NYFANG", AssetClass: "Equity Index", Aliases: []string{"NYFANG"}},
	{Name: "VIX", Ticker: "VIX", AssetClass: "Volatility", Aliases: []string{"CBOE Market Volatility Index", "CBOE Market Volatility"}},
	{Name: "TSX", Ticker: "TSX", AssetClass: "Equity Index", Aliases: []string{"TSX (Canada)"}},
	{Name: "DAX", Ticker: "DAX", AssetClass: "Equity Index (Europe)"},
	{Name: "FTSE", Ticker: "FTSE", AssetClass: "Equity Index (Europe)"},
	{Name: "AEX", Ticker: "AEX", AssetClass: "Equity Index (Europe)"},
	{Name: "NYSE Composite", Ticker: "NYA", AssetClass: "Equity Index"},
	{Name: "Swiss Market Index", Ticker: "SMI", AssetClass: "Equity Index (Europe)"},
	{Name: "Biotechnology Index", Ticker: "BTK", AssetClass: "Equity Index"},

	// Precious metals
	{Name: "Gold", Ticker: "GC", AssetClass: "Precious Metals", Aliases: []string{"Gold (April", "Gold (June", "Gold (Feb", "Gold (Aug", "Gold (Dec"}},
	{Name: "GLD", Ticker: "GLD", AssetClass: "Precious Metals ETF"},
	{Name: "GDXJ", Ticker: "GDXJ", AssetClass: "Precious Metals ETF"},
	{Name: "NEM", Ticker: "NEM", AssetClass: "Precious Metals Stock"},
	{Name: "Silver", Ticker: "SI", AssetClass: "Precious Metals", Aliases: []string{"Silver (March", "Silver (May"}},
	{Name: "SLV", Ticker: "SLV", AssetClass: "Precious Metals ETF"},
	{Name: "Copper", Ticker: "HG", AssetClass: "Base Metals"},

	// Energy
	{Name: "Crude", Ticker: "CL", AssetClass: "Energy", Aliases: []string{"Crude (", "Crude Oil"}},
	{Name: "USO", Ticker: "USO", AssetClass: "Energy ETF"},
	{Name: "Nat Gas", Ticker: "NG", AssetClass: "Energy", Aliases: []string{"Natural Gas"}},
	{Name: "UNG", Ticker: "UNG", AssetClass: "Energy ETF"},

	// Agriculture
	{Name: "Corn", Ticker: "ZC", AssetClass: "Agriculture", Aliases: []string{"Corn ("}},
	{Name: "CORN", Ticker: "CORN", AssetClass: "Agriculture ETF"},
	{Name: "Soybean", Ticker: "ZS", AssetClass: "Agriculture", Aliases: []string{"Soybean ("}},
	{Name: "SOYB", Ticker: "SOYB", AssetClass: "Agriculture ETF"},
	{Name: "Wheat", Ticker: "ZW", AssetClass: "Agriculture", Aliases: []string{"Wheat ("}},
	{Name: "WEAT", Ticker: "WEAT", AssetClass: "Agriculture ETF"},
	{Name: "Lumber", Ticker: "LBS", AssetClass: "Agriculture", Aliases: []string{"Lumber ("}},

	// Bonds
	{Name: "30 Year", Ticker: "ZB", AssetClass: "Fixed Income", Aliases: []string{"US Bonds", "US 30-Year Bonds", "30-Year"}},
	{Name: "10 Year", Ticker: "ZN", AssetClass: "Fixed Income"},
	{Name: "TLT", Ticker: "TLT", AssetClass: "Fixed Income ETF"},
	{Name: "Bunds", Ticker: "FGBL", AssetClass: "Fixed Income (Europe)"},

	// Currencies
	{Name: "Dollar", Ticker: "DXY", AssetClass: "Currency", Aliases: []string{"Dollar Index"}},
	{Name: "Euro", Ticker: "EUR/USD", AssetClass: "Currency", Aliases: []string{"Euro (EUR/USD)"}},
	{Name: "FXE", Ticker: "FXE", AssetClass: "Currency ETF"},
	{Name: "Australian Dollar", Ticker: "AUD/USD", AssetClass: "Currency", Aliases: []string{"Aussie"}},
	{Name: "Canadian Dollar", Ticker: "USD/CAD", AssetClass: "Currency"},
	{Name: "Yen", Ticker: "USD/JPY", AssetClass: "Currency", Aliases: []string{"Japanese Yen"}},
	{Name: "Swiss Franc", Ticker: "USD/CHF", AssetClass: "Currency"},
	{Name: "British Pound", Ticker: "GBP/USD", AssetClass: "Currency"},
	{Name: "Brazil Real", Ticker: "USD/BRL", AssetClass: "Currency"},
	{Name: "Israel Shekel", Ticker: "USD/ILS", AssetClass: "Currency"},

	// Crypto
	{Name: "Bitcoin", Ticker: "BTC", AssetClass: "Crypto", Aliases: []string{"Bitcoin & GBTC"}},
	{Name: "GBTC", Ticker: "GBTC", AssetClass: "Crypto ETF"},
	{Name: "Ethereum", Ticker: "ETH", AssetClass: "Crypto", Aliases: []string{"Ethereum & ETHE"}},
	{Name: "ETHE", Ticker: "ETHE", AssetClass: "Crypto ETF"},
	{Name: "BITO", Ticker: "BITO", AssetClass: "Crypto ETF", Aliases: []string{"ETF BITO"}},

	// Single stocks
	{Name: "Apple", Ticker: "AAPL", AssetClass: "Single Stock", Aliases: []string{"AAPL", "Apple (AAPL)"}},
	{Name: "Alphabet", Ticker: "GOOG", AssetClass: "Single Stock", Aliases: []string{"GOOG", "Alphabet (GOOG)"}},
	{Name: "Bank of America", Ticker: "BAC", AssetClass: "Single Stock", Aliases: []string{"BAC", "Bank of America (BAC)"}},
	{Name: "Microsoft", Ticker: "MSFT", AssetClass: "Single Stock", Aliases: []string{"MSFT", "Microsoft (MSFT)"}},
	{Name: "Nvidia", Ticker: "NVDA", AssetClass: "Single Stock", Aliases: []string{"NVDA", "Nvidia (NVDA)"}},
	{Name: "Tesla", Ticker: "TSLA", AssetClass: "Single Stock", Aliases: []string{"TSLA", "Tesla (TSLA)"}},
	{Name: "Amazon", Ticker: "AMZN", AssetClass: "Single Stock", Aliases: []string{"AMZN", "Amazon (AMZN)"}},
	{Name: "3M Company", Ticker: "MMM", AssetClass: "Single Stock", Aliases: []string{"3M"}},
	{Name: "American Express", Ticker: "AXP", AssetClass: "Single Stock"},
	{Name: "Citibank", Ticker: "C", AssetClass: "Single Stock", Aliases: []string{"Citi"}},
	{Name: "Goldman Sachs", Ticker: "GS", AssetClass: "Single Stock"},
}

type sectionHeader struct {
	pattern       string
	instrument    string
	ticker        string
	assetClass    string
	notFollowedBy string
}

// Section-header patterns scanned by Attribute.
var defaultSectionHeaders = []sectionHeader{
	// Equities
	{`S&P\s*\(`, "S&P", "ES", "Equity Index", ""},
	{`S&P /`, "S&P", "ES", "Equity Index", ""},
	{`Nasdaq\s*\(`, "Nasdaq", "NQ", "Equity Index", ""},
	{`Dow Jones`, "Dow Jones", "YM", "Equity Index", ""},
	{`FANG Index`, "FANG Index", "NYFANG", "Equity Index", ""},
	{`CBOE Market Volatility|VIX\)`, "VIX", "VIX", "Volatility", ""},
	{`TSX\s*\(Canada\)`, "TSX", "TSX", "Equity Index", ""},
	{`DAX\s*/\s*FTSE|DAX continues|DAX cancelled`, "DAX", "DAX", "Equity Index (Europe)", ""},
	{`FTSE continues|FTSE cancelled`, "FTSE", "FTSE", "Equity Index (Europe)", ""},
	{`AEX continues|AEX cancelled`, "AEX", "AEX", "Equity Index (Europe)", ""},
	{`NYSE Composite`, "NYSE Composite", "NYA", "Equity Index", ""},
	{`Swiss Market Index`, "Swiss Market Index", "SMI", "Equity Index (Europe)", ""},
	{`Biotechnology Index`, "Biotechnology Index", "BTK", "Equity Index", ""},
	// Precious metals
	{`Gold\s*\([A-Z]`, "Gold", "GC", "Precious Metals", ""},
	{`\bGLD\b`, "GLD", "GLD", "Precious Metals ETF", ""},
	{`\bGDXJ\b`, "GDXJ", "GDXJ", "Precious Metals ETF", ""},
	{`\bNEM\b`, "NEM", "NEM", "Precious Metals Stock", ""},
	{`Silver\s*\([A-Z]`, "Silver", "SI", "Precious Metals", ""},
	{`\bSLV\b`, "SLV", "SLV", "Precious Metals ETF", ""},
	{`Copper`, "Copper", "HG", "Base Metals", ""},
	// Energy
	{`Crude\s*\(`, "Crude", "CL", "Energy", ""},
	{`\bUSO\b`, "USO", "USO", "Energy ETF", ""},
	{`Nat Gas\s*\(|Natural Gas`, "Nat Gas", "NG", "Energy", ""},
	{`\bUNG\b`, "UNG", "UNG", "Energy ETF", ""},
	// Agriculture
	{`Corn\s*\(`, "Corn", "ZC", "Agriculture", ""},
	{`\bCORN\b`, "CORN", "CORN", "Agriculture ETF", ""},
	{`Soybean\s*\(`, "Soybean", "ZS", "Agriculture", ""},
	{`\bSOYB\b`, "SOYB", "SOYB", "Agriculture ETF", ""},
	{`Wheat\s*\(`, "Wheat", "ZW", "Agriculture", ""},
	{`\bWEAT\b`, "WEAT", "WEAT", "Agriculture ETF", ""},
	{`Lumber\s*\(`, "Lumber", "LBS", "Agriculture", ""},
	// Bonds
	{`US Bonds|30 Year continues|30\s*-?\s*Year`, "30 Year", "ZB", "Fixed Income", ""},
	{`10 Year`, "10 Year", "ZN", "Fixed Income", ""},
	{`\bTLT\b`, "TLT", "TLT", "Fixed Income ETF", ""},
	{`Bunds`, "Bunds", "FGBL", "Fixed Income (Europe)", ""},
	// Currencies
	{pattern: `\bDollar\b`, instrument: "Dollar", ticker: "DXY", assetClass: "Currency", notFollowedBy: `\s*\(`},
	{`Euro\s*\(EUR`, "Euro", "EUR/USD", "Currency", ""},
	{`\bFXE\b`, "FXE", "FXE", "Currency ETF", ""},
	{`Australian Dollar`, "Australian Dollar", "AUD/USD", "Currency", ""},
	{`Canadian Dollar`, "Canadian Dollar", "USD/CAD", "Currency", ""},
	{`(?:Japanese\s+)?Yen\s*\(USD`, "Yen", "USD/JPY", "Currency", ""},
	{`Swiss Franc`, "Swiss Franc", "USD/CHF", "Currency", ""},
	{`British Pound`, "British Pound", "GBP/USD", "Currency", ""},
	{`Brazil Real`, "Brazil Real", "USD/BRL", "Currency", ""},
	{`Israel Shekel`, "Israel Shekel", "USD/ILS", "Currency", ""},
	// Crypto. A combined header like "Bitcoin & GBTC" attributes to the
	// ETF fragment (it sits later in the header); the price magnitude
	// reassignment corrects coin-scale signals afterwards.
	{`Bitcoin\s*&?\s*GBTC|Bitcoin`, "Bitcoin", "BTC", "Crypto", ""},
	{`GBTC\s*-|GBTC\b`, "GBTC", "GBTC", "Crypto ETF", ""},
	{`Ethereum\s*&?\s*ETHE|Ethereum`, "Ethereum", "ETH", "Crypto", ""},
	{`ETHE\s*-|ETHE\b`, "ETHE", "ETHE", "Crypto ETF", ""},
	{`ETF BITO|\bBITO\b`, "BITO", "BITO", "Crypto ETF", ""},
	// Single stocks
	{`Apple\s*\(AAPL\)|AAPL\s*(?:Daily|Weekly|Monthly)`, "Apple", "AAPL", "Single Stock", ""},
	{`Alphabet\s*\(GOOG\)|GOOG\s*(?:Daily|Weekly|Monthly)`, "Alphabet", "GOOG", "Single Stock", ""},
	{`Bank of America\s*\(BAC\)|BAC\s*(?:Daily|Weekly|Monthly)`, "Bank of America", "BAC", "Single Stock", ""},
	{`Microsoft\s*\(MSFT\)|MSFT\s*(?:Daily|Weekly|Monthly)`, "Microsoft", "MSFT", "Single Stock", ""},
	{`Nvidia\s*\(NVDA\)|NVDA\s*(?:Daily|Weekly|Monthly)`, "Nvidia", "NVDA", "Single Stock", ""},
	{`Tesla\s*\(TSLA\)|TSLA\s*(?:Daily|Weekly|Monthly)`, "Tesla", "TSLA", "Single Stock", ""},
	{`Amazon\s*\(AMZN\)`, "Amazon", "AMZN", "Single Stock", ""},
	{`3M Company`, "3M Company", "MMM", "Single Stock", ""},
	{`American Express`, "American Express", "AXP", "Single Stock", ""},
	{`Citibank`, "Citibank", "C", "Single Stock", ""},
	{pattern: `Goldman Sachs`, instrument: "Goldman Sachs", ticker: "GS", assetClass: "Single Stock", notFollowedBy: `\s+Commodity`},
}
