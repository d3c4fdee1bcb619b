// Package nlp provides pure enrichment functions over headline text:
// ticker symbol extraction and lexicon-based sentiment scoring. Nothing in
// this package performs I/O, so the functions are safe to call inline in
// the pipeline or externally for backfill.
package nlp

import (
	"regexp"
	"sort"
)

// commonTickers is the fixed reference list of symbols that appear
// frequently in financial news. A bare uppercase word on this list is
// accepted as a ticker without a $ prefix.
var commonTickers = map[string]bool{
	// Mega caps
	"AAPL": true, "MSFT": true, "GOOGL": true, "GOOG": true, "AMZN": true,
	"NVDA": true, "META": true, "TSLA": true, "BRK": true,
	// Tech
	"AMD": true, "INTC": true, "AVGO": true, "QCOM": true, "CRM": true,
	"ORCL": true, "IBM": true, "CSCO": true, "ADBE": true, "NFLX": true,
	"PYPL": true, "SQ": true, "SHOP": true, "SNOW": true, "PLTR": true,
	"UBER": true, "LYFT": true, "ABNB": true,
	// Finance
	"JPM": true, "BAC": true, "WFC": true, "GS": true, "MS": true,
	"C": true, "AXP": true, "V": true, "MA": true, "BLK": true,
	// Healthcare
	"UNH": true, "JNJ": true, "PFE": true, "ABBV": true, "MRK": true,
	"LLY": true, "TMO": true, "ABT": true, "BMY": true, "AMGN": true,
	// Consumer
	"WMT": true, "HD": true, "MCD": true, "NKE": true, "SBUX": true,
	"TGT": true, "COST": true, "DIS": true, "CMCSA": true,
	// Energy
	"XOM": true, "CVX": true, "COP": true, "SLB": true, "EOG": true,
	"MPC": true, "PSX": true, "VLO": true, "OXY": true, "HAL": true,
	// Industrial
	"CAT": true, "DE": true, "BA": true, "HON": true, "UPS": true,
	"FDX": true, "LMT": true, "RTX": true, "GE": true, "MMM": true,
	// Semiconductors
	"TSM": true, "ASML": true, "MU": true, "LRCX": true, "KLAC": true,
	"AMAT": true, "MRVL": true, "ON": true, "ADI": true, "TXN": true,
	// ETFs
	"SPY": true, "QQQ": true, "IWM": true, "DIA": true, "VTI": true,
	"VOO": true, "ARKK": true, "XLF": true, "XLE": true, "XLK": true,
	// Crypto-related
	"COIN": true, "MSTR": true, "RIOT": true, "MARA": true, "HUT": true,
	// Meme stocks
	"GME": true, "AMC": true, "BB": true, "BBBY": true, "WISH": true,
	"CLOV": true, "SOFI": true,
	// ARM
	"ARM": true, "ARMH": true,
}

// falsePositives lists words that match the ticker shape but must never be
// reported as symbols. Checked before every other acceptance rule.
var falsePositives = map[string]bool{
	"A": true, "I": true, "AI": true, "CEO": true, "CFO": true, "CTO": true,
	"FDA": true, "SEC": true, "FED": true, "GDP": true, "IPO": true,
	"ETF": true, "NYSE": true, "DOW": true, "USA": true, "UK": true,
	"EU": true, "US": true, "IT": true, "PM": true, "AM": true,
	"THE": true, "FOR": true, "AND": true, "NOT": true, "BUT": true,
	"ARE": true, "WAS": true, "HAS": true, "HAD": true, "CAN": true,
	"ALL": true, "NEW": true, "NOW": true, "MAY": true, "SAY": true,
	"SEE": true, "BIG": true, "TOP": true, "LOW": true, "HIGH": true,
	"UP": true, "DOWN": true, "Q1": true, "Q2": true, "Q3": true,
	"Q4": true, "YOY": true, "QOQ": true, "EPS": true, "PE": true,
	"PS": true, "PB": true, "ROE": true, "ROI": true, "LLC": true,
	"INC": true, "LTD": true, "VS": true, "EST": true, "PST": true,
	"CST": true, "MST": true, "AT": true, "TO": true, "AS": true,
	"ON": true, "IN": true, "BY": true,
}

var (
	// $SYMBOL pattern: explicit ticker mentions.
	dollarPattern = regexp.MustCompile(`\$([A-Z]{1,5})\b`)
	// Bare uppercase words that could be tickers.
	tickerPattern = regexp.MustCompile(`\b([A-Z]{2,5})\b`)
)

// ExtractTickers returns the sorted, deduplicated ticker symbols found in
// text. Three passes are unioned: explicit $SYMBOL mentions, bare words on
// the known-symbol reference list, and (when permissive is true) any
// bare uppercase word of length >= 2 not in the exclusion set. The
// false-positive exclusion set always wins.
func ExtractTickers(text string, permissive bool) []string {
	found := make(map[string]bool)

	for _, m := range dollarPattern.FindAllStringSubmatch(text, -1) {
		sym := m[1]
		if !falsePositives[sym] {
			found[sym] = true
		}
	}

	for _, m := range tickerPattern.FindAllStringSubmatch(text, -1) {
		sym := m[1]
		if falsePositives[sym] {
			continue
		}
		if commonTickers[sym] {
			found[sym] = true
		} else if permissive {
			found[sym] = true
		}
	}

	tickers := make([]string, 0, len(found))
	for sym := range found {
		tickers = append(tickers, sym)
	}
	sort.Strings(tickers)
	return tickers
}

// IsFalsePositive reports whether a symbol is in the exclusion set. Note
// that a common ticker on the exclusion set is still excluded: the
// exclusion check runs before any acceptance rule.
func IsFalsePositive(symbol string) bool {
	return falsePositives[symbol]
}
