package common

import (
	"strings"
)

// Ticker represents a parsed exchange-qualified ticker.
// Format: EXCHANGE:CODE (e.g., "NASDAQ:AAPL", "NYSE:IBM")
type Ticker struct {
	// Exchange is the exchange code (e.g., "NYSE", "NASDAQ")
	Exchange string
	// Code is the stock symbol (e.g., "AAPL")
	Code string
	// Raw is the original ticker string
	Raw string
}

// ExchangeToSuffix maps exchange codes to EODHD API suffixes.
var ExchangeToSuffix = map[string]string{
	"US":     ".US",
	"NYSE":   ".US",
	"NASDAQ": ".US",
	"AMEX":   ".US",
	"ASX":    ".AU",
	"LSE":    ".LSE",
	"TSX":    ".TO",
}

// DefaultExchange is used for tickers without an exchange prefix.
const DefaultExchange = "US"

// ParseTicker parses a ticker string.
// Supports formats:
//   - "NASDAQ:AAPL" -> Exchange="NASDAQ", Code="AAPL"
//   - "NYSE.IBM"    -> Exchange="NYSE", Code="IBM" (known exchanges only)
//   - "aapl"        -> Exchange="US", Code="AAPL"
//
// Codes containing a dot that is not a known exchange prefix (e.g. "BRK.B")
// are kept intact.
func ParseTicker(ticker string) Ticker {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return Ticker{}
	}

	if idx := strings.Index(ticker, ":"); idx > 0 {
		return Ticker{
			Exchange: strings.ToUpper(ticker[:idx]),
			Code:     strings.ToUpper(strings.TrimSpace(ticker[idx+1:])),
			Raw:      ticker,
		}
	}

	if idx := strings.Index(ticker, "."); idx > 0 {
		possibleExchange := strings.ToUpper(ticker[:idx])
		if _, ok := ExchangeToSuffix[possibleExchange]; ok {
			return Ticker{
				Exchange: possibleExchange,
				Code:     strings.ToUpper(ticker[idx+1:]),
				Raw:      ticker,
			}
		}
	}

	return Ticker{
		Exchange: DefaultExchange,
		Code:     strings.ToUpper(ticker),
		Raw:      ticker,
	}
}

// String returns the full exchange-qualified ticker string.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Code == "" {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// EODHDSymbol returns the EODHD API symbol format.
// Example: "NASDAQ:AAPL" -> "AAPL.US"
func (t Ticker) EODHDSymbol() string {
	if t.Code == "" {
		return ""
	}
	suffix, ok := ExchangeToSuffix[t.Exchange]
	if !ok {
		suffix = ".US"
	}
	return t.Code + suffix
}

// ParseTickers parses a list of ticker strings, dropping blanks and duplicates.
func ParseTickers(tickers []string) []Ticker {
	result := make([]Ticker, 0, len(tickers))
	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		parsed := ParseTicker(t)
		if parsed.Code == "" || seen[parsed.Code] {
			continue
		}
		seen[parsed.Code] = true
		result = append(result, parsed)
	}
	return result
}

// Codes returns the bare symbol codes of tickers.
func Codes(tickers []Ticker) []string {
	codes := make([]string, 0, len(tickers))
	for _, t := range tickers {
		codes = append(codes, t.Code)
	}
	return codes
}

// ParseEODHDTicker parses an EODHD-format symbol (CODE.EXCHANGE, e.g. "AAPL.US").
// Uses the last dot so codes like "BRK.B.US" keep their inner dot.
func ParseEODHDTicker(symbol string) Ticker {
	symbol = strings.TrimSpace(symbol)
	lastDot := strings.LastIndex(symbol, ".")
	if lastDot <= 0 || lastDot == len(symbol)-1 {
		return Ticker{}
	}

	return Ticker{
		Exchange: strings.ToUpper(symbol[lastDot+1:]),
		Code:     strings.ToUpper(symbol[:lastDot]),
		Raw:      symbol,
	}
}
