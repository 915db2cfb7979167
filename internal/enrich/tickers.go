package enrich

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/models"
)

// companySymbols maps upper-case company names to their symbol. Names are
// matched as substrings of the upper-cased article text.
var companySymbols = map[string]string{
	"APPLE":              "AAPL",
	"MICROSOFT":          "MSFT",
	"ALPHABET":           "GOOGL",
	"GOOGLE":             "GOOGL",
	"AMAZON":             "AMZN",
	"META PLATFORMS":     "META",
	"FACEBOOK":           "META",
	"NVIDIA":             "NVDA",
	"TESLA":              "TSLA",
	"NETFLIX":            "NFLX",
	"BERKSHIRE HATHAWAY": "BRK.B",
	"JPMORGAN":           "JPM",
	"ADVANCED MICRO":     "AMD",
	"INTEL CORP":         "INTC",
	"SALESFORCE":         "CRM",
	"ORACLE":             "ORCL",
	"BROADCOM":           "AVGO",
	"EXXON":              "XOM",
	"WALMART":            "WMT",
	"DISNEY":             "DIS",
}

// TickerAssociator tags articles with the symbols they mention.
type TickerAssociator struct {
	symbols   []string
	patterns  map[string]*regexp.Regexp
	companies map[string]string
}

// NewTickerAssociator builds word-boundary matchers for the known symbols.
// Exchange-qualified input such as "NASDAQ:AAPL" is reduced to "AAPL".
func NewTickerAssociator(knownSymbols []string) *TickerAssociator {
	tickers := common.ParseTickers(knownSymbols)
	a := &TickerAssociator{
		symbols:   make([]string, 0, len(tickers)),
		patterns:  make(map[string]*regexp.Regexp, len(tickers)),
		companies: companySymbols,
	}

	for _, t := range tickers {
		a.symbols = append(a.symbols, t.Code)
		a.patterns[t.Code] = regexp.MustCompile(`\b` + regexp.QuoteMeta(t.Code) + `\b`)
	}

	return a
}

// Symbols returns the normalized known symbols.
func (a *TickerAssociator) Symbols() []string {
	return append([]string(nil), a.symbols...)
}

// Match returns the sorted symbols mentioned in text, or nil when none are.
func (a *TickerAssociator) Match(text string) []string {
	upper := strings.ToUpper(text)
	found := make(map[string]bool)

	for _, symbol := range a.symbols {
		if a.patterns[symbol].MatchString(upper) {
			found[symbol] = true
		}
	}
	for name, symbol := range a.companies {
		if strings.Contains(upper, name) {
			found[symbol] = true
		}
	}

	if len(found) == 0 {
		return nil
	}

	tickers := make([]string, 0, len(found))
	for symbol := range found {
		tickers = append(tickers, symbol)
	}
	sort.Strings(tickers)
	return tickers
}

// Associate returns copies of articles with Tickers populated from the title
// and description. Articles with no match keep a nil Tickers slice.
func (a *TickerAssociator) Associate(articles []models.Article) []models.Article {
	out := make([]models.Article, len(articles))
	for i, article := range articles {
		article.Tickers = a.Match(article.Title + " " + article.Description)
		out[i] = article
	}
	return out
}

// GroupByStock inverts ticker associations. Each group is ordered newest
// first and holds independent copies, so an article tagged with N symbols
// appears in N groups without sharing its Tickers slice.
func GroupByStock(articles []models.Article) map[string][]models.Article {
	groups := make(map[string][]models.Article)
	for _, article := range articles {
		for _, symbol := range article.Tickers {
			groups[symbol] = append(groups[symbol], article.Clone())
		}
	}

	for _, group := range groups {
		SortNewestFirst(group)
	}
	return groups
}

// SortNewestFirst orders articles by PublishedAt descending. Ties keep their
// input order.
func SortNewestFirst(articles []models.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}
