package enrich

import (
	"math"
	"sort"
	"strings"

	"github.com/ternarybob/marketpulse/internal/models"
)

// Correlate relates articles about quote.Symbol to the quote's price change.
// Articles are relevant when tagged with the symbol or when their title or
// description contains it. SignificantArticles holds the highest-impact
// articles, newest first among equal impact, capped at
// models.MaxSignificantArticles.
func Correlate(quote models.StockQuote, articles []models.Article) models.CorrelationResult {
	result := models.CorrelationResult{Symbol: quote.Symbol}

	var relevant []models.Article
	for _, article := range articles {
		if isAbout(article, quote.Symbol) {
			relevant = append(relevant, article.Clone())
		}
	}
	if len(relevant) == 0 {
		return result
	}

	SortNewestFirst(relevant)

	significant := make([]models.SignificantArticle, 0, len(relevant))
	var total float64
	for _, article := range relevant {
		impact := math.Abs(article.SentimentScore) * math.Abs(quote.Change)
		total += impact
		significant = append(significant, models.SignificantArticle{
			Article:        article,
			PossibleImpact: impactDirection(article.SentimentScore, quote.Change),
			ImpactScore:    impact,
		})
	}

	result.RelevantCount = len(relevant)
	result.NewsImpact = total / float64(len(relevant))

	sort.SliceStable(significant, func(i, j int) bool {
		return significant[i].ImpactScore > significant[j].ImpactScore
	})
	if len(significant) > models.MaxSignificantArticles {
		significant = significant[:models.MaxSignificantArticles]
	}
	result.SignificantArticles = significant

	return result
}

func isAbout(article models.Article, symbol string) bool {
	if symbol == "" {
		return false
	}
	if article.HasTicker(symbol) {
		return true
	}
	return strings.Contains(article.Title, symbol) || strings.Contains(article.Description, symbol)
}

// impactDirection is aligned only when both values are non-zero and share a sign.
func impactDirection(sentiment, change float64) models.ImpactDirection {
	if sentiment != 0 && change != 0 && (sentiment > 0) == (change > 0) {
		return models.ImpactAligned
	}
	return models.ImpactContrary
}
