package enrich

import (
	"math"
	"strings"

	"github.com/ternarybob/marketpulse/internal/models"
)

// MinRelevance is the score an untagged article needs to pass FilterRelevant.
const MinRelevance = 0.2

// Dedupe keeps the first article seen for each URL. Articles without a URL
// are dropped since they cannot be stored.
func Dedupe(articles []models.Article) []models.Article {
	seen := make(map[string]bool, len(articles))
	out := make([]models.Article, 0, len(articles))

	for _, article := range articles {
		if article.URL == "" || seen[article.URL] {
			continue
		}
		seen[article.URL] = true
		out = append(out, article)
	}
	return out
}

// ScoreRelevance rates an article in [0,1] from its title keywords and
// associated tickers.
func ScoreRelevance(article models.Article) float64 {
	title := strings.ToLower(article.Title)
	score := 0.0

	if strings.Contains(title, "stock") {
		score += 0.3
	}
	if strings.Contains(title, "market") {
		score += 0.2
	}
	if len(article.Tickers) > 0 {
		score += 0.5
	}

	return math.Max(0, math.Min(1, score))
}

// ApplyRelevance sets RelevanceScore on copies of articles.
func ApplyRelevance(articles []models.Article) []models.Article {
	out := make([]models.Article, len(articles))
	for i, article := range articles {
		article.RelevanceScore = ScoreRelevance(article)
		out[i] = article
	}
	return out
}

// FilterRelevant keeps articles scoring at least MinRelevance or carrying
// any ticker.
func FilterRelevant(articles []models.Article) []models.Article {
	out := make([]models.Article, 0, len(articles))
	for _, article := range articles {
		if article.RelevanceScore >= MinRelevance || len(article.Tickers) > 0 {
			out = append(out, article)
		}
	}
	return out
}
