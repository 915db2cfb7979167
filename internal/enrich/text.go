package enrich

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/marketpulse/internal/models"
)

// StripHTML returns the visible text of s with whitespace collapsed.
// Plain text is only whitespace-normalized.
func StripHTML(s string) string {
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// CleanArticle strips markup from the article's text fields.
func CleanArticle(article models.Article) models.Article {
	article.Title = StripHTML(article.Title)
	article.Description = StripHTML(article.Description)
	article.Content = StripHTML(article.Content)
	return article
}
