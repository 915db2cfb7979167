package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/marketpulse/internal/models"
)

func TestDedupe_FirstSeenWins(t *testing.T) {
	articles := Dedupe([]models.Article{
		{URL: "https://x/a", Title: "first"},
		{URL: "https://x/b", Title: "other"},
		{URL: "https://x/a", Title: "second"},
		{URL: "", Title: "no url"},
	})

	require.Len(t, articles, 2)
	assert.Equal(t, "first", articles[0].Title)
	assert.Equal(t, "https://x/b", articles[1].URL)
}

func TestScoreRelevance(t *testing.T) {
	tests := []struct {
		name    string
		article models.Article
		want    float64
	}{
		{"nothing", models.Article{Title: "Weather update"}, 0},
		{"stock keyword", models.Article{Title: "STOCK picks for the week"}, 0.3},
		{"market keyword", models.Article{Title: "Market wrap"}, 0.2},
		{"both keywords", models.Article{Title: "Stock market rebounds"}, 0.5},
		{"ticker only", models.Article{Title: "Earnings", Tickers: []string{"AAPL"}}, 0.5},
		{"everything", models.Article{Title: "Stock market: AAPL", Tickers: []string{"AAPL"}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ScoreRelevance(tt.article), 1e-9)
		})
	}
}

func TestFilterRelevant(t *testing.T) {
	articles := ApplyRelevance([]models.Article{
		{URL: "https://x/1", Title: "Market wrap"},
		{URL: "https://x/2", Title: "Weather update"},
		{URL: "https://x/3", Title: "Earnings", Tickers: []string{"AAPL"}},
	})

	kept := FilterRelevant(articles)

	require.Len(t, kept, 2)
	assert.Equal(t, "https://x/1", kept[0].URL)
	assert.Equal(t, "https://x/3", kept[1].URL)
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Apple beats estimates & raises guidance",
		StripHTML("<p>Apple <b>beats</b> estimates &amp; raises\n guidance</p>"))
	assert.Equal(t, "plain text", StripHTML("  plain   text "))
	assert.Equal(t, "", StripHTML(""))
}

func TestCleanArticle(t *testing.T) {
	article := CleanArticle(models.Article{
		Title:       "<h1>Headline</h1>",
		Description: "Some <i>description</i>",
		URL:         "https://x/a",
	})

	assert.Equal(t, "Headline", article.Title)
	assert.Equal(t, "Some description", article.Description)
	assert.Equal(t, "https://x/a", article.URL)
}
