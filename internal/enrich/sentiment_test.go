package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/models"
)

func TestSentimentScorer_PositiveHeadline(t *testing.T) {
	scorer := NewSentimentScorer(arbor.NewLogger())

	result := scorer.Score("Apple hits record high")

	assert.Greater(t, result.Score, 0.0)
	assert.Contains(t, []models.SentimentCategory{models.SentimentPositive, models.SentimentVeryPositive}, result.Category)
	assert.False(t, result.Degraded)
}

func TestSentimentScorer_NegativeHeadline(t *testing.T) {
	scorer := NewSentimentScorer(arbor.NewLogger())

	result := scorer.Score("Shares plunge after earnings miss; analysts downgrade")

	assert.Less(t, result.Score, 0.0)
	assert.Equal(t, models.SentimentVeryNegative, result.Category)
}

func TestSentimentScorer_NeutralAndEmpty(t *testing.T) {
	scorer := NewSentimentScorer(arbor.NewLogger())

	assert.Equal(t, Sentiment{Score: 0, Category: models.SentimentNeutral}, scorer.Score(""))
	assert.Equal(t, 0.0, scorer.Score("Company schedules annual meeting").Score)
}

func TestSentimentScorer_ClampsToUnitRange(t *testing.T) {
	scorer := NewSentimentScorer(arbor.NewLogger())

	up := scorer.Score("surge soar rally breakthrough excellent great record gains")
	down := scorer.Score("crash fraud bankruptcy scandal plunge recession")

	assert.Equal(t, 1.0, up.Score)
	assert.Equal(t, -1.0, down.Score)
}

func TestSentimentScorer_Negation(t *testing.T) {
	scorer := NewSentimentScorer(arbor.NewLogger())

	plain := scorer.Score("results were good")
	negated := scorer.Score("results were not good")

	assert.InDelta(t, 0.3, plain.Score, 1e-9)
	assert.InDelta(t, -0.3, negated.Score, 1e-9)
}

func TestSentimentScorer_Deterministic(t *testing.T) {
	scorer := NewSentimentScorer(arbor.NewLogger())
	text := "Tesla shares fell, but Nvidia rallied on strong growth"

	assert.Equal(t, scorer.Score(text), scorer.Score(text))
}

func TestCategorize_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  models.SentimentCategory
	}{
		{-1, models.SentimentVeryNegative},
		{-0.6, models.SentimentVeryNegative},
		{-0.59, models.SentimentNegative},
		{-0.2, models.SentimentNegative},
		{-0.19, models.SentimentNeutral},
		{0, models.SentimentNeutral},
		{0.19, models.SentimentNeutral},
		{0.2, models.SentimentPositive},
		{0.59, models.SentimentPositive},
		{0.6, models.SentimentVeryPositive},
		{1, models.SentimentVeryPositive},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Categorize(tt.score), "score %v", tt.score)
	}
}

func TestScoreArticles(t *testing.T) {
	scorer := NewSentimentScorer(arbor.NewLogger())
	articles := []models.Article{
		{Title: "Stocks rally", Description: "Strong gains across tech"},
		{Title: "Quarterly update", Description: ""},
	}

	scored := scorer.ScoreArticles(articles)

	assert.Equal(t, models.SentimentVeryPositive, scored[0].SentimentCategory)
	assert.Equal(t, models.SentimentNeutral, scored[1].SentimentCategory)
	assert.Empty(t, articles[0].SentimentCategory, "input must not be modified")
	assert.False(t, scored[0].SentimentDegraded)
}

func TestScoreArticles_ScoringFailureIsDegraded(t *testing.T) {
	scorer := NewSentimentScorer(arbor.NewLogger())
	scorer.polarize = func(tokens []string) float64 {
		panic("lexicon corrupted")
	}

	assert.Equal(t, Sentiment{Score: 0, Category: models.SentimentNeutral, Degraded: true}, scorer.Score("Stocks rally"))

	scored := scorer.ScoreArticles([]models.Article{{Title: "Stocks rally", URL: "https://wire.test/rally"}})
	assert.Equal(t, 0.0, scored[0].SentimentScore)
	assert.Equal(t, models.SentimentNeutral, scored[0].SentimentCategory)
	assert.True(t, scored[0].SentimentDegraded)
}

func TestStats(t *testing.T) {
	stats := Stats([]models.Article{
		{SentimentScore: 0.5},
		{SentimentScore: -0.4},
		{SentimentScore: 0.1},
		{SentimentScore: 0.2},
	})

	assert.Equal(t, 2, stats.PositiveCount)
	assert.Equal(t, 1, stats.NegativeCount)
	assert.Equal(t, 1, stats.NeutralCount)
	assert.InDelta(t, 0.1, stats.AvgSentiment, 1e-9)

	assert.Equal(t, models.SentimentStats{}, Stats(nil))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"apple", "doesn't", "miss", "q3"}, tokenize("Apple doesn't MISS -- Q3!"))
}
