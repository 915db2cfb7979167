package enrich

import (
	"math"
	"strings"
	"unicode"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/models"
)

// sentimentScale is applied to the raw lexicon sum before clamping.
const sentimentScale = 2.0

// Sentiment is the result of scoring a piece of text.
type Sentiment struct {
	Score    float64
	Category models.SentimentCategory
	// Degraded is set when scoring failed and the neutral default was used.
	Degraded bool
}

// financialLexicon maps lower-case tokens to polarity weights in [-0.5, 0.5].
var financialLexicon = map[string]float64{
	// positive
	"gain": 0.2, "gains": 0.2, "gained": 0.2,
	"rise": 0.15, "rises": 0.15, "rising": 0.15, "rose": 0.15,
	"surge": 0.3, "surges": 0.3, "surged": 0.3, "soar": 0.35, "soars": 0.35, "soared": 0.35,
	"jump": 0.2, "jumps": 0.2, "jumped": 0.2, "rally": 0.25, "rallies": 0.25, "rallied": 0.25,
	"beat": 0.25, "beats": 0.25, "outperform": 0.3, "outperforms": 0.3,
	"record": 0.1, "high": 0.1, "higher": 0.15, "highs": 0.1,
	"growth": 0.2, "grow": 0.15, "grows": 0.15, "profit": 0.2, "profits": 0.2, "profitable": 0.25,
	"strong": 0.2, "stronger": 0.2, "bullish": 0.3, "upgrade": 0.3, "upgraded": 0.3, "upgrades": 0.3,
	"positive": 0.2, "optimistic": 0.25, "optimism": 0.25, "boost": 0.2, "boosts": 0.2, "boosted": 0.2,
	"success": 0.25, "successful": 0.25, "win": 0.2, "wins": 0.2, "good": 0.15, "great": 0.3,
	"excellent": 0.35, "best": 0.25, "recovery": 0.2, "recovers": 0.2, "rebound": 0.2, "rebounds": 0.2,
	"buy": 0.15, "dividend": 0.1, "innovation": 0.15, "breakthrough": 0.3, "approval": 0.2, "approved": 0.2,

	// negative
	"loss": -0.2, "losses": -0.2, "lose": -0.2, "lost": -0.2,
	"fall": -0.15, "falls": -0.15, "fell": -0.15, "falling": -0.15,
	"drop": -0.2, "drops": -0.2, "dropped": -0.2, "decline": -0.2, "declines": -0.2, "declined": -0.2,
	"plunge": -0.35, "plunges": -0.35, "plunged": -0.35, "crash": -0.4, "crashes": -0.4, "crashed": -0.4,
	"tumble": -0.3, "tumbles": -0.3, "tumbled": -0.3, "slump": -0.3, "slumps": -0.3, "sink": -0.25, "sinks": -0.25,
	"miss": -0.25, "misses": -0.25, "missed": -0.25, "underperform": -0.3, "underperforms": -0.3,
	"low": -0.1, "lower": -0.15, "lows": -0.1, "weak": -0.2, "weaker": -0.2, "weakness": -0.2,
	"bearish": -0.3, "downgrade": -0.3, "downgraded": -0.3, "downgrades": -0.3,
	"negative": -0.2, "pessimistic": -0.25, "fear": -0.25, "fears": -0.25, "worry": -0.2, "worries": -0.2,
	"risk": -0.1, "risks": -0.1, "concern": -0.15, "concerns": -0.15, "uncertainty": -0.2,
	"lawsuit": -0.25, "sued": -0.25, "probe": -0.2, "investigation": -0.2, "fraud": -0.45, "scandal": -0.4,
	"recall": -0.25, "layoffs": -0.3, "layoff": -0.3, "cuts": -0.15, "bankruptcy": -0.5, "default": -0.35,
	"recession": -0.35, "inflation": -0.1, "volatile": -0.1, "volatility": -0.1, "sell": -0.15, "selloff": -0.3,
	"bad": -0.15, "worst": -0.3, "fail": -0.3, "fails": -0.3, "failed": -0.3, "warning": -0.2, "warns": -0.2,
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "without": true,
	"isn't": true, "wasn't": true, "don't": true, "doesn't": true, "didn't": true, "won't": true, "can't": true,
}

// SentimentScorer scores text against a fixed financial lexicon.
type SentimentScorer struct {
	lexicon  map[string]float64
	polarize func(tokens []string) float64
	logger   arbor.ILogger
}

// NewSentimentScorer creates a scorer using the built-in lexicon.
func NewSentimentScorer(logger arbor.ILogger) *SentimentScorer {
	s := &SentimentScorer{
		lexicon: financialLexicon,
		logger:  logger,
	}
	s.polarize = s.polarity
	return s
}

// Score returns the clamped, scaled lexicon polarity of text. A failure while
// scoring yields a neutral, degraded result instead of an error.
func (s *SentimentScorer) Score(text string) Sentiment {
	var score float64
	err := common.SafeCall(s.logger, "sentiment", func() error {
		score = s.polarize(tokenize(text))
		return nil
	})
	if err != nil {
		return Sentiment{Score: 0, Category: models.SentimentNeutral, Degraded: true}
	}

	return Sentiment{Score: score, Category: Categorize(score)}
}

// ScoreArticles sets the sentiment fields on every article from its title
// and description.
func (s *SentimentScorer) ScoreArticles(articles []models.Article) []models.Article {
	out := make([]models.Article, len(articles))
	for i, article := range articles {
		result := s.Score(article.Title + " " + article.Description)
		article.SentimentScore = result.Score
		article.SentimentCategory = result.Category
		article.SentimentDegraded = result.Degraded
		if result.Degraded {
			s.logger.Warn().Str("url", article.URL).Msg("Sentiment scoring failed, using neutral")
		}
		out[i] = article
	}
	return out
}

func (s *SentimentScorer) polarity(tokens []string) float64 {
	var sum float64
	negate := false
	for _, token := range tokens {
		if negators[token] {
			negate = true
			continue
		}
		weight := s.lexicon[token]
		if negate {
			weight = -weight
			negate = false
		}
		sum += weight
	}

	score := sum * sentimentScale
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(-1, math.Min(1, score))
}

// tokenize lower-cases text and splits it on whitespace and punctuation.
// Apostrophes inside a word are kept so contractions like "don't" survive.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	tokens := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, "'"); f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Categorize buckets a score. Boundaries belong to the more extreme bucket:
// -0.2 is negative and 0.2 is positive.
func Categorize(score float64) models.SentimentCategory {
	switch {
	case score <= -0.6:
		return models.SentimentVeryNegative
	case score <= -0.2:
		return models.SentimentNegative
	case score < 0.2:
		return models.SentimentNeutral
	case score < 0.6:
		return models.SentimentPositive
	default:
		return models.SentimentVeryPositive
	}
}

// Stats summarizes the sentiment of a group of scored articles.
func Stats(articles []models.Article) models.SentimentStats {
	stats := models.SentimentStats{}
	if len(articles) == 0 {
		return stats
	}

	var total float64
	for _, a := range articles {
		switch Categorize(a.SentimentScore) {
		case models.SentimentPositive, models.SentimentVeryPositive:
			stats.PositiveCount++
		case models.SentimentNegative, models.SentimentVeryNegative:
			stats.NegativeCount++
		default:
			stats.NeutralCount++
		}
		total += a.SentimentScore
	}
	stats.AvgSentiment = total / float64(len(articles))

	return stats
}
