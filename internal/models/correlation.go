package models

// ImpactDirection states whether news sentiment agrees with the price move.
type ImpactDirection string

const (
	ImpactAligned  ImpactDirection = "aligned"
	ImpactContrary ImpactDirection = "contrary"
)

// MaxSignificantArticles caps CorrelationResult.SignificantArticles.
const MaxSignificantArticles = 5

// SignificantArticle is one article's contribution to a correlation.
type SignificantArticle struct {
	Article        Article         `json:"article"`
	PossibleImpact ImpactDirection `json:"possible_impact"`
	ImpactScore    float64         `json:"impact_score"`
}

// CorrelationResult aligns article sentiment with a quote's price change.
type CorrelationResult struct {
	Symbol              string               `json:"symbol"`
	NewsImpact          float64              `json:"news_impact"`
	RelevantCount       int                  `json:"relevant_count"`
	SignificantArticles []SignificantArticle `json:"significant_articles"`
}
