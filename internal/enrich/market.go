package enrich

import (
	"math"

	"github.com/ternarybob/marketpulse/internal/models"
)

// MomentumLookback is the number of bars momentum looks back over.
const MomentumLookback = 10

// EnrichQuote derives volume and price statistics for quote from history,
// ordered oldest to newest. With no history only the base fields are set.
// A zero divisor or non-finite result returns the base fields marked Degraded.
func EnrichQuote(quote models.StockQuote, history []models.StockQuote) models.EnrichedStockData {
	base := models.EnrichedStockData{StockQuote: quote}
	if len(history) == 0 {
		return base
	}

	var totalVolume, totalClose float64
	for _, bar := range history {
		totalVolume += float64(bar.Volume)
		totalClose += bar.Price
	}
	n := float64(len(history))
	avgVolume := totalVolume / n
	avgClose := totalClose / n

	if avgVolume == 0 || avgClose == 0 {
		base.Degraded = true
		return base
	}

	volumeRatio := float64(quote.Volume) / avgVolume
	relativeStrength := quote.Price / avgClose

	var momentum *float64
	if len(history) >= MomentumLookback {
		past := history[len(history)-MomentumLookback].Price
		if past == 0 {
			base.Degraded = true
			return base
		}
		m := (quote.Price - past) / past
		momentum = &m
	}

	for _, v := range []float64{avgVolume, volumeRatio, relativeStrength} {
		if !finite(v) {
			base.Degraded = true
			return base
		}
	}
	if momentum != nil && !finite(*momentum) {
		base.Degraded = true
		return base
	}

	enriched := base
	enriched.AverageVolume = &avgVolume
	enriched.VolumeRatio = &volumeRatio
	enriched.RelativeStrength = &relativeStrength
	enriched.Momentum = momentum
	return enriched
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
