package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// MarketHandler serves stored articles, snapshots and options chains
type MarketHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewMarketHandler creates a new market data handler
func NewMarketHandler(storage interfaces.StorageManager, logger arbor.ILogger) *MarketHandler {
	return &MarketHandler{
		storage: storage,
		logger:  logger,
	}
}

// NewsHandler lists relevant articles, newest first. ?symbol= filters by
// associated ticker.
func (h *MarketHandler) NewsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	articles, err := h.storage.ArticleStorage().ListArticles(r.Context(), interfaces.ArticleQuery{
		Symbol: symbol,
		Limit:  GetLimitParam(r),
	})
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to list articles")
		WriteError(w, http.StatusInternalServerError, "Failed to list articles")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":   symbol,
		"count":    len(articles),
		"articles": articles,
	})
}

// SnapshotHandler returns the snapshot for /api/snapshots/{symbol}, the
// latest one unless ?date=YYYY-MM-DD is given.
func (h *MarketHandler) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := strings.ToUpper(PathParam(r, "/api/snapshots/"))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	var (
		snapshot *models.MarketSnapshot
		err      error
	)
	if date := r.URL.Query().Get("date"); date != "" {
		snapshot, err = h.storage.SnapshotStorage().GetSnapshot(r.Context(), symbol, date)
	} else {
		snapshot, err = h.storage.SnapshotStorage().GetLatestSnapshot(r.Context(), symbol)
	}
	if errors.Is(err, interfaces.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "No snapshot for "+symbol)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to get snapshot")
		WriteError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}

// OptionsHandler returns every stored chain for /api/options/{underlying}
func (h *MarketHandler) OptionsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	underlying := strings.ToUpper(PathParam(r, "/api/options/"))
	if underlying == "" {
		WriteError(w, http.StatusBadRequest, "Underlying is required")
		return
	}

	chains, err := h.storage.OptionsStorage().GetChains(r.Context(), underlying)
	if err != nil {
		h.logger.Error().Err(err).Str("underlying", underlying).Msg("Failed to get options chains")
		WriteError(w, http.StatusInternalServerError, "Failed to get options chains")
		return
	}
	if len(chains) == 0 {
		WriteError(w, http.StatusNotFound, "No options chains for "+underlying)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"underlying": underlying,
		"chains":     chains,
	})
}
