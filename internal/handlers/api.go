package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/common"
	"github.com/ternarybob/marketpulse/internal/interfaces"
	"github.com/ternarybob/marketpulse/internal/models"
)

// APIHandler serves the system endpoints.
type APIHandler struct {
	articles interfaces.ArticleStorage
	domains  []models.Domain // domains with a configured provider
	logger   arbor.ILogger
}

func NewAPIHandler(articles interfaces.ArticleStorage, domains []models.Domain, logger arbor.ILogger) *APIHandler {
	if domains == nil {
		domains = []models.Domain{}
	}
	return &APIHandler{
		articles: articles,
		domains:  domains,
		logger:   logger,
	}
}

// VersionHandler reports the build this process was compiled from.
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

type healthResponse struct {
	Status   string          `json:"status"`
	Domains  []models.Domain `json:"domains"`
	Articles int             `json:"articles"`
	Error    string          `json:"error,omitempty"`
}

// HealthHandler reports which domains can ingest and whether the store
// answers. An unreadable store is 503.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	resp := healthResponse{Status: "ok", Domains: h.domains}

	count, err := h.articles.CountArticles(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Health check could not read storage")
		resp.Status = "unavailable"
		resp.Error = err.Error()
		WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Articles = count

	WriteJSON(w, http.StatusOK, resp)
}

// NotFoundHandler answers unmatched paths with a JSON 404.
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]string{
		"status": "error",
		"error":  "no route for " + r.URL.Path,
	})
}
