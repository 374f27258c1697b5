package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/repository"
	"github.com/applyhub/priority-pipeline/internal/stats"
)

// QueryHandler serves the processor's read-only surface: persisted
// applications by id and the live statistics snapshot.
type QueryHandler struct {
	repo   repository.ApplicationRepository
	agg    *stats.Aggregator
	logger *zap.Logger
}

func NewQueryHandler(repo repository.ApplicationRepository, agg *stats.Aggregator, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{repo: repo, agg: agg, logger: logger}
}

// GetByID handles GET /api/v1/applications/{id}
//
// @Summary  Get a persisted application by ID
// @Tags     applications
// @Produce  json
// @Param    id   path      string  true  "Application UUID"
// @Success  200  {object}  domain.Application
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/applications/{id} [get]
func (h *QueryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	app, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, app)
}

// GetStats handles GET /api/v1/stats
//
// @Summary  Live processing statistics snapshot
// @Tags     metrics
// @Produce  json
// @Success  200  {object}  stats.Snapshot
// @Router   /api/v1/stats [get]
func (h *QueryHandler) GetStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.agg.Snapshot())
}
