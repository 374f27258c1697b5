package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/applyhub/priority-pipeline/internal/api/middleware"
	"github.com/applyhub/priority-pipeline/internal/domain"
	"github.com/applyhub/priority-pipeline/internal/ratelimiter"
	"github.com/applyhub/priority-pipeline/internal/service"
)

// ApplicationHandler is the submission boundary. It rejects malformed
// requests before admission: out-of-range weight and empty payload never
// reach the classifier, which by contract does not check them.
type ApplicationHandler struct {
	admission *service.AdmissionService
	limiter   *ratelimiter.SubmissionLimiter
	logger    *zap.Logger
}

func NewApplicationHandler(
	admission *service.AdmissionService,
	limiter *ratelimiter.SubmissionLimiter,
	logger *zap.Logger,
) *ApplicationHandler {
	return &ApplicationHandler{admission: admission, limiter: limiter, logger: logger}
}

// Submit handles POST /api/v1/applications
//
// @Summary     Submit an application for processing
// @Tags        applications
// @Accept      json
// @Produce     json
// @Param       body  body      domain.SubmitRequest  true  "Application payload"
// @Success     202   {object}  domain.SubmitResponse
// @Failure     422   {object}  map[string]string
// @Failure     429   {object}  map[string]string
// @Router      /api/v1/applications [post]
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		mapError(w, domain.ErrRateLimited)
		return
	}

	var req domain.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.Warn("submission rejected at boundary",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Int("weight", req.Weight),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	resp := h.admission.Submit(req)
	respondJSON(w, http.StatusAccepted, resp)
}
