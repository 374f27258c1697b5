package handler

import (
	"net/http"

	"github.com/applyhub/priority-pipeline/internal/queue"
)

// MetricsHandler serves a human-readable JSON queue snapshot.
// Raw Prometheus metrics (counters, gauges) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type MetricsHandler struct {
	queues *queue.TierQueues
}

func NewMetricsHandler(queues *queue.TierQueues) *MetricsHandler {
	return &MetricsHandler{queues: queues}
}

// GetMetrics handles GET /api/v1/metrics
//
// @Summary  Real-time tier queue depth snapshot
// @Tags     metrics
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/metrics [get]
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, _ *http.Request) {
	priority, main, secondary := h.queues.Depths()
	respondJSON(w, http.StatusOK, map[string]any{
		"queue_depth": map[string]int{
			"priority":  priority,
			"main":      main,
			"secondary": secondary,
			"total":     priority + main + secondary,
		},
	})
}
