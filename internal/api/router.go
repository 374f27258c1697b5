package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/api/handler"
	apimw "github.com/applyhub/priority-pipeline/internal/api/middleware"
	"github.com/applyhub/priority-pipeline/internal/queue"
	"github.com/applyhub/priority-pipeline/internal/ratelimiter"
	"github.com/applyhub/priority-pipeline/internal/repository"
	"github.com/applyhub/priority-pipeline/internal/service"
	"github.com/applyhub/priority-pipeline/internal/stats"
)

// NewGatewayRouter wires the gateway's HTTP surface: the submission
// boundary plus queue-depth and scrape endpoints.
func NewGatewayRouter(
	admission *service.AdmissionService,
	queues *queue.TierQueues,
	limiter *ratelimiter.SubmissionLimiter,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := baseRouter(logger)

	ah := handler.NewApplicationHandler(admission, limiter, logger)
	mh := handler.NewMetricsHandler(queues)
	hh := handler.NewHealthHandler()

	r.Get("/health", hh.Health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/applications", ah.Submit)
		r.Get("/metrics", mh.GetMetrics)
	})

	return r
}

// NewProcessorRouter wires the processor's read-only query surface.
func NewProcessorRouter(
	repo repository.ApplicationRepository,
	agg *stats.Aggregator,
	reg prometheus.Gatherer,
	logger *zap.Logger,
) http.Handler {
	r := baseRouter(logger)

	qh := handler.NewQueryHandler(repo, agg, logger)
	hh := handler.NewHealthHandler()

	r.Get("/health", hh.Health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/applications/{id}", qh.GetByID)
		r.Get("/stats", qh.GetStats)
	})

	return r
}

// baseRouter applies the middleware common to every HTTP surface.
func baseRouter(logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))
	return r
}
