package transport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/service"
	"github.com/applyhub/priority-pipeline/internal/staging"
)

const serverVersion = "1.0.0"

// Server exposes the filestore RPC surface: stage, promote, health.
type Server struct {
	staging   *staging.Store
	promotion *service.PromotionService
	logger    *zap.Logger
}

func NewServer(st *staging.Store, promotion *service.PromotionService, logger *zap.Logger) *Server {
	return &Server{staging: st, promotion: promotion, logger: logger}
}

// Router builds the chi router for the RPC surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestSize(32 << 20)) // 32 MB cap on file payload batches

	r.Get("/rpc/v1/health", s.health)
	r.Post("/rpc/v1/files/stage", s.stage)
	r.Post("/rpc/v1/files/promote", s.promote)
	return r
}

func (s *Server) stage(w http.ResponseWriter, r *http.Request) {
	var req StageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	fileIDs := make([]string, len(req.Files))
	for i, f := range req.Files {
		fileIDs[i] = s.staging.Save(req.ApplicationID, f.Filename, f.ContentType, f.Content)
	}

	s.logger.Info("files staged",
		zap.String("application_id", req.ApplicationID),
		zap.Int("count", len(fileIDs)),
	)
	writeJSON(w, StageResponse{FileIDs: fileIDs})
}

func (s *Server) promote(w http.ResponseWriter, r *http.Request) {
	var req PromoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	files, err := s.promotion.Promote(r.Context(), req.ApplicationID, req.FileIDs)
	if err != nil {
		s.logger.Error("promotion failed",
			zap.String("application_id", req.ApplicationID),
			zap.Error(err),
		)
		http.Error(w, "promotion failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, PromoteResponse{Files: files})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, HealthResponse{Healthy: true, Version: serverVersion})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
