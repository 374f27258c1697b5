package service

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/domain"
	"github.com/applyhub/priority-pipeline/internal/queue"
)

// AdmissionService classifies inbound submissions into tiers and enqueues
// them for the weighted scheduler. It trusts its callers: the HTTP boundary
// has already rejected out-of-range weights and empty payloads, so admission
// only routes and never fails.
type AdmissionService struct {
	queues *queue.TierQueues
	logger *zap.Logger

	onAdmitted func(tier domain.Tier)
}

func NewAdmissionService(queues *queue.TierQueues, logger *zap.Logger, onAdmitted func(domain.Tier)) *AdmissionService {
	if onAdmitted == nil {
		onAdmitted = func(domain.Tier) {}
	}
	return &AdmissionService{queues: queues, logger: logger, onAdmitted: onAdmitted}
}

// Submit builds the application, assigns its tier from the weight, and
// appends it to the tail of exactly one tier queue.
func (s *AdmissionService) Submit(req domain.SubmitRequest) domain.SubmitResponse {
	app := domain.Application{
		ID:        uuid.New().String(),
		Weight:    req.Weight,
		Tier:      domain.TierForWeight(req.Weight),
		Payload:   req.Payload,
		Files:     req.Files,
		CreatedAt: time.Now().UTC(),
	}

	s.queues.Enqueue(app)
	s.onAdmitted(app.Tier)

	s.logger.Info("application admitted",
		zap.String("application_id", app.ID),
		zap.String("tier", string(app.Tier)),
		zap.Int("weight", app.Weight),
		zap.Int("files", len(app.Files)),
	)

	return domain.SubmitResponse{
		ID:        app.ID,
		Tier:      app.Tier,
		Weight:    app.Weight,
		CreatedAt: app.CreatedAt,
	}
}
