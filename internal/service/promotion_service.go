package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/objectstore"
	"github.com/applyhub/priority-pipeline/internal/staging"
)

// PromotedFile describes a staged file after it has been moved to durable
// object storage: where it lives and how to retrieve it.
type PromotedFile struct {
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// PromotionService moves staged files to the object store and retires the
// staged copies. It owns the promotion flow, not the storage itself.
type PromotionService struct {
	staging   *staging.Store
	objects   objectstore.Store
	urlExpiry time.Duration
	logger    *zap.Logger
}

func NewPromotionService(
	st *staging.Store,
	objects objectstore.Store,
	urlExpiry time.Duration,
	logger *zap.Logger,
) *PromotionService {
	return &PromotionService{staging: st, objects: objects, urlExpiry: urlExpiry, logger: logger}
}

// Promote pushes each staged file to durable storage, generates a retrieval
// URL, and deletes the staged entry. A missing or expired staged id is
// skipped with a warning; one lost file must not fail the whole batch.
// An object-store failure, by contrast, is a hard error: losing the durable
// copy silently would defeat the point of promotion.
func (s *PromotionService) Promote(ctx context.Context, applicationID string, fileIDs []string) ([]PromotedFile, error) {
	promoted := make([]PromotedFile, 0, len(fileIDs))

	for _, fileID := range fileIDs {
		entry, ok := s.staging.Get(fileID)
		if !ok {
			s.logger.Warn("staged file missing, skipping promotion",
				zap.String("file_id", fileID),
				zap.String("application_id", applicationID),
			)
			continue
		}

		key := fmt.Sprintf("%s/%s", uuid.New().String(), entry.Filename)
		if err := s.objects.Put(ctx, key, entry.Content, entry.ContentType); err != nil {
			return nil, fmt.Errorf("promote %s: %w", fileID, err)
		}

		url, err := s.objects.PresignedURL(ctx, key, s.urlExpiry)
		if err != nil {
			return nil, fmt.Errorf("presign %s: %w", key, err)
		}

		s.staging.Delete(fileID)

		promoted = append(promoted, PromotedFile{
			FileID:      fileID,
			Filename:    entry.Filename,
			Key:         key,
			URL:         url,
			Size:        int64(len(entry.Content)),
			ContentType: entry.ContentType,
		})

		s.logger.Info("file promoted to durable storage",
			zap.String("file_id", fileID),
			zap.String("key", key),
			zap.Int64("size", int64(len(entry.Content))),
		)
	}

	return promoted, nil
}
