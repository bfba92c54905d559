package services

import (
	"context"

	"github.com/drme990/manasik-v2-sub001/models"
	"github.com/drme990/manasik-v2-sub001/repository"
	"go.uber.org/zap"
)

// ActivityService writes and reads the back-office audit trail.
type ActivityService interface {
	// Record is best effort: failures are logged and never surface to the caller.
	Record(ctx context.Context, activity models.Activity)
	ListActivities(ctx context.Context, page, limit int) ([]models.Activity, int64, *ServiceError)
}

type activityServiceImpl struct {
	repo   repository.ActivityRepository
	logger *zap.Logger
	opts   serviceOptions
}

func NewActivityService(repo repository.ActivityRepository, logger *zap.Logger, opts ...Option) ActivityService {
	return &activityServiceImpl{repo: repo, logger: logger, opts: applyOptions(opts)}
}

func (s *activityServiceImpl) Record(ctx context.Context, activity models.Activity) {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = s.opts.now().UTC()
	}
	if activity.Actor == "" {
		activity.Actor = "system"
	}
	if err := s.repo.Create(ctx, &activity); err != nil {
		s.logger.Warn("Failed to record activity",
			zap.String("action", activity.Action),
			zap.String("entity_id", activity.EntityID),
			zap.Error(err),
		)
	}
}

func (s *activityServiceImpl) ListActivities(ctx context.Context, page, limit int) ([]models.Activity, int64, *ServiceError) {
	activities, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list activities", zap.Error(err))
		return nil, 0, internalError("Failed to list activities")
	}
	return activities, total, nil
}
