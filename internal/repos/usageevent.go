package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/studyforge/studyforge-backend/internal/logger"
	"github.com/studyforge/studyforge-backend/internal/types"
)

// UsageEventRepo is a write-only observability sink; core logic never
// reads events back.
type UsageEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.UsageEvent) ([]*types.UsageEvent, error)
}

type usageEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUsageEventRepo(db *gorm.DB, baseLog *logger.Logger) UsageEventRepo {
	repoLog := baseLog.With("repo", "UsageEventRepo")
	return &usageEventRepo{db: db, log: repoLog}
}

func (r *usageEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.UsageEvent) ([]*types.UsageEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(events) == 0 {
		return []*types.UsageEvent{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
