package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/internal/domain/repository"
	"github.com/turtacn/dataguard/pkg/logger"
)

// AccessEventRepoImpl implements AccessEventRepository on top of gorm.
type AccessEventRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewAccessEventRepository creates a gorm-backed access event ledger.
func NewAccessEventRepository(db *gorm.DB, log logger.Logger) repository.AccessEventRepository {
	return &AccessEventRepoImpl{db: db, logger: log.WithComponent("AccessEventRepository")}
}

func (r *AccessEventRepoImpl) Save(ctx context.Context, e *models.AccessEvent) error {
	if err := r.db.WithContext(ctx).Create(toAccessEventRecord(e)).Error; err != nil {
		r.logger.Error(ctx, "Failed to save access event", err,
			logger.String("user_id", e.UserID),
			logger.String("action", string(e.Action)),
		)
		return err
	}
	return nil
}

func (r *AccessEventRepoImpl) ListByUser(ctx context.Context, userID string, since time.Time) ([]*models.AccessEvent, error) {
	return r.find(r.db.WithContext(ctx).
		Where("user_id = ? AND timestamp >= ?", userID, since.UTC()).
		Order("timestamp ASC"))
}

func (r *AccessEventRepoImpl) ListSince(ctx context.Context, since time.Time) ([]*models.AccessEvent, error) {
	return r.find(r.db.WithContext(ctx).
		Where("timestamp >= ?", since.UTC()).
		Order("timestamp ASC"))
}

// Recent reads the newest limit rows and returns them oldest first.
func (r *AccessEventRepoImpl) Recent(ctx context.Context, limit int) ([]*models.AccessEvent, error) {
	if limit <= 0 {
		return []*models.AccessEvent{}, nil
	}
	events, err := r.find(r.db.WithContext(ctx).Order("timestamp DESC").Limit(limit))
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

func (r *AccessEventRepoImpl) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&accessEventRecord{}).Count(&n).Error
	return n, err
}

func (r *AccessEventRepoImpl) find(q *gorm.DB) ([]*models.AccessEvent, error) {
	var recs []accessEventRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*models.AccessEvent, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

//Personal.AI order the ending
