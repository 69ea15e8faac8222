package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/internal/domain/repository"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
	"github.com/turtacn/dataguard/pkg/logger"
)

// AlertRepoImpl implements AlertRepository on top of gorm.
type AlertRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewAlertRepository creates a gorm-backed alert repository.
func NewAlertRepository(db *gorm.DB, log logger.Logger) repository.AlertRepository {
	return &AlertRepoImpl{db: db, logger: log.WithComponent("AlertRepository")}
}

func (r *AlertRepoImpl) Create(ctx context.Context, a *models.Alert) error {
	if err := r.db.WithContext(ctx).Create(toAlertRecord(a)).Error; err != nil {
		r.logger.Error(ctx, "Failed to create alert", err, logger.String("alert_id", a.ID.String()))
		return err
	}
	return nil
}

func (r *AlertRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	var rec alertRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).Take(&rec).Error; err != nil {
		return nil, notFound(err, "alert", id.String())
	}
	return rec.toModel(), nil
}

func (r *AlertRepoImpl) FindOpenByDedupKey(ctx context.Context, key string) (*models.Alert, error) {
	var rec alertRecord
	err := r.db.WithContext(ctx).
		Where("dedup_key = ? AND status = ?", key, string(constants.AlertStatusOpen)).
		Order("timestamp DESC").
		Take(&rec).Error
	if err != nil {
		return nil, notFound(err, "alert", key)
	}
	return rec.toModel(), nil
}

// Resolve is a single conditional UPDATE, so concurrent resolvers race in the database
// and exactly one of them sees a changed row.
func (r *AlertRepoImpl) Resolve(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&alertRecord{}).
		Where("id = ? AND status = ?", id.String(), string(constants.AlertStatusOpen)).
		Updates(map[string]interface{}{
			"status":      string(constants.AlertStatusResolved),
			"resolved_at": at.UTC(),
			"resolved_by": by,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&alertRecord{}).Where("id = ?", id.String()).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, errors.NotFound("alert", id.String())
	}
	return false, nil
}

func (r *AlertRepoImpl) List(ctx context.Context, f models.AlertFilter) ([]*models.Alert, error) {
	q := r.db.WithContext(ctx).Model(&alertRecord{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.Type != "" {
		q = q.Where("type = ?", string(f.Type))
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", string(f.Severity))
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.DocumentID != "" {
		q = q.Where("document_id = ?", f.DocumentID)
	}
	if !f.Since.IsZero() {
		q = q.Where("timestamp >= ?", f.Since.UTC())
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var recs []alertRecord
	if err := q.Order("timestamp DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Alert, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

//Personal.AI order the ending
