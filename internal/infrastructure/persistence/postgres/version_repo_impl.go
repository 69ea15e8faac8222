package postgres

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/internal/domain/repository"
	"github.com/turtacn/dataguard/pkg/errors"
	"github.com/turtacn/dataguard/pkg/logger"
)

// VersionRepoImpl implements VersionRepository on top of gorm.
// The unique (document_id, sequence) index backs the gapless-chain guarantee even
// across processes sharing one database.
type VersionRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewVersionRepository creates a gorm-backed version repository.
func NewVersionRepository(db *gorm.DB, log logger.Logger) repository.VersionRepository {
	return &VersionRepoImpl{db: db, logger: log.WithComponent("VersionRepository")}
}

// Append inserts v if it extends the chain head by exactly one.
func (r *VersionRepoImpl) Append(ctx context.Context, v *models.Version) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var head int64
		err := tx.Model(&versionRecord{}).
			Where("document_id = ?", v.DocumentID).
			Select("COALESCE(MAX(sequence), 0)").
			Scan(&head).Error
		if err != nil {
			return err
		}
		if v.Sequence != head+1 {
			return errors.ConcurrentModification(v.DocumentID, head+1, v.Sequence)
		}

		if err := tx.Create(toVersionRecord(v)).Error; err != nil {
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.ConcurrentModification(v.DocumentID, head+1, v.Sequence)
			}
			r.logger.Error(ctx, "Failed to append version", err,
				logger.String("document_id", v.DocumentID),
				logger.Int64("sequence", v.Sequence),
			)
			return err
		}
		return nil
	})
}

func (r *VersionRepoImpl) Latest(ctx context.Context, documentID string) (*models.Version, error) {
	var rec versionRecord
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("sequence DESC").
		Take(&rec).Error
	if err != nil {
		return nil, notFound(err, "document", documentID)
	}
	return rec.toModel(), nil
}

func (r *VersionRepoImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Version, error) {
	var rec versionRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).Take(&rec).Error; err != nil {
		return nil, notFound(err, "version", id.String())
	}
	return rec.toModel(), nil
}

func (r *VersionRepoImpl) ListByDocument(ctx context.Context, documentID string) ([]*models.Version, error) {
	var recs []versionRecord
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("sequence ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]*models.Version, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

// DocumentRepoImpl implements DocumentRepository on top of gorm.
type DocumentRepoImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewDocumentRepository creates a gorm-backed document repository.
func NewDocumentRepository(db *gorm.DB, log logger.Logger) repository.DocumentRepository {
	return &DocumentRepoImpl{db: db, logger: log.WithComponent("DocumentRepository")}
}

func (r *DocumentRepoImpl) Get(ctx context.Context, id string) (*models.Document, error) {
	var rec documentRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		return nil, notFound(err, "document", id)
	}
	return rec.toModel(), nil
}

// Save upserts the document head.
func (r *DocumentRepoImpl) Save(ctx context.Context, d *models.Document) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"current_digest", "latest_sequence", "updated_at"}),
		}).
		Create(toDocumentRecord(d)).Error
	if err != nil {
		r.logger.Error(ctx, "Failed to save document", err, logger.String("document_id", d.ID))
	}
	return err
}

func (r *DocumentRepoImpl) List(ctx context.Context) ([]*models.Document, error) {
	var recs []documentRecord
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*models.Document, len(recs))
	for i := range recs {
		out[i] = recs[i].toModel()
	}
	return out, nil
}

// notFound maps gorm's missing-row error to the domain NotFound error.
func notFound(err error, kind, id string) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound(kind, id)
	}
	return err
}

//Personal.AI order the ending
