package postgres

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/pkg/constants"
)

// documentRecord 文档表
type documentRecord struct {
	ID             string `gorm:"primaryKey;size:255"`
	Department     string `gorm:"size:64;index"`
	CurrentDigest  string `gorm:"size:64"`
	LatestSequence int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (documentRecord) TableName() string { return "documents" }

func toDocumentRecord(d *models.Document) *documentRecord {
	return &documentRecord{
		ID:             d.ID,
		Department:     d.Department,
		CurrentDigest:  d.CurrentDigest,
		LatestSequence: d.LatestSequence,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

func (r *documentRecord) toModel() *models.Document {
	return &models.Document{
		ID:             r.ID,
		Department:     r.Department,
		CurrentDigest:  r.CurrentDigest,
		LatestSequence: r.LatestSequence,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// versionRecord 版本表，(document_id, sequence) 唯一
type versionRecord struct {
	ID         string `gorm:"primaryKey;size:36"`
	DocumentID string `gorm:"size:255;not null;uniqueIndex:idx_versions_document_sequence"`
	Sequence   int64  `gorm:"not null;uniqueIndex:idx_versions_document_sequence"`
	Digest     string `gorm:"size:64"`
	ContentRef string `gorm:"size:255"`
	Size       int64
	AuthorID   string `gorm:"size:255"`
	Origin     string `gorm:"size:32"`
	RiskScore  float64
	CreatedAt  time.Time
}

func (versionRecord) TableName() string { return "document_versions" }

func toVersionRecord(v *models.Version) *versionRecord {
	return &versionRecord{
		ID:         v.ID.String(),
		DocumentID: v.DocumentID,
		Sequence:   v.Sequence,
		Digest:     v.Digest,
		ContentRef: v.ContentRef,
		Size:       v.Size,
		AuthorID:   v.AuthorID,
		Origin:     string(v.Origin),
		RiskScore:  v.RiskScore,
		CreatedAt:  v.CreatedAt.UTC(),
	}
}

func (r *versionRecord) toModel() *models.Version {
	return &models.Version{
		ID:         uuid.MustParse(r.ID),
		DocumentID: r.DocumentID,
		Sequence:   r.Sequence,
		Digest:     r.Digest,
		ContentRef: r.ContentRef,
		Size:       r.Size,
		AuthorID:   r.AuthorID,
		Origin:     constants.VersionOrigin(r.Origin),
		RiskScore:  r.RiskScore,
		CreatedAt:  r.CreatedAt,
	}
}

// accessEventRecord 访问事件表
type accessEventRecord struct {
	ID                 string    `gorm:"primaryKey;size:36"`
	UserID             string    `gorm:"size:255;not null;index:idx_access_events_user_time"`
	Department         string    `gorm:"size:64"`
	Action             string    `gorm:"size:32"`
	DocumentID         string    `gorm:"size:255"`
	DocumentDepartment string    `gorm:"size:64"`
	Timestamp          time.Time `gorm:"not null;index;index:idx_access_events_user_time"`
	Outcome            string    `gorm:"size:16"`
	RiskScore          float64
	Severity           string `gorm:"size:16"`
	AnomalyFlag        bool
	LowConfidence      bool
}

func (accessEventRecord) TableName() string { return "access_events" }

func toAccessEventRecord(e *models.AccessEvent) *accessEventRecord {
	return &accessEventRecord{
		ID:                 e.ID.String(),
		UserID:             e.UserID,
		Department:         e.Department,
		Action:             string(e.Action),
		DocumentID:         e.DocumentID,
		DocumentDepartment: e.DocumentDepartment,
		Timestamp:          e.Timestamp.UTC(),
		Outcome:            string(e.Outcome),
		RiskScore:          e.RiskScore,
		Severity:           string(e.Severity),
		AnomalyFlag:        e.AnomalyFlag,
		LowConfidence:      e.LowConfidence,
	}
}

func (r *accessEventRecord) toModel() *models.AccessEvent {
	return &models.AccessEvent{
		ID:                 uuid.MustParse(r.ID),
		UserID:             r.UserID,
		Department:         r.Department,
		Action:             constants.AccessAction(r.Action),
		DocumentID:         r.DocumentID,
		DocumentDepartment: r.DocumentDepartment,
		Timestamp:          r.Timestamp,
		Outcome:            constants.AccessOutcome(r.Outcome),
		RiskScore:          r.RiskScore,
		Severity:           constants.Severity(r.Severity),
		AnomalyFlag:        r.AnomalyFlag,
		LowConfidence:      r.LowConfidence,
	}
}

// alertRecord 告警表
type alertRecord struct {
	ID          string `gorm:"primaryKey;size:36"`
	Type        string `gorm:"size:64;index"`
	UserID      string `gorm:"size:255;index"`
	DocumentID  string `gorm:"size:255"`
	RiskScore   float64
	Severity    string    `gorm:"size:16"`
	Description string    `gorm:"type:text"`
	Timestamp   time.Time `gorm:"not null;index"`
	Status      string    `gorm:"size:16;not null;index:idx_alerts_dedup_status"`
	ResolvedAt  *time.Time
	ResolvedBy  string `gorm:"size:255"`
	DedupKey    string `gorm:"size:600;index:idx_alerts_dedup_status"`
}

func (alertRecord) TableName() string { return "alerts" }

func toAlertRecord(a *models.Alert) *alertRecord {
	rec := &alertRecord{
		ID:          a.ID.String(),
		Type:        string(a.Type),
		UserID:      a.UserID,
		DocumentID:  a.DocumentID,
		RiskScore:   a.RiskScore,
		Severity:    string(a.Severity),
		Description: a.Description,
		Timestamp:   a.Timestamp.UTC(),
		Status:      string(a.Status),
		ResolvedBy:  a.ResolvedBy,
		DedupKey:    a.DedupKey,
	}
	if a.ResolvedAt != nil {
		at := a.ResolvedAt.UTC()
		rec.ResolvedAt = &at
	}
	return rec
}

func (r *alertRecord) toModel() *models.Alert {
	return &models.Alert{
		ID:          uuid.MustParse(r.ID),
		Type:        constants.AlertType(r.Type),
		UserID:      r.UserID,
		DocumentID:  r.DocumentID,
		RiskScore:   r.RiskScore,
		Severity:    constants.Severity(r.Severity),
		Description: r.Description,
		Timestamp:   r.Timestamp,
		Status:      constants.AlertStatus(r.Status),
		ResolvedAt:  r.ResolvedAt,
		ResolvedBy:  r.ResolvedBy,
		DedupKey:    r.DedupKey,
	}
}

// AllRecords lists the tables managed by AutoMigrate.
func AllRecords() []interface{} {
	return []interface{}{
		&documentRecord{},
		&versionRecord{},
		&accessEventRecord{},
		&alertRecord{},
	}
}

//Personal.AI order the ending
