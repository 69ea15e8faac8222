package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/dataguard/internal/domain/models"
)

// AlertRepository stores alerts. Alerts are never deleted; the only update is Resolve.
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error

	// FindByID returns a NotFound error for unknown ids.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Alert, error)

	// FindOpenByDedupKey returns the newest open alert with the key, or a NotFound error.
	FindOpenByDedupKey(ctx context.Context, dedupKey string) (*models.Alert, error)

	// Resolve moves an open alert to resolved. The update is conditional on the alert being
	// open, so of two racing callers exactly one gets true.
	Resolve(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error)

	// List returns matching alerts, newest first.
	List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error)
}

//Personal.AI order the ending
