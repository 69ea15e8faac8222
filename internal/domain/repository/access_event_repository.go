package repository

import (
	"context"
	"time"

	"github.com/turtacn/dataguard/internal/domain/models"
)

// AccessEventRepository is the insert-only ledger of access attempts.
// Every list method returns events in ascending timestamp order.
type AccessEventRepository interface {
	Save(ctx context.Context, event *models.AccessEvent) error

	// ListByUser returns the user's events at or after since.
	ListByUser(ctx context.Context, userID string, since time.Time) ([]*models.AccessEvent, error)

	// ListSince returns every event at or after since.
	ListSince(ctx context.Context, since time.Time) ([]*models.AccessEvent, error)

	// Recent returns the newest limit events.
	Recent(ctx context.Context, limit int) ([]*models.AccessEvent, error)

	Count(ctx context.Context) (int64, error)
}

//Personal.AI order the ending
