package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/pkg/errors"
)

// AlertRepository keeps alerts in memory.
type AlertRepository struct {
	mu     sync.RWMutex
	alerts map[uuid.UUID]*models.Alert
}

// NewAlertRepository creates an empty repository.
func NewAlertRepository() *AlertRepository {
	return &AlertRepository{alerts: make(map[uuid.UUID]*models.Alert)}
}

func (r *AlertRepository) Create(ctx context.Context, a *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyAlert(a)
	r.alerts[a.ID] = stored
	return nil
}

func (r *AlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.alerts[id]
	if !ok {
		return nil, errors.NotFound("alert", id.String())
	}
	return copyAlert(a), nil
}

func (r *AlertRepository) FindOpenByDedupKey(ctx context.Context, key string) (*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var newest *models.Alert
	for _, a := range r.alerts {
		if a.DedupKey == key && a.IsOpen() && (newest == nil || a.Timestamp.After(newest.Timestamp)) {
			newest = a
		}
	}
	if newest == nil {
		return nil, errors.NotFound("alert", key)
	}
	return copyAlert(newest), nil
}

func (r *AlertRepository) Resolve(ctx context.Context, id uuid.UUID, by string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.alerts[id]
	if !ok {
		return false, errors.NotFound("alert", id.String())
	}
	return a.Resolve(by, at), nil
}

func (r *AlertRepository) List(ctx context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Alert, 0)
	for _, a := range r.alerts {
		if filter.Matches(a) {
			out = append(out, copyAlert(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func copyAlert(a *models.Alert) *models.Alert {
	c := *a
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

//Personal.AI order the ending
