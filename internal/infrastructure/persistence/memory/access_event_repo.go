package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/turtacn/dataguard/internal/domain/models"
)

// AccessEventRepository keeps the access ledger in memory, ordered by timestamp.
type AccessEventRepository struct {
	mu     sync.RWMutex
	events []*models.AccessEvent
}

// NewAccessEventRepository creates an empty ledger.
func NewAccessEventRepository() *AccessEventRepository {
	return &AccessEventRepository{}
}

func (r *AccessEventRepository) Save(ctx context.Context, e *models.AccessEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *e
	// events usually arrive in order; keep the slice sorted either way
	i := sort.Search(len(r.events), func(i int) bool { return r.events[i].Timestamp.After(stored.Timestamp) })
	r.events = append(r.events, nil)
	copy(r.events[i+1:], r.events[i:])
	r.events[i] = &stored
	return nil
}

func (r *AccessEventRepository) ListByUser(ctx context.Context, userID string, since time.Time) ([]*models.AccessEvent, error) {
	return r.filter(func(e *models.AccessEvent) bool {
		return e.UserID == userID && !e.Timestamp.Before(since)
	}), nil
}

func (r *AccessEventRepository) ListSince(ctx context.Context, since time.Time) ([]*models.AccessEvent, error) {
	return r.filter(func(e *models.AccessEvent) bool {
		return !e.Timestamp.Before(since)
	}), nil
}

func (r *AccessEventRepository) Recent(ctx context.Context, limit int) ([]*models.AccessEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	start := 0
	if limit > 0 && len(r.events) > limit {
		start = len(r.events) - limit
	}
	out := make([]*models.AccessEvent, 0, len(r.events)-start)
	for _, e := range r.events[start:] {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

func (r *AccessEventRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.events)), nil
}

func (r *AccessEventRepository) filter(keep func(*models.AccessEvent) bool) []*models.AccessEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.AccessEvent
	for _, e := range r.events {
		if keep(e) {
			c := *e
			out = append(out, &c)
		}
	}
	return out
}

//Personal.AI order the ending
