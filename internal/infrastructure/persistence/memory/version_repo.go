// Package memory provides in-process implementations of the repository ports, used by the
// single-node CLI and by tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/pkg/errors"
)

// VersionRepository keeps version chains in memory.
type VersionRepository struct {
	mu     sync.RWMutex
	chains map[string][]*models.Version
	byID   map[uuid.UUID]*models.Version
}

// NewVersionRepository creates an empty repository.
func NewVersionRepository() *VersionRepository {
	return &VersionRepository{
		chains: make(map[string][]*models.Version),
		byID:   make(map[uuid.UUID]*models.Version),
	}
}

func (r *VersionRepository) Append(ctx context.Context, v *models.Version) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chain := r.chains[v.DocumentID]
	expected := int64(len(chain)) + 1
	if v.Sequence != expected {
		return errors.ConcurrentModification(v.DocumentID, expected, v.Sequence)
	}
	stored := *v
	r.chains[v.DocumentID] = append(chain, &stored)
	r.byID[v.ID] = &stored
	return nil
}

func (r *VersionRepository) Latest(ctx context.Context, documentID string) (*models.Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := r.chains[documentID]
	if len(chain) == 0 {
		return nil, errors.NotFound("version", documentID)
	}
	v := *chain[len(chain)-1]
	return &v, nil
}

func (r *VersionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.byID[id]
	if !ok {
		return nil, errors.NotFound("version", id.String())
	}
	out := *v
	return &out, nil
}

func (r *VersionRepository) ListByDocument(ctx context.Context, documentID string) ([]*models.Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := r.chains[documentID]
	out := make([]*models.Version, len(chain))
	for i, v := range chain {
		c := *v
		out[i] = &c
	}
	return out, nil
}

// DocumentRepository keeps document heads in memory.
type DocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]*models.Document
}

// NewDocumentRepository creates an empty repository.
func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{docs: make(map[string]*models.Document)}
}

func (r *DocumentRepository) Get(ctx context.Context, id string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.docs[id]
	if !ok {
		return nil, errors.NotFound("document", id)
	}
	out := *d
	return &out, nil
}

func (r *DocumentRepository) Save(ctx context.Context, d *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *d
	r.docs[d.ID] = &stored
	return nil
}

func (r *DocumentRepository) List(ctx context.Context) ([]*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Document, 0, len(r.docs))
	for _, d := range r.docs {
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

//Personal.AI order the ending
