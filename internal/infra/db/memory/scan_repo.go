// Package memory is the default, process-local scan history backend.
package memory

import (
	"context"
	"sort"
	"sync"

	domain "github.com/bryanwahyu/shelfsnap/internal/domain/scans"
)

type ScanRepository struct {
	mu   sync.RWMutex
	rows map[domain.ScanID]domain.Record
}

func NewScanRepository() *ScanRepository {
	return &ScanRepository{rows: make(map[domain.ScanID]domain.Record)}
}

// Save insert/update Scan record
func (r *ScanRepository) Save(_ context.Context, rec *domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[rec.ID] = *rec
	return nil
}

func (r *ScanRepository) Get(_ context.Context, id domain.ScanID) (*domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// Latest returns records ordered by created_at desc, id desc.
func (r *ScanRepository) Latest(_ context.Context, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.RLock()
	out := make([]*domain.Record, 0, len(r.rows))
	for _, rec := range r.rows {
		rec := rec
		out = append(out, &rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
