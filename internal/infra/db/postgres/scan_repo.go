package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/shelfsnap/internal/domain/scans"
)

type ScanRepository struct{ db *sql.DB }

func NewScanRepository(db *sql.DB) *ScanRepository { return &ScanRepository{db: db} }

// Save insert/update Scan record
func (r *ScanRepository) Save(ctx context.Context, s *domain.Record) error {
	const q = `
INSERT INTO shelfsnap_scans
(id, status, video_bytes, frames_extracted, tool_available, last_error, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
 status = EXCLUDED.status,
 video_bytes = EXCLUDED.video_bytes,
 frames_extracted = EXCLUDED.frames_extracted,
 tool_available = EXCLUDED.tool_available,
 last_error = EXCLUDED.last_error,
 updated_at = EXCLUDED.updated_at;`

	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	_, err := r.db.ExecContext(ctx, q,
		s.ID, string(s.Status), s.VideoBytes, s.FramesExtracted, s.ToolAvailable,
		truncate(s.LastError), created, updated,
	)
	return err
}

// Get by ID
func (r *ScanRepository) Get(ctx context.Context, id domain.ScanID) (*domain.Record, error) {
	const q = `
SELECT id, status, video_bytes, frames_extracted, tool_available, last_error, created_at, updated_at
FROM shelfsnap_scans
WHERE id=$1
LIMIT 1;`
	var s domain.Record
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Status, &s.VideoBytes, &s.FramesExtracted, &s.ToolAvailable, &s.LastError, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Latest scans
func (r *ScanRepository) Latest(ctx context.Context, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, status, video_bytes, frames_extracted, tool_available, last_error, created_at, updated_at
FROM shelfsnap_scans
ORDER BY created_at DESC, id DESC
LIMIT $1;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Record
	for rows.Next() {
		var s domain.Record
		if err := rows.Scan(
			&s.ID, &s.Status, &s.VideoBytes, &s.FramesExtracted, &s.ToolAvailable, &s.LastError, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
