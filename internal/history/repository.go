// Package history records completed uploads.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DefaultLimit and MaxLimit bound ListRecent.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Record describes one successful upload.
type Record struct {
	ID           string    `json:"id"`
	ObjectName   string    `json:"objectName"`
	OriginalName string    `json:"originalName"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Querier is the subset of *pgxpool.Pool used by Repository.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles upload history persistence.
type Repository struct {
	db Querier
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// Create inserts rec, filling in ID and CreatedAt.
func (r *Repository) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New().String()
	err := r.db.QueryRow(ctx,
		`INSERT INTO uploads (id, object_name, original_name, content_type, size_bytes, public_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		rec.ID, rec.ObjectName, rec.OriginalName, rec.ContentType, rec.Size, rec.URL,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

// ListRecent returns up to limit records, newest first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, object_name, original_name, content_type, size_bytes, public_url, created_at
		 FROM uploads
		 ORDER BY created_at DESC
		 LIMIT $1`,
		ClampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ObjectName, &rec.OriginalName, &rec.ContentType, &rec.Size, &rec.URL, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return records, nil
}

// ClampLimit maps non-positive limits to DefaultLimit and caps at MaxLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
