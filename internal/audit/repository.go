package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for audit events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a single event.
func (r *Repository) Insert(ctx context.Context, e Event) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_log (id, actor, action, entity, entity_id, detail, at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Actor, e.Action, e.Entity, e.EntityID, e.Detail, e.At)
	return err
}

// List returns events newest first. It fetches one row beyond the page size
// so the caller can tell whether a next page exists.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, actor, action, entity, entity_id, detail, at
		 FROM audit_log ORDER BY at DESC, id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Entity, &e.EntityID, &e.Detail, &e.At); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Cleanup removes events older than the retention window.
func (r *Repository) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_log WHERE at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
