package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatekeep-io/gatekeep/internal/shared"
)

// Directory provides PostgreSQL backed read access to principals.
type Directory struct {
	pool *pgxpool.Pool
}

// NewDirectory constructs a directory.
func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// Find returns the principal with the given id.
func (d *Directory) Find(ctx context.Context, id int64) (Principal, error) {
	var p Principal
	err := d.pool.QueryRow(ctx,
		`SELECT id, subject, role_id FROM principals WHERE id = $1`, id,
	).Scan(&p.ID, &p.Subject, &p.RoleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Principal{}, fmt.Errorf("principal %d: %w", id, shared.ErrNotFound)
		}
		return Principal{}, err
	}
	return p, nil
}
