package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/gatekeep-io/gatekeep/internal/catalog"
	"github.com/gatekeep-io/gatekeep/internal/platform/db"
	"github.com/gatekeep-io/gatekeep/internal/shared"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository provides PostgreSQL backed persistence for roles. Every
// mutation runs inside a single transaction; the unique constraint on
// roles.name, not an application pre-check, is what makes concurrent
// duplicate creates safe.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the role with the given id, with its permission set joined to
// the catalog descriptions.
func (r *Repository) Get(ctx context.Context, id int64) (*Role, error) {
	return getRole(ctx, r.pool, id)
}

// List returns all roles ordered by name, each enriched with its
// permissions. The role rows and the association rows are fetched in
// parallel and stitched together in memory.
func (r *Repository) List(ctx context.Context) ([]Role, error) {
	var (
		result []Role
		assocs map[int64][]catalog.Permission
	)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM roles ORDER BY name`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var role Role
			if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
				return err
			}
			result = append(result, role)
		}
		return rows.Err()
	})

	g.Go(func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT rp.role_id, p.id, p.name, p.description
			 FROM role_permissions rp
			 JOIN permissions p ON p.id = rp.permission_id
			 ORDER BY p.name`)
		if err != nil {
			return err
		}
		defer rows.Close()
		assocs = make(map[int64][]catalog.Permission)
		for rows.Next() {
			var roleID int64
			var p catalog.Permission
			if err := rows.Scan(&roleID, &p.ID, &p.Name, &p.Description); err != nil {
				return err
			}
			assocs[roleID] = append(assocs[roleID], p)
		}
		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Permissions = assocs[result[i].ID]
	}
	return result, nil
}

// Create inserts the role and its permission associations atomically.
func (r *Repository) Create(ctx context.Context, name string, perms []catalog.Permission) (*Role, error) {
	var created *Role
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx,
			`INSERT INTO roles (name) VALUES ($1) RETURNING id`, name,
		).Scan(&id)
		if err != nil {
			if isPgError(err, pgUniqueViolation) {
				return fmt.Errorf("role %q already exists: %w", name, shared.ErrConflict)
			}
			return err
		}
		if err := attachPermissions(ctx, tx, id, perms); err != nil {
			return err
		}
		created, err = getRole(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies the provided fields inside one transaction. The row is
// locked first so a concurrent delete cannot interleave with the write.
func (r *Repository) Update(ctx context.Context, id int64, params UpdateParams) (*Role, error) {
	var updated *Role
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current string
		err := tx.QueryRow(ctx,
			`SELECT name FROM roles WHERE id = $1 FOR UPDATE`, id,
		).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
			}
			return err
		}
		if params.Name != nil && *params.Name != current {
			if _, err := tx.Exec(ctx,
				`UPDATE roles SET name = $1, updated_at = now() WHERE id = $2`, *params.Name, id,
			); err != nil {
				if isPgError(err, pgUniqueViolation) {
					return fmt.Errorf("role %q already exists: %w", *params.Name, shared.ErrConflict)
				}
				return err
			}
		}
		if params.Permissions != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
				return err
			}
			if err := attachPermissions(ctx, tx, id, *params.Permissions); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `UPDATE roles SET updated_at = now() WHERE id = $1`, id); err != nil {
				return err
			}
		}
		updated, err = getRole(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the role and its associations. It refuses while any
// principal still references the role.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var name string
		err := tx.QueryRow(ctx,
			`SELECT name FROM roles WHERE id = $1 FOR UPDATE`, id,
		).Scan(&name)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
			}
			return err
		}
		var inUse int64
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM principals WHERE role_id = $1`, id,
		).Scan(&inUse); err != nil {
			return err
		}
		if inUse > 0 {
			return fmt.Errorf("role %q is in use by %d principal(s): %w", name, inUse, shared.ErrConflict)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id); err != nil {
			// The FK from principals is the backstop against a principal
			// assigned between the count and the delete.
			if isPgError(err, pgForeignKeyViolation) {
				return fmt.Errorf("role %q is in use: %w", name, shared.ErrConflict)
			}
			return err
		}
		return nil
	})
}

func attachPermissions(ctx context.Context, tx dbtx, roleID int64, perms []catalog.Permission) error {
	for _, p := range perms {
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)`,
			roleID, p.ID,
		); err != nil {
			return err
		}
	}
	return nil
}

func getRole(ctx context.Context, q dbtx, id int64) (*Role, error) {
	var role Role
	err := q.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM roles WHERE id = $1`, id,
	).Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	rows, err := q.Query(ctx,
		`SELECT p.id, p.name, p.description
		 FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1
		 ORDER BY p.name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p catalog.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		role.Permissions = append(role.Permissions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &role, nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
