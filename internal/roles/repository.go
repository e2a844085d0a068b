package roles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftwise/shiftwise/internal/platform/db"
	"github.com/shiftwise/shiftwise/internal/shared"
)

// Repository defines persistence operations for the role registry.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context, req ListRolesRequest) ([]Role, int, error)
	Create(ctx context.Context, role Role) (*Role, error)
	Update(ctx context.Context, role Role) (*Role, error)
	Delete(ctx context.Context, id int64) error
	CountAssignments(ctx context.Context, roleID int64) (int, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const roleColumns = `id, name, description, permissions, is_system_role, is_active, created_at, updated_at`

func scanRole(row pgx.Row) (*Role, error) {
	var role Role
	var permissions []byte
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &permissions,
		&role.IsSystem, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(permissions, &role.Permissions); err != nil {
		return nil, fmt.Errorf("roles: decode permissions: %w", err)
	}
	return &role, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Role, error) {
	row := r.db.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	return scanRole(row)
}

func (r *repository) GetByName(ctx context.Context, name string) (*Role, error) {
	row := r.db.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
	return scanRole(row)
}

func (r *repository) List(ctx context.Context, req ListRolesRequest) ([]Role, int, error) {
	where := ` WHERE ($1::boolean IS NULL OR is_active = $1)
		AND ($2::text IS NULL OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM roles`+where, req.IsActive, req.Search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+roleColumns+` FROM roles`+where+` ORDER BY name LIMIT $3 OFFSET $4`,
		req.IsActive, req.Search, req.Limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *repository) Create(ctx context.Context, role Role) (*Role, error) {
	permissions, err := json.Marshal(role.Permissions)
	if err != nil {
		return nil, fmt.Errorf("roles: encode permissions: %w", err)
	}
	row := r.db.QueryRow(ctx,
		`INSERT INTO roles (name, description, permissions, is_system_role, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+roleColumns,
		role.Name, role.Description, permissions, role.IsSystem, role.IsActive)
	created, err := scanRole(row)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, role Role) (*Role, error) {
	permissions, err := json.Marshal(role.Permissions)
	if err != nil {
		return nil, fmt.Errorf("roles: encode permissions: %w", err)
	}
	row := r.db.QueryRow(ctx,
		`UPDATE roles
		 SET name = $2, description = $3, permissions = $4, is_active = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+roleColumns,
		role.ID, role.Name, role.Description, permissions, role.IsActive)
	updated, err := scanRole(row)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CountAssignments(ctx context.Context, roleID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM user_roles WHERE role_id = $1`, roleID).Scan(&count)
	return count, err
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicateRoleName
	}
	return err
}
