package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftwise/shiftwise/internal/platform/db"
	"github.com/shiftwise/shiftwise/internal/rbac"
	"github.com/shiftwise/shiftwise/internal/shared"
)

// Repository defines persistence operations for the principal store.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, req ListUsersRequest) ([]User, int, error)
	Create(ctx context.Context, user User) (*User, error)
	Update(ctx context.Context, user User) (*User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
	ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error
	RolesByIDs(ctx context.Context, ids []int64) ([]rbac.Role, error)
	CountByTenant(ctx context.Context, tenantID string) (int, error)
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

const userColumns = `id, email, username, first_name, last_name, password_hash,
	tenant_id, is_active, is_verified, is_superuser, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &user.FirstName, &user.LastName,
		&user.PasswordHash, &user.TenantID, &user.IsActive, &user.IsVerified, &user.IsSuperuser,
		&user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) getWhere(ctx context.Context, clause string, arg any) (*User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+clause, arg))
	if err != nil {
		return nil, err
	}
	roles, err := r.rolesForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return user, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*User, error) {
	return r.getWhere(ctx, `id = $1`, id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getWhere(ctx, `email = $1`, email)
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getWhere(ctx, `username = $1`, username)
}

func (r *repository) List(ctx context.Context, req ListUsersRequest) ([]User, int, error) {
	where := ` WHERE ($1::text IS NULL OR tenant_id = $1)
		AND ($2::boolean IS NULL OR is_active = $2)
		AND ($3::boolean IS NULL OR is_superuser = $3)
		AND ($4::text IS NULL
			OR email ILIKE '%' || $4 || '%'
			OR username ILIKE '%' || $4 || '%'
			OR first_name ILIKE '%' || $4 || '%'
			OR last_name ILIKE '%' || $4 || '%')`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`+where,
		req.TenantID, req.IsActive, req.IsSuperuser, req.Search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users`+where+` ORDER BY id LIMIT $5 OFFSET $6`,
		req.TenantID, req.IsActive, req.IsSuperuser, req.Search, req.Limit, req.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachRoles(ctx, result); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *repository) Create(ctx context.Context, user User) (*User, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO users (email, username, first_name, last_name, password_hash,
			tenant_id, is_active, is_verified, is_superuser)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+userColumns,
		user.Email, user.Username, user.FirstName, user.LastName, user.PasswordHash,
		user.TenantID, user.IsActive, user.IsVerified, user.IsSuperuser)
	created, err := scanUser(row)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	created.Roles = []rbac.Role{}
	return created, nil
}

func (r *repository) Update(ctx context.Context, user User) (*User, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE users
		 SET email = $2, username = $3, first_name = $4, last_name = $5,
		     is_active = $6, is_verified = $7, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		user.ID, user.Email, user.Username, user.FirstName, user.LastName,
		user.IsActive, user.IsVerified)
	updated, err := scanUser(row)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	roles, err := r.rolesForUser(ctx, updated.ID)
	if err != nil {
		return nil, err
	}
	updated.Roles = roles
	return updated, nil
}

func (r *repository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReplaceRoles swaps the user's role assignment set. Run inside WithTx
// together with the row update to keep the read-modify-write atomic.
func (r *repository) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID); err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM users WHERE tenant_id = $1`, tenantID).Scan(&count)
	return count, err
}

func (r *repository) RolesByIDs(ctx context.Context, ids []int64) ([]rbac.Role, error) {
	if len(ids) == 0 {
		return []rbac.Role{}, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, name, description, permissions, is_system_role, is_active
		 FROM roles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRoles(rows)
}

func (r *repository) rolesForUser(ctx context.Context, userID int64) ([]rbac.Role, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.name, r.description, r.permissions, r.is_system_role, r.is_active
		 FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = $1
		 ORDER BY r.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRoles(rows)
}

func (r *repository) attachRoles(ctx context.Context, result []User) error {
	if len(result) == 0 {
		return nil
	}
	ids := make([]int64, len(result))
	index := make(map[int64]int, len(result))
	for i := range result {
		ids[i] = result[i].ID
		index[result[i].ID] = i
		result[i].Roles = []rbac.Role{}
	}
	rows, err := r.db.Query(ctx,
		`SELECT ur.user_id, r.id, r.name, r.description, r.permissions, r.is_system_role, r.is_active
		 FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = ANY($1)
		 ORDER BY r.id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var role rbac.Role
		var permissions []byte
		if err := rows.Scan(&userID, &role.ID, &role.Name, &role.Description,
			&permissions, &role.IsSystem, &role.IsActive); err != nil {
			return err
		}
		if err := json.Unmarshal(permissions, &role.Permissions); err != nil {
			return fmt.Errorf("users: decode permissions: %w", err)
		}
		i := index[userID]
		result[i].Roles = append(result[i].Roles, role)
	}
	return rows.Err()
}

func collectRoles(rows pgx.Rows) ([]rbac.Role, error) {
	result := []rbac.Role{}
	for rows.Next() {
		var role rbac.Role
		var permissions []byte
		if err := rows.Scan(&role.ID, &role.Name, &role.Description,
			&permissions, &role.IsSystem, &role.IsActive); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(permissions, &role.Permissions); err != nil {
			return nil, fmt.Errorf("users: decode permissions: %w", err)
		}
		result = append(result, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicateUserIdentity
	}
	return err
}
