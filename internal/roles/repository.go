package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backoffice/superadmin/internal/platform/db"
	"github.com/backoffice/superadmin/internal/shared"
)

const roleColumns = `id, name, permissions, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the writes available inside a transaction.
type TxRepository interface {
	InsertRole(ctx context.Context, name string, permissions []string) (Role, error)
	UpdateRole(ctx context.Context, id int64, patch Patch) (Role, error)
	AssignRole(ctx context.Context, userID, roleID int64) (UserRole, bool, error)
	RecordAudit(ctx context.Context, log shared.AuditLog) error
}

type txRepo struct {
	tx    pgx.Tx
	audit *shared.AuditLogger
}

// WithTx runs fn in a read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, audit: shared.NewAuditLogger(tx)})
	})
}

// ListRoles returns all roles ordered by id.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanRole)
}

// GetRole returns a role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	if err != nil {
		return Role{}, err
	}
	role, err := pgx.CollectExactlyOneRow(rows, scanRole)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, ErrRoleNotFound
	}
	return role, err
}

func (t *txRepo) InsertRole(ctx context.Context, name string, permissions []string) (Role, error) {
	rows, err := t.tx.Query(ctx, `INSERT INTO roles (name, permissions) VALUES ($1, $2) RETURNING `+roleColumns, name, permissions)
	if err != nil {
		return Role{}, translate(err)
	}
	role, err := pgx.CollectExactlyOneRow(rows, scanRole)
	if err != nil {
		return Role{}, translate(err)
	}
	return role, nil
}

func (t *txRepo) UpdateRole(ctx context.Context, id int64, patch Patch) (Role, error) {
	rows, err := t.tx.Query(ctx, `UPDATE roles SET
		name = COALESCE($2, name),
		permissions = COALESCE($3, permissions),
		updated_at = NOW()
	WHERE id = $1 RETURNING `+roleColumns, id, patch.Name, patch.Permissions)
	if err != nil {
		return Role{}, translate(err)
	}
	role, err := pgx.CollectExactlyOneRow(rows, scanRole)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrRoleNotFound
		}
		return Role{}, translate(err)
	}
	return role, nil
}

// AssignRole upserts the link. The boolean reports whether a new row was
// inserted rather than an existing one matched.
func (t *txRepo) AssignRole(ctx context.Context, userID, roleID int64) (UserRole, bool, error) {
	var (
		link     UserRole
		inserted bool
	)
	err := t.tx.QueryRow(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, role_id, assigned_at, (xmax = 0)`, userID, roleID).
		Scan(&link.UserID, &link.RoleID, &link.AssignedAt, &inserted)
	if err != nil {
		return UserRole{}, false, translate(err)
	}
	return link, inserted, nil
}

func (t *txRepo) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	return t.audit.Record(ctx, log)
}

func scanRole(row pgx.CollectableRow) (Role, error) {
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.Permissions, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return Role{}, err
	}
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	return role, nil
}

func translate(err error) error {
	if name, ok := db.UniqueViolation(err); ok && name == "roles_name_key" {
		return ErrRoleExists.Wrap(err)
	}
	if name, ok := db.ForeignKeyViolation(err); ok {
		switch name {
		case "user_roles_user_id_fkey":
			return ErrUserNotFound.Wrap(err)
		case "user_roles_role_id_fkey":
			return ErrRoleNotFound.Wrap(err)
		}
	}
	return fmt.Errorf("roles: %w", err)
}

var _ TxRepository = (*txRepo)(nil)
