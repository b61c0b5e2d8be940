package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backoffice/superadmin/internal/platform/db"
	"github.com/backoffice/superadmin/internal/shared"
)

const (
	constraintEmail     = "users_email_key"
	constraintRoleFK    = "user_roles_role_id_fkey"
	userColumns         = `id, name, email, last_login, created_at, updated_at`
	selectRolesForUsers = `SELECT ur.user_id, r.id, r.name, r.permissions FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = ANY($1) ORDER BY ur.user_id, r.id`
)

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
	InsertUser(ctx context.Context, u NewUser) (int64, error)
	LockUser(ctx context.Context, id int64) error
	UpdateUser(ctx context.Context, id int64, patch Patch) error
	DeleteUser(ctx context.Context, id int64) (*User, error)
	AddRoles(ctx context.Context, userID int64, roleIDs []int64) error
	ClearRoles(ctx context.Context, userID int64) error
	RecordAudit(ctx context.Context, log shared.AuditLog) error
}

type txRepo struct {
	tx    pgx.Tx
	audit *shared.AuditLogger
}

// WithTx runs fn in a read-committed transaction. Returning an error rolls
// back every write, the audit entry included.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, audit: shared.NewAuditLogger(tx)})
	})
}

// ListUsers returns a page of users, newest first, with their roles.
func (r *Repository) ListUsers(ctx context.Context, page shared.Window) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2`, page.Skip, page.Take)
	if err != nil {
		return nil, err
	}
	list, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, err
	}
	if err := r.attachRoles(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetUser returns one user with its roles.
func (r *Repository) GetUser(ctx context.Context, id int64) (*User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	user, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	list := []User{user}
	if err := r.attachRoles(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// CountRoles returns how many of ids exist in roles.
func (r *Repository) CountRoles(ctx context.Context, ids []int64) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles WHERE id = ANY($1)`, ids).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Repository) attachRoles(ctx context.Context, list []User) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, len(list))
	index := make(map[int64]int, len(list))
	for i := range list {
		ids[i] = list[i].ID
		index[list[i].ID] = i
		list[i].Roles = []Role{}
	}
	rows, err := r.pool.Query(ctx, selectRolesForUsers, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			userID int64
			role   Role
		)
		if err := rows.Scan(&userID, &role.ID, &role.Name, &role.Permissions); err != nil {
			return err
		}
		if role.Permissions == nil {
			role.Permissions = []string{}
		}
		if i, ok := index[userID]; ok {
			list[i].Roles = append(list[i].Roles, role)
		}
	}
	return rows.Err()
}

func (t *txRepo) InsertUser(ctx context.Context, u NewUser) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO users (name, email, hashed_password) VALUES ($1, $2, $3) RETURNING id`,
		u.Name, u.Email, u.PasswordHash).Scan(&id)
	if err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (t *txRepo) LockUser(ctx context.Context, id int64) error {
	var locked int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}

func (t *txRepo) UpdateUser(ctx context.Context, id int64, patch Patch) error {
	tag, err := t.tx.Exec(ctx, `UPDATE users SET
		name = COALESCE($2, name),
		email = COALESCE($3, email),
		hashed_password = COALESCE($4, hashed_password),
		updated_at = NOW()
	WHERE id = $1`, id, patch.Name, patch.Email, patch.PasswordHash)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (t *txRepo) DeleteUser(ctx context.Context, id int64) (*User, error) {
	rows, err := t.tx.Query(ctx, `DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id)
	if err != nil {
		return nil, err
	}
	user, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.Roles = []Role{}
	return &user, nil
}

func (t *txRepo) AddRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	if len(roleIDs) == 0 {
		return nil
	}
	rows := make([][]any, len(roleIDs))
	for i, roleID := range roleIDs {
		rows[i] = []any{userID, roleID}
	}
	_, err := t.tx.CopyFrom(ctx, pgx.Identifier{"user_roles"}, []string{"user_id", "role_id"}, pgx.CopyFromRows(rows))
	if err != nil {
		return translate(err)
	}
	return nil
}

func (t *txRepo) ClearRoles(ctx context.Context, userID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID)
	return err
}

func (t *txRepo) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	return t.audit.Record(ctx, log)
}

func scanUser(row pgx.CollectableRow) (User, error) {
	var (
		u         User
		lastLogin pgtype.Timestamptz
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

// translate maps constraint violations onto the user error kinds.
func translate(err error) error {
	if name, ok := db.UniqueViolation(err); ok && name == constraintEmail {
		return ErrEmailExists.Wrap(err)
	}
	if name, ok := db.ForeignKeyViolation(err); ok && name == constraintRoleFK {
		return ErrRolesMissing.Wrap(err)
	}
	return fmt.Errorf("users: %w", err)
}

var _ TxRepository = (*txRepo)(nil)
