package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backoffice/superadmin/internal/platform/db"
)

const countsQuery = `SELECT
	(SELECT COUNT(*) FROM users),
	(SELECT COUNT(*) FROM users WHERE last_login >= $1),
	(SELECT COUNT(*) FROM roles),
	(SELECT COUNT(*) FROM users WHERE created_at >= $1),
	(SELECT COUNT(*) FROM audit_logs)`

const roleCountsQuery = `SELECT r.name, COUNT(ur.user_id)
	FROM roles r
	LEFT JOIN user_roles ur ON ur.role_id = r.id
	GROUP BY r.name
	ORDER BY r.name`

// Repository aggregates counts from the primary store.
type Repository interface {
	Counts(ctx context.Context, since time.Time) (Counts, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Counts runs every aggregate inside one read-only snapshot.
func (r *PGRepository) Counts(ctx context.Context, since time.Time) (Counts, error) {
	var c Counts
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := db.WithTxOptions(ctx, r.pool, opts, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, countsQuery, since).Scan(
			&c.TotalUsers, &c.ActiveUsers, &c.TotalRoles, &c.NewUsers, &c.TotalAuditLogs,
		); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, roleCountsQuery)
		if err != nil {
			return err
		}
		c.UsersByRole, err = pgx.CollectRows(rows, pgx.RowToStructByPos[RoleCount])
		return err
	})
	if err != nil {
		return Counts{}, err
	}
	return c, nil
}
