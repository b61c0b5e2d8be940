package audit

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backoffice/superadmin/internal/platform/db"
)

const filterClause = `FROM audit_logs a
	LEFT JOIN users u ON u.id = a.actor_user_id
	WHERE ($1::text = '' OR a.target_type ILIKE $2 OR a.target_id ILIKE $2 OR u.name ILIKE $2 OR u.email ILIKE $2)
	AND ($3::text = '' OR a.action = $3)`

const selectEntries = `SELECT a.id, a.actor_user_id, a.action, a.target_type, a.target_id, a.details, a."timestamp", u.name, u.email ` +
	filterClause + ` ORDER BY a."timestamp" DESC, a.id DESC`

// Repository reads the audit trail.
type Repository interface {
	List(ctx context.Context, f Filters) (Page, error)
	Export(ctx context.Context, f Filters, limit int) ([]Entry, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List counts and fetches one window inside a single read-only snapshot so
// totalCount agrees with the rows returned.
func (r *PGRepository) List(ctx context.Context, f Filters) (Page, error) {
	var page Page
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := db.WithTxOptions(ctx, r.pool, opts, func(tx pgx.Tx) error {
		args := filterArgs(f)
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) `+filterClause, args...).Scan(&page.TotalCount); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, selectEntries+` OFFSET $4 LIMIT $5`, append(args, f.Page.Skip, f.Page.Take)...)
		if err != nil {
			return err
		}
		page.Logs, err = pgx.CollectRows(rows, scanEntry)
		return err
	})
	if err != nil {
		return Page{}, err
	}
	return page, nil
}

// Export returns up to limit matching rows, newest first.
func (r *PGRepository) Export(ctx context.Context, f Filters, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, selectEntries+` LIMIT $4`, append(filterArgs(f), limit)...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanEntry)
}

func filterArgs(f Filters) []any {
	return []any{f.Search, "%" + escapeLike(f.Search) + "%", f.Action}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanEntry(row pgx.CollectableRow) (Entry, error) {
	var (
		e          Entry
		actorID    pgtype.Int8
		actorName  pgtype.Text
		actorEmail pgtype.Text
		details    []byte
	)
	if err := row.Scan(&e.ID, &actorID, &e.Action, &e.TargetType, &e.TargetID, &details, &e.Timestamp, &actorName, &actorEmail); err != nil {
		return Entry{}, err
	}
	if actorID.Valid {
		id := actorID.Int64
		e.ActorUserID = &id
	}
	if actorName.Valid {
		e.Actor = &Actor{Name: actorName.String, Email: actorEmail.String}
	}
	e.Details = details
	return e, nil
}

var _ Repository = (*PGRepository)(nil)
