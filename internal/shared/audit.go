package shared

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Audit actions.
const (
	AuditAuthLogin  = "AUTH_LOGIN"
	AuditUserCreate = "USER_CREATE"
	AuditUserUpdate = "USER_UPDATE"
	AuditUserDelete = "USER_DELETE"
	AuditRoleCreate = "ROLE_CREATE"
	AuditRoleUpdate = "ROLE_UPDATE"
	AuditRoleAssign = "ROLE_ASSIGN"
	AuditSystemSeed = "SYSTEM_SEED"
)

// Audit target types.
const (
	TargetUser   = "User"
	TargetRole   = "Role"
	TargetSystem = "SYSTEM"
)

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	ActorID    *int64
	Action     string
	TargetType string
	TargetID   string
	Details    map[string]any
	At         time.Time
}

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AuditLogger appends records into audit_logs. The table has no update or
// delete path; a trigger rejects both.
type AuditLogger struct {
	db DBTX
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(db DBTX) *AuditLogger {
	return &AuditLogger{db: db}
}

// WithTx returns a logger whose writes join tx.
func (l *AuditLogger) WithTx(tx pgx.Tx) *AuditLogger {
	return &AuditLogger{db: tx}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit logger not initialised")
	}
	if err := log.Validate(); err != nil {
		return err
	}
	details := log.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		t := log.At.UTC()
		at = &t
	}
	_, err = l.db.Exec(ctx, `INSERT INTO audit_logs (actor_user_id, action, target_type, target_id, details, "timestamp") VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`,
		log.ActorID, log.Action, log.TargetType, log.TargetID, detailsJSON, at)
	return err
}

// Validate checks the required fields of an entry.
func (log AuditLog) Validate() error {
	if strings.TrimSpace(log.Action) == "" || strings.TrimSpace(log.TargetType) == "" || strings.TrimSpace(log.TargetID) == "" {
		return errors.New("audit log requires action/target_type/target_id")
	}
	return nil
}
