package audit

import (
	"encoding/json"
	"time"

	"github.com/backoffice/superadmin/internal/shared"
)

// Actor is the user behind an entry, when that user still exists.
type Actor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Entry is one row of the audit trail.
type Entry struct {
	ID          int64           `json:"id"`
	ActorUserID *int64          `json:"actorUserId"`
	Action      string          `json:"action"`
	TargetType  string          `json:"targetType"`
	TargetID    string          `json:"targetId"`
	Details     json.RawMessage `json:"details"`
	Timestamp   time.Time       `json:"timestamp"`
	Actor       *Actor          `json:"actor"`
}

// Filters narrows the listing. Search matches target type, target id, actor
// name and actor email case-insensitively.
type Filters struct {
	Search string
	Action string
	Page   shared.Window
}

// Page is one listing window plus the total number of matching rows.
type Page struct {
	Logs       []Entry `json:"logs"`
	TotalCount int     `json:"totalCount"`
}
