package analytics

import "time"

// ActivityWindow bounds both "active" (recent login) and "new" (recent
// signup) users.
const ActivityWindow = 7 * 24 * time.Hour

// Summary is the dashboard's aggregate view.
type Summary struct {
	TotalUsers     int64            `json:"totalUsers"`
	ActiveUsers    int64            `json:"activeUsers"`
	InactiveUsers  int64            `json:"inactiveUsers"`
	TotalRoles     int64            `json:"totalRoles"`
	NewUsers       int64            `json:"newUsers"`
	UsersByRole    map[string]int64 `json:"usersByRole"`
	TotalAuditLogs int64            `json:"totalAuditLogs"`
	GeneratedAt    time.Time        `json:"generatedAt"`
}

// Counts is the raw aggregation returned by the repository.
type Counts struct {
	TotalUsers     int64
	ActiveUsers    int64
	TotalRoles     int64
	NewUsers       int64
	TotalAuditLogs int64
	UsersByRole    []RoleCount
}

// RoleCount is the number of users holding one role.
type RoleCount struct {
	Name  string
	Users int64
}

func (c Counts) summary(at time.Time) Summary {
	byRole := make(map[string]int64, len(c.UsersByRole))
	for _, rc := range c.UsersByRole {
		byRole[rc.Name] = rc.Users
	}
	inactive := c.TotalUsers - c.ActiveUsers
	if inactive < 0 {
		inactive = 0
	}
	return Summary{
		TotalUsers:     c.TotalUsers,
		ActiveUsers:    c.ActiveUsers,
		InactiveUsers:  inactive,
		TotalRoles:     c.TotalRoles,
		NewUsers:       c.NewUsers,
		UsersByRole:    byRole,
		TotalAuditLogs: c.TotalAuditLogs,
		GeneratedAt:    at.UTC(),
	}
}
