package roles_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/backoffice/superadmin/internal/roles"
	"github.com/backoffice/superadmin/internal/shared"
)

type linkKey struct{ user, role int64 }

type state struct {
	roles  map[int64]roles.Role
	links  map[linkKey]roles.UserRole
	audits []shared.AuditLog
	nextID int64
}

func (s state) clone() state {
	out := state{
		roles:  make(map[int64]roles.Role, len(s.roles)),
		links:  make(map[linkKey]roles.UserRole, len(s.links)),
		audits: append([]shared.AuditLog(nil), s.audits...),
		nextID: s.nextID,
	}
	for k, v := range s.roles {
		v.Permissions = append([]string(nil), v.Permissions...)
		out.roles[k] = v
	}
	for k, v := range s.links {
		out.links[k] = v
	}
	return out
}

type memRepo struct {
	mu        sync.Mutex
	users     map[int64]bool
	committed state
	auditErr  error
	now       time.Time
}

func newMemRepo() *memRepo {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &memRepo{
		users: map[int64]bool{1: true, 2: true},
		committed: state{
			roles: map[int64]roles.Role{
				1: {ID: 1, Name: "superadmin", Permissions: []string{"users:write"}, CreatedAt: now, UpdatedAt: now},
			},
			links:  map[linkKey]roles.UserRole{},
			nextID: 2,
		},
		now: now,
	}
}

func (m *memRepo) ListRoles(context.Context) ([]roles.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]roles.Role, 0, len(m.committed.roles))
	for _, r := range m.committed.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) GetRole(_ context.Context, id int64) (roles.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.committed.roles[id]
	if !ok {
		return roles.Role{}, roles.ErrRoleNotFound
	}
	return r, nil
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, roles.TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{repo: m, st: m.committed.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.committed = tx.st
	return nil
}

func (m *memRepo) audits() []shared.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]shared.AuditLog(nil), m.committed.audits...)
}

func (m *memRepo) linkCount(user, role int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.committed.links[linkKey{user, role}]; ok {
		return 1
	}
	return 0
}

type memTx struct {
	repo *memRepo
	st   state
}

func (t *memTx) nameTaken(name string, except int64) bool {
	for id, r := range t.st.roles {
		if id != except && r.Name == name {
			return true
		}
	}
	return false
}

func (t *memTx) InsertRole(_ context.Context, name string, permissions []string) (roles.Role, error) {
	if t.nameTaken(name, 0) {
		return roles.Role{}, roles.ErrRoleExists
	}
	r := roles.Role{ID: t.st.nextID, Name: name, Permissions: permissions, CreatedAt: t.repo.now, UpdatedAt: t.repo.now}
	t.st.nextID++
	t.st.roles[r.ID] = r
	return r, nil
}

func (t *memTx) UpdateRole(_ context.Context, id int64, patch roles.Patch) (roles.Role, error) {
	r, ok := t.st.roles[id]
	if !ok {
		return roles.Role{}, roles.ErrRoleNotFound
	}
	if patch.Name != nil {
		if t.nameTaken(*patch.Name, id) {
			return roles.Role{}, roles.ErrRoleExists
		}
		r.Name = *patch.Name
	}
	if patch.Permissions != nil {
		r.Permissions = patch.Permissions
	}
	t.st.roles[id] = r
	return r, nil
}

func (t *memTx) AssignRole(_ context.Context, userID, roleID int64) (roles.UserRole, bool, error) {
	if !t.repo.users[userID] {
		return roles.UserRole{}, false, roles.ErrUserNotFound
	}
	if _, ok := t.st.roles[roleID]; !ok {
		return roles.UserRole{}, false, roles.ErrRoleNotFound
	}
	key := linkKey{userID, roleID}
	if link, ok := t.st.links[key]; ok {
		return link, false, nil
	}
	link := roles.UserRole{UserID: userID, RoleID: roleID, AssignedAt: t.repo.now}
	t.st.links[key] = link
	return link, true, nil
}

func (t *memTx) RecordAudit(_ context.Context, log shared.AuditLog) error {
	if t.repo.auditErr != nil {
		return t.repo.auditErr
	}
	t.st.audits = append(t.st.audits, log)
	return nil
}
