package users_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/backoffice/superadmin/internal/shared"
	"github.com/backoffice/superadmin/internal/users"
)

type userRow struct {
	user users.User
	hash string
}

type state struct {
	users  map[int64]userRow
	links  map[int64][]int64
	audits []shared.AuditLog
	nextID int64
}

func (s state) clone() state {
	out := state{
		users:  make(map[int64]userRow, len(s.users)),
		links:  make(map[int64][]int64, len(s.links)),
		audits: append([]shared.AuditLog(nil), s.audits...),
		nextID: s.nextID,
	}
	for id, row := range s.users {
		out.users[id] = row
	}
	for id, roles := range s.links {
		out.links[id] = append([]int64(nil), roles...)
	}
	return out
}

// memRepo keeps committed state and hands each transaction a private copy,
// so a failed transaction leaves nothing behind.
type memRepo struct {
	mu        sync.Mutex
	roles     map[int64]users.Role
	committed state
	auditErr  error
	now       time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		roles: map[int64]users.Role{
			1: {ID: 1, Name: "superadmin", Permissions: []string{"users:write"}},
			2: {ID: 2, Name: "staff", Permissions: []string{"users:read"}},
		},
		committed: state{users: map[int64]userRow{}, links: map[int64][]int64{}, nextID: 1},
		now:       time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memRepo) resolve(st state, id int64) users.User {
	u := st.users[id].user
	u.Roles = []users.Role{}
	ids := append([]int64(nil), st.links[id]...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, rid := range ids {
		u.Roles = append(u.Roles, m.roles[rid])
	}
	return u
}

func (m *memRepo) ListUsers(_ context.Context, page shared.Window) ([]users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.committed.users))
	for id := range m.committed.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	out := []users.User{}
	for i, id := range ids {
		if i < page.Skip || len(out) >= page.Take {
			continue
		}
		out = append(out, m.resolve(m.committed, id))
	}
	return out, nil
}

func (m *memRepo) GetUser(_ context.Context, id int64) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.committed.users[id]; !ok {
		return nil, users.ErrUserNotFound
	}
	u := m.resolve(m.committed, id)
	return &u, nil
}

func (m *memRepo) CountRoles(_ context.Context, ids []int64) (int, error) {
	n := 0
	for _, id := range ids {
		if _, ok := m.roles[id]; ok {
			n++
		}
	}
	return n, nil
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, users.TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{repo: m, st: m.committed.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.committed = tx.st
	return nil
}

func (m *memRepo) hash(id int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.committed.users[id].hash
}

func (m *memRepo) audits() []shared.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]shared.AuditLog(nil), m.committed.audits...)
}

func (m *memRepo) userCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed.users)
}

func (m *memRepo) linkCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.committed.links {
		n += len(l)
	}
	return n
}

type memTx struct {
	repo *memRepo
	st   state
}

func (t *memTx) emailTaken(email string, except int64) bool {
	for id, row := range t.st.users {
		if id != except && row.user.Email == email {
			return true
		}
	}
	return false
}

func (t *memTx) InsertUser(_ context.Context, u users.NewUser) (int64, error) {
	if t.emailTaken(u.Email, 0) {
		return 0, users.ErrEmailExists
	}
	id := t.st.nextID
	t.st.nextID++
	t.st.users[id] = userRow{
		user: users.User{ID: id, Name: u.Name, Email: u.Email, CreatedAt: t.repo.now, UpdatedAt: t.repo.now},
		hash: u.PasswordHash,
	}
	return id, nil
}

func (t *memTx) LockUser(_ context.Context, id int64) error {
	if _, ok := t.st.users[id]; !ok {
		return users.ErrUserNotFound
	}
	return nil
}

func (t *memTx) UpdateUser(_ context.Context, id int64, patch users.Patch) error {
	row, ok := t.st.users[id]
	if !ok {
		return users.ErrUserNotFound
	}
	if patch.Email != nil && t.emailTaken(*patch.Email, id) {
		return users.ErrEmailExists
	}
	if patch.Name != nil {
		row.user.Name = *patch.Name
	}
	if patch.Email != nil {
		row.user.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		row.hash = *patch.PasswordHash
	}
	t.st.users[id] = row
	return nil
}

func (t *memTx) DeleteUser(_ context.Context, id int64) (*users.User, error) {
	row, ok := t.st.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	delete(t.st.users, id)
	delete(t.st.links, id)
	u := row.user
	u.Roles = []users.Role{}
	return &u, nil
}

func (t *memTx) AddRoles(_ context.Context, userID int64, roleIDs []int64) error {
	for _, rid := range roleIDs {
		if _, ok := t.repo.roles[rid]; !ok {
			return users.ErrRolesMissing
		}
		for _, held := range t.st.links[userID] {
			if held == rid {
				return errDuplicateLink
			}
		}
		t.st.links[userID] = append(t.st.links[userID], rid)
	}
	return nil
}

func (t *memTx) ClearRoles(_ context.Context, userID int64) error {
	delete(t.st.links, userID)
	return nil
}

func (t *memTx) RecordAudit(_ context.Context, log shared.AuditLog) error {
	if t.repo.auditErr != nil {
		return t.repo.auditErr
	}
	if err := log.Validate(); err != nil {
		return err
	}
	t.st.audits = append(t.st.audits, log)
	return nil
}

type countingNotifier struct {
	mu    sync.Mutex
	bumps int
	err   error
}

func (n *countingNotifier) Bump(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bumps++
	return n.err
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.bumps
}
