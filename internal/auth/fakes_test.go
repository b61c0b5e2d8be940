package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/backoffice/superadmin/internal/auth"
	"github.com/backoffice/superadmin/internal/ratelimit"
	"github.com/backoffice/superadmin/internal/shared"
	_ "github.com/backoffice/superadmin/testing"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeRepo struct {
	mu       sync.Mutex
	users    map[string]*auth.User
	roles    map[int64][]string
	touched  map[int64]time.Time
	lookups  int
	touchErr error
	rolesErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:   map[string]*auth.User{},
		roles:   map[int64][]string{},
		touched: map[int64]time.Time{},
	}
}

func (f *fakeRepo) addUser(t *testing.T, id int64, email, password string, roles ...string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	f.users[email] = &auth.User{ID: id, Email: email, PasswordHash: string(hash)}
	f.roles[id] = roles
}

func (f *fakeRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	u, ok := f.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeRepo) RoleNames(_ context.Context, userID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	return append([]string(nil), f.roles[userID]...), nil
}

func (f *fakeRepo) TouchLastLogin(_ context.Context, userID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touched[userID] = at
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []shared.AuditLog
	err     error
}

func (f *fakeAudit) Record(_ context.Context, log shared.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, log)
	return nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (o *countingObserver) ObserveLogin(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[string]int{}
	}
	o.outcomes[outcome]++
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	repo     *fakeRepo
	audit    *fakeAudit
	observer *countingObserver
	clock    *clock
	tokens   *auth.TokenIssuer
	service  *auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	tokens, err := auth.NewTokenIssuer([]byte(testSecret), "superadmin-test", time.Hour)
	require.NoError(t, err)
	tokens.WithClock(c.Now)
	repo := newFakeRepo()
	audit := &fakeAudit{}
	observer := &countingObserver{}
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore().WithClock(c.Now), 5, 15*time.Minute)
	svc := auth.NewService(repo, tokens, limiter, audit, auth.Config{Observer: observer, Now: c.Now})
	return &fixture{repo: repo, audit: audit, observer: observer, clock: c, tokens: tokens, service: svc}
}

var errBoom = errors.New("boom")
