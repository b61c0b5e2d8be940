package roles_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backoffice/superadmin/internal/roles"
	"github.com/backoffice/superadmin/internal/shared"
	_ "github.com/backoffice/superadmin/testing"
)

type bumpCounter struct{ n int }

func (b *bumpCounter) Bump(context.Context) error {
	b.n++
	return nil
}

func actorCtx() context.Context {
	return shared.ContextWithPrincipal(context.Background(), shared.Principal{UserID: 1, Roles: []string{"superadmin"}})
}

func TestAssignRoleIsIdempotent(t *testing.T) {
	repo := newMemRepo()
	svc := roles.NewService(repo, nil, nil)

	first, err := svc.AssignRole(actorCtx(), roles.AssignRoleRequest{UserID: 2, RoleID: 1})
	require.NoError(t, err)
	second, err := svc.AssignRole(actorCtx(), roles.AssignRoleRequest{UserID: 2, RoleID: 1})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.linkCount(2, 1))

	audits := repo.audits()
	require.Len(t, audits, 2)
	for _, a := range audits {
		assert.Equal(t, shared.AuditRoleAssign, a.Action)
		assert.Equal(t, "2", a.TargetID)
		assert.Equal(t, int64(1), *a.ActorID)
	}
	assert.Equal(t, true, audits[0].Details["created"])
	assert.Equal(t, false, audits[1].Details["created"])
}

func TestAssignRoleMissingTargets(t *testing.T) {
	repo := newMemRepo()
	svc := roles.NewService(repo, nil, nil)

	_, err := svc.AssignRole(actorCtx(), roles.AssignRoleRequest{UserID: 9, RoleID: 1})
	assert.ErrorIs(t, err, roles.ErrUserNotFound)
	_, err = svc.AssignRole(actorCtx(), roles.AssignRoleRequest{UserID: 2, RoleID: 9})
	assert.ErrorIs(t, err, roles.ErrRoleNotFound)
	_, err = svc.AssignRole(actorCtx(), roles.AssignRoleRequest{UserID: 0, RoleID: 1})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, repo.audits())
}

func TestAssignRoleAuditFailureRollsBack(t *testing.T) {
	repo := newMemRepo()
	repo.auditErr = errors.New("boom")
	svc := roles.NewService(repo, nil, nil)

	_, err := svc.AssignRole(actorCtx(), roles.AssignRoleRequest{UserID: 2, RoleID: 1})
	require.Error(t, err)
	assert.Zero(t, repo.linkCount(2, 1))
}

func TestCreateAndUpdateRole(t *testing.T) {
	repo := newMemRepo()
	bumps := &bumpCounter{}
	svc := roles.NewService(repo, bumps, nil)

	role, err := svc.CreateRole(actorCtx(), roles.CreateRoleRequest{Name: " staff ", Permissions: []string{"users:read"}})
	require.NoError(t, err)
	assert.Equal(t, "staff", role.Name)

	_, err = svc.CreateRole(actorCtx(), roles.CreateRoleRequest{Name: "staff"})
	assert.ErrorIs(t, err, roles.ErrRoleExists)
	_, err = svc.CreateRole(actorCtx(), roles.CreateRoleRequest{Name: "x"})
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.CreateRole(actorCtx(), roles.CreateRoleRequest{Name: "dup", Permissions: []string{"a", "a"}})
	assert.ErrorIs(t, err, shared.ErrValidation)

	perms := []string{"users:read", "audit:read"}
	updated, err := svc.UpdateRole(actorCtx(), role.ID, roles.UpdateRoleRequest{Permissions: &perms})
	require.NoError(t, err)
	assert.Equal(t, "staff", updated.Name)
	assert.Equal(t, perms, updated.Permissions)

	name := "superadmin"
	_, err = svc.UpdateRole(actorCtx(), role.ID, roles.UpdateRoleRequest{Name: &name})
	assert.ErrorIs(t, err, roles.ErrRoleExists)
	_, err = svc.UpdateRole(actorCtx(), 99, roles.UpdateRoleRequest{Permissions: &perms})
	assert.ErrorIs(t, err, roles.ErrRoleNotFound)

	audits := repo.audits()
	require.Len(t, audits, 2)
	assert.Equal(t, shared.AuditRoleCreate, audits[0].Action)
	assert.Equal(t, shared.AuditRoleUpdate, audits[1].Action)
	assert.Equal(t, 2, bumps.n)
}

func TestRolesHandler(t *testing.T) {
	repo := newMemRepo()
	r := chi.NewRouter()
	r.Route("/roles", roles.NewHandler(nil, roles.NewService(repo, nil, nil)).MountRoutes)

	call := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(actorCtx())
		res := httptest.NewRecorder()
		r.ServeHTTP(res, req)
		return res
	}

	res := call(http.MethodGet, "/roles", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"name":"superadmin"`)

	res = call(http.MethodPost, "/roles", `{"name":"staff","permissions":["users:read"]}`)
	require.Equal(t, http.StatusCreated, res.Code)

	res = call(http.MethodPost, "/roles/assign-role", `{"userId":2,"roleId":1}`)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Role assigned successfully")
	assert.Contains(t, res.Body.String(), `"userId":2`)

	assert.Equal(t, http.StatusNotFound, call(http.MethodPost, "/roles/assign-role", `{"userId":77,"roleId":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, call(http.MethodPut, "/roles/abc", `{}`).Code)
	assert.Equal(t, http.StatusConflict, call(http.MethodPut, "/roles/2", `{"name":"superadmin"}`).Code)
}
