package roles

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/backoffice/superadmin/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// ChangeNotifier is told after a committed change to roles or links.
type ChangeNotifier interface {
	Bump(ctx context.Context) error
}

// Service handles role business logic.
type Service struct {
	repo     RepositoryPort
	logger   *slog.Logger
	notifier ChangeNotifier
	validate *validator.Validate
}

// NewService builds Service instance. notifier may be nil.
func NewService(repo RepositoryPort, notifier ChangeNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, notifier: notifier, validate: shared.NewValidator()}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// CreateRole inserts a role and its ROLE_CREATE audit entry.
func (s *Service) CreateRole(ctx context.Context, req CreateRoleRequest) (Role, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Permissions = trimPermissions(req.Permissions)
	if err := s.validate.Struct(req); err != nil {
		return Role{}, shared.ValidationError(err)
	}
	var role Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		role, err = tx.InsertRole(ctx, req.Name, req.Permissions)
		if err != nil {
			return err
		}
		return tx.RecordAudit(ctx, shared.AuditLog{
			ActorID:    shared.ActorID(ctx),
			Action:     shared.AuditRoleCreate,
			TargetType: shared.TargetRole,
			TargetID:   strconv.FormatInt(role.ID, 10),
			Details:    map[string]any{"name": role.Name, "permissions": role.Permissions},
		})
	})
	if err != nil {
		return Role{}, err
	}
	s.changed(ctx)
	return role, nil
}

// UpdateRole applies the supplied fields and records ROLE_UPDATE.
func (s *Service) UpdateRole(ctx context.Context, id int64, req UpdateRoleRequest) (Role, error) {
	var patch Patch
	details := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
		patch.Name = &name
		details["name"] = name
	}
	if err := s.validate.Struct(req); err != nil {
		return Role{}, shared.ValidationError(err)
	}
	if req.Permissions != nil {
		perms := trimPermissions(*req.Permissions)
		if err := s.validate.Var(perms, "unique,dive,required"); err != nil {
			return Role{}, shared.Validation("permissions must be unique non-empty strings").Wrap(err)
		}
		patch.Permissions = perms
		details["permissions"] = perms
	}
	if patch.Name == nil && patch.Permissions == nil {
		return s.repo.GetRole(ctx, id)
	}

	var role Role
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		role, err = tx.UpdateRole(ctx, id, patch)
		if err != nil {
			return err
		}
		return tx.RecordAudit(ctx, shared.AuditLog{
			ActorID:    shared.ActorID(ctx),
			Action:     shared.AuditRoleUpdate,
			TargetType: shared.TargetRole,
			TargetID:   strconv.FormatInt(id, 10),
			Details:    details,
		})
	})
	if err != nil {
		return Role{}, err
	}
	s.changed(ctx)
	return role, nil
}

// AssignRole links a user to a role. Re-assigning a held role matches the
// existing link instead of failing. Either way a ROLE_ASSIGN entry is
// written in the same transaction.
func (s *Service) AssignRole(ctx context.Context, req AssignRoleRequest) (UserRole, error) {
	if err := s.validate.Struct(req); err != nil {
		return UserRole{}, shared.ValidationError(err)
	}
	var link UserRole
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var (
			inserted bool
			err      error
		)
		link, inserted, err = tx.AssignRole(ctx, req.UserID, req.RoleID)
		if err != nil {
			return err
		}
		return tx.RecordAudit(ctx, shared.AuditLog{
			ActorID:    shared.ActorID(ctx),
			Action:     shared.AuditRoleAssign,
			TargetType: shared.TargetUser,
			TargetID:   strconv.FormatInt(req.UserID, 10),
			Details:    map[string]any{"roleId": req.RoleID, "created": inserted},
		})
	})
	if err != nil {
		return UserRole{}, err
	}
	s.changed(ctx)
	return link, nil
}

func (s *Service) changed(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Bump(ctx); err != nil {
		s.logger.Warn("invalidate analytics cache", slog.Any("error", err))
	}
}
