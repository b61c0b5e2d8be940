package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/backoffice/superadmin/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, page shared.Window) ([]User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	CountRoles(ctx context.Context, ids []int64) (int, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// ChangeNotifier is told after a committed change to users or their roles.
type ChangeNotifier interface {
	Bump(ctx context.Context) error
}

// Options tunes the Service.
type Options struct {
	Logger     *slog.Logger
	BcryptCost int
	Notifier   ChangeNotifier
}

// Service handles user business logic.
type Service struct {
	repo     RepositoryPort
	logger   *slog.Logger
	cost     int
	notifier ChangeNotifier
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, opts Options) *Service {
	s := &Service{
		repo:     repo,
		logger:   opts.Logger,
		cost:     opts.BcryptCost,
		notifier: opts.Notifier,
		validate: shared.NewValidator(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	return s
}

// ListUsers returns a page of users with their roles.
func (s *Service) ListUsers(ctx context.Context, page shared.Window) ([]User, error) {
	return s.repo.ListUsers(ctx, page)
}

// GetUser returns a user with its current roles.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser inserts the user, its role links and a USER_CREATE audit entry
// in one transaction.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	req.normalize()
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.ValidationError(err)
	}
	roleIDs := dedupeIDs(req.RoleIDs)
	if err := s.ensureRoles(ctx, roleIDs); err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	if roleIDs == nil {
		roleIDs = []int64{}
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		id, err = tx.InsertUser(ctx, NewUser{Name: req.Name, Email: req.Email, PasswordHash: string(hash)})
		if err != nil {
			return err
		}
		if err := tx.AddRoles(ctx, id, roleIDs); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, shared.AuditLog{
			ActorID:    shared.ActorID(ctx),
			Action:     shared.AuditUserCreate,
			TargetType: shared.TargetUser,
			TargetID:   strconv.FormatInt(id, 10),
			Details:    map[string]any{"name": req.Name, "email": req.Email, "roles": roleIDs},
		})
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return s.repo.GetUser(ctx, id)
}

// UpdateUser applies the supplied fields, replaces the role set when roleIds
// is present and records a USER_UPDATE audit entry, all in one transaction.
func (s *Service) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*User, error) {
	req.normalize()
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.ValidationError(err)
	}
	var roleIDs []int64
	if req.RoleIDs != nil {
		if err := checkRoleIDs(*req.RoleIDs); err != nil {
			return nil, err
		}
		roleIDs = dedupeIDs(*req.RoleIDs)
		if err := s.ensureRoles(ctx, roleIDs); err != nil {
			return nil, err
		}
	}

	patch := Patch{Name: req.Name, Email: req.Email}
	if req.Password != nil {
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		encoded := string(hash)
		patch.PasswordHash = &encoded
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockUser(ctx, id); err != nil {
			return err
		}
		if !patch.Empty() {
			if err := tx.UpdateUser(ctx, id, patch); err != nil {
				return err
			}
		}
		if req.RoleIDs != nil {
			if err := tx.ClearRoles(ctx, id); err != nil {
				return err
			}
			if err := tx.AddRoles(ctx, id, roleIDs); err != nil {
				return err
			}
		}
		return tx.RecordAudit(ctx, shared.AuditLog{
			ActorID:    shared.ActorID(ctx),
			Action:     shared.AuditUserUpdate,
			TargetType: shared.TargetUser,
			TargetID:   strconv.FormatInt(id, 10),
			Details:    req.auditDetails(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return s.repo.GetUser(ctx, id)
}

// DeleteUser removes the user, cascading its role links, and records a
// USER_DELETE entry carrying the removed name and email.
func (s *Service) DeleteUser(ctx context.Context, id int64) (*User, error) {
	var deleted *User
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		deleted, err = tx.DeleteUser(ctx, id)
		if err != nil {
			return err
		}
		return tx.RecordAudit(ctx, shared.AuditLog{
			ActorID:    shared.ActorID(ctx),
			Action:     shared.AuditUserDelete,
			TargetType: shared.TargetUser,
			TargetID:   strconv.FormatInt(id, 10),
			Details:    map[string]any{"name": deleted.Name, "email": deleted.Email},
		})
	})
	if err != nil {
		return nil, err
	}
	s.changed(ctx)
	return deleted, nil
}

func (s *Service) ensureRoles(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := s.repo.CountRoles(ctx, ids)
	if err != nil {
		return err
	}
	if n != len(ids) {
		return ErrRolesMissing
	}
	return nil
}

func checkRoleIDs(ids []int64) error {
	for i, id := range ids {
		if id <= 0 {
			return shared.Validation(fmt.Sprintf("roleIds[%d] must be greater than 0", i))
		}
	}
	return nil
}

func (s *Service) changed(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Bump(ctx); err != nil {
		s.logger.Warn("invalidate analytics cache", slog.Any("error", err))
	}
}

// hashPassword bcrypts a password. The validator counts characters, so a
// multi-byte password can still exceed bcrypt's 72-byte input limit.
func (s *Service) hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong.Wrap(err)
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}
