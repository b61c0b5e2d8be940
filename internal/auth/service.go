package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/backoffice/superadmin/internal/ratelimit"
	"github.com/backoffice/superadmin/internal/shared"
)

// DefaultSuperadminRole is the role required to log in.
const DefaultSuperadminRole = "superadmin"

// Login outcomes reported to the observer.
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid_credentials"
	OutcomeForbidden   = "forbidden"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

// dummyHash is compared against when the email is unknown so both failure
// paths spend the same bcrypt work.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// AuditRecorder appends audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// LoginObserver receives login outcomes.
type LoginObserver interface {
	ObserveLogin(outcome string)
}

// Config holds optional Service settings.
type Config struct {
	SuperadminRole string
	Logger         *slog.Logger
	Observer       LoginObserver
	Now            func() time.Time
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	tokens   *TokenIssuer
	limiter  *ratelimit.Limiter
	audit    AuditRecorder
	role     string
	logger   *slog.Logger
	observer LoginObserver
	now      func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenIssuer, limiter *ratelimit.Limiter, audit AuditRecorder, cfg Config) *Service {
	svc := &Service{
		repo:     repo,
		tokens:   tokens,
		limiter:  limiter,
		audit:    audit,
		role:     strings.ToLower(strings.TrimSpace(cfg.SuperadminRole)),
		logger:   cfg.Logger,
		observer: cfg.Observer,
		now:      cfg.Now,
	}
	if svc.role == "" {
		svc.role = DefaultSuperadminRole
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// Login authenticates a superadmin and issues a session token.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	res, outcome, err := s.login(ctx, in)
	if s.observer != nil {
		s.observer.ObserveLogin(outcome)
	}
	return res, err
}

func (s *Service) login(ctx context.Context, in LoginInput) (*LoginResult, string, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, OutcomeInvalid, ErrMissingCredentials
	}
	email := shared.NormalizeEmail(in.Email)

	verdict, err := s.limiter.Allow(ctx, ratelimit.LoginKey(email, in.ClientIP))
	if err != nil {
		return nil, OutcomeError, err
	}
	if !verdict.Allowed {
		limited := ErrTooManyAttempts.Wrap(nil)
		limited.RetryAfter = verdict.RetryAfter
		return nil, OutcomeRateLimited, limited
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(in.Password))
			return nil, OutcomeInvalid, ErrInvalidCredentials
		}
		return nil, OutcomeError, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, OutcomeInvalid, ErrInvalidCredentials
	}

	roles, err := s.repo.RoleNames(ctx, user.ID)
	if err != nil {
		return nil, OutcomeError, err
	}
	principal := shared.Principal{UserID: user.ID, Email: user.Email, Roles: shared.NormalizeRoles(roles)}
	if !principal.HasRole(s.role) {
		return nil, OutcomeForbidden, ErrNotSuperadmin
	}

	now := s.now()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, OutcomeError, err
	}
	token, expiresAt, err := s.tokens.Issue(principal)
	if err != nil {
		return nil, OutcomeError, err
	}

	s.recordLogin(ctx, principal, in.ClientIP, now)

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      UserSummary{ID: principal.UserID, Email: principal.Email, Roles: principal.Roles},
	}, OutcomeSuccess, nil
}

// recordLogin appends the AUTH_LOGIN entry. The login has already succeeded,
// so failures are only logged.
func (s *Service) recordLogin(ctx context.Context, p shared.Principal, clientIP string, at time.Time) {
	if s.audit == nil {
		return
	}
	actor := p.UserID
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:    &actor,
		Action:     shared.AuditAuthLogin,
		TargetType: shared.TargetUser,
		TargetID:   strconv.FormatInt(p.UserID, 10),
		Details:    map[string]any{"email": p.Email, "ip": clientIP},
		At:         at,
	})
	if err != nil {
		s.logger.Warn("record login audit", slog.Int64("user_id", p.UserID), slog.Any("error", err))
	}
}
