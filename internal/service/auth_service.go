package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/catalog-hub/catalog-service/internal/auth"
	"github.com/catalog-hub/catalog-service/internal/config"
	"github.com/catalog-hub/catalog-service/internal/domain"
	"github.com/catalog-hub/catalog-service/internal/events"
	"github.com/catalog-hub/catalog-service/internal/repository"
	apperrors "github.com/catalog-hub/catalog-service/pkg/util"
)

// LoginResult is what a successful login hands to the transport layer.
type LoginResult struct {
	UserID    string
	Role      domain.Role
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration, login and logout flows.
type AuthService struct {
	users      repository.UserRepository
	hasher     *auth.Hasher
	validator  *auth.CredentialValidator
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hasher := auth.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.HashWorkers)
	return &AuthService{
		users:      deps.UserRepo,
		hasher:     hasher,
		validator:  auth.NewCredentialValidator(deps.UserRepo, hasher),
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Login validates the attempt and issues a session token. The attempt is wiped.
func (s *AuthService) Login(ctx context.Context, attempt *domain.LoginAttempt) (*LoginResult, error) {
	email := ""
	if attempt != nil {
		email = attempt.Email
	}

	userID, role, err := s.validator.Validate(ctx, attempt)
	if err != nil {
		s.publish(ctx, events.Event{
			Type:    events.EventLoginFailed,
			Payload: events.LoginFailedPayload{Email: email, Code: apperrors.ToDomainError(err).Code},
		})
		return nil, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(userID, role)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventLoginSucceeded,
		UserID:  userID,
		Payload: events.LoginSucceededPayload{Role: role, ExpiresAt: exp},
	})
	return &LoginResult{UserID: userID, Role: role, Token: token, ExpiresAt: exp}, nil
}

// RegisterUser creates a new unverified, non-superuser account.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.createUser(ctx, name, email, []byte(password), false)
}

// CreateSuperuser creates a verified admin account. The password buffer is zeroed.
func (s *AuthService) CreateSuperuser(ctx context.Context, name, email string, password []byte) (*domain.User, error) {
	return s.createUser(ctx, name, email, password, true)
}

func (s *AuthService) createUser(ctx context.Context, name, email string, password []byte, superuser bool) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || len(password) == 0 {
		clear(password)
		return nil, apperrors.NewValidationError("name, email, password required", nil)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:           name,
		Email:          email,
		HashedPassword: hash,
		IsActive:       true,
		IsVerified:     superuser,
		IsSuperuser:    superuser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, auth.ErrEmailExists
		}
		return nil, apperrors.Wrap(auth.ErrStore, err)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventUserRegistered,
		UserID:  user.ID,
		Payload: events.UserRegisteredPayload{Email: user.Email},
	})
	return user, nil
}

// Logout records the logout. Tokens are stateless, so nothing is invalidated server-side.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	s.publish(ctx, events.Event{Type: events.EventLoggedOut, UserID: userID})
}

// ListUsers returns every stored user.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(auth.ErrStore, err)
	}
	return users, nil
}

// GetUser loads one user. Unknown or malformed ids are NOT_FOUND.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.Wrap(auth.ErrStore, err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish auth event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
