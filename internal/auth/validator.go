package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/catalog-hub/catalog-service/internal/domain"
	apperrors "github.com/catalog-hub/catalog-service/pkg/util"
)

// CredentialStore is the read side of the users table needed by this package.
// Implementations return pgx.ErrNoRows when no row matches.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// PasswordVerifier checks a plaintext against a stored hash.
type PasswordVerifier interface {
	Verify(ctx context.Context, password []byte, hashed string) (bool, error)
}

// CredentialValidator accepts or rejects login attempts.
type CredentialValidator struct {
	store  CredentialStore
	hasher PasswordVerifier
}

// NewCredentialValidator constructs a validator.
func NewCredentialValidator(store CredentialStore, hasher PasswordVerifier) *CredentialValidator {
	return &CredentialValidator{store: store, hasher: hasher}
}

// Validate returns the user id and role for a correct, verified login. The attempt's
// password is wiped before returning.
//
// Unknown email and wrong password both fail with ErrWrongCredentials. The verified flag
// is only consulted after the password matched.
func (v *CredentialValidator) Validate(ctx context.Context, attempt *domain.LoginAttempt) (string, domain.Role, error) {
	defer attempt.Wipe()

	if attempt == nil || attempt.Email == "" || len(attempt.Password) == 0 {
		return "", "", ErrMissingCredentials
	}

	user, err := v.store.GetByEmail(ctx, attempt.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrWrongCredentials
		}
		return "", "", apperrors.Wrap(ErrStore, err)
	}

	role := domain.RoleFor(user.IsSuperuser)

	password := attempt.Password
	attempt.Password = nil
	ok, err := v.hasher.Verify(ctx, password, user.HashedPassword)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", ErrWrongCredentials
	}

	if !user.IsVerified {
		return "", "", ErrUnverifiedUser
	}

	return user.ID, role, nil
}
