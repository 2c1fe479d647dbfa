package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/catalog-hub/catalog-service/internal/domain"
	apperrors "github.com/catalog-hub/catalog-service/pkg/util"
)

// RequestView is the read-only slice of an inbound request the extractor needs.
type RequestView interface {
	Header(name string) string
	Cookie(name string) string
}

// IdentityExtractor resolves a request to an authenticated identity.
type IdentityExtractor struct {
	tokens     *TokenManager
	store      CredentialStore
	cookieName string
}

// NewIdentityExtractor constructs an extractor reading the named session cookie.
func NewIdentityExtractor(tokens *TokenManager, store CredentialStore, cookieName string) *IdentityExtractor {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	return &IdentityExtractor{tokens: tokens, store: store, cookieName: cookieName}
}

// LocateToken picks the candidate token. A well-formed bearer header wins and the cookie
// is never consulted in that case, even if the bearer token later fails verification.
func (e *IdentityExtractor) LocateToken(req RequestView) (string, error) {
	if token, ok := bearerToken(req.Header("Authorization")); ok {
		return token, nil
	}
	if token := req.Cookie(e.cookieName); token != "" {
		return token, nil
	}
	return "", ErrMissingCredentials
}

// Claims locates and verifies the token without touching the store.
func (e *IdentityExtractor) Claims(req RequestView) (*Claims, error) {
	token, err := e.LocateToken(req)
	if err != nil {
		return nil, err
	}
	return e.tokens.ParseToken(token)
}

// Identity verifies the token and loads the user named by its subject. The role comes
// from the token, not from the stored record.
func (e *IdentityExtractor) Identity(ctx context.Context, req RequestView) (*domain.AuthenticatedIdentity, error) {
	claims, err := e.Claims(req)
	if err != nil {
		return nil, err
	}

	user, err := e.store.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownSubject
		}
		return nil, apperrors.Wrap(ErrStore, err)
	}

	return &domain.AuthenticatedIdentity{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  claims.Role,
	}, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
