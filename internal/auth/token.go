package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/catalog-hub/catalog-service/internal/domain"
	apperrors "github.com/catalog-hub/catalog-service/pkg/util"
)

// DefaultTokenTTL is the lifetime of an issued session token.
const DefaultTokenTTL = time.Hour

// TokenManager handles issuing and validating HS256 session tokens.
// The secret is fixed for the lifetime of the manager.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of every token this manager issues.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Claims describes the token payload: sub, role, iat and exp.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *Claims) UserID() string {
	return c.Subject
}

// GenerateToken builds and signs a token for the user.
func (tm *TokenManager) GenerateToken(userID string, role domain.Role) (string, time.Time, error) {
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(ErrTokenCreation, err)
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates signature and expiry and returns fresh claims.
// An expired but correctly signed token yields ErrExpiredSignature; anything else that
// fails validation yields ErrInvalidToken.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Wrap(ErrExpiredSignature, err)
		}
		return nil, apperrors.Wrap(ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.Role.Valid() {
		return nil, apperrors.Wrap(ErrInvalidToken, errors.New("unknown role"))
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, apperrors.Wrap(ErrInvalidToken, err)
	}
	return claims, nil
}
