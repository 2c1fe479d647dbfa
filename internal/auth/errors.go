package auth

import (
	"net/http"

	apperrors "github.com/catalog-hub/catalog-service/pkg/util"
)

// Authentication failures. Every value is a *util.DomainError so the HTTP layer maps them
// without knowing about this package. Compare with errors.Is.
var (
	ErrWrongCredentials   = apperrors.NewDomainError("WRONG_CREDENTIALS", "wrong credentials", http.StatusUnauthorized, nil)
	ErrMissingCredentials = apperrors.NewDomainError("MISSING_CREDENTIALS", "missing credentials", http.StatusUnauthorized, nil)
	ErrUnverifiedUser     = apperrors.NewDomainError("UNVERIFIED_USER", "unverified user", http.StatusUnauthorized, nil)
	ErrInvalidToken       = apperrors.NewDomainError("INVALID_TOKEN", "invalid token", http.StatusUnauthorized, nil)
	ErrExpiredSignature   = apperrors.NewDomainError("EXPIRED_SIGNATURE", "expired signature", http.StatusUnauthorized, nil)
	ErrUnknownSubject     = apperrors.NewDomainError("UNKNOWN_SUBJECT", "user no longer exists", http.StatusUnauthorized, nil)
	ErrTokenCreation      = apperrors.NewDomainError("TOKEN_CREATION", "token creation error", http.StatusInternalServerError, nil)
	ErrEmailExists        = apperrors.NewDomainError("EMAIL_EXISTS", "email already exists", http.StatusConflict, nil)
	ErrComputationAborted = apperrors.NewDomainError("COMPUTATION_ABORTED", "password computation aborted", http.StatusInternalServerError, nil)
	ErrHashFailure        = apperrors.NewDomainError("HASH_FAILURE", "password hash failure", http.StatusInternalServerError, nil)
	ErrStore              = apperrors.NewDomainError("STORE_ERROR", "internal server error", http.StatusInternalServerError, nil)
)
