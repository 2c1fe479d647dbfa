package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/catalog-hub/catalog-service/internal/api/dto"
	"github.com/catalog-hub/catalog-service/internal/auth"
	"github.com/catalog-hub/catalog-service/internal/domain"
	"github.com/catalog-hub/catalog-service/internal/service"
	apperrors "github.com/catalog-hub/catalog-service/pkg/util"
)

// AuthHandler exposes login, logout and current-user endpoints.
type AuthHandler struct {
	auth      *service.AuthService
	sessions  *auth.SessionPolicy
	extractor *auth.IdentityExtractor
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, sessions *auth.SessionPolicy, extractor *auth.IdentityExtractor) *AuthHandler {
	return &AuthHandler{auth: authService, sessions: sessions, extractor: extractor}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	attempt := domain.NewLoginAttempt(req.Email, req.Password)
	req.Password = ""

	result, err := h.auth.Login(c.UserContext(), attempt)
	if err != nil {
		return err
	}

	c.Cookie(h.sessions.LoginCookie(result.Token))
	return c.JSON(dto.NewAuthBody(result.Token))
}

// Logout handles POST /api/v1/auth/logout. It always clears the session cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	userID := ""
	if claims, err := h.extractor.Claims(auth.FiberRequest(c)); err == nil {
		userID = claims.UserID()
	}
	h.auth.Logout(c.UserContext(), userID)

	c.Cookie(h.sessions.LogoutCookie())
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /api/v1/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return auth.ErrMissingCredentials
	}
	return c.JSON(fiber.Map{"data": identity})
}
