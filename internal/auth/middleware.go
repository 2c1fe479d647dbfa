package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/catalog-hub/catalog-service/internal/domain"
)

const identityKey = "auth_identity"

// AuthMiddleware resolves the caller and stores the identity in request locals.
type AuthMiddleware struct {
	extractor *IdentityExtractor
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(extractor *IdentityExtractor) *AuthMiddleware {
	return &AuthMiddleware{extractor: extractor}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	identity, err := m.extractor.Identity(c.UserContext(), FiberRequest(c))
	if err != nil {
		return err
	}
	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (*domain.AuthenticatedIdentity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.AuthenticatedIdentity)
	return identity, ok
}

type fiberRequest struct {
	c *fiber.Ctx
}

// FiberRequest exposes the headers and cookies of c as a RequestView.
func FiberRequest(c *fiber.Ctx) RequestView {
	return fiberRequest{c: c}
}

func (r fiberRequest) Header(name string) string {
	return r.c.Get(name)
}

func (r fiberRequest) Cookie(name string) string {
	return r.c.Cookies(name)
}
