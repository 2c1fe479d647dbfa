package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// DefaultSessionCookie names the cookie that carries the session token.
const DefaultSessionCookie = "access_token"

// SessionPolicy decides the attributes of the session cookie.
type SessionPolicy struct {
	cookieName string
	secure     bool
	maxAge     time.Duration
}

// NewSessionPolicy builds a policy. secure should be false only for local development.
// maxAge should be the access token TTL so the cookie and the token it carries expire
// together; a non-positive value means DefaultTokenTTL.
func NewSessionPolicy(cookieName string, secure bool, maxAge time.Duration) *SessionPolicy {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	if maxAge <= 0 {
		maxAge = DefaultTokenTTL
	}
	return &SessionPolicy{cookieName: cookieName, secure: secure, maxAge: maxAge}
}

// CookieName returns the session cookie name.
func (p *SessionPolicy) CookieName() string {
	return p.cookieName
}

// LoginCookie carries token to the browser. SameSite=None lets cross-origin frontends
// send it back.
func (p *SessionPolicy) LoginCookie(token string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     p.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(p.maxAge / time.Second),
		HTTPOnly: true,
		Secure:   p.secure,
		SameSite: fiber.CookieSameSiteNoneMode,
	}
}

// LogoutCookie instructs the browser to drop the session cookie. The token itself stays
// valid until it expires.
func (p *SessionPolicy) LogoutCookie() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     p.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		HTTPOnly: true,
		Secure:   p.secure,
		SameSite: fiber.CookieSameSiteNoneMode,
	}
}
