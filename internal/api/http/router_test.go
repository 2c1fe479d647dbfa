package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/catalog-hub/catalog-service/internal/api/http/handlers"
	"github.com/catalog-hub/catalog-service/internal/auth"
	"github.com/catalog-hub/catalog-service/internal/config"
	"github.com/catalog-hub/catalog-service/internal/domain"
	"github.com/catalog-hub/catalog-service/internal/events"
	"github.com/catalog-hub/catalog-service/internal/observability"
	"github.com/catalog-hub/catalog-service/internal/persistence"
	"github.com/catalog-hub/catalog-service/internal/repository"
	"github.com/catalog-hub/catalog-service/internal/service"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app     *fiber.App
	repo    repository.UserRepository
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, redisErr error) *testServer {
	t.Helper()
	return newTestServerWithTTL(t, redisErr, 0)
}

func newTestServerWithTTL(t *testing.T, redisErr error, ttlMinutes int) *testServer {
	t.Helper()
	cfg := config.Config{
		App: config.AppConfig{Name: "catalog-service", Version: "test", Env: config.EnvProduction},
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: ttlMinutes,
			BcryptCost:            bcrypt.MinCost,
			HashWorkers:           2,
			SessionCookie:         auth.DefaultSessionCookie,
		},
	}
	repo := repository.NewMemoryUserRepository()
	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:   repo,
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     zap.NewNop(),
	})
	sessions := auth.NewSessionPolicy(cfg.Auth.SessionCookie, cfg.App.SecureCookies(), authService.TokenManager().TTL())
	extractor := auth.NewIdentityExtractor(authService.TokenManager(), repo, sessions.CookieName())

	app := NewApp(cfg.App.Name, 0)
	metrics := observability.NewMetrics()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0, []string{"http://localhost:5173"})
	health := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
		handlers.Check{Name: "postgres", Pinger: stubPinger{err: fmt.Errorf("postgres %w", persistence.ErrNotConfigured)}},
		handlers.Check{Name: "redis", Pinger: stubPinger{err: redisErr}},
	)
	RegisterRoutes(app, RouteConfig{
		Health:         health,
		Auth:           handlers.NewAuthHandler(authService, sessions, extractor),
		Users:          handlers.NewUsersHandler(authService),
		AuthMiddleware: auth.NewAuthMiddleware(extractor),
	})
	return &testServer{app: app, repo: repo, metrics: metrics}
}

func (s *testServer) seed(t *testing.T, email, password string, superuser bool) *domain.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		Name:           strings.Split(email, "@")[0],
		Email:          email,
		HashedPassword: string(hashed),
		IsActive:       true,
		IsVerified:     true,
		IsSuperuser:    superuser,
	}
	require.NoError(t, s.repo.Create(context.Background(), user))
	return user
}

type response struct {
	status    int
	body      []byte
	setCookie string
}

func (r response) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (r response) errorCode(t *testing.T) string {
	t.Helper()
	errBody, ok := r.json(t)["error"].(map[string]any)
	require.True(t, ok, string(r.body))
	code, _ := errBody["code"].(string)
	return code
}

func (s *testServer) do(t *testing.T, req *http.Request) response {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, body: body, setCookie: resp.Header.Get("Set-Cookie")}
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (s *testServer) login(t *testing.T, email, password string) (string, response) {
	t.Helper()
	resp := s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/login", `{"email":"`+email+`","password":"`+password+`"}`))
	if resp.status != http.StatusOK {
		return "", resp
	}
	token, _ := resp.json(t)["access_token"].(string)
	return token, resp
}

func TestLoginSetsCookieAndReturnsBearer(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t, "a@x.com", "p1", true)

	token, resp := s.login(t, "a@x.com", "p1")
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	require.NotEmpty(t, token)
	assert.Equal(t, "Bearer", resp.json(t)["token_type"])

	assert.True(t, strings.HasPrefix(resp.setCookie, "access_token="+token+";"), resp.setCookie)
	assert.Contains(t, resp.setCookie, "max-age=3600")
	assert.Contains(t, resp.setCookie, "HttpOnly")
	assert.Contains(t, resp.setCookie, "secure")
	assert.Contains(t, resp.setCookie, "SameSite=None")
}

func TestLoginAcceptsFormBody(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t, "a@x.com", "p1", false)

	form := url.Values{"email": {"a@x.com"}, "password": {"p1"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp := s.do(t, req)
	assert.Equal(t, http.StatusOK, resp.status, string(resp.body))
}

func TestFormRegisteredUserSurvivesLaterRequests(t *testing.T) {
	s := newTestServer(t, nil)
	form := func(path string, values url.Values) response {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return s.do(t, req)
	}

	register := form("/api/v1/users", url.Values{"name": {"Ada"}, "email": {"ada@x.com"}, "password": {"p1"}})
	require.Equal(t, http.StatusCreated, register.status, string(register.body))

	for i := 0; i < 5; i++ {
		other := form("/api/v1/auth/login", url.Values{
			"email":    {"zzz@zzzzz.example"},
			"password": {strings.Repeat("q", 16)},
		})
		require.Equal(t, http.StatusUnauthorized, other.status)
	}

	stored, err := s.repo.GetByEmail(context.Background(), "ada@x.com")
	require.NoError(t, err)
	assert.Equal(t, "ada@x.com", stored.Email)
	assert.Equal(t, "Ada", stored.Name)

	_, login := s.login(t, "ada@x.com", "p1")
	assert.Equal(t, "UNVERIFIED_USER", login.errorCode(t))

	again := form("/api/v1/users", url.Values{"name": {"Ada"}, "email": {"ada@x.com"}, "password": {"p1"}})
	assert.Equal(t, http.StatusConflict, again.status)
}

func TestLoginCookieMaxAgeFollowsTokenTTL(t *testing.T) {
	s := newTestServerWithTTL(t, nil, 15)
	s.seed(t, "a@x.com", "p1", false)

	token, resp := s.login(t, "a@x.com", "p1")
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	assert.Contains(t, resp.setCookie, "max-age=900")

	claims := &auth.Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t, "a@x.com", "p1", false)

	_, wrongPassword := s.login(t, "a@x.com", "nope")
	_, unknownEmail := s.login(t, "ghost@x.com", "p1")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.status)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.status)
	assert.Equal(t, "WRONG_CREDENTIALS", wrongPassword.errorCode(t))
	assert.JSONEq(t, string(wrongPassword.body), string(unknownEmail.body))
	assert.Empty(t, wrongPassword.setCookie)
	assert.Empty(t, unknownEmail.setCookie)
}

func TestLoginRejections(t *testing.T) {
	s := newTestServer(t, nil)

	register := s.do(t, jsonRequest(http.MethodPost, "/api/v1/users", `{"name":"New","email":"new@x.com","password":"p1"}`))
	require.Equal(t, http.StatusCreated, register.status)

	_, unverified := s.login(t, "new@x.com", "p1")
	assert.Equal(t, http.StatusUnauthorized, unverified.status)
	assert.Equal(t, "UNVERIFIED_USER", unverified.errorCode(t))
	assert.Empty(t, unverified.setCookie)

	_, missing := s.login(t, "", "")
	assert.Equal(t, http.StatusUnauthorized, missing.status)
	assert.Equal(t, "MISSING_CREDENTIALS", missing.errorCode(t))

	malformed := s.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/login", `{"email":`))
	assert.Equal(t, http.StatusBadRequest, malformed.status)
	assert.Equal(t, "VALIDATION_FAILED", malformed.errorCode(t))
}

func TestMeWithCookieAndBearer(t *testing.T) {
	s := newTestServer(t, nil)
	user := s.seed(t, "a@x.com", "p1", false)
	token, _ := s.login(t, "a@x.com", "p1")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.DefaultSessionCookie, Value: token})
	resp := s.do(t, req)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	data := resp.json(t)["data"].(map[string]any)
	assert.Equal(t, user.ID, data["id"])
	assert.Equal(t, "a@x.com", data["email"])
	assert.Equal(t, "user", data["role"])

	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, s.do(t, req).status)
}

func TestMeRejections(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, "MISSING_CREDENTIALS", resp.errorCode(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	resp = s.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, "INVALID_TOKEN", resp.errorCode(t))
	assert.Equal(t, int64(1), s.metrics.Errors("/api/v1/me", http.MethodGet, "INVALID_TOKEN"))
}

func TestLogoutClearsCookie(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t, "a@x.com", "p1", false)
	token, _ := s.login(t, "a@x.com", "p1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: auth.DefaultSessionCookie, Value: token})
	resp := s.do(t, req)
	assert.Equal(t, http.StatusNoContent, resp.status)
	assert.True(t, strings.HasPrefix(resp.setCookie, "access_token=;"), resp.setCookie)
	assert.Contains(t, resp.setCookie, "1970")

	// no session at all still clears
	resp = s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	assert.Equal(t, http.StatusNoContent, resp.status)
	assert.True(t, strings.HasPrefix(resp.setCookie, "access_token=;"), resp.setCookie)

	// the token itself stays valid until it expires
	req = httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, s.do(t, req).status)
}

func TestRegisterUser(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, jsonRequest(http.MethodPost, "/api/v1/users", `{"name":"Ada","email":"ada@x.com","password":"p1"}`))
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	data := resp.json(t)["data"].(map[string]any)
	assert.Equal(t, "ada@x.com", data["email"])
	assert.Equal(t, false, data["is_verified"])
	assert.NotContains(t, string(resp.body), "hashed")
	assert.NotContains(t, string(resp.body), "p1")

	dup := s.do(t, jsonRequest(http.MethodPost, "/api/v1/users", `{"name":"Other","email":"ada@x.com","password":"p2"}`))
	assert.Equal(t, http.StatusConflict, dup.status)
	assert.Equal(t, "EMAIL_EXISTS", dup.errorCode(t))

	invalid := s.do(t, jsonRequest(http.MethodPost, "/api/v1/users", `{"name":"X","email":"not-an-email","password":"p"}`))
	assert.Equal(t, http.StatusBadRequest, invalid.status)
	assert.Equal(t, "VALIDATION_FAILED", invalid.errorCode(t))
	details := invalid.json(t)["error"].(map[string]any)["details"].(map[string]any)
	assert.Contains(t, details, "email")
}

func TestListUsersRequiresAdmin(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t, "admin@x.com", "p1", true)
	s.seed(t, "user@x.com", "p2", false)
	adminToken, _ := s.login(t, "admin@x.com", "p1")
	userToken, _ := s.login(t, "user@x.com", "p2")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp := s.do(t, req)
	assert.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "FORBIDDEN", resp.errorCode(t))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp = s.do(t, req)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Len(t, resp.json(t)["data"], 2)

	resp = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestGetUserByID(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t, "admin@x.com", "p1", true)
	target := s.seed(t, "user@x.com", "p2", false)
	adminToken, _ := s.login(t, "admin@x.com", "p1")
	userToken, _ := s.login(t, "user@x.com", "p2")

	get := func(token, id string) response {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+id, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return s.do(t, req)
	}

	resp := get(adminToken, target.ID)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, "user@x.com", resp.json(t)["data"].(map[string]any)["email"])

	assert.Equal(t, http.StatusForbidden, get(userToken, target.ID).status)

	missing := get(adminToken, "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, http.StatusNotFound, missing.status)
	assert.Equal(t, "NOT_FOUND", missing.errorCode(t))

	assert.Equal(t, http.StatusNotFound, get(adminToken, "not-a-uuid").status)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, s.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil)).status)

	ready := s.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, ready.status)
	body := ready.json(t)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, map[string]any{"postgres": "disabled", "redis": "ok"}, body["dependencies"])

	degraded := newTestServer(t, errors.New("redis down"))
	resp := degraded.do(t, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", resp.errorCode(t))
	details := resp.json(t)["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "redis down", details["redis"])
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "NOT_FOUND", resp.errorCode(t))
}

func TestMetricsKeyedByRouteTemplate(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.seed(t, "admin@x.com", "p1", true)
	token, _ := s.login(t, "admin@x.com", "p1")

	require.Equal(t, http.StatusOK, s.do(t, httptest.NewRequest(http.MethodGet, "/health/live", nil)).status)
	for i := 0; i < 4; i++ {
		resp := s.do(t, httptest.NewRequest(http.MethodGet, "/zzzzzzzzzzzz"+strings.Repeat("z", i), nil))
		require.Equal(t, http.StatusNotFound, resp.status)
	}
	for _, id := range []string{admin.ID, "00000000-0000-0000-0000-000000000000"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+id, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		s.do(t, req)
	}

	assert.Equal(t, int64(1), s.metrics.Requests("/health/live", http.MethodGet, http.StatusOK))
	assert.Equal(t, int64(4), s.metrics.Requests(observability.UnmatchedRoute, http.MethodGet, http.StatusNotFound))
	assert.Equal(t, int64(4), s.metrics.Errors(observability.UnmatchedRoute, http.MethodGet, "NOT_FOUND"))
	assert.Equal(t, int64(1), s.metrics.Requests("/api/v1/users/:id", http.MethodGet, http.StatusOK))
	assert.Equal(t, int64(1), s.metrics.Errors("/api/v1/users/:id", http.MethodGet, "NOT_FOUND"))
	assert.Zero(t, s.metrics.Requests("/api/v1/users/"+admin.ID, http.MethodGet, http.StatusOK))
}
