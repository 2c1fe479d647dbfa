package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/catalog-hub/catalog-service/internal/persistence"
	apperrors "github.com/catalog-hub/catalog-service/pkg/util"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is one named readiness dependency.
type Check struct {
	Name   string
	Pinger Pinger
}

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	serviceName string
	version     string
	checks      []Check
}

func NewHealthHandler(serviceName, version string, checks ...Check) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, checks: checks}
}

func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready pings every check. A dependency that was never configured is reported as
// disabled and does not fail readiness.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	deps := make(map[string]any, len(h.checks))
	ready := true
	for _, check := range h.checks {
		err := check.Pinger.Ping(ctx)
		switch {
		case err == nil:
			deps[check.Name] = "ok"
		case errors.Is(err, persistence.ErrNotConfigured):
			deps[check.Name] = "disabled"
		default:
			deps[check.Name] = err.Error()
			ready = false
		}
	}

	if !ready {
		return apperrors.NewDomainError("DEPENDENCY_UNAVAILABLE", "one or more dependencies unavailable",
			http.StatusServiceUnavailable, deps)
	}
	return c.JSON(fiber.Map{
		"status":       "ready",
		"service":      h.serviceName,
		"dependencies": deps,
	})
}
