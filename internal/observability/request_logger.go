package observability

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// UnmatchedRoute labels requests that no route handler matched.
const UnmatchedRoute = "unmatched"

// RouteLabel returns the template of the matched route ("/api/v1/users/:id"), so metric
// keys are bounded by the route table rather than by client input. Global middleware is
// mounted at "/" and no handler is, so a request that only reached middleware reports "/"
// and is labelled UnmatchedRoute. The result never aliases a request buffer.
func RouteLabel(c *fiber.Ctx) string {
	route := c.Route()
	if route.Path == "/" || len(route.Handlers) == 0 {
		return UnmatchedRoute
	}
	return utils.CopyString(route.Path)
}

// RequestLogger logs one line per request and feeds the request counters.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}
		method := utils.CopyString(c.Method())

		metrics.RecordRequest(RouteLabel(c), method, status, elapsed)
		logger.Info("request",
			zap.String("method", method),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		)
		return err
	}
}
