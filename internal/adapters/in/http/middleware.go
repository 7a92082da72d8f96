package http

import (
	"fmt"
	"strconv"
	"time"

	"workorders/internal/adapters/out/auth"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/core/ports"
	"workorders/internal/pkg/errs"
	"workorders/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
)

const actorKey = "actor"

// authenticate resolves the bearer token into the acting user.
func authenticate(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return writeError(c, fmt.Errorf("%w: bearer token is required", errs.ErrUnauthenticated))
			}

			actor, err := verifier.VerifyToken(c.Request().Context(), token)
			if err != nil {
				return writeError(c, err)
			}

			c.Set(actorKey, actor)
			return next(c)
		}
	}
}

func actorFrom(c echo.Context) user.User {
	actor, _ := c.Get(actorKey).(user.User)
	return actor
}

// observe records count and latency per route template.
func observe(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(route, strconv.Itoa(c.Response().Status), float64(time.Since(start).Microseconds())/1000)
			return nil
		}
	}
}
