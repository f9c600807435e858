package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/skiffworks/skiff/config"
	"github.com/skiffworks/skiff/logger"
)

const (
	burstMultiplier  = 2
	rateLimitCleanup = 3 * time.Minute
)

// SetupMiddlewares installs the standard middleware chain: recovery,
// request IDs, request logging and rate limiting.
func SetupMiddlewares(e *echo.Echo, log logger.Logger, cfg *config.Config) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	e.Use(RequestLogger(log, cfg.Server.Path.Health, cfg.Server.Path.Ready))
	e.Use(RateLimit(cfg.App.Rate.Limit))
}

// RequestLogger logs completed requests with method, path, status and
// latency. Probe endpoints are skipped.
func RequestLogger(log logger.Logger, healthPath, readyPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			if path == healthPath || path == readyPath {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			latency := time.Since(start)
			status := c.Response().Status

			event := log.Info()
			if err != nil || status >= http.StatusInternalServerError {
				event = log.Error()
			} else if status >= http.StatusBadRequest {
				event = log.Warn()
			}
			if err != nil {
				event = event.Err(err)
			}
			event.
				Str("method", c.Request().Method).
				Str("path", path).
				Int("status", status).
				Dur("latency", latency).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("request completed")

			return err
		}
	}
}

// RateLimit limits requests per client IP. A non-positive limit disables
// the middleware.
func RateLimit(requestsPerSecond int) echo.MiddlewareFunc {
	if requestsPerSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(requestsPerSecond),
				Burst:     requestsPerSecond * burstMultiplier,
				ExpiresIn: rateLimitCleanup,
			},
		),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return formatErrorResponse(c, NewTooManyRequestsError(""), nil)
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return formatErrorResponse(c, NewTooManyRequestsError("Too many requests"), nil)
		},
	})
}
