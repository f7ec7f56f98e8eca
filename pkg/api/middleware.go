package api

import (
	"log/slog"
	"time"

	echo "github.com/labstack/echo/v5"
)

// securityHeaders returns middleware that sets standard security response
// headers.
//
// Grounded on the teacher's pkg/api/middleware.go securityHeaders.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			return next(c)
		}
	}
}

// requestLogger logs one structured line per request, matching the
// slog.With(...) idiom the rest of this module uses for request-scoped
// logging (e.g. pkg/queue/worker.go's "worker_id"-scoped logger).
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			start := time.Now()
			err := next(c)
			slog.Info("http request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}

// recoverPanics converts a panicking handler into a 500 response instead
// of crashing the server, matching pkg/cleanup.Scheduler's per-job
// recover() guard applied here per-request.
func recoverPanics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("http handler panicked", "path", c.Request().URL.Path, "panic", r)
					err = writeError(c, recoveredErr{r})
				}
			}()
			return next(c)
		}
	}
}

// recoveredErr wraps a recover() value as an error so it flows through
// writeError, which answers it as an internal error because it is not an
// *apperrors.Error.
type recoveredErr struct{ v any }

func (r recoveredErr) Error() string { return "panic: " + formatPanic(r.v) }

func formatPanic(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "unknown panic"
}
