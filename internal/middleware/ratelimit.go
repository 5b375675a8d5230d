package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	domainerrors "github.com/anonto42/pins/backend/internal/errors"
	"github.com/anonto42/pins/backend/internal/ratelimit"
)

// KeyFunc derives the rate-limit key of a request.
type KeyFunc func(c echo.Context) string

// ByIP keys requests by client address.
func ByIP(c echo.Context) string {
	return "ip:" + c.RealIP()
}

// BySessionOrIP keys signed-in requests by user and the rest by address.
func BySessionOrIP(c echo.Context) string {
	if sess := CurrentSession(c); sess != nil {
		return "user:" + sess.UserID
	}
	return ByIP(c)
}

// RateLimit rejects requests over the limiter's budget with
// TOO_MANY_REQUESTS.
func RateLimit(limiter *ratelimit.KeyedRateLimiter, key KeyFunc, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			k := key(c)
			if !limiter.Allow(k) {
				log.WarnContext(c.Request().Context(), "rate limit exceeded", "key", k, "path", c.Path())
				return domainerrors.TooManyRequests("too many requests, please try again later")
			}
			return next(c)
		}
	}
}
