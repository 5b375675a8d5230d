package middleware

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	domainerrors "github.com/anonto42/pins/backend/internal/errors"
	"github.com/anonto42/pins/backend/internal/session"
	"github.com/anonto42/pins/backend/pkg/api"
)

// SessionContextKey is the echo context key holding the *session.Session.
const SessionContextKey = "session"

// Authenticator resolves a session token.
type Authenticator interface {
	Authenticate(token string) (*session.Session, error)
}

// SessionAuth attaches the caller's session to the request when it carries
// a valid token in the Authorization header or the session cookie. Requests
// without a valid token continue anonymously; procedures that need a
// session reject them.
func SessionAuth(auth Authenticator, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := tokenFromRequest(c)
			if token == "" {
				return next(c)
			}

			sess, err := auth.Authenticate(token)
			if err != nil {
				log.DebugContext(c.Request().Context(), "ignoring session token", "error", err)
				return next(c)
			}

			c.Set(SessionContextKey, sess)
			c.SetRequest(c.Request().WithContext(session.NewContext(c.Request().Context(), sess)))
			return next(c)
		}
	}
}

// RequireSession rejects anonymous requests before their input is read.
// It must run after SessionAuth.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentSession(c) == nil {
				return domainerrors.Unauthorized("sign in required")
			}
			return next(c)
		}
	}
}

// CurrentSession returns the session attached by SessionAuth, or nil.
func CurrentSession(c echo.Context) *session.Session {
	if sess, ok := c.Get(SessionContextKey).(*session.Session); ok {
		return sess
	}
	return session.FromContext(c.Request().Context())
}

func tokenFromRequest(c echo.Context) string {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(api.SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
