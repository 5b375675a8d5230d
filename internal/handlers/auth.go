package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/pins/backend/internal/service"
	"github.com/anonto42/pins/backend/pkg/api"
)

// AuthHandler handles the auth.* procedures
type AuthHandler struct {
	auth         *service.AuthService
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookie: secureCookie}
}

// RegisterAuthRoutes registers authentication-related routes. signIn
// middleware is applied to auth.signIn only.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, signIn ...echo.MiddlewareFunc) {
	g.GET("/"+api.ProcAuthGetSession, h.GetSession)
	g.POST("/"+api.ProcAuthSignIn, h.SignIn, signIn...)
	g.POST("/"+api.ProcAuthSignOut, h.SignOut)
}

// GetSession answers null for anonymous callers.
func (h *AuthHandler) GetSession(c echo.Context) error {
	var in api.EmptyInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	return ok(c, h.auth.GetSession(caller(c)))
}

// SignIn exchanges credentials for a session token, returned in the body
// and set as the session cookie.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var in api.SignInInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	res, err := h.auth.SignIn(c.Request().Context(), in)
	if err != nil {
		return err
	}

	c.SetCookie(h.cookie(res.Token, res.Session.Expires, h.auth.SessionTTL()))
	return ok(c, res)
}

// SignOut clears the session cookie. Tokens are stateless, so a copy held
// elsewhere stays valid until it expires.
func (h *AuthHandler) SignOut(c echo.Context) error {
	var in api.EmptyInput
	if err := bindInput(c, &in); err != nil {
		return err
	}
	c.SetCookie(h.cookie("", time.Unix(0, 0), -1))
	return ok(c, api.SignOutResult{OK: true})
}

func (h *AuthHandler) cookie(value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     api.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
