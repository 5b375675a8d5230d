// Package session issues and verifies the signed session tokens carried by
// authenticated requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/anonto42/pins/backend/pkg/api"
)

const issuer = "pins"

var (
	ErrInvalidToken = errors.New("session: invalid token")
	ErrExpiredToken = errors.New("session: token expired")
)

// Claims are the JWT claims of a session token.
type Claims struct {
	UserID       string `json:"uid"`
	Email        string `json:"email,omitempty"`
	DisplayName  string `json:"name,omitempty"`
	Role         string `json:"role"`
	AccessToken  string `json:"at,omitempty"`
	RefreshToken string `json:"rt,omitempty"`
	jwt.RegisteredClaims
}

// Session is the authenticated identity attached to a request. A nil
// *Session is an anonymous caller.
type Session struct {
	UserID       string
	Email        string
	DisplayName  string
	Role         string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// ToAPI converts the session to its wire view.
func (s *Session) ToAPI() *api.Session {
	if s == nil {
		return nil
	}
	return &api.Session{
		User: api.SessionUser{
			ID:          s.UserID,
			Email:       s.Email,
			DisplayName: s.DisplayName,
			Role:        s.Role,
		},
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		Expires:      s.ExpiresAt,
	}
}

// Manager signs and verifies HS256 session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for s and sets s.ExpiresAt.
func (m *Manager) Issue(s *Session) (string, error) {
	now := m.now()
	s.ExpiresAt = now.Add(m.ttl).Truncate(time.Second)

	claims := &Claims{
		UserID:       s.UserID,
		Email:        s.Email,
		DisplayName:  s.DisplayName,
		Role:         s.Role,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// Parse verifies a token and returns its session.
func (m *Manager) Parse(tokenString string) (*Session, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.Issuer != issuer {
		return nil, ErrInvalidToken
	}

	s := &Session{
		UserID:       claims.UserID,
		Email:        claims.Email,
		DisplayName:  claims.DisplayName,
		Role:         claims.Role,
		AccessToken:  claims.AccessToken,
		RefreshToken: claims.RefreshToken,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

type contextKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session in ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
