// Package identity verifies credentials against an external identity
// provider.
package identity

import (
	"context"
	"errors"
)

// ErrRejected means the provider refused the credentials. It is terminal for
// the sign-in attempt and is never retried.
var ErrRejected = errors.New("identity: credentials rejected")

// Credentials are what the user submitted at sign-in.
type Credentials struct {
	Username string
	Password string
	IDToken  string
}

// Identity is a validated provider account.
type Identity struct {
	// Subject is the provider's stable id for the account.
	Subject      string
	Email        string
	DisplayName  string
	AccessToken  string
	RefreshToken string
}

// Provider validates credentials. It returns ErrRejected when the provider
// answered and refused them, and any other error when the provider could not
// be reached or answered unexpectedly.
type Provider interface {
	Authenticate(ctx context.Context, creds Credentials) (*Identity, error)
}
