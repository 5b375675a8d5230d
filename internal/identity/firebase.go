package identity

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseProvider accepts Firebase ID tokens issued to the client.
type FirebaseProvider struct {
	verifier TokenVerifier
}

func NewFirebaseProvider(verifier TokenVerifier) *FirebaseProvider {
	return &FirebaseProvider{verifier: verifier}
}

func (p *FirebaseProvider) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	if creds.IDToken == "" {
		return nil, ErrRejected
	}

	token, err := p.verifier.VerifyIDToken(ctx, creds.IDToken)
	if err != nil {
		if auth.IsIDTokenInvalid(err) || auth.IsIDTokenExpired(err) || auth.IsIDTokenRevoked(err) || auth.IsUserDisabled(err) {
			return nil, ErrRejected
		}
		return nil, fmt.Errorf("verify firebase id token: %w", err)
	}

	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	if name == "" {
		name = displayNameFromEmail(email)
	}

	return &Identity{
		Subject:     token.UID,
		Email:       email,
		DisplayName: name,
		AccessToken: creds.IDToken,
	}, nil
}
