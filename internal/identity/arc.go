package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const arcLoginPath = "/identity/public/v1/auth/login"

// ArcProvider exchanges a username and password with the Arc identity
// service's password grant.
type ArcProvider struct {
	baseURL string
	client  *http.Client
}

func NewArcProvider(baseURL string, timeout time.Duration) *ArcProvider {
	return &ArcProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type arcLoginRequest struct {
	GrantType   string `json:"grantType"`
	UserName    string `json:"userName"`
	Credentials string `json:"credentials"`
}

type arcLoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	UUID         string `json:"uuid"`
}

func (p *ArcProvider) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, ErrRejected
	}

	body, err := json.Marshal(arcLoginRequest{
		GrantType:   "password",
		UserName:    creds.Username,
		Credentials: creds.Password,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+arcLoginPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity login request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("identity service returned %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrRejected
	}

	var out arcLoginResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	if out.UUID == "" || out.AccessToken == "" {
		return nil, ErrRejected
	}

	return &Identity{
		Subject:      out.UUID,
		Email:        creds.Username,
		DisplayName:  displayNameFromEmail(creds.Username),
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}, nil
}

func displayNameFromEmail(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}
