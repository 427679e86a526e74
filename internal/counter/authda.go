package counter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bobaclub/counter/internal/apiclient"
)

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signInResult struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
	Permissions  []string  `json:"permissions"`
}

// AuthDataAccess wraps the auth service endpoints. Token refresh
// lives in the API client itself, since it is part of the transport
// recovery policy rather than a feature call.
type AuthDataAccess struct {
	client *apiclient.Client
}

func NewAuthDataAccess(client *apiclient.Client) *AuthDataAccess {
	return &AuthDataAccess{client: client}
}

// SignIn authenticates the staff member and returns a ready session.
func (da *AuthDataAccess) SignIn(ctx context.Context, username, password string) (*Session, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("auth client not configured")
	}

	env, err := da.client.Do(ctx, http.MethodPost, "/auth/signin", signInRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var res signInResult
	if err := env.DecodeData(&res); err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
		User:         res.User,
		Permissions:  res.Permissions,
	}, nil
}
