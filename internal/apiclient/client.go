package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	refreshPath    = "/auth/refresh"
	refreshKey     = "refresh-token"
	defaultTimeout = 10 * time.Second

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes = 1 << 20
)

// TransientMessage is shown to the user when a request fails before
// the platform API could produce a structured response.
const TransientMessage = "Could not reach the server. Please try again."

// SessionSource supplies the tokens attached to outbound requests and
// receives the outcome of the refresh/teardown policy.
type SessionSource interface {
	AccessToken() string
	RefreshToken() string
	ApplyRefresh(accessToken string, expiresAt time.Time)
	Invalidate()
}

// Client talks the envelope protocol to the platform API. It injects
// the bearer token on every request, recovers transparently from an
// expired access token (one shared refresh, one retry), and tears the
// session down on any other auth failure.
type Client struct {
	baseURL    string
	httpc      *http.Client
	session    SessionSource
	logger     aqm.Logger
	notify     func(message string)
	refreshing singleflight.Group
}

func New(baseURL string, session SessionSource, logger aqm.Logger) *Client {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
		session: session,
		logger:  logger,
	}
}

// SetTimeout overrides the fixed per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.httpc.Timeout = d
	}
}

// SetNotifier registers the sink for user-visible transient notices.
func (c *Client) SetNotifier(fn func(message string)) {
	c.notify = fn
}

// Do issues one request and applies the auth recovery policy. An
// expired access token is refreshed at most once, shared across
// concurrent callers, and the original request is re-issued with the
// new token. Invalid or revoked tokens, and refresh failures,
// invalidate the session and propagate the original error.
func (c *Client) Do(ctx context.Context, method, path string, payload interface{}) (*Envelope, error) {
	token := ""
	if c.session != nil {
		token = c.session.AccessToken()
	}

	env, err := c.roundTrip(ctx, method, path, payload, token)
	if err == nil {
		return env, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		c.notifyUser(TransientMessage)
		return nil, err
	}

	// The recovery policy only applies to requests that carried a
	// bearer token; an anonymous 401 (a failed sign-in, say) is the
	// caller's to interpret.
	if path == refreshPath || !apiErr.Unauthorized() || c.session == nil || token == "" {
		c.noticeFor(apiErr)
		return nil, err
	}

	if !apiErr.TokenExpired() {
		c.logger.Info("access token rejected, tearing down session", "path", path)
		c.session.Invalidate()
		return nil, err
	}

	newToken, refreshErr := c.Refresh(ctx)
	if refreshErr != nil {
		c.logger.Info("token refresh failed, tearing down session", "error", refreshErr)
		c.session.Invalidate()
		return nil, err
	}

	// Retry budget for the original request is exactly one.
	env, retryErr := c.roundTrip(ctx, method, path, payload, newToken)
	if retryErr == nil {
		return env, nil
	}
	if errors.As(retryErr, &apiErr) {
		c.noticeFor(apiErr)
	} else {
		c.notifyUser(TransientMessage)
	}
	return nil, retryErr
}

// Refresh exchanges the refresh token for a new access token.
// Concurrent callers share a single in-flight refresh; the slot is
// cleared after it settles, so a later independent expiry starts a
// fresh one.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	if c.session == nil {
		return "", errors.New("no session source configured")
	}

	v, err, _ := c.refreshing.Do(refreshKey, func() (interface{}, error) {
		payload := map[string]string{"refresh_token": c.session.RefreshToken()}
		env, err := c.roundTrip(ctx, http.MethodPost, refreshPath, payload, "")
		if err != nil {
			return nil, err
		}

		var res struct {
			AccessToken string    `json:"access_token"`
			ExpiresAt   time.Time `json:"expires_at"`
		}
		if err := env.DecodeData(&res); err != nil {
			return nil, fmt.Errorf("malformed refresh response: %w", err)
		}
		if res.AccessToken == "" {
			return nil, errors.New("refresh response has no access token")
		}

		c.session.ApplyRefresh(res.AccessToken, res.ExpiresAt)
		c.logger.Debug("access token refreshed", "expires_at", res.ExpiresAt)
		return res.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// List fetches a resource collection.
func (c *Client) List(ctx context.Context, resource string) (*Envelope, error) {
	return c.Do(ctx, http.MethodGet, "/"+resource, nil)
}

// Get fetches a single resource by id.
func (c *Client) Get(ctx context.Context, resource, id string) (*Envelope, error) {
	return c.Do(ctx, http.MethodGet, fmt.Sprintf("/%s/%s", resource, id), nil)
}

// Create posts a new resource.
func (c *Client) Create(ctx context.Context, resource string, payload interface{}) (*Envelope, error) {
	return c.Do(ctx, http.MethodPost, "/"+resource, payload)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload interface{}, token string) (*Envelope, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("cannot encode request payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("cannot build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("cannot read response: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, newAPIError(resp.StatusCode, nil)
		}
		return nil, fmt.Errorf("malformed response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.OK() {
		return nil, newAPIError(resp.StatusCode, &env)
	}
	return &env, nil
}

// noticeFor surfaces unexpected structured failures to the user.
// Validation, auth, not-found and forbidden responses are left to
// feature code to interpret.
func (c *Client) noticeFor(apiErr *APIError) {
	if apiErr == nil || apiErr.expected() {
		return
	}
	msg := apiErr.Message
	if msg == "" {
		msg = TransientMessage
	}
	c.notifyUser(msg)
}

func (c *Client) notifyUser(message string) {
	if c.notify != nil {
		c.notify(message)
	}
}
