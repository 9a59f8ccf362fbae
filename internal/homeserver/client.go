// Package homeserver implements the remote auth-protocol client: password
// login, logout, identity lookup, and homeserver verification over a
// Matrix-compatible HTTP API.
//
// The session manager consumes this package only through its
// Authenticator-shaped surface; everything network-specific (timeouts,
// retry-free transport, error classification) stays on this side of the
// boundary.
package homeserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/benaskins/halcyon/internal/session"
)

const (
	loginPath    = "/_matrix/client/v3/login"
	logoutPath   = "/_matrix/client/v3/logout"
	whoamiPath   = "/_matrix/client/v3/account/whoami"
	versionsPath = "/_matrix/client/versions"

	// DefaultTimeout bounds connect and read for one request when the
	// caller supplies no budget of its own.
	DefaultTimeout = 30 * time.Second
)

// Client talks to one homeserver. It performs no internal retries; retry
// policy, if any, belongs to callers.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ session.Authenticator = (*Client)(nil)

// Option configures the client.
type Option func(*Client)

// WithTimeout sets the connect/read timeout budget for every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client, for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for the homeserver at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing homeserver URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("homeserver URL %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		// Login attempts are throttled client-side: one per 2s sustained,
		// bursts of 3. Keeps a misbehaving caller from hammering the
		// homeserver's auth endpoint.
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
		logger:  slog.With("component", "homeserver", "url", u.Host),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type loginRequest struct {
	Type       string          `json:"type"`
	Identifier loginIdentifier `json:"identifier"`
	Password   string          `json:"password"`
}

type loginIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	UserID       string `json:"user_id"`
	DeviceID     string `json:"device_id"`
}

// Login performs a password login and returns the issued credentials.
func (c *Client) Login(ctx context.Context, username, password string) (session.Credentials, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return session.Credentials{}, err
	}

	body := loginRequest{
		Type:       "m.login.password",
		Identifier: loginIdentifier{Type: "m.id.user", User: username},
		Password:   password,
	}

	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodPost, loginPath, "", body, &resp); err != nil {
		return session.Credentials{}, err
	}

	c.logger.Info("login succeeded", "user", resp.UserID, "device", resp.DeviceID)
	return session.Credentials{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		UserID:       resp.UserID,
		DeviceID:     resp.DeviceID,
	}, nil
}

// Logout invalidates the access token on the homeserver.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.doJSON(ctx, http.MethodPost, logoutPath, accessToken, struct{}{}, nil)
}

// WhoAmI asks the homeserver which user the access token belongs to.
func (c *Client) WhoAmI(ctx context.Context, accessToken string) (string, error) {
	var resp struct {
		UserID string `json:"user_id"`
	}
	if err := c.doJSON(ctx, http.MethodGet, whoamiPath, accessToken, nil, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// Verify checks that the base URL points at a live, compatible homeserver.
// It is bounded by the client's timeout budget.
func (c *Client) Verify(ctx context.Context) error {
	var resp struct {
		Versions []string `json:"versions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, versionsPath, "", nil, &resp); err != nil {
		return fmt.Errorf("verifying homeserver: %w", err)
	}
	if len(resp.Versions) == 0 {
		return fmt.Errorf("verifying homeserver: %s reported no supported versions", c.baseURL.Host)
	}
	return nil
}

// doJSON issues one request and decodes the response. Transport failures
// are classified into NetworkError buckets; non-2xx responses become
// APIErrors.
func (c *Client) doJSON(ctx context.Context, method, path, accessToken string, reqBody, respBody any) error {
	u := c.baseURL.JoinPath(path)

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &NetworkError{
			Kind: KindUnavailable,
			Err:  fmt.Errorf("homeserver returned %s", resp.Status),
		}
	}
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(respBody); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeAPIError maps a Matrix error body into an APIError, tolerating
// non-JSON bodies.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "M_UNKNOWN"
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
	}
	return apiErr
}
