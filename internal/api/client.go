package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const userAgent = "mediamorph/0.1.0"

const defaultTimeout = 30 * time.Second

// TokenSource supplies the bearer token attached to outbound requests. An
// empty token means the request goes out unauthenticated. Keeping the token
// behind an explicit source on the client instance (instead of process-global
// default headers) lets independent clients carry independent sessions.
type TokenSource interface {
	AccessToken() string
}

// StaticToken is a TokenSource holding a fixed token. Useful in tests.
type StaticToken string

// AccessToken returns the token value.
func (t StaticToken) AccessToken() string { return string(t) }

// HTTPDoer describes the HTTP client used by the gateway client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the single chokepoint for outbound calls to the conversion
// service. No other component constructs service URLs or attaches auth
// headers.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	tokens     TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenSource attaches a token source to the client.
func WithTokenSource(source TokenSource) Option {
	return func(c *Client) {
		c.tokens = source
	}
}

// WithTimeout bounds every request issued through the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if hc, ok := c.httpClient.(*http.Client); ok && timeout > 0 {
			hc.Timeout = timeout
		}
	}
}

// New creates a gateway client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api base url required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BaseURL returns the normalized service base URL.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do executes the request and decodes a JSON response into out when out is
// non-nil. Failure responses are turned into *Error; transport failures are
// wrapped and carry no status.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return newError(resp.StatusCode, body)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

// Register creates an account. Password length is validated client-side
// before any request goes out.
func (c *Client) Register(ctx context.Context, email, password string) (*User, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	payload := map[string]string{"email": email, "password": password}
	var user User
	if err := c.postJSON(ctx, "/auth/register", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token pair. The endpoint speaks the
// OAuth2 password form dialect, so the email travels as username.
func (c *Client) Login(ctx context.Context, email, password string) (TokenPair, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	var pair TokenPair
	if err := c.postForm(ctx, "/auth/login", form, &pair); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// Refresh exchanges a refresh token for a fresh pair. Callers invoke this
// explicitly; the client never refreshes behind the caller's back.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	payload := map[string]string{"refresh_token": refreshToken}
	var pair TokenPair
	if err := c.postJSON(ctx, "/auth/refresh", payload, &pair); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// Me fetches the current user record. This is the trust-probe: it exists to
// check that the held token is still accepted.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.getJSON(ctx, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListMedia returns the current user's assets of the given kind, newest first.
func (c *Client) ListMedia(ctx context.Context, kind Kind) ([]MediaAsset, error) {
	var assets []MediaAsset
	if err := c.getJSON(ctx, fmt.Sprintf("/%s/list", kind), &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// History returns the user's conversion history for the given kind.
func (c *Client) History(ctx context.Context, kind Kind) ([]HistoryItem, error) {
	var items []HistoryItem
	if err := c.getJSON(ctx, fmt.Sprintf("/%s/history", kind), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// StartConversion submits a conversion job and returns the initial snapshot.
func (c *Client) StartConversion(ctx context.Context, req ConversionRequest) (*ConversionJob, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var job ConversionJob
	if err := c.postJSON(ctx, fmt.Sprintf("/%s/convert", req.Kind()), req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// JobStatus fetches a single job snapshot. The call is read-only and
// idempotent on the server, so independent pollers may safely overlap.
func (c *Client) JobStatus(ctx context.Context, kind Kind, jobID int64) (*ConversionJob, error) {
	if jobID <= 0 {
		return nil, &ValidationError{Field: "conversion", Reason: "conversion id is required"}
	}
	var job ConversionJob
	if err := c.getJSON(ctx, fmt.Sprintf("/%s/status/%d", kind, jobID), &job); err != nil {
		return nil, err
	}
	return &job, nil
}
