// Package upstream is the HTTP client for the club-management API the
// gateway fronts. It classifies failures into the two signals the navigation
// layer distinguishes: a rejected credential (terminal) and everything else
// (degradable).
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"clubgate/internal/identity"
	"clubgate/internal/menu"
	"clubgate/pkg/platform/circuit"
	"clubgate/pkg/platform/sentinel"
)

// envelope is the upstream response wrapper. Code 0 and 200 both mean success.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) ok() bool { return e.Code == 0 || e.Code == 200 }

// AuthRejectHook runs when the upstream returns 401: the global
// credential-clear lives here, not in the navigation guard.
type AuthRejectHook func(ctx context.Context)

// Client talks to the upstream API over an authenticated channel. A shared
// circuit breaker short-circuits calls while the upstream is down, so every
// session degrades fast instead of waiting out the timeout.
type Client struct {
	base         string
	http         *http.Client
	logger       *slog.Logger
	breaker      *circuit.Breaker
	onAuthReject AuthRejectHook
}

type Option func(*Client)

// WithAuthRejectHook installs the credential-clear callback.
func WithAuthRejectHook(hook AuthRejectHook) Option {
	return func(c *Client) { c.onAuthReject = hook }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		base:    baseURL,
		http:    http.DefaultClient,
		logger:  logger,
		breaker: circuit.New("upstream", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// FetchUserMenuTree returns the role-scoped menu tree for the bearer token.
func (c *Client) FetchUserMenuTree(ctx context.Context, bearer string) ([]menu.Node, error) {
	var tree []menu.Node
	if err := c.get(ctx, "/menus/tree", bearer, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// loginPayload matches the upstream login contract.
type loginPayload struct {
	JobNumber string `json:"jobNumber"`
	Password  string `json:"password"`
}

type loginResult struct {
	Token string `json:"token"`
}

// Login exchanges credentials for an upstream bearer token.
func (c *Client) Login(ctx context.Context, jobNumber, password string) (string, error) {
	body, err := json.Marshal(loginPayload{JobNumber: jobNumber, Password: password})
	if err != nil {
		return "", fmt.Errorf("encode login payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/users/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result loginResult
	if err := c.do(req, &result); err != nil {
		return "", err
	}
	if result.Token == "" {
		return "", fmt.Errorf("login succeeded without token: %w", sentinel.ErrInvalidState)
	}
	return result.Token, nil
}

// profileResult matches the upstream user info contract.
type profileResult struct {
	UserID       int64  `json:"userId"`
	RoleID       int    `json:"roleId"`
	ClubID       int64  `json:"clubId"`
	DepartmentID int64  `json:"departmentId"`
	NickName     string `json:"nickName"`
	AvatarURL    string `json:"avatarUrl"`
}

// FetchProfile resolves the user profile behind a bearer token.
func (c *Client) FetchProfile(ctx context.Context, bearer string) (identity.Identity, error) {
	var profile profileResult
	if err := c.get(ctx, "/users/info", bearer, &profile); err != nil {
		return identity.Identity{}, err
	}
	return identity.Identity{
		Token:        bearer,
		UserID:       profile.UserID,
		RoleID:       profile.RoleID,
		ClubID:       profile.ClubID,
		DepartmentID: profile.DepartmentID,
		NickName:     profile.NickName,
		AvatarURL:    profile.AvatarURL,
	}, nil
}

func (c *Client) get(ctx context.Context, path, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.breaker.IsOpen() {
		return fmt.Errorf("%s %s: circuit open: %w", req.Method, req.URL.Path, sentinel.ErrUnavailable)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure(req)
		return fmt.Errorf("%s %s: %v: %w", req.Method, req.URL.Path, err, sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// The upstream is responsive; a rejected credential is not a fault.
		c.recordSuccess()
		if c.onAuthReject != nil {
			c.onAuthReject(req.Context())
		}
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, sentinel.ErrAuthRejected)
	}
	if resp.StatusCode >= 500 {
		c.recordFailure(req)
		return fmt.Errorf("%s %s: status %d: %w", req.Method, req.URL.Path, resp.StatusCode, sentinel.ErrUnavailable)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.recordSuccess()
		return fmt.Errorf("%s %s: status %d: %w", req.Method, req.URL.Path, resp.StatusCode, sentinel.ErrUnavailable)
	}
	c.recordSuccess()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: decode envelope: %v: %w", req.Method, req.URL.Path, err, sentinel.ErrUnavailable)
	}
	if !env.ok() {
		c.logger.WarnContext(req.Context(), "upstream rejected request",
			"path", req.URL.Path,
			"code", env.Code,
			"message", env.Message,
		)
		return fmt.Errorf("%s %s: upstream code %d: %w", req.Method, req.URL.Path, env.Code, sentinel.ErrUnavailable)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: decode data: %v: %w", req.Method, req.URL.Path, err, sentinel.ErrUnavailable)
		}
	}
	return nil
}

func (c *Client) recordFailure(req *http.Request) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(req.Context(), "upstream circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *Client) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("upstream circuit closed", "breaker", c.breaker.Name())
	}
}
