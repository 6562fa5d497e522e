// Package client is the HTTP client for the LeaseIQ API server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/leaseiq/leaseiq/internal/model"
)

// Client calls the LeaseIQ API. The zero token is valid for the public auth
// endpoints; everything else requires SetToken first.
type Client struct {
	baseURL     string
	token       string
	tokenSource func() string
	http        *http.Client
}

// New creates an API client. baseURL has no trailing slash and no /api
// suffix, e.g. "http://localhost:5000".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken sets the bearer token sent on authenticated requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// SetTokenSource installs a callback consulted per request, so the token can
// live somewhere that is populated after the client is constructed. A
// non-empty result takes precedence over SetToken.
func (c *Client) SetTokenSource(fn func() string) {
	c.tokenSource = fn
}

// Signup registers a new account and returns the issued session.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*model.AuthResponse, error) {
	var out model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", model.SignupRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and returns the issued session.
func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthResponse, error) {
	var out model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", model.LoginRequest{
		Email:    email,
		Password: password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Leases fetches the user's saved leases, newest first.
func (c *Client) Leases(ctx context.Context, userID int) ([]model.Lease, error) {
	var out []model.Lease
	if err := c.do(ctx, http.MethodGet, "/api/leases/"+strconv.Itoa(userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveLease upserts one lease.
func (c *Client) SaveLease(ctx context.Context, userID int, lease *model.Lease) error {
	return c.do(ctx, http.MethodPost, "/api/leases/save", model.SaveLeaseRequest{
		UserID: userID,
		Data:   *lease,
	}, nil)
}

// DeleteLease deletes one lease by id.
func (c *Client) DeleteLease(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/leases/"+strconv.FormatInt(id, 10), nil, nil)
}

// SimulatorChat sends one negotiation message to a dealer thread.
func (c *Client) SimulatorChat(ctx context.Context, req *model.SimulatorChatRequest) (*model.SimulatorChatResponse, error) {
	var out model.SimulatorChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/simulator/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggestions fetches the canned question menu for a dealer thread.
func (c *Client) Suggestions(ctx context.Context, threadID string) ([]model.Suggestion, error) {
	var out []model.Suggestion
	if err := c.do(ctx, http.MethodGet, "/api/simulator/suggestions/"+threadID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := c.token
	if c.tokenSource != nil {
		if t := c.tokenSource(); t != "" {
			token = t
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("LeaseIQ API unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}
	return nil
}

// apiError turns a {"message": "..."} error body into an error.
func apiError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		return fmt.Errorf("%s (status %d)", body.Message, resp.StatusCode)
	}
	return fmt.Errorf("LeaseIQ API returned status %d", resp.StatusCode)
}
