// Package client is the Go consumer of the login API: it issues a token,
// hands the deep link to the user, and polls the status endpoint until the
// handshake reaches a terminal state.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSuccess   Status = "success"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
)

// Terminal reports whether polling can stop.
func (s Status) Terminal() bool {
	return s != StatusPending
}

var (
	// ErrNotFound is returned when the server does not know the token.
	ErrNotFound = errors.New("token not found")
	// ErrTimedOut is returned by Await when the token's deadline plus
	// slack passed without a terminal status being observed.
	ErrTimedOut = errors.New("login wait timed out")
)

const (
	defaultPollInterval = 2 * time.Second

	// Extra wall-clock slack past the token's own expiry before Await
	// gives up; covers clock drift and one last poll.
	awaitSlack = 30 * time.Second
)

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
}

type Token struct {
	Token     string    `json:"token"`
	DeepLink  string    `json:"deep_link"`
	ExpiresAt time.Time `json:"expires_at"`
}

type TokenStatus struct {
	Status       Status `json:"status"`
	User         *User  `json:"user,omitempty"`
	SessionToken string `json:"session_token,omitempty"`
}

type Client struct {
	baseURL  string
	http     *http.Client
	interval time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPollInterval overrides the fixed polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.interval = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		interval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue mints a fresh login token.
func (c *Client) Issue(ctx context.Context) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", nil)
	if err != nil {
		return nil, err
	}
	var out Token
	if err := c.do(req, http.StatusCreated, &out); err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &out, nil
}

// Status reads the current token state.
func (c *Client) Status(ctx context.Context, token string) (*TokenStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.statusURL(token), nil)
	if err != nil {
		return nil, err
	}
	var out TokenStatus
	if err := c.do(req, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("token status: %w", err)
	}
	return &out, nil
}

// Cancel tells the server the user gave up on this token. Best effort.
func (c *Client) Cancel(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.statusURL(token), nil)
	if err != nil {
		return err
	}
	if err := c.do(req, http.StatusNoContent, nil); err != nil {
		return fmt.Errorf("cancel token: %w", err)
	}
	return nil
}

// Await polls until the token reaches a terminal state and returns that
// state exactly once. It stops at the token's expiry plus slack, and on
// ctx cancellation it fires a best-effort server-side cancel so the token
// does not linger as pending.
func (c *Client) Await(ctx context.Context, token Token) (*TokenStatus, error) {
	deadline := time.Until(token.ExpiresAt) + awaitSlack
	waitCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			// Tell the server we gave up; a fresh context because
			// ours is already done.
			cancelCtx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
			_ = c.Cancel(cancelCtx, token.Token)
			cancelFn()

			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrTimedOut
		case <-ticker.C:
			st, err := c.Status(waitCtx, token.Token)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return nil, err
				}
				// Transient server or network trouble: keep polling
				// until the deadline decides.
				continue
			}
			if st.Status.Terminal() {
				return st, nil
			}
		}
	}
}

func (c *Client) statusURL(token string) string {
	return c.baseURL + "/auth/token?token=" + url.QueryEscape(token)
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
