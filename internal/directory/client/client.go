// Package client is the gateway's HTTP client for the user directory service.
// It owns error classification for that remote call: outages and 5xx map to
// ErrDirectoryUnavailable, 4xx registration rejections to
// InvalidRegistrationError, and a missing user is a normal false result.
package client

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"fitness-gateway/internal/identity"
)

// ErrDirectoryUnavailable is returned for transport failures, timeouts, and
// 5xx responses from the user directory. Callers treat it as a degraded
// dependency, not a client error.
var ErrDirectoryUnavailable = errors.New("user directory unavailable")

// InvalidRegistrationError is a 4xx rejection of a registration payload
// (e.g. duplicate identity or malformed request). It carries the upstream
// response for diagnostics. Under concurrent first logins this is the
// losing side of the registration race and is benign.
type InvalidRegistrationError struct {
	StatusCode int
	Body       string
}

func (e *InvalidRegistrationError) Error() string {
	return fmt.Sprintf("directory rejected registration (status %d): %s", e.StatusCode, e.Body)
}

// User is the directory's user record as returned by register.
type User struct {
	ID         string    `json:"id"`
	KeycloakID string    `json:"keyCloakId"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Client calls the user directory service. Both operations are bounded by
// the configured per-call timeout layered on the caller's context.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// New returns a Client for the directory at baseURL. timeout bounds each
// remote call; zero or negative selects 3s.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		timeout: timeout,
	}
}

// Exists reports whether a user with the given subject id is registered.
// A 4xx response (including 404) is a normal false result; only transport
// failures, timeouts, and 5xx responses return ErrDirectoryUnavailable.
func (c *Client) Exists(ctx context.Context, subjectID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/api/users/" + url.PathEscape(subjectID) + "/validate"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	switch {
	case resp.StatusCode >= 500:
		return false, fmt.Errorf("%w: status %d: %s", ErrDirectoryUnavailable, resp.StatusCode, body)
	case resp.StatusCode >= 400:
		return false, nil
	}

	var exists bool
	if err := json.Unmarshal(body, &exists); err != nil {
		return false, fmt.Errorf("%w: malformed validate response: %v", ErrDirectoryUnavailable, err)
	}
	return exists, nil
}

// Register creates the user described by req and returns the stored record.
// 4xx rejections return *InvalidRegistrationError; transport failures,
// timeouts, and 5xx responses return ErrDirectoryUnavailable.
func (c *Client) Register(ctx context.Context, req identity.RegisterRequest) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode registration: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/users/register", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d: %s", ErrDirectoryUnavailable, resp.StatusCode, body)
	case resp.StatusCode >= 400:
		return nil, &InvalidRegistrationError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("%w: malformed register response: %v", ErrDirectoryUnavailable, err)
	}
	return &user, nil
}
