// Package api implements the HTTP client shared by the session manager and
// the conversation engine. It talks to two origins: the primary backend
// (registration, verification, profile) and the local inference backend
// (chat). Bearer credentials are attached uniformly and 401 responses fire a
// single unauthorized callback per failing call.
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
)

// Origin names one of the two configured backends.
type Origin string

const (
	// OriginPrimary is the main API backend (auth and profile).
	OriginPrimary Origin = "primary"
	// OriginLocal is the inference backend (chat endpoints).
	OriginLocal Origin = "local"
)

// DefaultTimeout bounds every request when no explicit timeout is configured.
const DefaultTimeout = 10 * time.Second

// TokenSource supplies the current session credential. An empty string means
// no credential is available and the Authorization header is omitted.
type TokenSource interface {
	Token() string
}

// Client issues JSON requests against the two configured origins.
// The zero value is not usable; construct with NewClient.
type Client struct {
	primaryURL string
	localURL   string
	httpc      *http.Client
	tokens     TokenSource

	// onUnauthorized is invoked once per call that receives a 401, before
	// the error is returned to the caller. Registered by the composition
	// root; the client itself knows nothing about sessions or navigation.
	onUnauthorized func()
}

// NewClient creates a Client for the given base URLs. A non-positive timeout
// falls back to DefaultTimeout.
func NewClient(primaryURL, localURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		primaryURL: strings.TrimRight(primaryURL, "/"),
		localURL:   strings.TrimRight(localURL, "/"),
		httpc:      &http.Client{Timeout: timeout},
	}
}

// SetTokenSource registers the live credential source consulted on every
// call that has no override token.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// OnUnauthorized registers the callback fired when any call gets a 401.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// Timeout reports the configured per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpc.Timeout
}

// callOptions collects per-call overrides.
type callOptions struct {
	overrideToken string
	hasOverride   bool
}

// CallOption customises a single request.
type CallOption func(*callOptions)

// WithToken pins the Authorization header to the given token instead of the
// live token source. Callers that captured a credential at dispatch time use
// this so a mid-flight logout cannot change the credential under them.
func WithToken(token string) CallOption {
	return func(o *callOptions) {
		o.overrideToken = token
		o.hasOverride = true
	}
}

// Do performs a single JSON request against the named origin and decodes a
// 2xx response body into out (out may be nil). Non-2xx responses return
// *HTTPError; timeouts return *TimeoutError; transport failures return
// *NetworkError. There are no retries.
func (c *Client) Do(ctx context.Context, origin Origin, method, path string, body, out any, opts ...CallOption) error {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	base, err := c.baseURL(origin)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: marshalling request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return fmt.Errorf("api: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token := o.overrideToken
	if !o.hasOverride && c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) && ue.Timeout() {
			return &TimeoutError{Method: method, Path: path, Limit: c.httpc.Timeout}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return &TimeoutError{Method: method, Path: path, Limit: c.httpc.Timeout}
		}
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{Status: resp.StatusCode}
		if payload := decodePayload(resp.Body); payload != nil {
			httpErr.Payload = payload
			if msg, ok := payload["message"].(string); ok {
				httpErr.Message = msg
			}
		}
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return httpErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("api: decoding response: %w", err)
		}
	}

	return nil
}

func (c *Client) baseURL(origin Origin) (string, error) {
	switch origin {
	case OriginPrimary:
		return c.primaryURL, nil
	case OriginLocal:
		return c.localURL, nil
	default:
		return "", fmt.Errorf("api: unknown origin %q", origin)
	}
}

// decodePayload parses an error body, returning nil when the body is empty
// or not a JSON object.
func decodePayload(r io.Reader) map[string]any {
	var payload map[string]any
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil
	}
	return payload
}
