package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/tradeconsole/internal/common"
	"github.com/dmitrijs2005/tradeconsole/internal/console/metrics"
	"github.com/dmitrijs2005/tradeconsole/internal/console/models"
	"github.com/dmitrijs2005/tradeconsole/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const DefaultTimeout = 15 * time.Second

type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	tokens oauth2.TokenSource
}

type Option func(*HTTPClient)

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying transport client. Its Timeout is
// kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *HTTPClient) { c.tokens = ts }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *HTTPClient) { c.metrics = m }
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource installs the bearer source after construction, for callers
// whose token owner itself depends on the client.
func (c *HTTPClient) SetTokenSource(ts oauth2.TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

func (c *HTTPClient) tokenSource() oauth2.TokenSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, PathLogin, loginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Signup(ctx context.Context, p models.SignupPayload) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, PathSignup, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, email, otp string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, PathVerifyOTP, verifyOTPRequest{Email: email, OTP: otp}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.do(ctx, http.MethodPost, PathForgotPassword, forgotPasswordRequest{Email: email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ResetPassword(ctx context.Context, email, otp, newPassword string) (*MessageResponse, error) {
	var out MessageResponse
	req := resetPasswordRequest{Email: email, OTP: otp, NewPassword: newPassword}
	if err := c.do(ctx, http.MethodPost, PathResetPassword, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GoogleLogin(ctx context.Context, credential string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, PathGoogle, googleLoginRequest{Token: credential}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.UserProfile, error) {
	var out models.UserProfile
	if err := c.do(ctx, http.MethodGet, PathMe, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Memberships returns the caller's memberships. A body that is not a JSON
// array is treated as an empty list.
func (c *HTTPClient) Memberships(ctx context.Context) ([]models.Membership, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, PathMemberships, nil, &raw); err != nil {
		return nil, err
	}
	var out []models.Membership
	if err := json.Unmarshal(raw, &out); err != nil {
		return []models.Membership{}, nil
	}
	return out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &APIError{Message: msgNetwork, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, requestID)

	if ts := c.tokenSource(); ts != nil {
		if tok, err := ts.Token(); err == nil && tok != nil && tok.AccessToken != "" {
			tok.SetAuthHeader(req)
		}
	}

	log := c.log.With("method", method, "path", path, "request_id", requestID)
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		apiErr := transportError(err)
		reason := "network"
		if apiErr.Timeout {
			reason = "timeout"
		}
		c.metrics.ObserveGateway(path, 0, reason, time.Since(started))
		log.Warn(ctx, "gateway request failed", "error", err)
		return apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	c.metrics.ObserveGateway(path, resp.StatusCode, "", time.Since(started))
	if err != nil {
		log.Warn(ctx, "gateway response read failed", "status", resp.StatusCode, "error", err)
		return transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debug(ctx, "gateway returned error status", "status", resp.StatusCode)
		return statusError(resp.StatusCode, data)
	}

	log.Debug(ctx, "gateway request done", "status", resp.StatusCode)

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: msgInvalidResponse, Err: err}
	}
	return nil
}

func transportError(err error) *APIError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &APIError{Timeout: true, Message: msgTimeout, Err: err}
	}
	return &APIError{Message: msgNetwork, Err: err}
}
