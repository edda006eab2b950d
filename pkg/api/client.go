// Package api is the REST client for the matchmaking platform. All calls
// attach the session bearer token, retry transient failures with
// exponential backoff, and perform a single refresh-and-retry on 401.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"confmatch/pkg/config"
	"confmatch/pkg/logger"
	"confmatch/pkg/session"
)

// ErrAuthExpired means the access token expired and the refresh attempt
// failed. Callers should return the user to sign-in; no error dialog is
// shown for this case.
var ErrAuthExpired = errors.New("api: authentication expired")

// Error is a non-2xx platform response.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Temporary reports whether the request may be retried (5xx only; client
// errors are never retried).
func (e *Error) Temporary() bool { return e.Status >= 500 }

// Client is safe for concurrent use.
type Client struct {
	base       string
	http       *fasthttp.Client
	sess       *session.Session
	timeout    time.Duration
	maxRetries int
}

func New(cfg config.APIConfig, sess *session.Session) *Client {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 2
	}
	return &Client{
		base:       cfg.BaseURL,
		http:       &fasthttp.Client{Name: "confmatch-client"},
		sess:       sess,
		timeout:    cfg.Timeout.Or(30 * time.Second),
		maxRetries: retries,
	}
}

// do performs one authenticated request with retry and refresh handling.
// body and out may be nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.doOnce(method, path, body, out, true)
		if err == nil {
			return nil
		}
		lastErr = err

		var apiErr *Error
		if errors.As(err, &apiErr) {
			if apiErr.Status == fasthttp.StatusUnauthorized {
				if rerr := c.refreshSession(); rerr != nil {
					return ErrAuthExpired
				}
				// one retry with the rotated token; a second 401 is final
				if err := c.doOnce(method, path, body, out, true); err == nil {
					return nil
				} else if errors.As(err, &apiErr) && apiErr.Status == fasthttp.StatusUnauthorized {
					return ErrAuthExpired
				} else {
					lastErr = err
				}
			} else if !apiErr.Temporary() {
				return err
			}
		}

		if attempt < c.maxRetries {
			delay := time.Duration(1<<attempt) * time.Second
			logger.Debug("api_retry", "method", method, "path", path, "attempt", attempt+1, "delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}

func (c *Client) doOnce(method, path string, body, out any, withAuth bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.base + path)
	req.Header.SetContentType("application/json")
	if withAuth {
		if tok, err := c.sess.AccessToken(); err == nil {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		req.SetBody(data)
	}

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return &Error{Status: status, Message: errorMessage(resp.Body())}
	}
	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode response from %s: %w", path, err)
		}
	}
	return nil
}

// refreshSession exchanges the refresh token for a new pair and rotates
// the session. Called at most once per failing request.
func (c *Client) refreshSession() error {
	rt, err := c.sess.RefreshToken()
	if err != nil {
		return err
	}
	var res struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.doOnce("POST", "/auth/refresh", map[string]string{"refresh_token": rt}, &res, false); err != nil {
		logger.Warn("token_refresh_failed", "error", err)
		return err
	}
	if err := c.sess.Rotate(res.AccessToken, res.RefreshToken); err != nil {
		return err
	}
	logger.Info("token_refreshed")
	return nil
}

// errorMessage pulls a human message out of the platform's error body,
// which is either {"error":{"message":...}} or {"error":"..."}.
func errorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	var flat struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.Error != "" {
		return flat.Error
	}
	if len(body) > 0 {
		return string(body)
	}
	return "request failed"
}

// Login signs in and begins the session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var res struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.doOnce("POST", "/auth/login", map[string]string{"email": email, "password": password}, &res, false); err != nil {
		return err
	}
	return c.sess.Begin(res.AccessToken, res.RefreshToken)
}

// Health probes the platform health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "GET", "/health", nil, nil)
}
