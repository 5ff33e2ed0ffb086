package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// TokenStore is where the client reads the access token from and reports the
// outcome of a refresh to. The application store implements it.
type TokenStore interface {
	AccessToken() string
	TokenRefreshed(token string)
	RefreshFailed(err error)
}

// BreakerSettings tunes the circuit breaker wrapped around every request
type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Breaker    BreakerSettings
	Logger     *logrus.Logger
}

// Client talks to the TaskFlow REST API.
type Client struct {
	base    *url.URL
	http    *http.Client
	tokens  TokenStore
	breaker *gobreaker.CircuitBreaker
	refresh singleflight.Group
	log     *logrus.Logger
}

// routes that never trigger the refresh-and-retry path
var authRoutes = map[string]bool{
	"/auth/login":           true,
	"/auth/register":        true,
	"/auth/refresh":         true,
	"/auth/forgot-password": true,
	"/auth/verify-otp":      true,
	"/auth/reset-password":  true,
}

// New builds a client for opts.BaseURL.
func New(opts Options, tokens TokenStore) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}

	// a caller-supplied client is copied, never modified
	httpClient := &http.Client{}
	if opts.HTTPClient != nil {
		clone := *opts.HTTPClient
		httpClient = &clone
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient.Jar = jar
	}
	if httpClient.Timeout == 0 && opts.Timeout > 0 {
		httpClient.Timeout = opts.Timeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	maxFailures := opts.Breaker.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openTimeout := opts.Breaker.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 10 * time.Second
	}

	c := &Client{
		base:   base,
		http:   httpClient,
		tokens: tokens,
		log:    logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "taskflow-api",
		MaxRequests: 1,
		Timeout:     openTimeout,
		IsSuccessful: func(err error) bool {
			var ce *canceledError
			return err == nil || errors.As(err, &ce)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("circuit breaker state changed")
		},
	})
	return c, nil
}

// BaseURL returns the API origin the client targets
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Cookies returns the cookies held for the API origin, including the refresh cookie.
func (c *Client) Cookies() []*http.Cookie {
	if c.http.Jar == nil {
		return nil
	}
	return c.http.Jar.Cookies(c.base)
}

// SetCookies restores cookies saved by a previous run.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	if c.http.Jar == nil || len(cookies) == 0 {
		return
	}
	c.http.Jar.SetCookies(c.base, cookies)
}

type response struct {
	status int
	body   []byte
}

// serverError marks 5xx responses so the breaker counts them as failures.
type serverError struct {
	resp *response
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error: status %d", e.resp.status)
}

// canceledError is a request abandoned by its caller. It does not count
// against the breaker.
type canceledError struct {
	err error
}

func (e *canceledError) Error() string {
	return e.err.Error()
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		requestID := uuid.NewString()
		req.Header.Set("X-Request-ID", requestID)
		if c.tokens != nil {
			if token := c.tokens.AccessToken(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		res, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &canceledError{err: ctx.Err()}
			}
			return nil, err
		}
		defer res.Body.Close()

		data, err := io.ReadAll(res.Body)
		if err != nil {
			return nil, err
		}
		c.log.WithFields(logrus.Fields{
			"method":     method,
			"path":       path,
			"status":     res.StatusCode,
			"request_id": requestID,
		}).Debug("api request")

		resp := &response{status: res.StatusCode, body: data}
		if res.StatusCode >= http.StatusInternalServerError {
			return resp, &serverError{resp: resp}
		}
		return resp, nil
	})

	var se *serverError
	var ce *canceledError
	switch {
	case errors.As(err, &se):
		return se.resp, nil
	case errors.As(err, &ce):
		return nil, ce.err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, &APIError{Message: "Service temporarily unavailable", Err: err}
	case err != nil:
		return nil, &APIError{Message: "Network error", Err: err}
	}
	return result.(*response), nil
}

// do performs one call, refreshing the token and retrying exactly once when a
// non-auth route answers 401. out, when non-nil, receives the decoded body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = data
	}

	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}

	if resp.status == http.StatusUnauthorized && !authRoutes[routeOf(path)] {
		if _, rerr := c.Refresh(ctx); rerr == nil {
			c.log.WithField("path", path).Info("token refreshed, retrying request")
			resp, err = c.send(ctx, method, path, payload)
			if err != nil {
				return err
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		} else {
			c.log.WithError(rerr).WithField("path", path).Warn("token refresh failed")
		}
	}

	if resp.status >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || len(resp.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type refreshResponse struct {
	Token string `json:"token"`
	Data  struct {
		Token string `json:"token"`
	} `json:"data"`
}

// Refresh exchanges the refresh cookie for a new access token. Concurrent
// callers share one request, which outlives any single caller's context and
// is bounded by the client timeout. Its outcome is reported to the TokenStore;
// a caller whose context ends first gets ctx.Err() and reports nothing.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.refresh.DoChan("refresh", func() (interface{}, error) {
		var out refreshResponse
		err := c.do(shared, http.MethodPost, "/auth/refresh", nil, &out)
		token := out.Token
		if token == "" {
			token = out.Data.Token
		}
		if err == nil && token == "" {
			err = &APIError{Status: http.StatusUnauthorized, Message: "Token refresh failed"}
		}
		if c.tokens != nil {
			if err != nil {
				c.tokens.RefreshFailed(err)
			} else {
				c.tokens.TokenRefreshed(token)
			}
		}
		return token, err
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func routeOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// call decodes the data field of an enveloped response.
func call[T any](ctx context.Context, c *Client, method, path string, in any) (T, string, error) {
	var env envelope[T]
	err := c.do(ctx, method, path, in, &env)
	return env.Data, env.Message, err
}

type envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func escape(id string) string {
	return url.PathEscape(id)
}
