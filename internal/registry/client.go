package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenk/backoff"
	"github.com/rs/dnscache"

	"github.com/monodeploy/cli/internal/output"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 5
	userAgent         = "monodeploy"
)

// HTTPError is a non-2xx registry response.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

// Error implements the error interface. The body is redacted before it can
// reach a log stream.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("registry returned %d for %s: %s", e.StatusCode, e.URL, output.Redact(e.Body))
}

// IsNotFound reports whether the response was a 404.
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// retryable reports whether the response is worth retrying. Registries
// serve transient 429s and 5xxs; everything else is permanent.
func (e *HTTPError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client is an HTTP client for registry APIs with DNS caching and
// exponential-backoff retry on 429 and 5xx responses.
type Client struct {
	http       *http.Client
	maxRetries int
	token      string
	alwaysAuth bool
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithMaxRetries sets the maximum number of retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithToken sets the bearer token attached to authenticated requests.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithAlwaysAuth attaches the token to every request, reads included.
func WithAlwaysAuth(always bool) Option {
	return func(c *Client) {
		c.alwaysAuth = always
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// NewClient creates a new client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: defaultTimeout, Transport: cachingTransport()},
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// cachingTransport builds a transport whose dialer resolves hosts through a
// refreshing DNS cache.
func cachingTransport() http.RoundTripper {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			resolver.Refresh(true)
		}
	}()

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var dialErr error
			for _, ip := range ips {
				var conn net.Conn
				conn, dialErr = dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if dialErr == nil {
					return conn, nil
				}
			}
			if dialErr != nil {
				return nil, dialErr
			}
			return nil, fmt.Errorf("no addresses for %s", host)
		},
	}
}

// GetJSON fetches url and decodes the response body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any, authed bool) error {
	return c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		c.decorate(req, authed)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := responseError(resp, url); err != nil {
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding response from %s: %w", url, err))
		}
		return nil
	})
}

// PutJSON uploads body as JSON to url.
func (c *Client) PutJSON(ctx context.Context, url string, body []byte) error {
	return c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		c.decorate(req, true)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		return responseError(resp, url)
	})
}

func (c *Client) decorate(req *http.Request, authed bool) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" && (authed || c.alwaysAuth) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) retry(ctx context.Context, op func() error) error {
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries))
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && !httpErr.retryable() {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}

func responseError(resp *http.Response, url string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &HTTPError{StatusCode: resp.StatusCode, URL: url, Body: string(bytes.TrimSpace(body))}
}
