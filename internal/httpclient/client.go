package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rsilvagit/go-empleo/internal/errors"
)

const defaultUserAgent = "go-empleo/1.0"

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 4 << 10

// TokenSource supplies the bearer token for outgoing requests.
// An empty token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Options configures the API HTTP client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	ProxyURL  string
	UserAgent string
	Tokens    TokenSource
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = 5 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	return o
}

// Client talks JSON to the job API. It never retries: every failure is
// returned to the caller as a typed domain error.
type Client struct {
	inner     *http.Client
	base      *url.URL
	userAgent string
	tokens    TokenSource
	logger    *zap.Logger
}

// New creates a Client with the given options.
func New(opts Options, logger *zap.Logger) (*Client, error) {
	opts = opts.withDefaults()

	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("httpclient: invalid base URL %q", opts.BaseURL)
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		Proxy:           http.ProxyFromEnvironment,
	}

	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("httpclient: invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		inner:     &http.Client{Transport: transport, Timeout: opts.Timeout},
		base:      base,
		userAgent: opts.UserAgent,
		tokens:    opts.Tokens,
		logger:    logger,
	}, nil
}

// Do stamps the standard headers and executes the request. Transport
// failures, including deadline expiry, come back as NETWORK errors.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.inner.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(req.Context().Err(), context.DeadlineExceeded) {
			return nil, errors.Network("request timed out", err)
		}
		return nil, errors.Network("executing request", err)
	}

	c.logger.Debug("request done",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tkn := c.tokens.Token(); tkn != "" {
			req.Header.Set("Authorization", "Bearer "+tkn)
		}
	}
}

// JSON sends body (if non-nil) as JSON to path under the base URL and
// decodes a 2xx response into out (if non-nil). Non-2xx responses become
// REQUEST errors carrying the status code; undecodable bodies become
// PROTOCOL errors.
func (c *Client) JSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.InvalidInput("encoding request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return errors.InvalidInput("building request", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.Request(resp.StatusCode, serverMessage(raw, resp.Status))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Network("reading response body", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Protocol("decoding response", err)
	}
	return nil
}

// serverMessage pulls a human readable message out of an error body.
func serverMessage(raw []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Message != "":
			return body.Message
		case body.Error != "":
			return body.Error
		case body.Detail != nil:
			if s, ok := body.Detail.(string); ok {
				return s
			}
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" && len(s) < 200 {
		return s
	}
	return fallback
}
