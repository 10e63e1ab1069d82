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

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	apperrors "github.com/matzehuels/adminpanel/pkg/errors"
	"github.com/matzehuels/adminpanel/pkg/observability"
)

const (
	defaultTimeout = 10 * time.Second

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 16 << 20
)

var (
	// ErrNotFound is returned when the API answers 404.
	ErrNotFound = errors.New("resource not found")

	// ErrRejected is returned for 4xx responses other than 404.
	ErrRejected = errors.New("request rejected")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// Options configures a Client.
type Options struct {
	// Token is sent as "Authorization: Bearer <token>" when non-empty.
	Token string
	// Timeout bounds each request; zero uses 10s.
	Timeout time.Duration
	// Headers are applied to every request.
	Headers map[string]string
	// HTTPClient overrides the underlying client (tests use httptest clients).
	HTTPClient *http.Client
	// Logger receives debug output; nil uses log.Default().
	Logger *log.Logger
}

// Client performs JSON requests against the admin API.
type Client struct {
	http    *http.Client
	base    *url.URL
	headers map[string]string
	logger  *log.Logger
}

// NewClient creates a Client for baseURL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	if err := apperrors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse base URL")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	headers := map[string]string{
		"Accept": "application/json",
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}
	if opts.Token != "" {
		headers["Authorization"] = "Bearer " + opts.Token
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		http:    httpClient,
		base:    base,
		headers: headers,
		logger:  logger,
	}, nil
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.base.String() }

// GetRaw performs a GET and returns the undecoded response body.
func (c *Client) GetRaw(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, params, nil)
}

// Get performs a GET and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, path string, params url.Values, v any) error {
	body, err := c.GetRaw(ctx, path, params)
	if err != nil {
		return err
	}
	return decode(body, v)
}

// PostRaw JSON-encodes body, POSTs it and returns the undecoded response.
func (c *Client) PostRaw(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// Post JSON-encodes body, POSTs it and decodes the response into v.
// A nil v discards the response.
func (c *Client) Post(ctx context.Context, path string, body, v any) error {
	resp, err := c.PostRaw(ctx, path, body)
	if err != nil || v == nil {
		return err
	}
	return decode(resp, v)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	u := c.resolve(path, params)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "encode %s %s body", method, path)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "build %s %s", method, path)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, u.Host, u.Path, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeNetwork, fmt.Errorf("%w: %v", ErrNetwork, err), "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	hooks.OnResponse(ctx, method, u.Host, u.Path, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeNetwork, fmt.Errorf("%w: read body: %v", ErrNetwork, err), "%s %s", method, path)
	}

	if err := checkStatus(resp.StatusCode); err != nil {
		c.logger.Debug("api error", "method", method, "path", path, "status", resp.StatusCode, "body", snippet(data))
		return nil, apperrors.Wrap(apperrors.CodeForStatus(resp.StatusCode), err, "%s %s", method, path)
	}
	return data, nil
}

// resolve joins path and params onto the base URL. Paths are always treated
// as relative to the base, so a base of https://host/cms keeps its prefix.
func (c *Client) resolve(path string, params url.Values) *url.URL {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = ""
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return &u
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 400 && code < 500:
		return fmt.Errorf("%w: status %d", ErrRejected, code)
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeUnexpectedShape, err, "decode response")
	}
	return nil
}

func snippet(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "…"
	}
	return string(b)
}
