package emitter

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Octonove/octo-user-copy/pkg/domain/interfaces"
	"github.com/Octonove/octo-user-copy/pkg/domain/model"
	"github.com/Octonove/octo-user-copy/pkg/utils/logging"
	"github.com/Octonove/octo-user-copy/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultAPIPath is where an emitter mounts its export endpoints
	DefaultAPIPath = "/wp-json/usercopy/v1"

	DefaultRolesTimeout = 15 * time.Second
	DefaultUsersTimeout = 30 * time.Second

	defaultMaxBodyBytes = 64 << 20
)

// Client reads the export endpoints of one emitter.
type Client struct {
	baseURL      string
	apiPath      string
	apiKey       string
	userAgent    string
	httpClient   *http.Client
	rolesTimeout time.Duration
	usersTimeout time.Duration
	maxBodyBytes int64
}

var _ interfaces.EmitterClient = &Client{}

type Option func(*Client)

// WithAPIPath overrides DefaultAPIPath
func WithAPIPath(path string) Option {
	return func(c *Client) {
		c.apiPath = "/" + strings.Trim(path, "/")
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeouts sets the per-request timeouts of the roles and users calls.
// Zero keeps the default.
func WithTimeouts(roles, users time.Duration) Option {
	return func(c *Client) {
		if roles > 0 {
			c.rolesTimeout = roles
		}
		if users > 0 {
			c.usersTimeout = users
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification, for
// emitters running with self-signed certificates.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		if !skip {
			return
		}
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- opt-in by flag
		c.httpClient = &http.Client{Transport: tr}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		c.maxBodyBytes = n
	}
}

// New creates a client for the emitter at baseURL. Empty arguments are
// accepted; Configured reports whether the client is usable.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiPath:      DefaultAPIPath,
		apiKey:       strings.TrimSpace(apiKey),
		userAgent:    "octo-user-copy",
		httpClient:   &http.Client{},
		rolesTimeout: DefaultRolesTimeout,
		usersTimeout: DefaultUsersTimeout,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// BaseURL returns the emitter URL without trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpoint(name string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", goerr.Wrap(err, "invalid emitter URL", goerr.V("url", c.baseURL))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", goerr.New("emitter URL must be http or https", goerr.V("url", c.baseURL))
	}

	u.Path = strings.TrimRight(u.Path, "/") + c.apiPath + "/" + name
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// get fetches one endpoint and returns the raw body of a 200 response
func (c *Client) get(ctx context.Context, name string, timeout time.Duration) ([]byte, error) {
	endpoint, err := c.endpoint(name)
	if err != nil {
		return nil, &RequestError{Kind: ErrTransport, Endpoint: name, Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &RequestError{Kind: ErrTransport, Endpoint: name, Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Kind: ErrTransport, Endpoint: name, Cause: redact(err, c.apiKey)}
	}
	defer safe.DrainAndClose(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, &RequestError{Kind: ErrTransport, Endpoint: name, Cause: redact(err, c.apiKey)}
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, &RequestError{
			Kind:     ErrInvalidPayload,
			Endpoint: name,
			Cause:    goerr.New("response body too large", goerr.V("limit", c.maxBodyBytes)),
		}
	}

	logging.From(ctx).Debug("Fetched emitter endpoint",
		"endpoint", name,
		"bytes", len(body),
		"duration", time.Since(started))
	return body, nil
}

func (c *Client) FetchRoles(ctx context.Context) (model.RoleMap, error) {
	body, err := c.get(ctx, "roles", c.rolesTimeout)
	if err != nil {
		return nil, err
	}

	var roles model.RoleMap
	if err := json.Unmarshal(body, &roles); err != nil {
		return nil, &RequestError{Kind: ErrInvalidPayload, Endpoint: "roles", Cause: err}
	}
	return roles, nil
}

func (c *Client) FetchUsers(ctx context.Context) ([]model.RemoteUser, error) {
	body, err := c.get(ctx, "users", c.usersTimeout)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &RequestError{
			Kind:     ErrInvalidPayload,
			Endpoint: "users",
			Cause:    goerr.New("users payload is not a JSON array"),
		}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, &RequestError{Kind: ErrInvalidPayload, Endpoint: "users", Cause: err}
	}
	return model.DecodeUserRecords(elems), nil
}

func (c *Client) FetchDiagnostics(ctx context.Context) (*model.Diagnostics, error) {
	body, err := c.get(ctx, "debug", c.rolesTimeout)
	if err != nil {
		return nil, err
	}

	var diag model.Diagnostics
	if err := json.Unmarshal(body, &diag); err != nil {
		return nil, &RequestError{Kind: ErrInvalidPayload, Endpoint: "debug", Cause: err}
	}
	return &diag, nil
}

// redact removes the API key from errors that embed the request URL
func redact(err error, apiKey string) error {
	if apiKey == "" {
		return err
	}
	msg := err.Error()
	escaped := url.QueryEscape(apiKey)
	if !strings.Contains(msg, apiKey) && !strings.Contains(msg, escaped) {
		return err
	}
	return &redactedError{
		msg:   strings.ReplaceAll(strings.ReplaceAll(msg, escaped, "[REDACTED]"), apiKey, "[REDACTED]"),
		cause: err,
	}
}

type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }
