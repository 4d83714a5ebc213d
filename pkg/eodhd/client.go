// Package eodhd is a thin client for the EODHD REST API. It forwards query
// parameters unchanged and attaches the api_token; all data modeling lives
// upstream.
package eodhd

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const requestTimeout = 30 * time.Second

// maxErrorBody caps how much of an upstream error body is echoed back.
const maxErrorBody = 512

type tokenCtxKey struct{}

// WithAPIToken returns a context carrying a per-request API token. The OAuth
// middleware uses this to inject the authenticated user's own EODHD key, and
// the legacy transport uses it for query/header-supplied keys.
func WithAPIToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

// APITokenFromContext reports the per-request token override, if any.
func APITokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenCtxKey{}).(string)
	return token, ok && token != ""
}

// Client issues GET requests against the EODHD API.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	logger  zerolog.Logger
}

// NewClient builds a client rooted at baseURL using apiKey as the fallback
// token for requests that carry no override.
func NewClient(baseURL, apiKey string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: requestTimeout},
		logger:  logger.With().Str("component", "eodhd_client").Logger(),
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// ResolveToken applies the same precedence Get uses: explicit value first,
// then a context override, then the configured key. The websocket feeds need
// this because they authenticate at dial time rather than per request.
func (c *Client) ResolveToken(ctx context.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if override, ok := APITokenFromContext(ctx); ok {
		return override
	}
	return c.apiKey
}

// Get requests {base}{path}?{query} and returns the raw response body.
// Token resolution order: explicit api_token in query, context override,
// configured key. Non-2xx responses come back as errors carrying the upstream
// status and a body snippet so callers can pass them through.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	if query.Get("api_token") == "" {
		token := c.apiKey
		if override, ok := APITokenFromContext(ctx); ok {
			token = override
		}
		query.Set("api_token", token)
	}

	reqURL := c.baseURL + "/" + strings.TrimLeft(path, "/") + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request to EODHD API failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read EODHD response")
	}

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("upstream request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, errors.Errorf("EODHD API returned %s: %s", resp.Status, strings.TrimSpace(snippet))
	}
	return body, nil
}
