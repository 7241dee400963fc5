package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the public Polygon REST endpoint.
const DefaultBaseURL = "https://api.polygon.io"

var (
	// ErrRateLimited is returned on HTTP 429. The client never retries.
	ErrRateLimited = errors.New("polygon: rate limited (429)")
	// ErrMalformedResponse covers undecodable bodies and unexpected status fields.
	ErrMalformedResponse = errors.New("polygon: malformed response")
	// ErrNoAPIKey is returned by NewClient when the key is empty.
	ErrNoAPIKey = errors.New("polygon: api key not set")
)

// HTTPError is a non-2xx answer other than 429.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("polygon: API status %d: %s", e.StatusCode, e.Body)
}

// Client fetches reference data, aggregates and indicators from Polygon.
type Client struct {
	rc       *resty.Client
	apiKey   string
	aggLimit int
	indLimit int
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL    string
	httpClient *http.Client
	aggLimit   int
	indLimit   int
}

// WithBaseURL points the client at another host (tests, proxies).
func WithBaseURL(u string) Option {
	return func(o *clientOptions) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithPageLimits overrides the per-page limits for aggregates and indicators.
func WithPageLimits(aggregates, indicators int) Option {
	return func(o *clientOptions) {
		if aggregates > 0 {
			o.aggLimit = aggregates
		}
		if indicators > 0 {
			o.indLimit = indicators
		}
	}
}

// NewClient constructs a Client with a shared HTTP client.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	o := clientOptions{
		baseURL:  DefaultBaseURL,
		aggLimit: maxLimit,
		indLimit: indicatorLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = newHTTPClient()
	}
	return &Client{
		rc:       newRestClient(o.httpClient, o.baseURL),
		apiKey:   apiKey,
		aggLimit: o.aggLimit,
		indLimit: o.indLimit,
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.rc.GetClient().CloseIdleConnections()
	return nil
}

// getJSON performs one GET and decodes the body into out. target is either a
// path relative to the base URL or an absolute next_url; params may be nil.
func (c *Client) getJSON(ctx context.Context, target string, params map[string]string, out statusCarrier) error {
	req := c.rc.R().
		SetContext(ctx).
		SetQueryParam("apiKey", c.apiKey)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(target)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = redact(ue.URL)
		}
		return fmt.Errorf("GET %s: %w", redact(target), err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code < 200 || code > 299:
		return &HTTPError{StatusCode: code, Body: truncate(resp.String(), 256)}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: parse JSON: %v", ErrMalformedResponse, err)
	}
	// DELAYED is what non-realtime plans get; the payload is still usable.
	switch s := out.status(); s {
	case "OK", "DELAYED":
		return nil
	default:
		return fmt.Errorf("%w: status %q", ErrMalformedResponse, s)
	}
}

// redact strips the query so the api key never lands in logs or errors.
func redact(target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i]
	}
	return target
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
