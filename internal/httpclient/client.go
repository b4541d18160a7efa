package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
	"github.com/google/go-querystring/query"
	"golang.org/x/time/rate"
)

// PathArg is a scalar argument appended as the final path segment of a read call
// instead of being encoded as a query string.
type PathArg string

// Options configures a Client.
type Options struct {
	BaseURL           string
	Version           string
	Language          string
	Format            string
	APIKey            string
	UserAgent         string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client manages making HTTP requests to the API.
type Client struct {
	baseURL    string
	version    string
	format     string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu       sync.RWMutex // Protects apiKey and language
	apiKey   string
	language string
}

// HTTPError is returned when the API answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api request failed: status %d, body: %s", e.StatusCode, e.Body)
}

// Is maps transport statuses onto the shared sentinels.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case coreErrors.ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case coreErrors.ErrServiceUnavailable:
		return e.StatusCode >= 500
	case coreErrors.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case coreErrors.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// New creates a new internal HTTP client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		version:    opts.Version,
		format:     opts.Format,
		userAgent:  opts.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		apiKey:     opts.APIKey,
		language:   opts.Language,
	}
}

// SetAPIKey replaces the key used for subsequent requests.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = key
}

// APIKey returns the key currently in use.
func (c *Client) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// Language returns the language path segment currently in use.
func (c *Client) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.language
}

// EncodeArgs renders args in a canonical form. url.Values and go-querystring output are
// sorted by key, so equal arguments always encode identically.
func EncodeArgs(args interface{}) (string, error) {
	switch v := args.(type) {
	case nil:
		return "", nil
	case PathArg:
		return string(v), nil
	case url.Values:
		return v.Encode(), nil
	default:
		values, err := query.Values(args)
		if err != nil {
			return "", fmt.Errorf("failed to encode query parameters: %w", err)
		}
		return values.Encode(), nil
	}
}

// ReadURL builds {base}/{version}/{method}/{lang}/{format}/{apikey} plus the encoded args.
func (c *Client) ReadURL(method string, args interface{}) (string, error) {
	c.mu.RLock()
	apiKey, language := c.apiKey, c.language
	c.mu.RUnlock()

	fullURL, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	segments := []string{c.version, method, language, c.format, apiKey}
	fullURL.Path = strings.TrimRight(fullURL.Path, "/") + "/" + strings.Join(segments, "/")

	switch v := args.(type) {
	case nil:
	case PathArg:
		escaped := fullURL.EscapedPath()
		fullURL.Path += "/" + string(v)
		fullURL.RawPath = escaped + "/" + url.PathEscape(string(v))
	default:
		encoded, err := EncodeArgs(args)
		if err != nil {
			return "", err
		}
		fullURL.RawQuery = encoded
	}
	return fullURL.String(), nil
}

// WriteURL builds {base}/{version}/{method}.
func (c *Client) WriteURL(method string) string {
	return c.baseURL + "/" + c.version + "/" + method
}

// Get performs a read call and returns the raw response body.
func (c *Client) Get(ctx context.Context, method string, args interface{}) ([]byte, error) {
	fullURL, err := c.ReadURL(method, args)
	if err != nil {
		return nil, err
	}
	return c.doRequest(ctx, http.MethodGet, fullURL, nil)
}

// PostForm performs a write call with a form-encoded body.
func (c *Client) PostForm(ctx context.Context, method string, form url.Values) ([]byte, error) {
	return c.doRequest(ctx, http.MethodPost, c.WriteURL(method), form)
}

// doRequest performs the actual HTTP request.
func (c *Client) doRequest(ctx context.Context, method, fullURL string, form url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
