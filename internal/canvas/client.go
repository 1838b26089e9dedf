package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	apiPrefix      = "/api/v1/"
	snippetMaxLen  = 200
	defaultTimeout = 30 * time.Second
	defaultRetries = 5
	defaultDelay   = 500 * time.Millisecond
)

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

var nextLinkRE = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// Options configures the Canvas client.
type Options struct {
	// Timeout bounds each request attempt. Default: 30s.
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after the first
	// for transient failures. Default: 5.
	MaxRetries int

	// RetryBaseDelay is the backoff delay of the first retry; it
	// doubles on each subsequent attempt. Default: 500ms.
	RetryBaseDelay time.Duration
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:        defaultTimeout,
		MaxRetries:     defaultRetries,
		RetryBaseDelay: defaultDelay,
	}
}

// Client is an authenticated Canvas API client with retry/backoff and
// pagination support. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiRoot    string
	token      string
	maxRetries int
	baseDelay  time.Duration
	httpc      *http.Client
}

// NewClient creates a client for the Canvas instance at baseURL,
// authenticating every request with the bearer token.
func NewClient(baseURL, token string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultRetries
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = defaultDelay
	}

	normalized := strings.TrimRight(baseURL, "/")

	return &Client{
		baseURL:    normalized,
		apiRoot:    normalized + strings.TrimRight(apiPrefix, "/"),
		token:      token,
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.RetryBaseDelay,
		httpc:      &http.Client{Timeout: opts.Timeout},
	}
}

// BaseURL returns the normalized instance URL the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// normalizeTarget maps both relative paths and absolute URLs onto the
// form the client resolves against its API root. Absolute URLs pass
// through unchanged.
func (c *Client) normalizeTarget(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	if strings.HasPrefix(pathOrURL, apiPrefix) {
		return pathOrURL[len(apiPrefix):]
	}
	return strings.TrimLeft(pathOrURL, "/")
}

func (c *Client) resolveURL(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return c.apiRoot + "/" + target
}

// backoff sleeps before retry attempt. The delay doubles per attempt
// starting from the base delay, plus random jitter up to 25%. A
// server-supplied Retry-After duration replaces the computed base.
func (c *Client) backoff(ctx context.Context, attempt int, retryAfter string) error {
	delay := c.baseDelay * time.Duration(1<<uint(attempt))
	if retryAfter != "" {
		if secs, err := strconv.ParseFloat(retryAfter, 64); err == nil {
			delay = time.Duration(secs * float64(time.Second))
		}
	}
	jitter := time.Duration(rand.Float64() * 0.25 * float64(delay))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay + jitter):
		return nil
	}
}

// request executes one API call with the full retry policy and returns
// the response with its body still open. 401 is never retried.
func (c *Client) request(ctx context.Context, method, pathOrURL string, params url.Values) (*http.Response, error) {
	target := c.normalizeTarget(pathOrURL)
	fullURL := c.resolveURL(target)
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(fullURL, "?") {
			sep = "&"
		}
		fullURL += sep + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			if attempt >= c.maxRetries {
				return nil, &APIError{Target: target, Err: fmt.Errorf("network failure: %w", err)}
			}
			if werr := c.backoff(ctx, attempt, ""); werr != nil {
				return nil, werr
			}
			continue
		}

		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			return nil, ErrUnauthorized
		}

		if retryableStatus[resp.StatusCode] {
			if attempt >= c.maxRetries {
				snippet := readSnippet(resp)
				return nil, &APIError{StatusCode: resp.StatusCode, Target: target, Snippet: snippet}
			}
			retryAfter := resp.Header.Get("Retry-After")
			drain(resp)
			if werr := c.backoff(ctx, attempt, retryAfter); werr != nil {
				return nil, werr
			}
			continue
		}

		if resp.StatusCode >= 400 {
			snippet := readSnippet(resp)
			return nil, &APIError{StatusCode: resp.StatusCode, Target: target, Snippet: snippet}
		}

		return resp, nil
	}

	if lastErr != nil {
		return nil, &APIError{Target: target, Err: lastErr}
	}
	return nil, &APIError{Target: target, Snippet: "request failed with unknown error"}
}

// GetJSON fetches a single resource and decodes it into a generic
// JSON value.
func (c *Client) GetJSON(ctx context.Context, pathOrURL string, params url.Values) (any, error) {
	resp, err := c.request(ctx, http.MethodGet, pathOrURL, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &APIError{Target: pathOrURL, Err: fmt.Errorf("malformed payload: %w", err)}
	}
	return payload, nil
}

// GetPaginated follows rel="next" Link headers starting from path and
// returns the flattened pages. List payloads are concatenated;
// anything else is appended as a single element. A next target that
// repeats within the walk is a hard error.
func (c *Client) GetPaginated(ctx context.Context, path string, params url.Values) ([]any, error) {
	var results []any
	next := path
	nextParams := params
	seen := make(map[string]bool)

	for next != "" {
		target := c.normalizeTarget(next)
		if seen[target] {
			return nil, fmt.Errorf("%w for %s: repeated next link %q", ErrPaginationLoop, path, next)
		}
		seen[target] = true

		resp, err := c.request(ctx, http.MethodGet, next, nextParams)
		if err != nil {
			return nil, err
		}

		var payload any
		err = json.NewDecoder(resp.Body).Decode(&payload)
		link := resp.Header.Get("Link")
		resp.Body.Close()
		if err != nil {
			return nil, &APIError{Target: next, Err: fmt.Errorf("malformed payload: %w", err)}
		}

		if list, ok := payload.([]any); ok {
			results = append(results, list...)
		} else {
			results = append(results, payload)
		}

		if m := nextLinkRE.FindStringSubmatch(link); m != nil {
			next = m[1]
		} else {
			next = ""
		}
		nextParams = nil
	}

	return results, nil
}

func readSnippet(resp *http.Response) string {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, snippetMaxLen))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
