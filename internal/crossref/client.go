// Package crossref provides a rate-limited client for the Crossref
// REST API works endpoint.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Crossref REST API base URL.
	BaseURL = "https://api.crossref.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit is 50 requests per second per the Crossref API
	// documentation for the public pool.
	RateLimit = 50.0

	// DefaultRows is the number of candidate works requested per
	// bibliographic query. Only the top-ranked work is consulted for
	// matching, so this stays small.
	DefaultRows = 5
)

// Work is one candidate item from a works query. Crossref returns the
// title as a list; the first element is the primary title.
type Work struct {
	Titles []string `json:"title"`
	DOI    string   `json:"DOI"`
}

// Title returns the primary title of the work, or "" if none.
func (w Work) Title() string {
	if len(w.Titles) == 0 {
		return ""
	}
	return w.Titles[0]
}

// Client is a rate-limited HTTP client for the Crossref works API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
	cache      *Cache
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMailto sets the contact e-mail sent with every request, which
// routes requests to Crossref's polite pool with better rate limits.
func WithMailto(email string) ClientOption {
	return func(c *Client) {
		c.mailto = email
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithCache attaches a query cache consulted before any HTTP request.
func WithCache(cache *Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient creates a new Crossref works client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}

	// Check for a contact address in the environment
	if email := os.Getenv("CROSSREF_MAILTO"); email != "" {
		c.mailto = email
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// worksResponse is the envelope of a works query.
type worksResponse struct {
	Status  string `json:"status"`
	Message struct {
		Items []Work `json:"items"`
	} `json:"message"`
}

// Works queries the works endpoint with a free-text bibliographic
// query and returns the candidate items in Crossref's relevance
// order. An empty result list is not an error.
func (c *Client) Works(ctx context.Context, query string) ([]Work, error) {
	if c.cache != nil {
		if works, ok, err := c.cache.Get(query); err != nil {
			return nil, fmt.Errorf("reading query cache: %w", err)
		} else if ok {
			return works, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("query.bibliographic", query)
	params.Set("rows", strconv.Itoa(DefaultRows))
	params.Set("select", "title,DOI")
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}

	reqURL := c.baseURL + "/works?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	var wr worksResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("%w: decoding works response: %v", ErrInvalidResponse, err)
	}
	if wr.Status != "ok" {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidResponse, wr.Status)
	}

	works := wr.Message.Items

	if c.cache != nil {
		if err := c.cache.Put(query, works); err != nil {
			return nil, fmt.Errorf("writing query cache: %w", err)
		}
	}

	return works, nil
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode == 429 {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return nil
}
