package catalogapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/storefront/backend/internal/domain"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultRPS         = 5.0
	defaultBurst       = 10
	defaultMaxAttempts = 3
	defaultBackoffBase = 500 * time.Millisecond
)

// ClientConfig holds settings for the product API client
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client handles communication with the storefront product API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	maxAttempts int
	backoffBase time.Duration
	debug       bool
}

// NewClient creates a new product API client
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
	}
}

// SetDebug enables logging of every request and response status
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the wait before retrying after the given attempt (1-based)
func exponentialBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}

// FetchProducts retrieves the full product catalog
func (c *Client) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/products", &raw); err != nil {
		return nil, err
	}

	records, err := decodeProductList(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	products := mapProducts(records)
	log.Printf("[CATALOG] Fetched %d products (%d records)", len(products), len(records))
	return products, nil
}

// FetchVocabulary retrieves categories, subcategories and colors concurrently
func (c *Client) FetchVocabulary(ctx context.Context) (*domain.Vocabulary, error) {
	var vocab domain.Vocabulary

	g, gctx := errgroup.WithContext(ctx)
	targets := []struct {
		path string
		dst  *[]string
	}{
		{"/categories", &vocab.Categories},
		{"/subcategories", &vocab.Subcategories},
		{"/colors", &vocab.Colors},
	}

	for _, target := range targets {
		g.Go(func() error {
			var raw []json.RawMessage
			if err := c.getJSON(gctx, target.path, &raw); err != nil {
				return err
			}
			*target.dst = mapNames(raw)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &vocab, nil
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Storefront-Search/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return resp, nil
}

// getJSON fetches path and decodes the JSON body into dst.
// Transport errors, 429 and 5xx are retried with exponential backoff; other
// statuses fail immediately.
func (c *Client) getJSON(ctx context.Context, path string, dst interface{}) error {
	reqURL := c.baseURL + path

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, exponentialBackoff(c.backoffBase, attempt-1)); err != nil {
				return err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[CATALOG] Request error %s (attempt %d): %v", path, attempt, err)
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if c.debug {
			log.Printf("[CATALOG] GET %s -> %d (%d bytes)", path, resp.StatusCode, len(body))
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				lastErr = fmt.Errorf("%w: reading body: %v", domain.ErrCatalogUnavailable, readErr)
				continue
			}
			if err := json.Unmarshal(body, dst); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			log.Printf("[CATALOG] API error %s (attempt %d) - Status: %d", path, attempt, resp.StatusCode)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrCatalogUnavailable, resp.StatusCode)
		default:
			return fmt.Errorf("%w: %s returned status %d: %s",
				domain.ErrCatalogUnavailable, path, resp.StatusCode, truncate(string(body), 200))
		}
	}

	log.Printf("[CATALOG] All retries failed for %s", path)
	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
