package catalogfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"storefront/internal/config"
	"storefront/pkg/logger"
)

// Client pulls product records from a paginated JSON feed.
type Client struct {
	httpClient *http.Client
	cfg        config.CatalogFeedConfig
	logger     logger.Logger
}

func NewClient(cfg config.CatalogFeedConfig, log logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: log,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

type productsResponse struct {
	Data       []json.RawMessage `json:"data"`
	TotalPages int               `json:"total_pages"`
}

// FetchProducts walks every page of the feed, sleeping between pages.
func (c *Client) FetchProducts(ctx context.Context) ([]json.RawMessage, error) {
	if c.cfg.FeedURL == "" {
		return nil, fmt.Errorf("catalog feed url is empty")
	}
	base, err := url.Parse(c.cfg.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog feed url: %w", err)
	}

	pageSize := c.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	sleep := time.Duration(c.cfg.SleepMS) * time.Millisecond
	if sleep <= 0 {
		sleep = 500 * time.Millisecond
	}

	all := make([]json.RawMessage, 0)
	totalPages := 1
	for page := 1; page <= totalPages; page++ {
		body, err := c.fetchPage(ctx, base, page, pageSize)
		if err != nil {
			return nil, err
		}
		c.logger.Info("Fetched catalog feed page",
			logger.Int("page", page),
			logger.Int("records", len(body.Data)),
		)
		if len(body.Data) == 0 {
			break
		}
		all = append(all, body.Data...)
		if body.TotalPages > 0 {
			totalPages = body.TotalPages
		}
		if page == totalPages {
			break
		}

		select {
		case <-ctx.Done():
			return all, ctx.Err()
		case <-time.After(sleep):
		}
	}
	return all, nil
}

// fetchPage retries network errors and 5xx responses with linear backoff.
// Other failures are returned at once.
func (c *Client) fetchPage(ctx context.Context, base *url.URL, page, pageSize int) (*productsResponse, error) {
	backoff := time.Duration(c.cfg.RetryBackoffMS) * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= c.cfg.RetryMaxAttempts; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying catalog feed page",
				logger.Int("page", page),
				logger.Int("attempt", attempt),
				logger.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * backoff):
			}
		}

		body, retryable, err := c.fetchOnce(ctx, base, page, pageSize)
		if err == nil {
			return body, nil
		}
		if !retryable || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("page %d failed after %d attempts: %w", page, c.cfg.RetryMaxAttempts+1, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, base *url.URL, page, pageSize int) (*productsResponse, bool, error) {
	u := *base
	q := u.Query()
	q.Set("page_size", strconv.Itoa(pageSize))
	q.Set("page_number", strconv.Itoa(page))
	if c.cfg.APIKey != "" {
		q.Set("api_key", c.cfg.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("call catalog feed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		c.logger.Error("Catalog feed server error", logger.Int("status", resp.StatusCode), logger.Int("page", page))
		return nil, true, fmt.Errorf("catalog feed server error: status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		c.logger.Error("Catalog feed rejected request", logger.Int("status", resp.StatusCode), logger.Int("page", page))
		return nil, false, fmt.Errorf("catalog feed status %d", resp.StatusCode)
	}

	var body productsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Error("Catalog feed returned invalid JSON", logger.Int("page", page), logger.Error(err))
		return nil, false, fmt.Errorf("decode response: %w", err)
	}
	return &body, false, nil
}
