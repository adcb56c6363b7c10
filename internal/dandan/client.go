package dandan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"danmu/internal/services"
)

// API defines the danmaku server operations used by the resolution pipeline.
type API interface {
	SearchAnime(ctx context.Context, keyword string) ([]SourceCandidate, error)
	GetBangumiDetail(ctx context.Context, animeID int64) (*BangumiDetail, error)
	GetComments(ctx context.Context, episodeID int64) ([]RawComment, error)
}

// Client provides access to the danmaku HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      services.RetryPolicy
}

var _ API = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLimiter overrides the default request rate limiter.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

// WithRetryPolicy overrides the default retry behaviour.
func WithRetryPolicy(policy services.RetryPolicy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// New creates a danmaku API client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("danmaku base url required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse danmaku base url: %w", err)
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
		retry:      services.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchAnime searches the danmaku server for series matching keyword.
func (c *Client) SearchAnime(ctx context.Context, keyword string) ([]SourceCandidate, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, errors.New("keyword must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/api/v2/search/anime")
	if err != nil {
		return nil, fmt.Errorf("parse danmaku url: %w", err)
	}
	params := url.Values{}
	params.Set("keyword", keyword)
	endpoint.RawQuery = params.Encode()

	var payload searchResponse
	if err := c.getJSON(ctx, "search", endpoint.String(), &payload); err != nil {
		return nil, err
	}
	return payload.Animes, nil
}

// GetBangumiDetail fetches the series detail, episode list included.
func (c *Client) GetBangumiDetail(ctx context.Context, animeID int64) (*BangumiDetail, error) {
	if animeID <= 0 {
		return nil, errors.New("anime id must be positive")
	}
	endpoint := fmt.Sprintf("%s/api/v2/bangumi/%d", c.baseURL, animeID)

	var payload bangumiResponse
	if err := c.getJSON(ctx, "bangumi", endpoint, &payload); err != nil {
		return nil, err
	}
	return &payload.Bangumi, nil
}

// GetComments fetches all comments for an episode, related sources merged and
// simplified/traditional conversion applied server side.
func (c *Client) GetComments(ctx context.Context, episodeID int64) ([]RawComment, error) {
	if episodeID <= 0 {
		return nil, errors.New("episode id must be positive")
	}
	endpoint, err := url.Parse(fmt.Sprintf("%s/api/v2/comment/%d", c.baseURL, episodeID))
	if err != nil {
		return nil, fmt.Errorf("parse danmaku url: %w", err)
	}
	params := url.Values{}
	params.Set("withRelated", "true")
	params.Set("chConvert", "1")
	endpoint.RawQuery = params.Encode()

	var payload commentResponse
	if err := c.getJSON(ctx, "comment", endpoint.String(), &payload); err != nil {
		return nil, err
	}
	return payload.Comments, nil
}

// getJSON performs a rate-limited, retried GET and decodes the JSON body
// into out. Failures are classified onto the shared service sentinels so
// callers can distinguish timeouts and missing resources from transport
// faults.
func (c *Client) getJSON(ctx context.Context, operation, endpoint string, out any) error {
	return services.Retry(ctx, c.retry, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		requestStart := time.Now()
		resp, err := c.httpClient.Do(req)
		latency := time.Since(requestStart)
		if err != nil {
			marker := services.ErrNetwork
			if errors.Is(err, context.DeadlineExceeded) {
				marker = services.ErrTimeout
			}
			return services.Wrap(marker, "dandan", operation,
				fmt.Sprintf("execute request (latency=%v)", latency), err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, "dandan", operation,
				fmt.Sprintf("danmaku %s returned 404 (latency=%v)", operation, latency), nil)
		case resp.StatusCode >= http.StatusInternalServerError:
			return services.Wrap(services.ErrNetwork, "dandan", operation,
				fmt.Sprintf("danmaku %s returned %d (latency=%v)", operation, resp.StatusCode, latency), nil)
		default:
			return fmt.Errorf("danmaku %s returned %d (latency=%v)", operation, resp.StatusCode, latency)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode danmaku %s response: %w", operation, err)
		}
		return nil
	})
}
