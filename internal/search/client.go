package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/homeyum/yum/internal/failure"
	"github.com/homeyum/yum/internal/logging"
)

const (
	DefaultEndpoint = "https://www.googleapis.com/youtube/v3/search"
	DefaultPageSize = 50
	defaultCacheTTL = 30 * time.Minute
	requestTimeout  = 10 * time.Second
)

// Thumbnail is one rendition of a video preview image.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Video is a search candidate.
type Video struct {
	VideoID      string     `json:"videoId"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ChannelTitle string     `json:"channelTitle,omitempty"`
	PublishedAt  string     `json:"publishedAt,omitempty"`
	High         *Thumbnail `json:"high,omitempty"`
	Default      *Thumbnail `json:"default,omitempty"`
}

// URL returns the watch URL for the video.
func (v Video) URL() string {
	return "https://www.youtube.com/shorts/" + v.VideoID
}

// Result is one page of search results.
type Result struct {
	Videos        []Video `json:"videos"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// Client queries a YouTube-compatible search endpoint.
type Client struct {
	endpoint *url.URL
	apiKey   string
	pageSize int
	http     *http.Client
	cache    Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCache stores result pages in cache for ttl. The provider is
// rate-limited, so repeated queries should not reach it.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithPageSize sets maxResults.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "search")
	}
}

// NewClient builds a search client. An empty endpoint uses the public
// YouTube Data API.
func NewClient(endpoint, apiKey string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse search_endpoint %q: %w", endpoint, err)
	}
	c := &Client{
		endpoint: u,
		apiKey:   strings.TrimSpace(apiKey),
		pageSize: DefaultPageSize,
		http:     &http.Client{Timeout: requestTimeout},
		cacheTTL: defaultCacheTTL,
		logger:   logging.NewComponentLogger(nil, "search"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type wireResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
			Thumbnails   struct {
				Default *Thumbnail `json:"default"`
				High    *Thumbnail `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search returns one page of short-form video results for query.
func (c *Client) Search(ctx context.Context, query, pageToken string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, failure.Validation("search", "search", "query required")
	}
	if c.apiKey == "" {
		return Result{}, failure.Wrap(failure.ErrAuth, "search", "search", "search_api_key not configured", nil)
	}

	key := cacheKey(query, pageToken)
	if c.cache != nil {
		if raw, ok, err := c.cache.Get(ctx, key); err != nil {
			c.logger.Warn("search cache read failed", logging.Error(err))
		} else if ok {
			var cached Result
			if err := json.Unmarshal(raw, &cached); err == nil {
				c.logger.Debug("search cache hit", logging.String(logging.FieldQuery, query))
				return cached, nil
			}
		}
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("videoDuration", "short")
	params.Set("maxResults", strconv.Itoa(c.pageSize))
	params.Set("key", c.apiKey)
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
	reqURL := *c.endpoint
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, failure.Wrap(failure.ErrTransport, "search", "search", "execute request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return Result{}, &failure.StatusError{Method: http.MethodGet, Path: c.endpoint.Path, Code: resp.StatusCode}
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return Result{}, failure.Wrap(failure.ErrTransport, "search", "search", "decode response", err)
	}

	result := Result{NextPageToken: wire.NextPageToken}
	for _, item := range wire.Items {
		if item.ID.VideoID == "" {
			continue
		}
		result.Videos = append(result.Videos, Video{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ChannelTitle: item.Snippet.ChannelTitle,
			PublishedAt:  item.Snippet.PublishedAt,
			High:         item.Snippet.Thumbnails.High,
			Default:      item.Snippet.Thumbnails.Default,
		})
	}

	if c.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := c.cache.Set(ctx, key, raw, c.cacheTTL); err != nil {
				c.logger.Warn("search cache write failed", logging.Error(err))
			}
		}
	}
	return result, nil
}

func cacheKey(query, pageToken string) string {
	return "yum:search:" + url.QueryEscape(strings.ToLower(query)) + ":" + pageToken
}

// IsLikelyShort guesses whether v is a short-form video: a #shorts tag in the
// title or description, or a portrait thumbnail (high, else default).
func IsLikelyShort(v Video) bool {
	if strings.Contains(strings.ToLower(v.Title), "#shorts") ||
		strings.Contains(strings.ToLower(v.Description), "#shorts") {
		return true
	}
	thumb := v.High
	if thumb == nil {
		thumb = v.Default
	}
	return thumb != nil && thumb.Height > thumb.Width
}
