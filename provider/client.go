package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/harmoniahq/harmonia/core"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetryDelay = 500 * time.Millisecond
)

// ResponseCache stores upstream response bodies for identical search
// parameters. Implementations decide the expiry policy; a nil cache
// disables caching.
type ResponseCache interface {
	Get(ctx context.Context, query string, page, limit int) ([]byte, bool)
	Put(ctx context.Context, query string, page, limit int, body []byte)
}

// SearchResult is the outcome of one upstream search: the verbatim response
// body for passthrough to the caller, plus the reduced records handed to
// the ingestion pipeline.
type SearchResult struct {
	Body   json.RawMessage
	Songs  []core.RawSong
	Cached bool
}

// Client fetches song metadata from the upstream catalogue's search API.
// The upstream is a black box: request in, JSON results out; no schema is
// validated beyond the few fields this system needs.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
	cache      ResponseCache
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every upstream request. Default is 10s.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRetries sets how many times a failed fetch is retried with
// exponential backoff before the error surfaces. Default is 0: whether to
// retry upstream timeouts is an operational choice, not an assumed one.
func WithRetries(retries int) Option {
	return func(c *Client) {
		if retries >= 0 {
			c.retries = retries
		}
	}
}

// WithRetryDelay sets the base backoff delay between retries.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Client) {
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// WithCache attaches a response cache.
func WithCache(cache ResponseCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a catalogue client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("catalogue base URL required")
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryDelay: defaultRetryDelay,
		logger:     slog.Default().With("component", "catalogue-client"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// SearchSongs performs a paginated text search against the upstream
// catalogue. The raw response body is returned unmodified for passthrough;
// the parsed songs are a side product for ingestion.
func (c *Client) SearchSongs(ctx context.Context, query string, page, limit int) (*SearchResult, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, query, page, limit); ok {
			c.logger.Debug("serving cached upstream response", "query", query, "page", page)
			songs, err := parseSearchBody(body)
			if err != nil {
				return nil, err
			}
			return &SearchResult{Body: body, Songs: songs, Cached: true}, nil
		}
	}

	var body []byte
	fetch := func() error {
		var err error
		body, err = c.fetch(ctx, query, page, limit)
		return err
	}

	var err error
	if c.retries > 0 {
		err = RetryWithBackoff(ctx, fetch, c.retries+1, c.retryDelay)
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, err
	}

	songs, err := parseSearchBody(body)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Put(ctx, query, page, limit, body)
	}

	return &SearchResult{Body: body, Songs: songs}, nil
}

// fetch performs one GET against the search endpoint.
func (c *Client) fetch(ctx context.Context, query string, page, limit int) ([]byte, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/search/songs?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Info("fetching from upstream catalogue", "query", query, "page", page, "limit", limit)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("upstream request failed", "query", query, "err", err)
		return nil, &UpstreamError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("upstream returned error status", "query", query, "status", resp.StatusCode)
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("search request rejected: %s", http.StatusText(resp.StatusCode)),
		}
	}

	return body, nil
}

// Envelope shapes for the few fields extracted from the upstream schema.
type searchEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Results []gojson.RawMessage `json:"results"`
	} `json:"data"`
}

type songEnvelope struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Album    struct {
		Name string `json:"name"`
	} `json:"album"`
	Artists struct {
		Primary []struct {
			Name string `json:"name"`
		} `json:"primary"`
	} `json:"artists"`
}

// parseSearchBody extracts the reduced song records from an upstream
// response body. A body that is valid JSON but reports success=false
// yields no songs and no error; the caller still passes it through.
func parseSearchBody(body []byte) ([]core.RawSong, error) {
	var envelope searchEnvelope
	if err := gojson.Unmarshal(body, &envelope); err != nil {
		return nil, &UpstreamError{
			StatusCode: http.StatusOK,
			Message:    "malformed search response",
			Err:        err,
		}
	}

	if !envelope.Success || len(envelope.Data.Results) == 0 {
		return nil, nil
	}

	songs := make([]core.RawSong, 0, len(envelope.Data.Results))
	for _, raw := range envelope.Data.Results {
		var entry songEnvelope
		if err := gojson.Unmarshal(raw, &entry); err != nil {
			// One malformed record never discards its siblings.
			continue
		}

		song := core.RawSong{
			ID:        entry.ID,
			Name:      entry.Name,
			Language:  entry.Language,
			AlbumName: entry.Album.Name,
			Raw:       json.RawMessage(raw),
		}
		if len(entry.Artists.Primary) > 0 {
			song.PrimaryArtist = entry.Artists.Primary[0].Name
		}

		songs = append(songs, song)
	}

	return songs, nil
}
