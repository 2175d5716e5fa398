package feedcache

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

// PodcastIndexConfig holds configuration for the Podcast Index client.
type PodcastIndexConfig struct {
	// BaseURL is the base URL of the Podcast Index API.
	// Default: https://api.podcastindex.org/api/1.0
	BaseURL string

	// APIKey and APISecret are the API credentials.
	APIKey    string
	APISecret string

	// UserAgent identifies the application to the API.
	// Default: boostsplit
	UserAgent string

	// Timeout is the HTTP request timeout.
	// Default: 10 seconds
	Timeout time.Duration

	// Clock provides the request timestamps used for authentication.
	// Default: clock.NewDefaultClock()
	Clock clock.Clock
}

// DefaultPodcastIndexConfig returns a default configuration using the given
// credentials.
func DefaultPodcastIndexConfig(key, secret string) *PodcastIndexConfig {
	return &PodcastIndexConfig{
		BaseURL:   "https://api.podcastindex.org/api/1.0",
		APIKey:    key,
		APISecret: secret,
		UserAgent: "boostsplit",
		Timeout:   10 * time.Second,
		Clock:     clock.NewDefaultClock(),
	}
}

// Validate validates the configuration.
func (c *PodcastIndexConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base url is required")
	}
	if c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("api credentials are required")
	}
	if c.Clock == nil {
		return fmt.Errorf("clock is required")
	}

	return nil
}

// PodcastIndex resolves feed GUIDs at the Podcast Index. Retries and rate
// limiting are left to the Cache.
type PodcastIndex struct {
	cfg *PodcastIndexConfig

	httpClient *http.Client
}

// NewPodcastIndex creates a new Podcast Index client.
func NewPodcastIndex(cfg *PodcastIndexConfig) (*PodcastIndex, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &PodcastIndex{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// byGUIDResponse is the response of the podcasts/byguid endpoint. Feed is an
// object if the feed is known and an empty array otherwise.
type byGUIDResponse struct {
	Status      string          `json:"status"`
	Description string          `json:"description"`
	Feed        json.RawMessage `json:"feed"`
}

type feed struct {
	ID    int64  `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ResolveFeedURL implements Resolver.
func (p *PodcastIndex) ResolveFeedURL(ctx context.Context,
	guid string) (string, error) {

	query := url.Values{}
	query.Set("guid", guid)

	respBody, err := p.doRequest(ctx, "/podcasts/byguid?"+query.Encode())
	if err != nil {
		return "", err
	}

	var resp byGUIDResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status != "true" {
		return "", fmt.Errorf("podcast index error: %s", resp.Description)
	}

	raw := bytes.TrimSpace(resp.Feed)
	if len(raw) == 0 || raw[0] != '{' {
		return "", fmt.Errorf("%w: %v", ErrNotFound, guid)
	}

	var f feed
	if err := json.Unmarshal(raw, &f); err != nil {
		return "", fmt.Errorf("failed to parse feed: %w", err)
	}

	log.Tracef("Podcast index knows %v as %q (%d)", guid, f.Title, f.ID)

	return f.URL, nil
}

// doRequest performs an authenticated GET request.
func (p *PodcastIndex) doRequest(ctx context.Context,
	path string) ([]byte, error) {

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, p.cfg.BaseURL+path, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	date := strconv.FormatInt(p.cfg.Clock.Now().Unix(), 10)
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("X-Auth-Key", p.cfg.APIKey)
	req.Header.Set("X-Auth-Date", date)
	req.Header.Set("Authorization", authHash(
		p.cfg.APIKey, p.cfg.APISecret, date,
	))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, respBody)

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited by server (429)")

	default:
		return nil, fmt.Errorf("unexpected status code %d: %s",
			resp.StatusCode, respBody)
	}
}

// authHash computes the Authorization header of a request.
func authHash(key, secret, date string) string {
	h := sha1.Sum([]byte(key + secret + date))
	return hex.EncodeToString(h[:])
}
