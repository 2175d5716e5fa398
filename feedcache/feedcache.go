package feedcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var (
	// ErrResolverRequired is returned when no upstream resolver is
	// configured.
	ErrResolverRequired = errors.New("feed resolver is required")

	// ErrNotFound is returned when the resolver knows no feed for a GUID.
	ErrNotFound = errors.New("feed not found")

	// ErrEmptyGUID is returned for an empty feed GUID.
	ErrEmptyGUID = errors.New("feed guid must not be empty")
)

// Resolver looks up the feed URL of a podcast GUID, e.g. at a podcast index.
type Resolver interface {
	// ResolveFeedURL returns the feed URL of guid. An empty URL is treated
	// as ErrNotFound.
	ResolveFeedURL(ctx context.Context, guid string) (string, error)
}

// ResolverFunc is a function that implements Resolver.
type ResolverFunc func(ctx context.Context, guid string) (string, error)

// ResolveFeedURL calls f(ctx, guid).
func (f ResolverFunc) ResolveFeedURL(ctx context.Context,
	guid string) (string, error) {

	return f(ctx, guid)
}

// Config holds configuration for the feed cache.
type Config struct {
	// Resolver is queried on cache misses.
	Resolver Resolver

	// TTL is the time an entry stays valid.
	// Default: 1 hour
	TTL time.Duration

	// MaxEntries bounds the number of cached feeds. The entry closest to
	// expiry is evicted first.
	// Default: 1000
	MaxEntries int

	// RateLimit is the number of resolver requests per second allowed.
	// Default: 5
	RateLimit int

	// RetryAttempts is the number of retry attempts for failed lookups.
	// Not found errors are never retried.
	// Default: 2
	RetryAttempts int

	// RetryDelay is the delay between retry attempts, multiplied by the
	// attempt number.
	// Default: 500 milliseconds
	RetryDelay time.Duration

	// Clock is used for expiry and retry delays.
	// Default: clock.NewDefaultClock()
	Clock clock.Clock
}

// DefaultConfig returns a default configuration using resolver.
func DefaultConfig(resolver Resolver) *Config {
	return &Config{
		Resolver:      resolver,
		TTL:           time.Hour,
		MaxEntries:    1000,
		RateLimit:     5,
		RetryAttempts: 2,
		RetryDelay:    500 * time.Millisecond,
		Clock:         clock.NewDefaultClock(),
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Resolver == nil {
		return ErrResolverRequired
	}
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	if c.MaxEntries <= 0 {
		return fmt.Errorf("max entries must be positive")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	if c.RetryAttempts < 0 || c.RetryDelay < 0 {
		return fmt.Errorf("retry settings must not be negative")
	}
	if c.Clock == nil {
		return fmt.Errorf("clock is required")
	}

	return nil
}

// cacheEntry is a cached feed URL.
type cacheEntry struct {
	url       string
	expiresAt time.Time
}

// Cache maps podcast feed GUIDs to feed URLs. Misses are resolved upstream,
// concurrent misses for the same GUID share a single lookup.
type Cache struct {
	cfg *Config

	rateLimiter *rate.Limiter
	group       singleflight.Group

	entries map[string]cacheEntry
	mu      sync.RWMutex
}

// New creates a new feed cache.
func New(cfg *Config) (*Cache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Cache{
		cfg: cfg,
		rateLimiter: rate.NewLimiter(
			rate.Limit(cfg.RateLimit), cfg.RateLimit,
		),
		entries: make(map[string]cacheEntry, cfg.MaxEntries),
	}, nil
}

// normalizeGUID returns the cache key of guid. GUIDs are UUIDs and compared
// case insensitively.
func normalizeGUID(guid string) string {
	return strings.ToLower(strings.TrimSpace(guid))
}

// Lookup returns the cached URL of guid without querying the resolver.
func (c *Cache) Lookup(guid string) (string, bool) {
	key := normalizeGUID(guid)

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}

	if !c.cfg.Clock.Now().Before(entry.expiresAt) {
		return "", false
	}

	return entry.url, true
}

// Set caches the URL of guid.
func (c *Cache) Set(guid, url string) {
	key := normalizeGUID(guid)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		url:       url,
		expiresAt: c.cfg.Clock.Now().Add(c.cfg.TTL),
	}

	if len(c.entries) <= c.cfg.MaxEntries {
		return
	}

	var (
		oldestKey  string
		oldestTime time.Time
	)
	for k, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldestTime) {
			oldestKey = k
			oldestTime = entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)

	log.Debugf("Evicted feed %v from full cache", oldestKey)
}

// FeedURL returns the feed URL of guid, resolving and caching it on a miss.
// Concurrent misses for the same GUID are served by the lookup of the first
// caller and therefore share its context.
func (c *Cache) FeedURL(ctx context.Context, guid string) (string, error) {
	key := normalizeGUID(guid)
	if key == "" {
		return "", ErrEmptyGUID
	}

	if url, ok := c.Lookup(key); ok {
		return url, nil
	}

	url, err, shared := c.group.Do(key, func() (interface{}, error) {
		url, err := c.resolve(ctx, key)
		if err != nil {
			return "", err
		}

		c.Set(key, url)

		return url, nil
	})
	if err != nil {
		return "", err
	}

	if shared {
		log.Tracef("Shared lookup of feed %v", key)
	}

	return url.(string), nil
}

// resolve queries the resolver with rate limiting and retries.
func (c *Cache) resolve(ctx context.Context, guid string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := c.cfg.RetryDelay * time.Duration(attempt)
			select {
			case <-c.cfg.Clock.TickAfter(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		url, err := c.cfg.Resolver.ResolveFeedURL(ctx, guid)
		switch {
		case err == nil && url == "":
			return "", fmt.Errorf("%w: %v", ErrNotFound, guid)

		case err == nil:
			log.Debugf("Resolved feed %v to %v", guid, url)
			return url, nil

		case errors.Is(err, ErrNotFound):
			return "", err
		}

		lastErr = err
		log.Warnf("Unable to resolve feed %v (attempt %d/%d): %v", guid,
			attempt+1, c.cfg.RetryAttempts+1, err)
	}

	return "", fmt.Errorf("failed to resolve feed %v: %w", guid, lastErr)
}

// Cleanup removes expired entries and returns the number of removed ones.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.cfg.Clock.Now()

	var removed int
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// Len returns the number of cached entries, including expired ones not yet
// cleaned up.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
