package feedcache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, handler http.HandlerFunc) *PodcastIndex {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultPodcastIndexConfig("key", "secret")
	cfg.BaseURL = srv.URL
	cfg.Clock = clock.NewTestClock(testStart)

	index, err := NewPodcastIndex(cfg)
	require.NoError(t, err)

	return index
}

// TestNewPodcastIndex tests client configuration.
func TestNewPodcastIndex(t *testing.T) {
	t.Parallel()

	_, err := NewPodcastIndex(nil)
	require.Error(t, err)

	_, err = NewPodcastIndex(DefaultPodcastIndexConfig("", "secret"))
	require.Error(t, err)

	cfg := DefaultPodcastIndexConfig("key", "secret")
	cfg.BaseURL = ""
	_, err = NewPodcastIndex(cfg)
	require.Error(t, err)
}

// TestPodcastIndex_ResolveFeedURL tests resolving a GUID.
func TestPodcastIndex_ResolveFeedURL(t *testing.T) {
	t.Parallel()

	sum := sha1.Sum([]byte("keysecret1709294400"))
	wantAuth := hex.EncodeToString(sum[:])

	index := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/podcasts/byguid", r.URL.Path)
		require.Equal(t, testGUID, r.URL.Query().Get("guid"))
		require.Equal(t, "key", r.Header.Get("X-Auth-Key"))
		require.Equal(t, "1709294400", r.Header.Get("X-Auth-Date"))
		require.Equal(t, wantAuth, r.Header.Get("Authorization"))
		require.Equal(t, "boostsplit", r.Header.Get("User-Agent"))

		_, _ = w.Write([]byte(`{"status":"true","feed":{"id":920666,` +
			`"url":"https://mp3s.nashownotes.com/pc20rss.xml",` +
			`"title":"Podcasting 2.0"},"description":"Found"}`))
	})

	url, err := index.ResolveFeedURL(context.Background(), testGUID)
	require.NoError(t, err)
	require.Equal(t, "https://mp3s.nashownotes.com/pc20rss.xml", url)
}

// TestPodcastIndex_Errors tests the mapping of API failures.
func TestPodcastIndex_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		notFound bool
	}{
		{
			name:     "unknown feed",
			status:   http.StatusOK,
			body:     `{"status":"true","feed":[],"description":"none"}`,
			notFound: true,
		},
		{
			name:     "not found status",
			status:   http.StatusNotFound,
			body:     `not found`,
			notFound: true,
		},
		{
			name:   "api error",
			status: http.StatusOK,
			body:   `{"status":"false","description":"bad auth"}`,
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
		},
		{
			name:   "garbage",
			status: http.StatusOK,
			body:   `<html>`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			index := newTestIndex(t, func(w http.ResponseWriter,
				_ *http.Request) {

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := index.ResolveFeedURL(
				context.Background(), testGUID,
			)
			require.Error(t, err)
			require.Equal(t, tt.notFound, errors.Is(err, ErrNotFound))
		})
	}
}

// TestPodcastIndex_Cache tests the index behind the cache.
func TestPodcastIndex_Cache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	index := newTestIndex(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"status":"true","feed":` +
			`{"url":"https://feeds.example/feed.xml"}}`))
	})

	c := newTestCache(t, index, nil)
	for i := 0; i < 3; i++ {
		url, err := c.FeedURL(context.Background(), testGUID)
		require.NoError(t, err)
		require.Equal(t, "https://feeds.example/feed.xml", url)
	}
	require.EqualValues(t, 1, calls.Load())
}
