package generate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chefmind/internal/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	data    map[string][]string
	readErr error
	sets    int
}

func (c *mapCache) GetPhotos(_ context.Context, query string) ([]string, bool, error) {
	if c.readErr != nil {
		return nil, false, c.readErr
	}
	urls, ok := c.data[query]
	return urls, ok, nil
}

func (c *mapCache) SetPhotos(_ context.Context, query string, urls []string) error {
	c.sets++
	c.data[query] = urls
	return nil
}

func TestPhotoFinderSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "Ramen food", q.Get("query"))
		assert.Equal(t, "5", q.Get("per_page"))
		assert.Equal(t, "landscape", q.Get("orientation"))
		w.Write([]byte(`{"photos":[
			{"src":{"large2x":"https://p/1-2x.jpg","large":"https://p/1-l.jpg"}},
			{"src":{"large":"https://p/2-l.jpg","medium":"https://p/2-m.jpg"}},
			{"src":{"medium":"https://p/3-m.jpg"}},
			{"src":{}}
		]}`))
	}))
	defer server.Close()

	finder := NewPhotoFinder(server.URL, "key", server.Client(), nil, nil, createTestLogger())
	urls := finder.candidates(context.Background(), "Ramen food")
	assert.Equal(t, []string{"https://p/1-2x.jpg", "https://p/2-l.jpg", "https://p/3-m.jpg"}, urls)

	finder.pick = func(n int) int { return n - 1 }
	got := finder.Find(context.Background(), "Ramen food")
	require.NotNil(t, got)
	assert.Equal(t, "https://p/3-m.jpg", *got)
}

func TestPhotoFinderCache(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"photos":[{"src":{"large2x":"https://p/fresh.jpg"}}]}`))
	}))
	defer server.Close()

	m := metrics.New()
	cache := &mapCache{data: map[string][]string{"Pho food": {"https://p/cached.jpg"}}}
	finder := NewPhotoFinder(server.URL, "key", server.Client(), cache, m, createTestLogger())

	hit := finder.Find(context.Background(), "Pho food")
	require.NotNil(t, hit)
	assert.Equal(t, "https://p/cached.jpg", *hit)
	assert.Zero(t, calls)

	miss := finder.Find(context.Background(), "Laksa food")
	require.NotNil(t, miss)
	assert.Equal(t, "https://p/fresh.jpg", *miss)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"https://p/fresh.jpg"}, cache.data["Laksa food"])

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `chefmind_photo_lookups_total{source="cache"} 1`)
	assert.Contains(t, rec.Body.String(), `chefmind_photo_lookups_total{source="api"} 1`)
}

func TestPhotoFinderCacheErrorFallsThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"photos":[{"src":{"large":"https://p/api.jpg"}}]}`))
	}))
	defer server.Close()

	cache := &mapCache{data: map[string][]string{}, readErr: errors.New("redis down")}
	finder := NewPhotoFinder(server.URL, "key", server.Client(), cache, nil, createTestLogger())

	got := finder.Find(context.Background(), "Curry food")
	require.NotNil(t, got)
	assert.Equal(t, "https://p/api.jpg", *got)
}

func TestPhotoFinderFailuresYieldNil(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"rate limited", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) }},
		{"no photos", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"photos":[]}`)) }},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`<html>`)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			cache := &mapCache{data: map[string][]string{}}
			finder := NewPhotoFinder(server.URL, "key", server.Client(), cache, nil, createTestLogger())
			assert.Nil(t, finder.Find(context.Background(), "Stew food"))
			assert.Zero(t, cache.sets, "empty results are not cached")
		})
	}
}
