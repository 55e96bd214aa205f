package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	uploads map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{uploads: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if m.err != nil {
		return m.err
	}
	m.uploads[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryStore) PublicURL(key string) string {
	return "https://project.supabase.co/storage/v1/object/public/images/" + key
}

func newImageServer(t *testing.T, status int, contentType string, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, CrawlerUserAgent, r.Header.Get("User-Agent"))
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

var allKeys = StoreKeys{URL: true, Key: true}

func TestResolveInlineSuccess(t *testing.T) {
	body := []byte("png-image-bytes")
	server := newImageServer(t, http.StatusOK, "image/png", body)
	candidate := server.URL + "/thumb.png"

	resolver := NewImageResolver(server.Client(), newMemoryStore(), allKeys, createTestLogger())
	got, trace := resolver.Resolve(context.Background(), candidate)

	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(body)
	assert.Equal(t, want, got)
	assert.Equal(t, Trace{
		"Processing thumbnail: " + candidate[:30],
		"Image fetched. Size: 15",
		"Attempting Base64 Encoding...",
		"Base64 Success. Len: " + strconv.Itoa(len(want)),
	}, trace)
}

func TestResolveStorageAfterInlineFailure(t *testing.T) {
	server := newImageServer(t, http.StatusOK, "image/webp", []byte("webp-bytes"))
	store := newMemoryStore()

	resolver := NewImageResolver(server.Client(), store, allKeys, createTestLogger(), WithInlineLimit(4))
	resolver.newKey = func(ext string) string { return "recipes/import_fixed." + ext }

	got, trace := resolver.Resolve(context.Background(), server.URL+"/t")

	assert.Equal(t, "https://project.supabase.co/storage/v1/object/public/images/recipes/import_fixed.webp", got)
	assert.Equal(t, []byte("webp-bytes"), store.uploads["recipes/import_fixed.webp"])
	assert.Equal(t, "image/webp", store.types["recipes/import_fixed.webp"])
	assert.Equal(t, []string{
		"Attempting Base64 Encoding...",
		"Base64 Failed: image of 10 bytes exceeds inline limit of 4 bytes",
		"Keys: URL=true, Key=true",
		"Attempting Storage Upload...",
		"Storage Upload Success: " + got,
	}, []string(trace[2:]))
}

func TestResolveProxyAfterUploadFailure(t *testing.T) {
	server := newImageServer(t, http.StatusOK, "", []byte("jpeg"))
	store := newMemoryStore()
	store.err = errors.New("bucket not found")

	failing := WithEncoder(func([]byte, string) (string, error) { return "", errors.New("encoder unavailable") })
	resolver := NewImageResolver(server.Client(), store, allKeys, createTestLogger(), failing)

	candidate := server.URL + "/a.jpg?x=1&y=2"
	got, trace := resolver.Resolve(context.Background(), candidate)

	assert.Equal(t, "https://wsrv.nl/?url="+url.QueryEscape(candidate)+"&output=jpg&w=800&q=80", got)
	assert.Contains(t, trace, "Base64 Failed: encoder unavailable")
	assert.Contains(t, trace, "Storage Upload Failed: bucket not found")
	assert.Equal(t, "Using Weserv Fallback", trace[len(trace)-1])
}

func TestResolveWithoutStorageKeys(t *testing.T) {
	server := newImageServer(t, http.StatusOK, "image/jpeg", []byte("jpeg"))
	failing := WithEncoder(func([]byte, string) (string, error) { return "", errors.New("boom") })

	resolver := NewImageResolver(server.Client(), nil, StoreKeys{URL: true}, createTestLogger(), failing)
	_, trace := resolver.Resolve(context.Background(), server.URL)

	assert.Contains(t, trace, "Keys: URL=true, Key=false")
	assert.Contains(t, trace, "No Supabase Keys for Storage")
	assert.NotContains(t, trace, "Attempting Storage Upload...")
}

func TestResolveFetchFailureSkipsToProxy(t *testing.T) {
	server := newImageServer(t, http.StatusForbidden, "", nil)
	store := newMemoryStore()

	resolver := NewImageResolver(server.Client(), store, allKeys, createTestLogger())
	got, trace := resolver.Resolve(context.Background(), server.URL+"/blocked.jpg")

	assert.True(t, strings.HasPrefix(got, "https://wsrv.nl/?url="))
	assert.Equal(t, []string{"Fetch failed: 403", "Using Weserv Fallback"}, []string(trace[1:]))
	assert.Empty(t, store.uploads)
}

func TestResolveTransportErrorSkipsToProxy(t *testing.T) {
	server := newImageServer(t, http.StatusOK, "", nil)
	candidate := server.URL + "/gone.jpg"
	server.Close()

	resolver := NewImageResolver(http.DefaultClient, nil, allKeys, createTestLogger())
	got, trace := resolver.Resolve(context.Background(), candidate)

	assert.Equal(t, ProxyURL(candidate), got)
	require.Len(t, trace, 3)
	assert.True(t, strings.HasPrefix(trace[1], "Processing Error: "))
}

func TestResolvePassesThroughNonHTTP(t *testing.T) {
	resolver := NewImageResolver(nil, nil, allKeys, createTestLogger())

	for _, in := range []string{"", "data:image/png;base64,AAAA", "ftp://example.com/a.jpg", "https://", "/recipes/a.jpg"} {
		got, trace := resolver.Resolve(context.Background(), in)
		assert.Equal(t, in, got)
		assert.Empty(t, trace)
	}
}

func TestEncodeDataURLMatchesOneShotEncoding(t *testing.T) {
	// Larger than several chunks and not a multiple of three
	data := make([]byte, 5*base64ChunkSize+7)
	for i := range data {
		data[i] = byte(i * 31)
	}

	got, err := EncodeDataURL(data, "image/gif")
	require.NoError(t, err)
	assert.Equal(t, "data:image/gif;base64,"+base64.StdEncoding.EncodeToString(data), got)
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"image/png":                 "png",
		"image/jpeg; charset=utf-8": "jpeg",
		"image/":                    "jpg",
		"garbage":                   "jpg",
	}
	for in, want := range tests {
		assert.Equal(t, want, extensionFor(in), in)
	}
}
