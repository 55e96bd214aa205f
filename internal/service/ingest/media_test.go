package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCobaltServer(t *testing.T, reply func(mediaURL string) string, media []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("POST /api/json", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["isAudioOnly"])
		assert.Equal(t, "mp3", body["aFormat"])
		assert.Equal(t, "nerdy", body["filenamePattern"])
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(reply(server.URL + "/media.mp3")))
	})
	mux.HandleFunc("GET /media.mp3", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(media)))
		w.Write(media)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestExtractDownloadsAudio(t *testing.T) {
	server := newCobaltServer(t, func(mediaURL string) string {
		return `{"status":"stream","url":"` + mediaURL + `","title":"Crispy Rice Salad","picker":"https://cdn.example.com/thumb.jpg"}`
	}, []byte("ID3-audio"))

	extractor := NewMediaExtractor(server.URL+"/api/json", server.Client(), time.Second, createTestLogger())
	got, err := extractor.Extract(context.Background(), "https://www.tiktok.com/@chef/video/1")
	require.NoError(t, err)

	assert.Equal(t, "Crispy Rice Salad", got.Title)
	assert.Equal(t, "https://cdn.example.com/thumb.jpg", got.Thumbnail)
	require.NotNil(t, got.Asset)
	assert.Equal(t, []byte("ID3-audio"), got.Asset.Data)
	assert.Equal(t, "audio/mp3", got.Asset.MIMEType)
	assert.Equal(t, int64(9), got.Asset.Size)
}

func TestExtractSkipsOversizedMedia(t *testing.T) {
	server := newCobaltServer(t, func(mediaURL string) string {
		return `{"url":"` + mediaURL + `"}`
	}, make([]byte, 64))

	extractor := NewMediaExtractor(server.URL+"/api/json", server.Client(), time.Second, createTestLogger())
	extractor.maxBytes = 32

	got, err := extractor.Extract(context.Background(), "https://www.instagram.com/reel/abc")
	require.NoError(t, err)
	assert.Nil(t, got.Asset)
}

func TestExtractErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	extractor := NewMediaExtractor(server.URL, server.Client(), time.Second, createTestLogger())
	_, err := extractor.Extract(context.Background(), "https://www.tiktok.com/@chef/video/1")
	assert.ErrorContains(t, err, "429")
}

func TestPickerThumbnail(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"absent", ``, ""},
		{"string", `"https://a.example.com/t.jpg"`, "https://a.example.com/t.jpg"},
		{"list thumb", `[{"thumb":"https://a.example.com/1.jpg","url":"https://a.example.com/1.mp4"}]`, "https://a.example.com/1.jpg"},
		{"list url only", `[{"url":"https://a.example.com/2.jpg"}]`, "https://a.example.com/2.jpg"},
		{"skips empty items", `[{},{"thumb":"https://a.example.com/3.jpg"}]`, "https://a.example.com/3.jpg"},
		{"unexpected shape", `{"thumb":"x"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickerThumbnail(json.RawMessage(tt.raw)))
		})
	}
}
