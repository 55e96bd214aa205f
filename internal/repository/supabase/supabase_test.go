package supabase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"chefmind/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestListPantryItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/pantry_items", r.URL.Path)
		assert.Equal(t, "name", r.URL.Query().Get("select"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer user-jwt", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"name":"Eggs"},{"name":"Spinach"}]`))
	}))
	defer server.Close()

	repo := NewPantryRepository(NewClient(server.URL+"/", nil), "anon-key")
	items, err := repo.ListPantryItems(context.Background(), "Bearer user-jwt")
	require.NoError(t, err)
	assert.Equal(t, []string{"Eggs", "Spinach"}, items)
}

func TestListPantryItemsErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"PGRST301","message":"JWT expired"}`))
	}))
	defer server.Close()

	t.Run("upstream rejection", func(t *testing.T) {
		repo := NewPantryRepository(NewClient(server.URL, nil), "anon-key")
		_, err := repo.ListPantryItems(context.Background(), "Bearer stale")
		require.Error(t, err)
		assert.Equal(t, "Failed to fetch pantry: (PGRST301) JWT expired", err.Error())
		assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
	})

	t.Run("missing configuration", func(t *testing.T) {
		repo := NewPantryRepository(NewClient("", nil), "")
		_, err := repo.ListPantryItems(context.Background(), "Bearer x")
		require.Error(t, err)
		assert.Equal(t, "Supabase Configuration Missing", err.Error())
		assert.Equal(t, domain.KindConfig, domain.KindOf(err))
	})
}

func TestStorageUpload(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/images/recipes/import_1.png", r.URL.Path)
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.Header.Get("x-upsert"))
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"Key":"images/recipes/import_1.png"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	store := NewStorage(client, "service-key", "")

	require.NoError(t, store.Upload(context.Background(), "recipes/import_1.png", []byte("png"), "image/png"))
	assert.Equal(t, []byte("png"), gotBody)
	assert.Equal(t, server.URL+"/storage/v1/object/public/images/recipes/import_1.png", store.PublicURL("recipes/import_1.png"))
}

func TestStorageUploadRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"statusCode":"403","error":"Unauthorized","message":"new row violates row-level security policy"}`))
	}))
	defer server.Close()

	store := NewStorage(NewClient(server.URL, nil), "bad-key", "images")
	err := store.Upload(context.Background(), "k.jpg", []byte("x"), "image/jpeg")
	assert.ErrorContains(t, err, "row-level security")
}

func TestStorageUploadKeepsContentTypePerObject(t *testing.T) {
	var (
		mu  sync.Mutex
		got = map[string]string{}
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got[r.URL.Path] = r.Header.Get("Content-Type")
		mu.Unlock()
		w.Write([]byte(`{"Key":"ok"}`))
	}))
	defer server.Close()

	store := NewStorage(NewClient(server.URL, nil), "service-key", "images")
	types := map[string]string{"a.png": "image/png", "b.jpg": "image/jpeg", "c.webp": "image/webp"}

	var g errgroup.Group
	for key, contentType := range types {
		g.Go(func() error {
			return store.Upload(context.Background(), key, []byte("x"), contentType)
		})
	}
	require.NoError(t, g.Wait())

	for key, contentType := range types {
		assert.Equal(t, contentType, got["/storage/v1/object/images/"+key], key)
	}
}

func TestDownloadPublicObject(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantData  string
		wantError string
	}{
		{
			name: "authorized download",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("jpeg-bytes"))
			},
			wantData: "jpeg-bytes",
		},
		{
			name: "falls back to anonymous",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				w.Write([]byte("public-bytes"))
			},
			wantData: "public-bytes",
		},
		{
			name: "both attempts fail",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantError: "Failed to download image from Supabase: Not Found",
		},
		{
			name: "too large",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write(make([]byte, 64))
			},
			wantError: "exceeds 32 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			data, err := NewClient(server.URL, nil).DownloadPublicObject(context.Background(), "images", "scans/1.jpg", "Bearer jwt", 32)
			if tt.wantError != "" {
				assert.ErrorContains(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, string(data))
		})
	}
}
