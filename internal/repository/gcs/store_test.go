package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	buf      bytes.Buffer
	closeErr error
	closed   bool
}

func (w *memWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *memWriter) Close() error {
	w.closed = true
	return w.closeErr
}

func TestUpload(t *testing.T) {
	w := &memWriter{}
	var gotKey, gotType string
	store := &Store{
		bucket: "chefmind-images",
		newWriter: func(_ context.Context, key, contentType string) io.WriteCloser {
			gotKey, gotType = key, contentType
			return w
		},
	}

	require.NoError(t, store.Upload(context.Background(), "recipes/import_x.webp", []byte("img"), "image/webp"))
	assert.Equal(t, "recipes/import_x.webp", gotKey)
	assert.Equal(t, "image/webp", gotType)
	assert.Equal(t, "img", w.buf.String())
	assert.True(t, w.closed)
}

func TestUploadCommitFailure(t *testing.T) {
	store := &Store{
		bucket: "b",
		newWriter: func(context.Context, string, string) io.WriteCloser {
			return &memWriter{closeErr: errors.New("permission denied")}
		},
	}
	err := store.Upload(context.Background(), "k", []byte("x"), "image/jpeg")
	assert.ErrorContains(t, err, "failed to commit object k")
}

func TestPublicURL(t *testing.T) {
	store := &Store{bucket: "chefmind-images"}
	assert.Equal(t, "https://storage.googleapis.com/chefmind-images/recipes/a.jpg", store.PublicURL("recipes/a.jpg"))
}
