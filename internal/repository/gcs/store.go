package gcs

import (
	"context"
	"fmt"
	"io"

	"chefmind/internal/domain"

	"cloud.google.com/go/storage"
)

// writerFunc opens a writer for key with the given content type.
type writerFunc func(ctx context.Context, key, contentType string) io.WriteCloser

// Store writes public objects to a Google Cloud Storage bucket.
type Store struct {
	bucket    string
	newWriter writerFunc
}

var _ domain.ObjectStore = (*Store)(nil)

// NewStore creates a client from application default credentials.
func NewStore(ctx context.Context, bucket string) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return NewStoreWithClient(client, bucket), nil
}

func NewStoreWithClient(client *storage.Client, bucket string) *Store {
	handle := client.Bucket(bucket)
	return &Store{
		bucket: bucket,
		newWriter: func(ctx context.Context, key, contentType string) io.WriteCloser {
			w := handle.Object(key).NewWriter(ctx)
			w.ContentType = contentType
			return w
		},
	}
}

// Upload writes data at key. The object is committed on Close, so its
// error is the one that matters.
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	w := s.newWriter(ctx, key, contentType)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to commit object %s: %w", key, err)
	}
	return nil
}

func (s *Store) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}
