package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"chefmind/internal/domain"

	storage "github.com/supabase-community/storage-go"
)

// DefaultBucket holds recipe and fridge images.
const DefaultBucket = "images"

// Storage uploads objects with the service role key.
type Storage struct {
	// storage.Client keeps per-upload options in a shared header set,
	// so uploads go through one at a time.
	mu     sync.Mutex
	api    *storage.Client
	client *Client
	bucket string
}

var _ domain.ObjectStore = (*Storage)(nil)

func NewStorage(client *Client, serviceKey, bucket string) *Storage {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &Storage{
		api:    storage.NewClient(client.storageURL(), serviceKey, map[string]string{"apikey": serviceKey}),
		client: client,
		bucket: bucket,
	}
}

// Upload writes data at key, replacing an existing object.
func (s *Storage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	upsert := true
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.api.UploadFile(s.bucket, key, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

func (s *Storage) PublicURL(key string) string {
	return s.client.PublicObjectURL(s.bucket, key)
}

// DownloadPublicObject fetches key from bucket, first with the caller's
// authorization and then anonymously. maxBytes caps the body.
func (c *Client) DownloadPublicObject(ctx context.Context, bucket, key, authorization string, maxBytes int64) ([]byte, error) {
	url := c.PublicObjectURL(bucket, key)

	resp, err := c.get(ctx, url, authorization)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		firstStatus := resp.StatusCode
		resp.Body.Close()

		resp, err = c.get(ctx, url, "")
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("Failed to download image from Supabase: %s", http.StatusText(firstStatus))
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("object %s exceeds %d bytes", key, maxBytes)
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, url, authorization string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	return resp, nil
}
