package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chefmind/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	photoKeyPrefix = "pexels:"
	// PhotoTTL bounds how long a stock photo result set is reused.
	PhotoTTL = 24 * time.Hour
)

// PhotoCache stores stock photo URL lists keyed by search query.
type PhotoCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ domain.PhotoCache = (*PhotoCache)(nil)

func NewPhotoCache(client redis.Cmdable) *PhotoCache {
	return &PhotoCache{client: client, ttl: PhotoTTL}
}

func photoKey(query string) string {
	return photoKeyPrefix + query
}

// GetPhotos returns the cached URLs for query. The bool is false on a miss.
func (c *PhotoCache) GetPhotos(ctx context.Context, query string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, photoKey(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read photo cache: %w", err)
	}

	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next set
		return nil, false, nil
	}
	return urls, true, nil
}

func (c *PhotoCache) SetPhotos(ctx context.Context, query string, urls []string) error {
	raw, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("failed to encode photo urls: %w", err)
	}
	if err := c.client.Set(ctx, photoKey(query), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write photo cache: %w", err)
	}
	return nil
}
