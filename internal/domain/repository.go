package domain

import (
	"context"
	"errors"
)

// ErrPlatformNotFound is returned when no platform has the requested ID.
var ErrPlatformNotFound = errors.New("platform not found")

// MediaPlatformRepository persists media platform configuration.
type MediaPlatformRepository interface {
	// GetAllPlatforms returns every configured platform, enabled or not
	GetAllPlatforms(ctx context.Context) ([]*MediaPlatform, error)

	// GetPlatform returns a single platform by ID
	GetPlatform(ctx context.Context, id string) (*MediaPlatform, error)

	// CreatePlatform inserts a new platform
	CreatePlatform(ctx context.Context, platform *MediaPlatform) error

	// UpdatePlatform modifies an existing platform
	UpdatePlatform(ctx context.Context, platform *MediaPlatform) error
}

// PantryRepository reads a user's pantry. The credential is forwarded
// verbatim; row ownership is enforced by the backend.
type PantryRepository interface {
	ListPantryItems(ctx context.Context, authorization string) ([]string, error)
}

// ObjectStore uploads public objects.
type ObjectStore interface {
	// Upload writes data under key, replacing any existing object
	Upload(ctx context.Context, key string, data []byte, contentType string) error

	// PublicURL resolves the public URL of key
	PublicURL(key string) string
}

// PhotoCache caches stock-photo search results by query.
type PhotoCache interface {
	GetPhotos(ctx context.Context, query string) ([]string, bool, error)
	SetPhotos(ctx context.Context, query string, urls []string) error
}
