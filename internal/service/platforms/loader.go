package platforms

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"chefmind/internal/domain"
)

// PlatformRepository defines the interface for platform data access
type PlatformRepository interface {
	GetAllPlatforms(ctx context.Context) ([]*domain.MediaPlatform, error)
}

// Loader manages media platform configuration with in-memory caching.
// Subscribers are notified with the enabled set after every load.
type Loader struct {
	repo   PlatformRepository
	logger *slog.Logger

	mu          sync.RWMutex
	platforms   map[string]domain.MediaPlatform
	loaded      bool
	source      string
	subscribers []func([]domain.MediaPlatform)
}

// NewLoader creates a new platform loader. repo may be nil, in which case
// the built-in defaults are always used.
func NewLoader(repo PlatformRepository, logger *slog.Logger) *Loader {
	return &Loader{
		repo:      repo,
		logger:    logger,
		platforms: make(map[string]domain.MediaPlatform),
	}
}

// Subscribe registers fn to receive the enabled platforms after each load.
func (l *Loader) Subscribe(fn func([]domain.MediaPlatform)) {
	l.mu.Lock()
	l.subscribers = append(l.subscribers, fn)
	l.mu.Unlock()
}

// Load fetches platforms from the database and caches them in memory.
// Falls back to hardcoded defaults if the database is unavailable or empty.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()

	if l.repo == nil {
		l.loadDefaults("no database configured")
	} else if platforms, err := l.repo.GetAllPlatforms(ctx); err != nil {
		l.logger.Warn("Failed to load platforms from database, falling back to defaults",
			"error", err,
		)
		l.loadDefaults("database error")
	} else if len(platforms) == 0 {
		l.loadDefaults("database empty")
	} else {
		l.platforms = make(map[string]domain.MediaPlatform, len(platforms))
		enabledCount := 0
		for _, platform := range platforms {
			l.platforms[platform.ID] = *platform
			if platform.Enabled {
				enabledCount++
			}
		}
		l.loaded = true
		l.source = "database"
		l.logger.Info("Platforms loaded successfully from database",
			"total", len(platforms),
			"enabled", enabledCount,
		)
	}

	enabled := l.enabledLocked()
	subscribers := append([]func([]domain.MediaPlatform){}, l.subscribers...)
	l.mu.Unlock()

	for _, fn := range subscribers {
		fn(enabled)
	}
	return nil
}

// loadDefaults loads hardcoded default platforms as fallback
func (l *Loader) loadDefaults(reason string) {
	defaults := domain.DefaultMediaPlatforms()
	l.platforms = make(map[string]domain.MediaPlatform, len(defaults))
	for _, p := range defaults {
		l.platforms[p.ID] = p
	}
	l.loaded = true
	l.source = "defaults"

	l.logger.Info("Loaded hardcoded default platforms",
		"count", len(l.platforms),
		"reason", reason,
	)
}

// Refresh reloads platforms from the database
func (l *Loader) Refresh(ctx context.Context) error {
	l.logger.Info("Refreshing platform configuration...")
	return l.Load(ctx)
}

// Get retrieves a platform by ID from the cache
func (l *Loader) Get(id string) (domain.MediaPlatform, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.loaded {
		return domain.MediaPlatform{}, fmt.Errorf("platforms not loaded yet")
	}

	platform, exists := l.platforms[id]
	if !exists {
		return domain.MediaPlatform{}, fmt.Errorf("platform not found: %s", id)
	}
	return platform, nil
}

// GetAll returns all enabled platforms, highest priority first
func (l *Loader) GetAll() ([]domain.MediaPlatform, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.loaded {
		return nil, fmt.Errorf("platforms not loaded yet")
	}
	return l.enabledLocked(), nil
}

func (l *Loader) enabledLocked() []domain.MediaPlatform {
	out := make([]domain.MediaPlatform, 0, len(l.platforms))
	for _, p := range l.platforms {
		if p.Enabled {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Source reports where the cached platforms came from ("database" or "defaults").
func (l *Loader) Source() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.source
}

// Count returns the number of cached platforms
func (l *Loader) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.platforms)
}
