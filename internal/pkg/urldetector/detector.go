package urldetector

import (
	"sort"
	"sync"

	"chefmind/internal/domain"
)

// Detector recognises links to video hosts that carry extractable media.
type Detector struct {
	mu        sync.RWMutex
	platforms []domain.MediaPlatform
}

// New creates a detector over the enabled platforms, highest priority first.
func New(platforms []domain.MediaPlatform) *Detector {
	d := &Detector{}
	d.Refresh(platforms)
	return d
}

// Detect returns the first enabled platform whose pattern appears in rawURL.
func (d *Detector) Detect(rawURL string) (domain.MediaPlatform, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	candidate := Sanitize(rawURL)
	for _, platform := range d.platforms {
		if platform.Matches(candidate) {
			return platform, true
		}
	}
	return domain.MediaPlatform{}, false
}

// Refresh replaces the platform set, e.g. after the loader reloads from the database.
func (d *Detector) Refresh(platforms []domain.MediaPlatform) {
	enabled := make([]domain.MediaPlatform, 0, len(platforms))
	for _, p := range platforms {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority > enabled[j].Priority
	})

	d.mu.Lock()
	d.platforms = enabled
	d.mu.Unlock()
}
