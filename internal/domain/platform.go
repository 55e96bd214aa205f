package domain

import (
	"strings"
	"time"
)

// MediaPlatform is a video host whose shared links carry recipe media.
type MediaPlatform struct {
	ID             string     `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	URLPatterns    []string   `json:"url_patterns" db:"url_patterns"`
	OEmbedEndpoint string     `json:"oembed_endpoint,omitempty" db:"oembed_endpoint"`
	Priority       int        `json:"priority" db:"priority"`
	Enabled        bool       `json:"enabled" db:"enabled"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Matches reports whether rawURL contains one of the platform's patterns.
// Patterns are plain substrings, compared case-insensitively.
func (p *MediaPlatform) Matches(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, pattern := range p.URLPatterns {
		if pattern != "" && strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// Platform IDs
const (
	PlatformInstagramReel = "instagram_reel"
	PlatformTikTok        = "tiktok"
	PlatformYouTubeShorts = "youtube_shorts"
	PlatformYouTubeWatch  = "youtube_watch"
)

const youTubeOEmbed = "https://www.youtube.com/oembed"

// DefaultMediaPlatforms is the built-in platform set used for seeding and
// whenever the database is unavailable.
func DefaultMediaPlatforms() []MediaPlatform {
	return []MediaPlatform{
		{
			ID:          PlatformInstagramReel,
			Name:        "Instagram Reels",
			URLPatterns: []string{"instagram.com/reel"},
			Priority:    10,
			Enabled:     true,
		},
		{
			ID:             PlatformTikTok,
			Name:           "TikTok",
			URLPatterns:    []string{"tiktok.com"},
			OEmbedEndpoint: "https://www.tiktok.com/oembed",
			Priority:       10,
			Enabled:        true,
		},
		{
			ID:             PlatformYouTubeShorts,
			Name:           "YouTube Shorts",
			URLPatterns:    []string{"youtube.com/shorts"},
			OEmbedEndpoint: youTubeOEmbed,
			Priority:       20,
			Enabled:        true,
		},
		{
			ID:             PlatformYouTubeWatch,
			Name:           "YouTube",
			URLPatterns:    []string{"youtube.com/watch"},
			OEmbedEndpoint: youTubeOEmbed,
			Priority:       5,
			Enabled:        true,
		},
	}
}
