package platforms

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"chefmind/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

type stubRepo struct {
	platforms []*domain.MediaPlatform
	err       error
}

func (s *stubRepo) GetAllPlatforms(context.Context) ([]*domain.MediaPlatform, error) {
	return s.platforms, s.err
}

func TestLoaderFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name string
		repo PlatformRepository
	}{
		{"nil repository", nil},
		{"database error", &stubRepo{err: errors.New("connection refused")}},
		{"empty table", &stubRepo{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewLoader(tt.repo, createTestLogger())
			require.NoError(t, loader.Load(context.Background()))

			assert.Equal(t, "defaults", loader.Source())
			assert.Equal(t, len(domain.DefaultMediaPlatforms()), loader.Count())
			_, err := loader.Get(domain.PlatformTikTok)
			assert.NoError(t, err)
		})
	}
}

func TestLoaderUsesDatabaseAndNotifies(t *testing.T) {
	repo := &stubRepo{platforms: []*domain.MediaPlatform{
		{ID: "vimeo", Name: "Vimeo", URLPatterns: []string{"vimeo.com"}, Priority: 1, Enabled: true},
		{ID: "tiktok", Name: "TikTok", URLPatterns: []string{"tiktok.com"}, Priority: 9, Enabled: true},
		{ID: "dailymotion", Name: "Dailymotion", URLPatterns: []string{"dailymotion.com"}, Enabled: false},
	}}
	loader := NewLoader(repo, createTestLogger())

	var notified []domain.MediaPlatform
	loader.Subscribe(func(p []domain.MediaPlatform) { notified = p })

	require.NoError(t, loader.Load(context.Background()))

	assert.Equal(t, "database", loader.Source())
	assert.Equal(t, 3, loader.Count())
	require.Len(t, notified, 2)
	assert.Equal(t, "tiktok", notified[0].ID, "highest priority first")
	assert.Equal(t, "vimeo", notified[1].ID)

	all, err := loader.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLoaderNotLoaded(t *testing.T) {
	loader := NewLoader(nil, createTestLogger())
	_, err := loader.Get("tiktok")
	assert.Error(t, err)
	_, err = loader.GetAll()
	assert.Error(t, err)
}
