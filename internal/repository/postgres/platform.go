package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chefmind/internal/domain"

	"github.com/lib/pq"
)

// ErrPlatformNotFound is returned when no row matches a platform ID.
var ErrPlatformNotFound = domain.ErrPlatformNotFound

type PlatformRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ domain.MediaPlatformRepository = (*PlatformRepository)(nil)

// NewPlatformRepository creates a new PostgreSQL media platform repository
func NewPlatformRepository(db *sql.DB, logger *slog.Logger) *PlatformRepository {
	return &PlatformRepository{
		db:     db,
		logger: logger,
	}
}

const platformSelectFields = `
	SELECT id, name, url_patterns, oembed_endpoint, priority, enabled, created_at, updated_at
	FROM media_platforms
`

// GetAllPlatforms fetches all platform configurations ordered by priority.
// The table is small, so there is no pagination.
func (r *PlatformRepository) GetAllPlatforms(ctx context.Context) ([]*domain.MediaPlatform, error) {
	rows, err := r.db.QueryContext(ctx, platformSelectFields+` ORDER BY priority DESC, id`)
	if err != nil {
		r.logger.Error("Failed to query all platforms", "error", err)
		return nil, fmt.Errorf("failed to query all platforms: %w", err)
	}
	defer rows.Close()

	var platforms []*domain.MediaPlatform
	for rows.Next() {
		platform, err := r.scanPlatformRow(rows)
		if err != nil {
			r.logger.Error("Failed to scan platform row", "error", err)
			return nil, err
		}
		platforms = append(platforms, platform)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error occurred during platform iteration: %w", err)
	}

	r.logger.Debug("Fetched all platforms", "count", len(platforms))
	return platforms, nil
}

// GetPlatform fetches a single platform by ID
func (r *PlatformRepository) GetPlatform(ctx context.Context, id string) (*domain.MediaPlatform, error) {
	row := r.db.QueryRowContext(ctx, platformSelectFields+` WHERE id = $1`, id)
	platform, err := r.scanPlatformRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlatformNotFound
	}
	if err != nil {
		return nil, err
	}
	return platform, nil
}

func (r *PlatformRepository) scanPlatformRow(scanner interface{ Scan(...interface{}) error }) (*domain.MediaPlatform, error) {
	platform := &domain.MediaPlatform{}
	var oembed sql.NullString
	var updatedAt sql.NullTime
	err := scanner.Scan(
		&platform.ID,
		&platform.Name,
		pq.Array(&platform.URLPatterns),
		&oembed,
		&platform.Priority,
		&platform.Enabled,
		&platform.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan platform row: %w", err)
	}

	platform.OEmbedEndpoint = oembed.String
	if updatedAt.Valid {
		platform.UpdatedAt = &updatedAt.Time
	}
	return platform, nil
}

// CreatePlatform inserts a new platform
func (r *PlatformRepository) CreatePlatform(ctx context.Context, platform *domain.MediaPlatform) error {
	query := `
		INSERT INTO media_platforms (id, name, url_patterns, oembed_endpoint, priority, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	if platform.CreatedAt.IsZero() {
		platform.CreatedAt = now
	}
	platform.UpdatedAt = &now

	_, err := r.db.ExecContext(ctx, query,
		platform.ID,
		platform.Name,
		pq.Array(platform.URLPatterns),
		nullString(platform.OEmbedEndpoint),
		platform.Priority,
		platform.Enabled,
		platform.CreatedAt,
		platform.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create platform",
			"error", err,
			"platform_id", platform.ID,
		)
		return fmt.Errorf("failed to create platform: %w", err)
	}

	r.logger.Info("Platform created successfully", "platform_id", platform.ID)
	return nil
}

// UpdatePlatform modifies an existing platform
func (r *PlatformRepository) UpdatePlatform(ctx context.Context, platform *domain.MediaPlatform) error {
	query := `
		UPDATE media_platforms SET
			name = $2,
			url_patterns = $3,
			oembed_endpoint = $4,
			priority = $5,
			enabled = $6,
			updated_at = $7
		WHERE id = $1`

	now := time.Now()
	platform.UpdatedAt = &now

	res, err := r.db.ExecContext(ctx, query,
		platform.ID,
		platform.Name,
		pq.Array(platform.URLPatterns),
		nullString(platform.OEmbedEndpoint),
		platform.Priority,
		platform.Enabled,
		platform.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update platform",
			"error", err,
			"platform_id", platform.ID,
		)
		return fmt.Errorf("failed to update platform: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrPlatformNotFound
	}

	r.logger.Info("Platform updated successfully", "platform_id", platform.ID)
	return nil
}

// SeedDefaults inserts the built-in platforms, leaving existing rows alone.
func (r *PlatformRepository) SeedDefaults(ctx context.Context) (int, error) {
	query := `
		INSERT INTO media_platforms (id, name, url_patterns, oembed_endpoint, priority, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	inserted := 0
	for _, p := range domain.DefaultMediaPlatforms() {
		res, err := r.db.ExecContext(ctx, query,
			p.ID, p.Name, pq.Array(p.URLPatterns), nullString(p.OEmbedEndpoint), p.Priority, p.Enabled,
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to seed platform %s: %w", p.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	r.logger.Info("Seeded default platforms", "inserted", inserted)
	return inserted, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
