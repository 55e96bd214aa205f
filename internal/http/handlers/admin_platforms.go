package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"chefmind/internal/domain"
)

// PlatformRepository defines the interface for platform data access
type PlatformRepository = domain.MediaPlatformRepository

// PlatformLoader defines the interface for platform cache management
type PlatformLoader interface {
	Refresh(ctx context.Context) error
	Count() int
	Source() string
}

// AdminPlatformHandler handles admin operations for media platform management
type AdminPlatformHandler struct {
	platformRepo   PlatformRepository
	platformLoader PlatformLoader
	logger         *slog.Logger
}

// NewAdminPlatformHandler creates a new admin platform handler
func NewAdminPlatformHandler(
	platformRepo PlatformRepository,
	platformLoader PlatformLoader,
	logger *slog.Logger,
) *AdminPlatformHandler {
	return &AdminPlatformHandler{
		platformRepo:   platformRepo,
		platformLoader: platformLoader,
		logger:         logger,
	}
}

// CreatePlatformRequest represents the request body for creating a platform
type CreatePlatformRequest struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	URLPatterns    []string `json:"url_patterns"`
	OEmbedEndpoint string   `json:"oembed_endpoint"`
	Priority       int      `json:"priority"`
	Enabled        bool     `json:"enabled"`
}

// UpdatePlatformRequest represents the request body for updating a platform
type UpdatePlatformRequest struct {
	Name           string   `json:"name"`
	URLPatterns    []string `json:"url_patterns"`
	OEmbedEndpoint string   `json:"oembed_endpoint"`
	Priority       int      `json:"priority"`
	Enabled        bool     `json:"enabled"`
}

// PatchPlatformRequest represents the request body for partial updates
type PatchPlatformRequest struct {
	Name           *string   `json:"name,omitempty"`
	URLPatterns    *[]string `json:"url_patterns,omitempty"`
	OEmbedEndpoint *string   `json:"oembed_endpoint,omitempty"`
	Priority       *int      `json:"priority,omitempty"`
	Enabled        *bool     `json:"enabled,omitempty"`
}

// PlatformResponse represents the response for platform operations
type PlatformResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	URLPatterns    []string  `json:"url_patterns"`
	OEmbedEndpoint string    `json:"oembed_endpoint,omitempty"`
	Priority       int       `json:"priority"`
	Enabled        bool      `json:"enabled"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toPlatformResponse(p *domain.MediaPlatform) PlatformResponse {
	updatedAt := time.Time{}
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}
	return PlatformResponse{
		ID:             p.ID,
		Name:           p.Name,
		URLPatterns:    p.URLPatterns,
		OEmbedEndpoint: p.OEmbedEndpoint,
		Priority:       p.Priority,
		Enabled:        p.Enabled,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

// refreshLoader pushes a repository change into the running detector.
// A failed refresh keeps the previous set, so it only warrants a warning.
func (h *AdminPlatformHandler) refreshLoader(ctx context.Context, logger *slog.Logger, op string) {
	if err := h.platformLoader.Refresh(ctx); err != nil {
		logger.Warn("Failed to refresh platform cache after "+op, "error", err)
	}
}

// lookup fetches a platform or writes the matching error response.
func (h *AdminPlatformHandler) lookup(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*domain.MediaPlatform, bool) {
	platformID := r.PathValue("id")
	if platformID == "" {
		http.Error(w, "platform id is required", http.StatusBadRequest)
		return nil, false
	}

	platform, err := h.platformRepo.GetPlatform(r.Context(), platformID)
	if errors.Is(err, domain.ErrPlatformNotFound) {
		http.Error(w, "Platform not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		logger.Error("Failed to get platform", "error", err, "id", platformID)
		http.Error(w, "Failed to get existing platform", http.StatusInternalServerError)
		return nil, false
	}
	return platform, true
}

// CreatePlatform handles POST /api/v1/admin/platforms
func (h *AdminPlatformHandler) CreatePlatform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := requestLogger(h.logger, r)

	var req CreatePlatformRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if len(req.URLPatterns) == 0 {
		http.Error(w, "url_patterns must contain at least one pattern", http.StatusBadRequest)
		return
	}

	platform := &domain.MediaPlatform{
		ID:             req.ID,
		Name:           req.Name,
		URLPatterns:    req.URLPatterns,
		OEmbedEndpoint: req.OEmbedEndpoint,
		Priority:       req.Priority,
		Enabled:        req.Enabled,
	}

	if err := h.platformRepo.CreatePlatform(ctx, platform); err != nil {
		logger.Error("Failed to create platform", "error", err, "id", req.ID)
		http.Error(w, "Failed to create platform: "+err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Info("Platform created via admin API",
		"id", platform.ID,
		"name", platform.Name,
		"patterns", len(platform.URLPatterns),
	)
	h.refreshLoader(ctx, logger, "create")

	writeJSONResponse(w, logger, http.StatusCreated, toPlatformResponse(platform))
}

// UpdatePlatform handles PUT /api/v1/admin/platforms/{id}
func (h *AdminPlatformHandler) UpdatePlatform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := requestLogger(h.logger, r)

	var req UpdatePlatformRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if len(req.URLPatterns) == 0 {
		http.Error(w, "url_patterns must contain at least one pattern", http.StatusBadRequest)
		return
	}

	existing, ok := h.lookup(w, r, logger)
	if !ok {
		return
	}

	platform := &domain.MediaPlatform{
		ID:             existing.ID,
		Name:           req.Name,
		URLPatterns:    req.URLPatterns,
		OEmbedEndpoint: req.OEmbedEndpoint,
		Priority:       req.Priority,
		Enabled:        req.Enabled,
		CreatedAt:      existing.CreatedAt,
	}

	if err := h.platformRepo.UpdatePlatform(ctx, platform); err != nil {
		logger.Error("Failed to update platform", "error", err, "id", platform.ID)
		http.Error(w, "Failed to update platform: "+err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Info("Platform updated via admin API",
		"id", platform.ID,
		"name", platform.Name,
	)
	h.refreshLoader(ctx, logger, "update")

	writeJSONResponse(w, logger, http.StatusOK, toPlatformResponse(platform))
}

// PatchPlatform handles PATCH /api/v1/admin/platforms/{id}
func (h *AdminPlatformHandler) PatchPlatform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := requestLogger(h.logger, r)

	var req PatchPlatformRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	platform, ok := h.lookup(w, r, logger)
	if !ok {
		return
	}

	if req.Name != nil {
		platform.Name = *req.Name
	}
	if req.URLPatterns != nil {
		if len(*req.URLPatterns) == 0 {
			http.Error(w, "url_patterns must contain at least one pattern", http.StatusBadRequest)
			return
		}
		platform.URLPatterns = *req.URLPatterns
	}
	if req.OEmbedEndpoint != nil {
		platform.OEmbedEndpoint = *req.OEmbedEndpoint
	}
	if req.Priority != nil {
		platform.Priority = *req.Priority
	}
	if req.Enabled != nil {
		platform.Enabled = *req.Enabled
	}

	if err := h.platformRepo.UpdatePlatform(ctx, platform); err != nil {
		logger.Error("Failed to patch platform", "error", err, "id", platform.ID)
		http.Error(w, "Failed to update platform: "+err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Info("Platform patched via admin API",
		"id", platform.ID,
		"name", platform.Name,
	)
	h.refreshLoader(ctx, logger, "patch")

	writeJSONResponse(w, logger, http.StatusOK, toPlatformResponse(platform))
}

// DeletePlatform handles DELETE /api/v1/admin/platforms/{id} (soft delete)
func (h *AdminPlatformHandler) DeletePlatform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := requestLogger(h.logger, r)

	platform, ok := h.lookup(w, r, logger)
	if !ok {
		return
	}

	platform.Enabled = false
	if err := h.platformRepo.UpdatePlatform(ctx, platform); err != nil {
		logger.Error("Failed to delete platform", "error", err, "id", platform.ID)
		http.Error(w, "Failed to delete platform: "+err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Info("Platform soft deleted via admin API", "id", platform.ID)
	h.refreshLoader(ctx, logger, "delete")

	w.WriteHeader(http.StatusNoContent)
}

// RefreshCache handles POST /api/v1/admin/platforms/refresh
func (h *AdminPlatformHandler) RefreshCache(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(h.logger, r)

	if err := h.platformLoader.Refresh(r.Context()); err != nil {
		logger.Error("Failed to refresh platform cache", "error", err)
		http.Error(w, "Failed to refresh cache: "+err.Error(), http.StatusInternalServerError)
		return
	}

	count := h.platformLoader.Count()
	logger.Info("Platform cache refreshed via admin API",
		"platform_count", count,
		"source", h.platformLoader.Source(),
	)

	writeJSONResponse(w, logger, http.StatusOK, map[string]any{
		"message":        "Platform cache refreshed",
		"platform_count": count,
		"source":         h.platformLoader.Source(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// ListPlatforms handles GET /api/v1/admin/platforms. Disabled platforms
// are included so they can be re-enabled.
func (h *AdminPlatformHandler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(h.logger, r)

	platforms, err := h.platformRepo.GetAllPlatforms(r.Context())
	if err != nil {
		logger.Error("Failed to get platforms", "error", err)
		http.Error(w, "Failed to get platforms", http.StatusInternalServerError)
		return
	}

	responses := make([]PlatformResponse, 0, len(platforms))
	for _, p := range platforms {
		responses = append(responses, toPlatformResponse(p))
	}

	writeJSONResponse(w, logger, http.StatusOK, responses)
}
