package http

import (
	"log/slog"
	"net/http"

	"chefmind/internal/http/handlers"
	"chefmind/internal/http/middleware"
)

// RouterDeps are the services behind the HTTP surface. Platforms is nil
// when no database is configured, which leaves the admin routes unmounted.
type RouterDeps struct {
	Importer       handlers.Importer
	Generator      handlers.RecipeGenerator
	Fridge         handlers.FridgeAnalyzer
	Platforms      handlers.PlatformRepository
	PlatformLoader handlers.PlatformLoader
	Metrics        http.Handler
	AdminAPIKey    string
}

type Router struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	deps          RouterDeps
	healthHandler *handlers.HealthHandler
	recipeHandler *handlers.RecipeHandler
}

func NewRouter(logger *slog.Logger, deps RouterDeps) *Router {
	return &Router{
		mux:           http.NewServeMux(),
		logger:        logger,
		deps:          deps,
		healthHandler: handlers.NewHealthHandler(logger),
		recipeHandler: handlers.NewRecipeHandler(deps.Importer, deps.Generator, deps.Fridge, logger),
	}
}

func (r *Router) SetupRoutes() http.Handler {
	// Health check
	r.mux.HandleFunc("GET /health", r.healthHandler.HandleHealth)
	if r.deps.Metrics != nil {
		r.mux.Handle("GET /metrics", r.deps.Metrics)
	}

	// Functions called by the app
	r.mux.HandleFunc("POST /functions/v1/import-recipe", r.recipeHandler.ImportRecipe)
	r.mux.HandleFunc("POST /functions/v1/generate-recipes", r.recipeHandler.GenerateRecipes)
	r.mux.HandleFunc("POST /functions/v1/analyze-fridge", r.recipeHandler.AnalyzeFridge)

	// API v1 routes - Media platform administration
	if r.deps.Platforms != nil {
		admin := handlers.NewAdminPlatformHandler(r.deps.Platforms, r.deps.PlatformLoader, r.logger)
		auth := middleware.NewAdminAuth(r.deps.AdminAPIKey, r.logger)
		guard := func(h http.HandlerFunc) http.Handler { return auth.Middleware(h) }

		r.mux.Handle("GET /api/v1/admin/platforms", guard(admin.ListPlatforms))
		r.mux.Handle("POST /api/v1/admin/platforms", guard(admin.CreatePlatform))
		r.mux.Handle("POST /api/v1/admin/platforms/refresh", guard(admin.RefreshCache))
		r.mux.Handle("PUT /api/v1/admin/platforms/{id}", guard(admin.UpdatePlatform))
		r.mux.Handle("PATCH /api/v1/admin/platforms/{id}", guard(admin.PatchPlatform))
		r.mux.Handle("DELETE /api/v1/admin/platforms/{id}", guard(admin.DeletePlatform))
	} else {
		r.logger.Info("Platform admin routes disabled - no database configured")
	}

	// Add CORS middleware
	return middleware.CORS(r.mux)
}
