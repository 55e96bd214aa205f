package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"chefmind/internal/domain"
)

// Importer turns a shared link into a recipe.
type Importer interface {
	Ingest(ctx context.Context, req domain.IngestionRequest) (*domain.IngestionResult, error)
}

// RecipeGenerator answers generate-recipes calls with a ready JSON body.
type RecipeGenerator interface {
	Generate(ctx context.Context, req domain.GenerateRequest, authorization string) (json.RawMessage, error)
}

// FridgeAnalyzer lists the ingredients in an uploaded photo.
type FridgeAnalyzer interface {
	Analyze(ctx context.Context, req domain.FridgeRequest, authorization string) (*domain.FridgeResult, error)
}

// RecipeHandler serves the three recipe functions called by the app.
type RecipeHandler struct {
	importer  Importer
	generator RecipeGenerator
	fridge    FridgeAnalyzer
	logger    *slog.Logger
}

func NewRecipeHandler(importer Importer, generator RecipeGenerator, fridge FridgeAnalyzer, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{
		importer:  importer,
		generator: generator,
		fridge:    fridge,
		logger:    logger,
	}
}

type importRequest struct {
	URL         string `json:"url"`
	IsExecutive bool   `json:"is_executive"`
}

// ImportRecipe handles POST /functions/v1/import-recipe
func (h *RecipeHandler) ImportRecipe(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(h.logger, r)

	var req importRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("Invalid import request body", "error", err)
		writeJSONResponse(w, logger, http.StatusInternalServerError, map[string]string{
			"status": "error",
			"error":  "Invalid request body",
		})
		return
	}

	result, err := h.importer.Ingest(r.Context(), domain.IngestionRequest{
		SourceURL: req.URL,
		Tier:      domain.TierFromFlag(req.IsExecutive),
	})
	if err != nil {
		logger.Error("Import failed", "error", err, "kind", domain.KindOf(err))
		writeJSONResponse(w, logger, http.StatusInternalServerError, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	logger.Info("Recipe imported",
		"status", result.Status,
		"title", result.Metadata.Title,
	)
	writeJSONResponse(w, logger, http.StatusOK, result)
}

// GenerateRecipes handles POST /functions/v1/generate-recipes
func (h *RecipeHandler) GenerateRecipes(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(h.logger, r)

	var req domain.GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("Invalid generate request body", "error", err)
		writeJSONResponse(w, logger, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	body, err := h.generator.Generate(r.Context(), req, r.Header.Get("Authorization"))
	if err != nil {
		logger.Error("Generation failed", "error", err, "mode", req.Mode, "kind", domain.KindOf(err))
		writeJSONResponse(w, logger, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	logger.Info("Recipes generated", "mode", req.Mode, "executive", req.IsExecutive)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger.Error("Failed to write response", "error", err)
	}
}

// AnalyzeFridge handles POST /functions/v1/analyze-fridge
func (h *RecipeHandler) AnalyzeFridge(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(h.logger, r)

	var req domain.FridgeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("Invalid fridge request body", "error", err)
		writeJSONResponse(w, logger, http.StatusInternalServerError, map[string]string{"error": "Invalid request body"})
		return
	}

	result, err := h.fridge.Analyze(r.Context(), req, r.Header.Get("Authorization"))
	if err != nil {
		logger.Error("Fridge analysis failed", "error", err, "kind", domain.KindOf(err))
		writeJSONResponse(w, logger, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	logger.Info("Fridge analyzed", "ingredients", len(result.Ingredients))
	writeJSONResponse(w, logger, http.StatusOK, result)
}
