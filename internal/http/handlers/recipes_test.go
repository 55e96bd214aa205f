package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"chefmind/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestLogger creates a logger for testing
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

type fakeImporter struct {
	result *domain.IngestionResult
	err    error
	got    domain.IngestionRequest
}

func (f *fakeImporter) Ingest(_ context.Context, req domain.IngestionRequest) (*domain.IngestionResult, error) {
	f.got = req
	return f.result, f.err
}

type fakeGenerator struct {
	body json.RawMessage
	err  error
	auth string
	got  domain.GenerateRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req domain.GenerateRequest, authorization string) (json.RawMessage, error) {
	f.got, f.auth = req, authorization
	return f.body, f.err
}

type fakeFridge struct {
	result *domain.FridgeResult
	err    error
	auth   string
}

func (f *fakeFridge) Analyze(_ context.Context, _ domain.FridgeRequest, authorization string) (*domain.FridgeResult, error) {
	f.auth = authorization
	return f.result, f.err
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestImportRecipe(t *testing.T) {
	title := "Pasta"
	importer := &fakeImporter{result: &domain.IngestionResult{
		Status:   domain.StatusFound,
		Recipe:   &domain.RecipeDraft{Title: "Pasta"},
		Metadata: domain.ResultMetadata{Title: title},
		Debug:    []string{"Attempting to fetch image"},
	}}
	h := NewRecipeHandler(importer, nil, nil, createTestLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/functions/v1/import-recipe",
		strings.NewReader(`{"url":"https://example.com/r","is_executive":true}`))
	h.ImportRecipe(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "https://example.com/r", importer.got.SourceURL)
	assert.Equal(t, domain.TierExecutive, importer.got.Tier)

	body := decodeBody(t, rec)
	assert.Equal(t, "found", body["status"])
	assert.Equal(t, "Pasta", body["metadata"].(map[string]any)["title"])
}

func TestImportRecipeErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		wantErr string
	}{
		{"malformed body", `{"url":`, nil, "Invalid request body"},
		{"missing key", `{"url":"https://x.test"}`, domain.ConfigError("GEMINI_API_KEY not found"), "GEMINI_API_KEY not found"},
		{"missing url", `{}`, domain.RequestError("URL is required"), "URL is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRecipeHandler(&fakeImporter{err: tt.err}, nil, nil, createTestLogger())
			rec := httptest.NewRecorder()
			h.ImportRecipe(rec, httptest.NewRequest(http.MethodPost, "/functions/v1/import-recipe", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.wantErr, body["error"])
		})
	}
}

func TestGenerateRecipes(t *testing.T) {
	t.Run("passes body through", func(t *testing.T) {
		gen := &fakeGenerator{body: json.RawMessage(`{"recipes":[]}`)}
		h := NewRecipeHandler(nil, gen, nil, createTestLogger())

		req := httptest.NewRequest(http.MethodPost, "/functions/v1/generate-recipes",
			strings.NewReader(`{"mode":"discover","search_query":"tacos"}`))
		req.Header.Set("Authorization", "Bearer user")
		rec := httptest.NewRecorder()
		h.GenerateRecipes(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"recipes":[]}`, rec.Body.String())
		assert.Equal(t, "Bearer user", gen.auth)
		assert.Equal(t, "tacos", gen.got.SearchQuery)
	})

	t.Run("errors are 400", func(t *testing.T) {
		gen := &fakeGenerator{err: domain.RequestError("Invalid mode: x")}
		h := NewRecipeHandler(nil, gen, nil, createTestLogger())

		rec := httptest.NewRecorder()
		h.GenerateRecipes(rec, httptest.NewRequest(http.MethodPost, "/functions/v1/generate-recipes", strings.NewReader(`{"mode":"x"}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, map[string]any{"error": "Invalid mode: x"}, decodeBody(t, rec))
	})
}

func TestAnalyzeFridge(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fridge := &fakeFridge{result: &domain.FridgeResult{Ingredients: []string{"Egg"}}}
		h := NewRecipeHandler(nil, nil, fridge, createTestLogger())

		req := httptest.NewRequest(http.MethodPost, "/functions/v1/analyze-fridge", strings.NewReader(`{"image_path":"a.jpg"}`))
		req.Header.Set("Authorization", "Bearer user")
		rec := httptest.NewRecorder()
		h.AnalyzeFridge(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ingredients":["Egg"]}`, rec.Body.String())
		assert.Equal(t, "Bearer user", fridge.auth)
	})

	t.Run("errors are 500", func(t *testing.T) {
		h := NewRecipeHandler(nil, nil, &fakeFridge{err: errors.New("boom")}, createTestLogger())

		rec := httptest.NewRecorder()
		h.AnalyzeFridge(rec, httptest.NewRequest(http.MethodPost, "/functions/v1/analyze-fridge", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, map[string]any{"error": "boom"}, decodeBody(t, rec))
	})
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(createTestLogger()).HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}
