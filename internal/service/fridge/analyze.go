package fridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"chefmind/internal/domain"
	"chefmind/internal/service/llm"
)

const (
	imageBucket   = "images"
	imageMIMEType = "image/jpeg"
	maxPhotoBytes = 10 * 1024 * 1024
)

const visionPrompt = `Identify all food ingredients in this image. 
    Return a strictly valid JSON list of strings under the key "ingredients".
    Be specific (e.g. 'Red Onion', 'Baby Spinach', 'Almond Milk').
    Do not include non-food items.
    
    JSON Example:
    {
      "ingredients": ["Tomato", "Mozzarella", "Basil"]
    }
    Do not add markdown formatting.`

// ObjectDownloader fetches an object from public storage on behalf of a caller.
type ObjectDownloader interface {
	DownloadPublicObject(ctx context.Context, bucket, key, authorization string, maxBytes int64) ([]byte, error)
}

// Config lists which secrets are present.
type Config struct {
	HasModelKey   bool
	HasStorageURL bool
	HasAnonKey    bool
}

// Analyzer lists the ingredients visible in a fridge or pantry photo.
type Analyzer struct {
	cfg        Config
	downloader ObjectDownloader
	invoker    *llm.Invoker
	policy     llm.TierPolicy
	logger     *slog.Logger
}

// NewAnalyzer creates an analyzer. Fridge scans carry no tier, so they run
// under policy's standard tier; use llm.FixedPolicy to pin the vision model.
func NewAnalyzer(cfg Config, downloader ObjectDownloader, invoker *llm.Invoker, policy llm.TierPolicy, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		cfg:        cfg,
		downloader: downloader,
		invoker:    invoker,
		policy:     policy,
		logger:     logger,
	}
}

// Analyze downloads the uploaded photo at req.ImagePath and asks the
// vision model for its ingredients.
func (a *Analyzer) Analyze(ctx context.Context, req domain.FridgeRequest, authorization string) (*domain.FridgeResult, error) {
	if strings.TrimSpace(req.ImagePath) == "" {
		return nil, domain.RequestError("Image path is required")
	}
	if !a.cfg.HasModelKey || !a.cfg.HasStorageURL || !a.cfg.HasAnonKey || authorization == "" {
		return nil, domain.ConfigError("Missing configuration or authorization")
	}

	image, err := a.downloader.DownloadPublicObject(ctx, imageBucket, req.ImagePath, authorization, maxPhotoBytes)
	if err != nil {
		return nil, domain.UpstreamError(err.Error(), err)
	}
	a.logger.Debug("Downloaded fridge photo", "path", req.ImagePath, "bytes", len(image))

	if err := llm.Wait(ctx, a.policy, domain.TierStandard); err != nil {
		return nil, err
	}
	raw, err := a.invoker.InvokeTier(ctx, a.policy, domain.TierStandard, []llm.Part{
		llm.TextPart(visionPrompt),
		llm.BlobPart(image, imageMIMEType),
	})
	if err != nil {
		return nil, err
	}

	var result domain.FridgeResult
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &result); err != nil {
		return nil, domain.UpstreamError(fmt.Sprintf("Invalid response from Gemini: %v", err), err)
	}
	if result.Ingredients == nil {
		result.Ingredients = []string{}
	}

	a.logger.Info("Fridge analyzed", "ingredients", len(result.Ingredients))
	return &result, nil
}
