package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"chefmind/internal/domain"
	"chefmind/internal/service/llm"

	"golang.org/x/sync/errgroup"
)

// maxPhotoLookups bounds concurrent stock photo searches per request.
const maxPhotoLookups = 4

// Service answers generate-recipes calls.
type Service struct {
	hasModelKey bool
	invoker     *llm.Invoker
	policy      llm.TierPolicy
	pantry      domain.PantryRepository
	photos      *PhotoFinder
	logger      *slog.Logger
}

func NewService(hasModelKey bool, invoker *llm.Invoker, policy llm.TierPolicy, pantry domain.PantryRepository, photos *PhotoFinder, logger *slog.Logger) *Service {
	return &Service{
		hasModelKey: hasModelKey,
		invoker:     invoker,
		policy:      policy,
		pantry:      pantry,
		photos:      photos,
		logger:      logger,
	}
}

// Generate runs req on behalf of the caller identified by authorization
// and returns the JSON body to send back.
func (s *Service) Generate(ctx context.Context, req domain.GenerateRequest, authorization string) (json.RawMessage, error) {
	if !s.hasModelKey {
		return nil, domain.ConfigError("GEMINI_API_KEY not found")
	}
	if authorization == "" {
		return nil, domain.RequestError("Missing Authorization header")
	}

	tier := domain.TierFromFlag(req.IsExecutive)
	if delay := s.policy.Delay(tier); delay > 0 {
		s.logger.Info("Standard tier, queueing request", "delay", delay)
	}
	if err := llm.Wait(ctx, s.policy, tier); err != nil {
		return nil, fmt.Errorf("request cancelled while queued: %w", err)
	}

	if req.Mode == domain.ModeConsultChef {
		return s.consult(ctx, req, tier)
	}

	pantry, err := s.pantry.ListPantryItems(ctx, authorization)
	if err != nil {
		return nil, err
	}

	switch req.Mode {
	case domain.ModeDiscover:
		if req.SearchQuery == "" {
			return nil, domain.RequestError("Search query required for discovery mode")
		}
	case domain.ModePantryChef:
	default:
		return nil, domain.RequestError(fmt.Sprintf("Invalid mode: %s", req.Mode))
	}

	prompt := recipePrompt(req, pantry)
	raw, err := s.invoker.InvokeTier(ctx, s.policy, tier, []llm.Part{llm.TextPart(prompt)})
	if err != nil {
		return nil, err
	}
	cleaned := llm.CleanJSON(raw)

	var parsed struct {
		Recipes []domain.GeneratedRecipe `json:"recipes"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil || parsed.Recipes == nil {
		s.logger.Warn("Returning unparsed model output", "error", err)
		return json.RawMessage(cleaned), nil
	}

	s.attachPhotos(ctx, parsed.Recipes)

	out, err := json.Marshal(domain.GenerateResponse{Recipes: parsed.Recipes})
	if err != nil {
		return nil, fmt.Errorf("failed to encode recipes: %w", err)
	}
	return out, nil
}

func (s *Service) consult(ctx context.Context, req domain.GenerateRequest, tier domain.Tier) (json.RawMessage, error) {
	if req.UserQuestion == "" {
		return nil, domain.RequestError("Question required")
	}

	raw, err := s.invoker.InvokeTier(ctx, s.policy, tier, []llm.Part{
		llm.TextPart(consultPrompt(req.RecipeContext, req.UserQuestion)),
	})
	if err != nil {
		return nil, err
	}

	var answer domain.ChefAnswer
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &answer); err != nil {
		answer = domain.ChefAnswer{Answer: raw}
	}

	out, err := json.Marshal(answer)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer: %w", err)
	}
	return out, nil
}

// attachPhotos sets thumbnail and image on every recipe, searching in
// parallel. Without an API key both stay null and the image prompt is kept
// for clients that render their own.
func (s *Service) attachPhotos(ctx context.Context, recipes []domain.GeneratedRecipe) {
	if !s.photos.Enabled() {
		s.logger.Info("No Pexels API key found, skipping image search")
		for i := range recipes {
			recipes[i].Thumbnail = nil
			recipes[i].Image = nil
		}
		return
	}

	s.logger.Info("Fetching images for recipes", "count", len(recipes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPhotoLookups)
	for i := range recipes {
		g.Go(func() error {
			photo := s.photos.Find(gctx, recipes[i].Title+" food")
			recipes[i].Thumbnail = photo
			recipes[i].Image = photo
			recipes[i].ImagePrompt = ""
			return nil
		})
	}
	_ = g.Wait()
}
