package ingest

import (
	"context"
	"log/slog"
	"strings"

	"chefmind/internal/domain"
	"chefmind/internal/pkg/metrics"
	"chefmind/internal/pkg/urldetector"
	"chefmind/internal/service/llm"
)

// DefaultTitle is shown when neither the page nor the model named the link.
const DefaultTitle = "Shared Link"

// Credentials records which secrets were configured at start. Requests are
// refused, with a message naming the missing secret, when any is absent.
type Credentials struct {
	GeminiKey  bool
	StorageURL bool
	StorageKey bool
}

// Deps are the collaborators of a Pipeline. OEmbed and Metrics may be nil.
type Deps struct {
	Credentials Credentials
	Scraper     *Scraper
	Detector    *urldetector.Detector
	Media       *MediaExtractor
	OEmbed      *OEmbedClient
	Invoker     *llm.Invoker
	Policy      llm.TierPolicy
	Images      *ImageResolver
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Pipeline turns a shared link into a structured recipe.
type Pipeline struct {
	deps Deps
}

func NewPipeline(deps Deps) *Pipeline {
	return &Pipeline{deps: deps}
}

// Ingest runs one import. It fails only for missing configuration, a
// missing URL, or a model invocation that could not complete; every
// content-level shortfall degrades to an empty result.
func (p *Pipeline) Ingest(ctx context.Context, req domain.IngestionRequest) (*domain.IngestionResult, error) {
	creds := p.deps.Credentials
	if !creds.GeminiKey {
		return nil, domain.ConfigError("GEMINI_API_KEY not found")
	}
	if !creds.StorageURL || !creds.StorageKey {
		return nil, domain.ConfigError("Supabase Config Missing")
	}
	if strings.TrimSpace(req.SourceURL) == "" {
		return nil, domain.RequestError("URL is required")
	}

	logger := p.deps.Logger
	sourceURL := urldetector.Sanitize(req.SourceURL)
	logger.Info("Processing URL", "url", sourceURL, "tier", req.Tier)

	var debug []string
	targetURL := sourceURL
	if p.deps.OEmbed != nil {
		targetURL = p.deps.OEmbed.ResolveShortLink(ctx, sourceURL)
	}

	// Metadata
	page, err := p.deps.Scraper.Scrape(ctx, targetURL)
	if err != nil {
		logger.Warn("Metadata scrape failed", "url", targetURL, "error", err)
		debug = append(debug, err.Error())
	}
	title := page.Metadata.Title
	caption := page.Metadata.Description
	thumbnail := page.Metadata.ThumbnailURL

	// Media
	var asset *domain.MediaAsset
	platform, isVideo := p.deps.Detector.Detect(targetURL)
	if isVideo {
		logger.Info("Video site detected, attempting extraction", "platform", platform.ID)
		extraction, err := p.deps.Media.Extract(ctx, targetURL)
		if err != nil {
			logger.Warn("Media extraction failed", "platform", platform.ID, "error", err)
			debug = append(debug, "Media extraction failed: "+err.Error())
		} else {
			title = firstNonEmpty(title, extraction.Title)
			thumbnail = firstNonEmpty(thumbnail, extraction.Thumbnail)
			asset = extraction.Asset
		}

		if p.deps.OEmbed != nil && platform.OEmbedEndpoint != "" && (title == "" || thumbnail == "") {
			oTitle, oThumb, err := p.deps.OEmbed.Lookup(ctx, platform.OEmbedEndpoint, targetURL)
			if err != nil {
				logger.Debug("oEmbed lookup failed", "platform", platform.ID, "error", err)
			} else {
				title = firstNonEmpty(title, oTitle)
				thumbnail = firstNonEmpty(thumbnail, oThumb)
			}
		}
	}

	if asset == nil && caption == "" {
		if text := ReadableText(page.HTML, targetURL); text != "" {
			logger.Debug("Using readable page text as caption", "runes", len([]rune(text)))
			caption = text
		}
	}

	// Model
	if err := llm.Wait(ctx, p.deps.Policy, req.Tier); err != nil {
		return nil, err
	}
	model := p.deps.Policy.Model(req.Tier)
	logger.Info("Generating recipe", "model", model, "has_media", asset != nil)

	raw, err := p.deps.Invoker.Invoke(ctx, model, BuildPrompt(sourceURL, title, caption, asset))
	if err != nil {
		p.deps.Metrics.IngestionCompleted(string(domain.StatusError))
		return nil, err
	}

	draft, _ := ParseDraft(raw)
	status := Classify(&draft, title, thumbnail)

	// Image
	if thumbnail != "" {
		resolved, trace := p.deps.Images.Resolve(ctx, thumbnail)
		debug = append(debug, trace...)
		thumbnail = resolved
		if len(trace) > 0 && status == domain.StatusFound {
			draft.Thumbnail = thumbnail
		}
	}
	logger.Debug("Debug log", "debug", debug)

	result := &domain.IngestionResult{
		Status: status,
		Metadata: domain.ResultMetadata{
			Title: firstNonEmpty(title, draft.Title, DefaultTitle),
		},
		Debug: debug,
	}
	if status == domain.StatusFound {
		result.Recipe = &draft
	}
	if thumbnail != "" {
		result.Metadata.Thumbnail = &thumbnail
	}
	if result.Debug == nil {
		result.Debug = []string{}
	}

	p.deps.Metrics.IngestionCompleted(string(status))
	logger.Info("Import completed", "status", status, "title", result.Metadata.Title)
	return result, nil
}
