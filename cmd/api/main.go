package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chefmind/internal/config"
	"chefmind/internal/domain"
	chefhttp "chefmind/internal/http"
	"chefmind/internal/http/handlers"
	"chefmind/internal/pkg/logger"
	"chefmind/internal/pkg/metrics"
	"chefmind/internal/pkg/urldetector"
	"chefmind/internal/repository/gcs"
	"chefmind/internal/repository/postgres"
	"chefmind/internal/repository/redis"
	"chefmind/internal/repository/s3"
	"chefmind/internal/repository/supabase"
	"chefmind/internal/service/api"
	"chefmind/internal/service/fridge"
	"chefmind/internal/service/generate"
	"chefmind/internal/service/ingest"
	"chefmind/internal/service/llm"
	"chefmind/internal/service/platforms"

	_ "github.com/lib/pq"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Validate API-specific configuration
	if err := cfg.ValidateForAPI(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Setup logging
	log := logger.New(cfg.LogLevel)
	log.Info("Starting API service...")

	ctx := context.Background()
	m := metrics.New()
	httpClient := &http.Client{Timeout: 30 * time.Second}

	// Media platforms come from Postgres when configured, otherwise defaults
	var (
		platformRepo handlers.PlatformRepository
		loaderRepo   platforms.PlatformRepository
	)
	if cfg.DatabaseURL != "" {
		db, err := openDatabase(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Error("Failed to initialise database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		repo := postgres.NewPlatformRepository(db, log)
		platformRepo, loaderRepo = repo, repo
	} else {
		log.Info("DATABASE_URL not set - using built-in media platforms")
	}

	detector := urldetector.New(domain.DefaultMediaPlatforms())
	platformLoader := platforms.NewLoader(loaderRepo, log)
	platformLoader.Subscribe(detector.Refresh)
	if err := platformLoader.Load(ctx); err != nil {
		log.Error("Failed to load platforms", "error", err)
		os.Exit(1)
	}
	log.Info("Platform loader initialized",
		"platform_count", platformLoader.Count(),
		"source", platformLoader.Source(),
	)

	// Stock photo cache is optional
	var photoCache domain.PhotoCache
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Warn("Redis unavailable - photo cache disabled", "error", err)
		} else {
			defer client.Close()
			photoCache = redis.NewPhotoCache(client)
		}
	}

	supabaseClient := supabase.NewClient(cfg.SupabaseURL, httpClient)
	store, keys, err := newObjectStore(ctx, cfg, supabaseClient)
	if err != nil {
		log.Error("Failed to initialise object storage", "error", err)
		os.Exit(1)
	}

	// Model access; requests fail individually when the key is missing
	var generator llm.Generator
	if cfg.GeminiAPIKey != "" {
		g, err := llm.NewGenAIGenerator(ctx, cfg.GeminiAPIKey, httpClient)
		if err != nil {
			log.Error("Failed to create Gemini client", "error", err)
			os.Exit(1)
		}
		generator = g
	} else {
		log.Warn("GEMINI_API_KEY not set - model requests will be rejected")
	}
	invoker := llm.NewInvoker(generator, log,
		llm.WithRetry(cfg.Models.Attempts, cfg.Models.RetryDelay),
		llm.WithMetrics(m),
	)

	var browser ingest.HTMLFetcher
	if cfg.Scrape.BrowserFallback {
		browser = ingest.NewRodBrowser(cfg.Scrape.BrowserTimeout, log)
	}

	pipeline := ingest.NewPipeline(ingest.Deps{
		Credentials: ingest.Credentials{
			GeminiKey:  cfg.GeminiAPIKey != "",
			StorageURL: keys.URL,
			StorageKey: keys.Key,
		},
		Scraper:  ingest.NewScraper(httpClient, cfg.Scrape.Timeout, browser, log),
		Detector: detector,
		Media:    ingest.NewMediaExtractor(cfg.CobaltAPIURL, httpClient, cfg.Scrape.MediaTimeout, log),
		OEmbed:   ingest.NewOEmbedClient(log),
		Invoker:  invoker,
		Policy:   tierPolicy(cfg.Policies.Import, cfg.Models),
		Images: ingest.NewImageResolver(httpClient, store, keys, log,
			ingest.WithMaxImageBytes(cfg.Images.MaxBytes),
			ingest.WithInlineLimit(cfg.Images.InlineMaxBytes),
			ingest.WithImageMetrics(m),
		),
		Metrics: m,
		Logger:  log,
	})

	photos := generate.NewPhotoFinder(cfg.PexelsAPIURL, cfg.PexelsAPIKey, httpClient, photoCache, m, log)
	recipes := generate.NewService(
		cfg.GeminiAPIKey != "",
		invoker,
		tierPolicy(cfg.Policies.Generate, cfg.Models),
		supabase.NewPantryRepository(supabaseClient, cfg.SupabaseAnonKey),
		photos,
		log,
	)

	analyzer := fridge.NewAnalyzer(fridge.Config{
		HasModelKey:   cfg.GeminiAPIKey != "",
		HasStorageURL: cfg.SupabaseURL != "",
		HasAnonKey:    cfg.SupabaseAnonKey != "",
	}, supabaseClient, invoker, llm.FixedPolicy(cfg.Models.Vision), log)

	router := chefhttp.NewRouter(log, chefhttp.RouterDeps{
		Importer:       pipeline,
		Generator:      recipes,
		Fridge:         analyzer,
		Platforms:      platformRepo,
		PlatformLoader: platformLoader,
		Metrics:        m.Handler(),
		AdminAPIKey:    cfg.AdminAPIKey,
	})

	apiService := api.New(cfg, log, router.SetupRoutes())

	// Create a channel to track shutdown completion
	done := make(chan struct{})

	// Start API service in a goroutine
	go func() {
		defer close(done)
		if err := apiService.Start(); err != nil {
			log.Error("API service failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for either shutdown signal or service completion
	select {
	case <-quit:
		log.Info("Shutdown signal received, stopping API service...")
	case <-done:
		log.Info("API service completed")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiService.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping API service", "error", err)
	}

	log.Info("API service shutdown complete")
}

func openDatabase(ctx context.Context, databaseURL string, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := postgres.RunMigrations(ctx, db, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return db, nil
}

// newObjectStore builds the configured storage backend. The Supabase
// backend reports which of its credentials are present; the cloud backends
// authenticate through their SDK credential chains.
func newObjectStore(ctx context.Context, cfg *config.Config, client *supabase.Client) (domain.ObjectStore, ingest.StoreKeys, error) {
	switch cfg.Storage.Backend {
	case config.StorageS3:
		store, err := s3.NewStore(ctx, s3.Options{
			Bucket:        cfg.Storage.S3.Bucket,
			Region:        cfg.Storage.S3.Region,
			Endpoint:      cfg.Storage.S3.Endpoint,
			PublicBaseURL: cfg.Storage.S3.PublicBaseURL,
		})
		if err != nil {
			return nil, ingest.StoreKeys{}, err
		}
		return store, ingest.StoreKeys{URL: true, Key: true}, nil

	case config.StorageGCS:
		store, err := gcs.NewStore(ctx, cfg.Storage.GCS.Bucket)
		if err != nil {
			return nil, ingest.StoreKeys{}, err
		}
		return store, ingest.StoreKeys{URL: true, Key: true}, nil

	default:
		store := supabase.NewStorage(client, cfg.SupabaseServiceKey, cfg.Storage.Bucket)
		return store, ingest.StoreKeys{
			URL: cfg.SupabaseURL != "",
			Key: cfg.SupabaseServiceKey != "",
		}, nil
	}
}

func tierPolicy(name string, models config.ModelConfig) llm.TierPolicy {
	if name == config.PolicyQueue {
		return llm.QueuePolicy{
			ModelName:     models.Queue,
			StandardDelay: models.StandardDelay,
		}
	}
	return llm.CapabilityPolicy{
		ExecutiveModel: models.Executive,
		StandardModel:  models.Standard,
	}
}
