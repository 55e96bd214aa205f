package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Tier policy names
const (
	PolicyCapability = "capability"
	PolicyQueue      = "queue"
)

// Storage backends
const (
	StorageSupabase = "supabase"
	StorageS3       = "s3"
	StorageGCS      = "gcs"
)

type Config struct {
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"log_level"`
	DatabaseURL string `yaml:"-"`
	RedisURL    string `yaml:"-"`
	AdminAPIKey string `yaml:"-"`

	// Credentials are read once at start and checked per request
	GeminiAPIKey       string `yaml:"-"`
	SupabaseURL        string `yaml:"-"`
	SupabaseServiceKey string `yaml:"-"`
	SupabaseAnonKey    string `yaml:"-"`
	PexelsAPIKey       string `yaml:"-"`

	Models   ModelConfig   `yaml:"models"`
	Policies PolicyConfig  `yaml:"policies"`
	Scrape   ScrapeConfig  `yaml:"scrape"`
	Images   ImageConfig   `yaml:"images"`
	Storage  StorageConfig `yaml:"storage"`

	CobaltAPIURL string `yaml:"cobalt_api_url"`
	PexelsAPIURL string `yaml:"pexels_api_url"`
}

// ModelConfig names the generative models and the retry budget.
type ModelConfig struct {
	Executive     string        `yaml:"executive"`
	Standard      string        `yaml:"standard"`
	Queue         string        `yaml:"queue"`
	Vision        string        `yaml:"vision"`
	Attempts      int           `yaml:"attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	StandardDelay time.Duration `yaml:"standard_delay"`
}

// PolicyConfig selects a tier policy per handler.
type PolicyConfig struct {
	Import   string `yaml:"import"`
	Generate string `yaml:"generate"`
}

type ScrapeConfig struct {
	Timeout         time.Duration `yaml:"timeout"`
	MediaTimeout    time.Duration `yaml:"media_timeout"`
	BrowserFallback bool          `yaml:"browser_fallback"`
	BrowserTimeout  time.Duration `yaml:"browser_timeout"`
}

type ImageConfig struct {
	MaxBytes       int64 `yaml:"max_bytes"`
	InlineMaxBytes int64 `yaml:"inline_max_bytes"`
}

type StorageConfig struct {
	Backend string    `yaml:"backend"`
	Bucket  string    `yaml:"bucket"`
	S3      S3Config  `yaml:"s3"`
	GCS     GCSConfig `yaml:"gcs"`
}

type S3Config struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type GCSConfig struct {
	Bucket string `yaml:"bucket"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:     "8080",
		LogLevel: "info",
		Models: ModelConfig{
			Executive:     "gemini-2.5-flash",
			Standard:      "gemini-2.0-flash-exp",
			Queue:         "gemini-2.0-flash",
			Vision:        "gemini-2.5-flash",
			Attempts:      3,
			RetryDelay:    time.Second,
			StandardDelay: 4 * time.Second,
		},
		Policies: PolicyConfig{
			Import:   PolicyCapability,
			Generate: PolicyQueue,
		},
		Scrape: ScrapeConfig{
			Timeout:        5 * time.Second,
			MediaTimeout:   15 * time.Second,
			BrowserTimeout: 10 * time.Second,
		},
		Images: ImageConfig{
			MaxBytes: 10 * 1024 * 1024,
		},
		Storage: StorageConfig{
			Backend: StorageSupabase,
			Bucket:  "images",
		},
		CobaltAPIURL: "https://api.cobalt.tools/api/json",
		PexelsAPIURL: "https://api.pexels.com/v1/search",
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// environment variables and command line flags, in increasing precedence.
func Load() *Config {
	// A missing .env is the normal case outside local development
	_ = godotenv.Load()

	configFile := getEnvWithDefault("CONFIG_FILE", "")
	port := ""
	logLevel := ""
	flag.StringVar(&configFile, "config", configFile, "Path to YAML config file")
	flag.StringVar(&port, "port", "", "Server port")
	flag.StringVar(&logLevel, "log-level", "", "Log level")
	flag.Parse()

	config, err := LoadFrom(configFile, os.LookupEnv)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line flags override environment
	if port != "" {
		config.Port = port
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}

	return config
}

// LoadFrom reads path (if non-empty) over the defaults and then applies
// environment overrides through lookup.
func LoadFrom(path string, lookup func(string) (string, bool)) (*Config, error) {
	config := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	env := envReader{lookup: lookup}
	config.Port = env.str("PORT", config.Port)
	config.LogLevel = env.str("LOG_LEVEL", config.LogLevel)
	config.DatabaseURL = env.str("DATABASE_URL", "")
	config.RedisURL = env.str("REDIS_URL", "")
	config.AdminAPIKey = env.str("ADMIN_API_KEY", "")

	config.GeminiAPIKey = env.str("GEMINI_API_KEY", "")
	config.SupabaseURL = env.str("SUPABASE_URL", "")
	config.SupabaseServiceKey = env.str("SUPABASE_SERVICE_ROLE_KEY", "")
	config.SupabaseAnonKey = env.str("SUPABASE_ANON_KEY", "")
	config.PexelsAPIKey = env.str("PEXELS_API_KEY", "")

	config.CobaltAPIURL = env.str("COBALT_API_URL", config.CobaltAPIURL)
	config.Policies.Import = env.str("IMPORT_TIER_POLICY", config.Policies.Import)
	config.Policies.Generate = env.str("GENERATE_TIER_POLICY", config.Policies.Generate)
	config.Scrape.BrowserFallback = env.boolean("SCRAPE_BROWSER_FALLBACK", config.Scrape.BrowserFallback)
	config.Images.InlineMaxBytes = env.int64("IMAGE_INLINE_MAX_BYTES", config.Images.InlineMaxBytes)
	config.Images.MaxBytes = env.int64("IMAGE_MAX_BYTES", config.Images.MaxBytes)

	config.Storage.Backend = env.str("STORAGE_BACKEND", config.Storage.Backend)
	config.Storage.S3.Bucket = env.str("S3_BUCKET", config.Storage.S3.Bucket)
	config.Storage.S3.Region = env.str("AWS_REGION", config.Storage.S3.Region)
	config.Storage.S3.Endpoint = env.str("S3_ENDPOINT", config.Storage.S3.Endpoint)
	config.Storage.S3.PublicBaseURL = env.str("S3_PUBLIC_BASE_URL", config.Storage.S3.PublicBaseURL)
	config.Storage.GCS.Bucket = env.str("GCS_BUCKET", config.Storage.GCS.Bucket)

	return config, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type envReader struct {
	lookup func(string) (string, bool)
}

func (e envReader) str(key, defaultValue string) string {
	if value, ok := e.lookup(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func (e envReader) boolean(key string, defaultValue bool) bool {
	value, ok := e.lookup(key)
	if !ok || value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Ignoring invalid boolean %s=%q", key, value)
		return defaultValue
	}
	return parsed
}

func (e envReader) int64(key string, defaultValue int64) int64 {
	value, ok := e.lookup(key)
	if !ok || value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("Ignoring invalid integer %s=%q", key, value)
		return defaultValue
	}
	return parsed
}

// HasSupabaseService reports whether service-role storage access is configured.
func (c *Config) HasSupabaseService() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

// ValidateForAPI checks settings that must be coherent before serving.
// Missing credentials are not fatal here; each handler reports them per request.
func (c *Config) ValidateForAPI() error {
	switch c.Policies.Import {
	case PolicyCapability, PolicyQueue:
	default:
		return fmt.Errorf("unknown import tier policy %q", c.Policies.Import)
	}
	switch c.Policies.Generate {
	case PolicyCapability, PolicyQueue:
	default:
		return fmt.Errorf("unknown generate tier policy %q", c.Policies.Generate)
	}

	switch c.Storage.Backend {
	case StorageSupabase:
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 storage backend")
		}
	case StorageGCS:
		if c.Storage.GCS.Bucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for the gcs storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Models.Attempts < 1 {
		return fmt.Errorf("models.attempts must be at least 1")
	}
	return nil
}

// ValidateForDBUtil ensures the database is reachable by configuration.
func (c *Config) ValidateForDBUtil() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}
