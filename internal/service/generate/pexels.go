package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"chefmind/internal/domain"
	"chefmind/internal/pkg/metrics"
)

// DefaultPexelsURL is the photo search endpoint.
const DefaultPexelsURL = "https://api.pexels.com/v1/search"

type pexelsSearchResponse struct {
	Photos []struct {
		Src struct {
			Large2x string `json:"large2x"`
			Large   string `json:"large"`
			Medium  string `json:"medium"`
		} `json:"src"`
	} `json:"photos"`
}

// PhotoFinder picks a stock photo for a dish. Lookups never fail the
// request; a nil URL means no photo.
type PhotoFinder struct {
	endpoint string
	apiKey   string
	client   *http.Client
	cache    domain.PhotoCache
	pick     func(n int) int
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewPhotoFinder creates a finder. cache may be nil.
func NewPhotoFinder(endpoint, apiKey string, client *http.Client, cache domain.PhotoCache, m *metrics.Metrics, logger *slog.Logger) *PhotoFinder {
	if endpoint == "" {
		endpoint = DefaultPexelsURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PhotoFinder{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   client,
		cache:    cache,
		pick:     rand.IntN,
		metrics:  m,
		logger:   logger,
	}
}

// Enabled reports whether an API key was configured.
func (f *PhotoFinder) Enabled() bool {
	return f != nil && f.apiKey != ""
}

// Find returns a random photo among the top results for query. Results
// vary between calls so similar dishes do not all share one image.
func (f *PhotoFinder) Find(ctx context.Context, query string) *string {
	urls := f.candidates(ctx, query)
	if len(urls) == 0 {
		return nil
	}
	chosen := urls[f.pick(len(urls))]
	return &chosen
}

func (f *PhotoFinder) candidates(ctx context.Context, query string) []string {
	if f.cache != nil {
		urls, ok, err := f.cache.GetPhotos(ctx, query)
		if err != nil {
			f.logger.Warn("Photo cache read failed", "query", query, "error", err)
		} else if ok {
			f.metrics.PhotoLookup("cache")
			return urls
		}
	}

	urls, err := f.search(ctx, query)
	if err != nil {
		f.metrics.PhotoLookup("error")
		f.logger.Error("Pexels search failed", "query", query, "error", err)
		return nil
	}
	f.metrics.PhotoLookup("api")

	if f.cache != nil && len(urls) > 0 {
		if err := f.cache.SetPhotos(ctx, query, urls); err != nil {
			f.logger.Warn("Photo cache write failed", "query", query, "error", err)
		}
	}
	return urls
}

func (f *PhotoFinder) search(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", "5")
	params.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Authorization", f.apiKey)

	f.logger.Debug("Searching Pexels", "query", query)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return nil, fmt.Errorf("Pexels API Error: %d %s", resp.StatusCode, string(body))
	}

	var data pexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	urls := make([]string, 0, len(data.Photos))
	for _, photo := range data.Photos {
		if src := firstNonEmpty(photo.Src.Large2x, photo.Src.Large, photo.Src.Medium); src != "" {
			urls = append(urls, src)
		}
	}
	return urls, nil
}
