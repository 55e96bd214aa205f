package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// oEmbedResponse holds the fields of an oEmbed reply that feed metadata.
// See: https://oembed.com/#section2.3
type oEmbedResponse struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ProviderName string `json:"provider_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// OEmbedClient looks up titles and thumbnails from provider oEmbed
// endpoints and expands share short links.
type OEmbedClient struct {
	httpClient     *http.Client
	redirectClient *http.Client
	shortLinkHosts map[string]bool
	logger         *slog.Logger
}

func NewOEmbedClient(logger *slog.Logger) *OEmbedClient {
	return &OEmbedClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		redirectClient: &http.Client{
			Timeout: 5 * time.Second,
			// Capture the first Location instead of following it
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		shortLinkHosts: map[string]bool{
			"youtu.be":      true,
			"vm.tiktok.com": true,
			"vt.tiktok.com": true,
		},
		logger: logger,
	}
}

// Lookup queries endpoint for resourceURL and returns the title and thumbnail.
func (c *OEmbedClient) Lookup(ctx context.Context, endpoint, resourceURL string) (title, thumbnail string, err error) {
	apiURL, err := buildOEmbedURL(endpoint, resourceURL)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", CrawlerUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("oEmbed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return "", "", fmt.Errorf("oEmbed HTTP error: %d (body: %s)", resp.StatusCode, string(body))
	}

	var data oEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", "", fmt.Errorf("failed to parse oEmbed response: %w", err)
	}

	c.logger.Debug("oEmbed lookup succeeded",
		"provider", data.ProviderName,
		"url", resourceURL,
		"has_title", data.Title != "",
		"has_thumbnail", data.ThumbnailURL != "",
	)
	return data.Title, data.ThumbnailURL, nil
}

func buildOEmbedURL(endpoint, resourceURL string) (string, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid oEmbed endpoint: %w", err)
	}
	query := base.Query()
	query.Set("url", resourceURL)
	query.Set("format", "json")
	base.RawQuery = query.Encode()
	return base.String(), nil
}

// ResolveShortLink expands known share short links to their canonical URL
// with a single HEAD request. Other URLs, and any failure, yield rawURL.
func (c *OEmbedClient) ResolveShortLink(ctx context.Context, rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || !c.shortLinkHosts[parsed.Host] {
		return rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return rawURL
	}
	req.Header.Set("User-Agent", CrawlerUserAgent)

	resp, err := c.redirectClient.Do(req)
	if err != nil {
		c.logger.Debug("Failed to resolve short link", "url", rawURL, "error", err)
		return rawURL
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return rawURL
	}
	location, err := url.Parse(resp.Header.Get("Location"))
	if err != nil || location.String() == "" {
		return rawURL
	}
	if !location.IsAbs() {
		location = parsed.ResolveReference(location)
	}

	c.logger.Info("Resolved short link", "short_url", rawURL, "canonical_url", location.String())
	return location.String()
}
