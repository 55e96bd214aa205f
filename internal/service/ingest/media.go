package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"chefmind/internal/domain"
)

// DefaultCobaltURL is the public media extraction endpoint.
const DefaultCobaltURL = "https://api.cobalt.tools/api/json"

// AudioMIMEType is what the extractor asks for and what the model is told.
const AudioMIMEType = "audio/mp3"

type cobaltRequest struct {
	URL             string `json:"url"`
	IsAudioOnly     bool   `json:"isAudioOnly"`
	AudioFormat     string `json:"aFormat"`
	FilenamePattern string `json:"filenamePattern"`
}

type cobaltResponse struct {
	Status string          `json:"status"`
	URL    string          `json:"url"`
	Title  string          `json:"title"`
	Picker json.RawMessage `json:"picker"`
}

// Extraction is what the media service returned for a video URL.
// Asset is nil when no media could be downloaded within the size limit.
type Extraction struct {
	Title     string
	Thumbnail string
	Asset     *domain.MediaAsset
}

// MediaExtractor pulls an audio track out of a short-form video link.
type MediaExtractor struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	logger   *slog.Logger
}

func NewMediaExtractor(endpoint string, client *http.Client, timeout time.Duration, logger *slog.Logger) *MediaExtractor {
	if endpoint == "" {
		endpoint = DefaultCobaltURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &MediaExtractor{
		endpoint: endpoint,
		client:   client,
		timeout:  timeout,
		maxBytes: domain.MaxMediaBytes,
		logger:   logger,
	}
}

// Extract asks the media service for videoURL and downloads the result.
// The timeout covers both the API call and the download.
func (m *MediaExtractor) Extract(ctx context.Context, videoURL string) (*Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	body, err := json.Marshal(cobaltRequest{
		URL:             videoURL,
		IsAudioOnly:     true,
		AudioFormat:     "mp3",
		FilenamePattern: "nerdy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction HTTP error: %d", resp.StatusCode)
	}

	var data cobaltResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1024*1024)).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	out := &Extraction{
		Title:     data.Title,
		Thumbnail: pickerThumbnail(data.Picker),
	}
	if data.URL == "" {
		return out, nil
	}

	asset, err := m.download(ctx, data.URL)
	if err != nil {
		m.logger.Debug("Media download skipped", "error", err)
		return out, nil
	}
	out.Asset = asset
	return out, nil
}

func (m *MediaExtractor) download(ctx context.Context, mediaURL string) (*domain.MediaAsset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create media request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media HTTP error: %d", resp.StatusCode)
	}
	if resp.ContentLength >= m.maxBytes {
		return nil, fmt.Errorf("media of %d bytes exceeds limit", resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, m.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read media: %w", err)
	}
	if int64(len(data)) >= m.maxBytes {
		return nil, fmt.Errorf("media exceeds %d bytes", m.maxBytes)
	}

	return &domain.MediaAsset{
		Data:     data,
		MIMEType: AudioMIMEType,
		Size:     int64(len(data)),
	}, nil
}

// pickerThumbnail reads the picker field, which is either a URL string or
// a list of {thumb, url} items. The first usable entry wins.
func pickerThumbnail(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	var items []struct {
		Thumb string `json:"thumb"`
		URL   string `json:"url"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}
	for _, item := range items {
		if v := firstNonEmpty(item.Thumb, item.URL); v != "" {
			return v
		}
	}
	return ""
}
