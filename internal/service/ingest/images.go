package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"chefmind/internal/domain"
	"chefmind/internal/pkg/metrics"
	"chefmind/internal/pkg/urldetector"

	"github.com/google/uuid"
)

const (
	base64ChunkSize   = 1024
	defaultImageBytes = 10 * 1024 * 1024
	defaultImageType  = "image/jpeg"
)

// StoreKeys records which storage credentials are present. Both must be
// set before an upload is attempted.
type StoreKeys struct {
	URL bool
	Key bool
}

// Trace collects the human-readable steps of one resolution.
type Trace []string

func (t *Trace) Add(format string, args ...any) {
	*t = append(*t, fmt.Sprintf(format, args...))
}

type fetchedImage struct {
	source      string
	data        []byte
	contentType string
}

// imageAttempt turns a fetched image into a durable URL. ok is false when
// the attempt did not produce one and the next should run.
type imageAttempt func(ctx context.Context, img *fetchedImage, trace *Trace) (resolved string, ok bool)

// ImageResolver converts a third-party thumbnail URL, which often expires
// or blocks hotlinking, into one the client can always display.
type ImageResolver struct {
	client         *http.Client
	store          domain.ObjectStore
	keys           StoreKeys
	maxBytes       int64
	inlineMaxBytes int64
	encode         func(data []byte, contentType string) (string, error)
	newKey         func(ext string) string
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// ImageOption customises an ImageResolver.
type ImageOption func(*ImageResolver)

// WithInlineLimit makes inline encoding fail for images above n bytes. Zero means no limit.
func WithInlineLimit(n int64) ImageOption {
	return func(r *ImageResolver) { r.inlineMaxBytes = n }
}

// WithMaxImageBytes caps the fetched image body.
func WithMaxImageBytes(n int64) ImageOption {
	return func(r *ImageResolver) {
		if n > 0 {
			r.maxBytes = n
		}
	}
}

// WithEncoder replaces the inline encoder.
func WithEncoder(encode func(data []byte, contentType string) (string, error)) ImageOption {
	return func(r *ImageResolver) { r.encode = encode }
}

func WithImageMetrics(m *metrics.Metrics) ImageOption {
	return func(r *ImageResolver) { r.metrics = m }
}

// NewImageResolver creates a resolver. store may be nil, in which case the
// upload step reports missing keys.
func NewImageResolver(client *http.Client, store domain.ObjectStore, keys StoreKeys, logger *slog.Logger, opts ...ImageOption) *ImageResolver {
	if client == nil {
		client = http.DefaultClient
	}
	r := &ImageResolver{
		client:   client,
		store:    store,
		keys:     keys,
		maxBytes: defaultImageBytes,
		encode:   EncodeDataURL,
		newKey: func(ext string) string {
			return fmt.Sprintf("recipes/import_%s.%s", uuid.NewString(), ext)
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a displayable URL for candidate and the steps taken.
// Non-http input is returned unchanged with an empty trace. For http input
// the result is never empty: the image proxy is the last resort.
func (r *ImageResolver) Resolve(ctx context.Context, candidate string) (string, Trace) {
	var trace Trace
	if !urldetector.IsHTTPURL(candidate) {
		return candidate, trace
	}

	trace.Add("Processing thumbnail: %s", truncateRunes(candidate, 30))

	img, err := r.fetch(ctx, candidate, &trace)
	if err != nil {
		trace.Add("Processing Error: %s", err.Error())
	}

	if img != nil {
		attempts := []struct {
			tier string
			run  imageAttempt
		}{
			{"inline", r.inline},
			{"storage", r.upload},
		}
		for _, attempt := range attempts {
			if resolved, ok := attempt.run(ctx, img, &trace); ok {
				r.metrics.ImageResolved(attempt.tier)
				return resolved, trace
			}
		}
	}

	trace.Add("Using Weserv Fallback")
	r.metrics.ImageResolved("proxy")
	return ProxyURL(candidate), trace
}

// fetch returns nil, nil on a non-2xx reply; the status is already traced.
func (r *ImageResolver) fetch(ctx context.Context, candidate string, trace *Trace) (*fetchedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", CrawlerUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		trace.Add("Fetch failed: %d", resp.StatusCode)
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", r.maxBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultImageType
	}
	trace.Add("Image fetched. Size: %d", len(data))
	return &fetchedImage{source: candidate, data: data, contentType: contentType}, nil
}

func (r *ImageResolver) inline(_ context.Context, img *fetchedImage, trace *Trace) (string, bool) {
	trace.Add("Attempting Base64 Encoding...")
	if r.inlineMaxBytes > 0 && int64(len(img.data)) > r.inlineMaxBytes {
		trace.Add("Base64 Failed: image of %d bytes exceeds inline limit of %d bytes", len(img.data), r.inlineMaxBytes)
		return "", false
	}
	encoded, err := r.encode(img.data, img.contentType)
	if err != nil {
		trace.Add("Base64 Failed: %s", err.Error())
		return "", false
	}
	trace.Add("Base64 Success. Len: %d", len(encoded))
	return encoded, true
}

func (r *ImageResolver) upload(ctx context.Context, img *fetchedImage, trace *Trace) (string, bool) {
	trace.Add("Keys: URL=%t, Key=%t", r.keys.URL, r.keys.Key)
	if r.store == nil || !r.keys.URL || !r.keys.Key {
		trace.Add("No Supabase Keys for Storage")
		return "", false
	}

	trace.Add("Attempting Storage Upload...")
	key := r.newKey(extensionFor(img.contentType))
	if err := r.store.Upload(ctx, key, img.data, img.contentType); err != nil {
		r.logger.Warn("Image upload failed", "key", key, "error", err)
		trace.Add("Storage Upload Failed: %s", err.Error())
		return "", false
	}

	public := r.store.PublicURL(key)
	trace.Add("Storage Upload Success: %s", public)
	return public, true
}

// EncodeDataURL base64-encodes data into a data: URL, feeding the encoder
// in fixed chunks so large images are not copied into one intermediate string.
func EncodeDataURL(data []byte, contentType string) (string, error) {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(contentType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(contentType)
	b.WriteString(";base64,")

	enc := base64.NewEncoder(base64.StdEncoding, &b)
	for start := 0; start < len(data); start += base64ChunkSize {
		end := min(start+base64ChunkSize, len(data))
		if _, err := enc.Write(data[start:end]); err != nil {
			return "", fmt.Errorf("failed to encode image: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return b.String(), nil
}

// ProxyURL routes rawURL through the Weserv image cache.
func ProxyURL(rawURL string) string {
	return "https://wsrv.nl/?url=" + url.QueryEscape(rawURL) + "&output=jpg&w=800&q=80"
}

func extensionFor(contentType string) string {
	_, subtype, found := strings.Cut(contentType, "/")
	if !found {
		return "jpg"
	}
	if i := strings.IndexByte(subtype, ';'); i >= 0 {
		subtype = subtype[:i]
	}
	subtype = strings.TrimSpace(subtype)
	if subtype == "" {
		return "jpg"
	}
	return subtype
}
