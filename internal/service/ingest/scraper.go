package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"chefmind/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// CrawlerUserAgent is sent on page and image fetches. Many hosts serve
// full Open Graph markup to crawlers and a login wall to browsers.
const CrawlerUserAgent = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

const (
	maxPageBytes       = 2 * 1024 * 1024
	maxCaptionRunes    = 4000
	defaultPageTimeout = 5 * time.Second
)

// HTMLFetcher renders a page and returns its final HTML.
type HTMLFetcher interface {
	FetchHTML(ctx context.Context, pageURL string) (string, error)
}

// Page is a fetched document and the metadata read from it.
type Page struct {
	Metadata domain.PageMetadata
	HTML     []byte
}

// Scraper reads Open Graph and fallback meta tags from a page.
type Scraper struct {
	client  *http.Client
	timeout time.Duration
	browser HTMLFetcher
	logger  *slog.Logger
}

// NewScraper creates a scraper. browser is optional and only consulted when
// the plain fetch fails or finds no title.
func NewScraper(client *http.Client, timeout time.Duration, browser HTMLFetcher, logger *slog.Logger) *Scraper {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = defaultPageTimeout
	}
	return &Scraper{client: client, timeout: timeout, browser: browser, logger: logger}
}

// Scrape fetches pageURL and extracts its metadata. The returned error is
// informational: the Page is always usable, with empty fields for anything
// that could not be read.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (*Page, error) {
	page := &Page{}

	body, fetchErr := s.fetch(ctx, pageURL)
	if fetchErr == nil {
		page.HTML = body
		meta, err := ExtractMetadata(bytes.NewReader(body))
		if err != nil {
			fetchErr = err
		} else {
			page.Metadata = meta
		}
	}

	if s.browser != nil && (fetchErr != nil || page.Metadata.Title == "") {
		if rendered, err := s.browser.FetchHTML(ctx, pageURL); err != nil {
			s.logger.Debug("Browser fallback failed", "url", pageURL, "error", err)
		} else if meta, err := ExtractMetadata(strings.NewReader(rendered)); err == nil {
			page.HTML = []byte(rendered)
			page.Metadata = mergeMetadata(page.Metadata, meta)
			fetchErr = nil
		}
	}

	if fetchErr != nil {
		return page, fmt.Errorf("Metadata scrape failed: %w", fetchErr)
	}

	s.logger.Debug("Metadata found",
		"title", truncateRunes(page.Metadata.Title, 20),
		"has_description", page.Metadata.Description != "",
		"has_image", page.Metadata.ThumbnailURL != "",
	)
	return page, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", CrawlerUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return body, nil
}

// ExtractMetadata reads title, description and image from an HTML document.
// For each field the first non-empty source wins.
func ExtractMetadata(r io.Reader) (domain.PageMetadata, error) {
	root, err := html.Parse(r)
	if err != nil {
		return domain.PageMetadata{}, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	meta := domain.PageMetadata{
		Title: firstNonEmpty(
			metaContent(doc, `meta[property="og:title"]`),
			metaContent(doc, `meta[name="title"]`),
			strings.TrimSpace(doc.Find("title").First().Text()),
		),
		Description: firstNonEmpty(
			metaContent(doc, `meta[property="og:description"]`),
			metaContent(doc, `meta[name="description"]`),
			metaContent(doc, `meta[name="twitter:description"]`),
		),
		ThumbnailURL: firstNonEmpty(
			metaContent(doc, `meta[property="og:image"]`),
			metaContent(doc, `meta[property="og:image:secure_url"]`),
			metaContent(doc, `meta[name="twitter:image"]`),
		),
	}
	// Signed CDN URLs break if an escaped ampersand survives
	meta.ThumbnailURL = strings.ReplaceAll(meta.ThumbnailURL, "&amp;", "&")
	return meta, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// ReadableText returns the main article text of page, truncated for use as
// a caption. It returns "" when nothing readable is found.
func ReadableText(page []byte, pageURL string) string {
	if len(page) == 0 {
		return ""
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(page), parsed)
	if err != nil {
		return ""
	}
	return truncateRunes(strings.TrimSpace(article.TextContent), maxCaptionRunes)
}

func mergeMetadata(base, extra domain.PageMetadata) domain.PageMetadata {
	base.Title = firstNonEmpty(base.Title, extra.Title)
	base.Description = firstNonEmpty(base.Description, extra.Description)
	base.ThumbnailURL = firstNonEmpty(base.ThumbnailURL, extra.ThumbnailURL)
	return base
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
