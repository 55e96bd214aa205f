package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodBrowser renders pages in a headless Chromium for hosts that only
// emit Open Graph tags after running scripts. A browser is launched per
// call; the fallback is rare enough that a warm pool is not worth its memory.
type RodBrowser struct {
	timeout time.Duration
	logger  *slog.Logger
}

var _ HTMLFetcher = (*RodBrowser)(nil)

func NewRodBrowser(timeout time.Duration, logger *slog.Logger) *RodBrowser {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RodBrowser{timeout: timeout, logger: logger}
}

// FetchHTML navigates to pageURL and returns the rendered document.
func (b *RodBrowser) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	l := launcher.New().Headless(true).Set("no-sandbox").Context(ctx)
	defer l.Cleanup()

	controlURL, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: CrawlerUserAgent}); err != nil {
		return "", fmt.Errorf("failed to set user agent: %w", err)
	}

	start := time.Now()
	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("failed to wait for load: %w", err)
	}

	rendered, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read rendered HTML: %w", err)
	}

	b.logger.Debug("Rendered page in browser", "url", pageURL, "duration", time.Since(start))
	return rendered, nil
}
