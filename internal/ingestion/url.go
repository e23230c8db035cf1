package ingestion

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/proposal-writer/internal/fetch"
)

var (
	// ErrHTTPRequestFailed is returned when HTTP request fails
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when content extraction fails
	ErrContentExtractionFailed = errors.New("content extraction failed")
	// ErrEmptyBrief is returned when no text could be extracted
	ErrEmptyBrief = errors.New("job posting has no text")
)

// Fetcher retrieves a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.CachedResult, error)
}

// Ingester turns job posting URLs into job brief text.
type Ingester struct {
	fetcher Fetcher
	// render is the headless browser fallback; nil disables it.
	render fetch.Renderer
	logger *zap.Logger
}

// NewIngester creates an Ingester. render may be nil.
func NewIngester(fetcher Fetcher, render fetch.Renderer, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{fetcher: fetcher, render: render, logger: logger}
}

// FromURL fetches a posting, extracts its description with platform-specific
// selectors and cleans it. When the HTTP page yields too little text and a
// renderer is configured, the page is rendered in a browser instead.
func (in *Ingester) FromURL(ctx context.Context, urlStr string) (string, *Metadata, error) {
	platform := fetch.DetectPlatform(urlStr)
	logger := in.logger.With(zap.String("url", urlStr), zap.String("platform", string(platform)))

	result, err := in.fetcher.Fetch(ctx, urlStr)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}
	logger.Debug("fetched posting", zap.Int("bytes", len(result.HTML)), zap.Bool("from_cache", result.FromCache))

	textContent, err := fetch.ExtractBrief(result.HTML, platform)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}

	source := SourceHTTP
	if in.render != nil && fetch.ShouldUseBrowser(textContent) {
		logger.Debug("content too short, rendering in browser",
			zap.Int("chars", len(textContent)),
			zap.Int("min_chars", fetch.MinContentLength))

		if rendered, err := in.browserText(ctx, urlStr, platform); err != nil {
			// Keep the HTTP content
			logger.Warn("browser fallback failed", zap.Error(err))
		} else if len(rendered) > len(textContent) {
			textContent = rendered
			source = SourceBrowser
		}
	}

	cleanedText := CleanText(textContent)
	if cleanedText == "" {
		return "", nil, fmt.Errorf("%w: %s", ErrEmptyBrief, urlStr)
	}

	metadata := NewMetadata(cleanedText, urlStr)
	metadata.Platform = string(platform)
	metadata.Source = source
	metadata.FromCache = result.FromCache && source == SourceHTTP
	return cleanedText, metadata, nil
}

func (in *Ingester) browserText(ctx context.Context, urlStr string, platform fetch.Platform) (string, error) {
	html, err := in.render(ctx, urlStr)
	if err != nil {
		return "", err
	}
	return fetch.ExtractBrief(html, platform)
}
