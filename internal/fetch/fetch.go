// Package fetch retrieves job postings over HTTP or a headless browser and
// reduces them to the posting's description text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; ProposalAgent/1.0)"
	// DefaultMaxBytes caps how much of a posting page is read.
	DefaultMaxBytes = 4 << 20
)

// baseNoise is stripped from every page before the description is located.
const baseNoise = "nav, footer, header, script, style, noscript, iframe, svg, .sidebar, .ad, .ads, .popup"

// Result is a downloaded posting page.
type Result struct {
	URL        string
	HTML       string
	StatusCode int
}

// Error describes a failed page download.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures page downloads. Zero fields take the defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	Client    *http.Client
}

// DefaultOptions returns the options used by NewCachedFetcher.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		MaxBytes:  DefaultMaxBytes,
	}
}

func (o *Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	timeout := o.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Get downloads a posting page. Only absolute http(s) URLs are accepted, and
// the response must be a 2xx HTML or plain text document.
func Get(ctx context.Context, rawURL string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9")

	resp, err := opts.client().Do(req)
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Result{URL: rawURL, StatusCode: resp.StatusCode},
			&Error{URL: rawURL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, _ := mime.ParseMediaType(ct)
		if mediaType != "text/html" && mediaType != "text/plain" && mediaType != "application/xhtml+xml" {
			return nil, &Error{URL: rawURL, Message: fmt.Sprintf("unsupported content type %q", mediaType)}
		}
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return nil, &Error{URL: rawURL, Message: "failed to read response body", Cause: err}
	}

	return &Result{URL: rawURL, HTML: string(body), StatusCode: resp.StatusCode}, nil
}

// ExtractBrief returns the job description text of a posting page. Noise for
// the platform is removed first, then the first matching description
// selector wins; with no match the whole body is used.
func ExtractBrief(html string, platform Platform) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(baseNoise).Remove()
	doc.Find(strings.Join(PlatformNoiseSelectors(platform), ", ")).Remove()

	description := doc.Find("body")
	for _, selector := range PlatformContentSelectors(platform) {
		if match := doc.Find(selector); match.Length() > 0 {
			description = match.First()
			break
		}
	}

	return collapseLines(description.Text()), nil
}

// collapseLines trims every line and drops the blank ones.
func collapseLines(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}
