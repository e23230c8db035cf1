package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long fetched pages are reused.
const DefaultCacheTTL = 15 * time.Minute

// CachedFetcher wraps URL fetching with an in-process TTL cache. Concurrent
// fetches of the same URL share one request.
type CachedFetcher struct {
	options  *Options
	cacheTTL time.Duration
	fetch    func(ctx context.Context, url string, opts *Options) (*Result, error)
	now      func() time.Time

	group singleflight.Group
	mu    sync.Mutex
	pages map[string]cachedPage
}

type cachedPage struct {
	result    *Result
	expiresAt time.Time
}

// CachedFetcherConfig holds configuration for the cached fetcher.
type CachedFetcherConfig struct {
	CacheTTL time.Duration
	Options  *Options
}

// DefaultCachedFetcherConfig returns sensible defaults.
func DefaultCachedFetcherConfig() *CachedFetcherConfig {
	return &CachedFetcherConfig{
		CacheTTL: DefaultCacheTTL,
		Options:  DefaultOptions(),
	}
}

// NewCachedFetcher creates a new cached fetcher.
func NewCachedFetcher(config *CachedFetcherConfig) *CachedFetcher {
	if config == nil {
		config = DefaultCachedFetcherConfig()
	}
	if config.Options == nil {
		config.Options = DefaultOptions()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	return &CachedFetcher{
		options:  config.Options,
		cacheTTL: config.CacheTTL,
		fetch:    Get,
		now:      time.Now,
		pages:    make(map[string]cachedPage),
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// Fetch retrieves a URL, using the cache if an entry is still fresh. Failed
// fetches are not cached.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	if result, ok := f.lookup(urlStr); ok {
		return &CachedResult{Result: result, FromCache: true}, nil
	}

	v, err, shared := f.group.Do(urlStr, func() (any, error) {
		result, err := f.fetch(ctx, urlStr, f.options)
		if err != nil {
			return nil, err
		}
		f.store(urlStr, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return &CachedResult{Result: v.(*Result), FromCache: shared}, nil
}

// Len returns the number of cached pages, fresh or not.
func (f *CachedFetcher) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pages)
}

func (f *CachedFetcher) lookup(urlStr string) (*Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	page, ok := f.pages[urlStr]
	if !ok {
		return nil, false
	}
	if !f.now().Before(page.expiresAt) {
		delete(f.pages, urlStr)
		return nil, false
	}
	return page.result, true
}

func (f *CachedFetcher) store(urlStr string, result *Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[urlStr] = cachedPage{result: result, expiresAt: f.now().Add(f.cacheTTL)}
}
