package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aluiziolira/go-price-compare/config"
	"github.com/gocolly/colly/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// Page is a raw document returned by a source.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Fetcher retrieves one source document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, header http.Header) (*Page, error)
}

// CollyFetcher fetches documents through a shared colly backend, which
// enforces the global connection budget and the request timeout.
type CollyFetcher struct {
	cfg       config.FetchConfig
	collector *colly.Collector
	cache     *expirable.LRU[string, *Page]

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewCollyFetcher builds a fetcher configured from cfg.
func NewCollyFetcher(cfg config.FetchConfig) (*CollyFetcher, error) {
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.MaxConnections,
		MaxIdleConnsPerHost: cfg.MaxPerHost,
		MaxConnsPerHost:     cfg.MaxPerHost,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.MaxConnections,
	}); err != nil {
		return nil, fmt.Errorf("configure connection limits: %w", err)
	}

	f := &CollyFetcher{
		cfg:       cfg,
		collector: collector,
		limiters:  make(map[string]*rate.Limiter),
	}
	if cfg.CacheSize > 0 {
		f.cache = expirable.NewLRU[string, *Page](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return f, nil
}

// WithTransport replaces the HTTP transport used by every fetch.
func (f *CollyFetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

// Fetch issues a GET for rawURL. Non-success statuses and transport
// failures come back as classified errors. If ctx ends first the
// in-flight response is discarded.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string, header http.Header) (*Page, error) {
	if f.cache != nil {
		if page, ok := f.cache.Get(rawURL); ok {
			return page, nil
		}
	}

	if err := f.wait(ctx, rawURL); err != nil {
		return nil, err
	}

	type result struct {
		page *Page
		err  error
	}
	done := make(chan result, 1)
	go func() {
		page, err := f.do(rawURL, header)
		done <- result{page: page, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, classifyError(ctx.Err(), 0)
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		if f.cache != nil {
			f.cache.Add(rawURL, r.page)
		}
		return r.page, nil
	}
}

func (f *CollyFetcher) do(rawURL string, header http.Header) (*Page, error) {
	c := f.collector.Clone()

	var (
		page       *Page
		statusCode int
		fetchErr   error
	)
	c.OnResponse(func(r *colly.Response) {
		page = &Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       r.Body,
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = err
	})

	hdr := header.Clone()
	if hdr == nil {
		hdr = http.Header{}
	}
	if hdr.Get("User-Agent") == "" {
		hdr.Set("User-Agent", f.cfg.UserAgent)
	}

	err := c.Request(http.MethodGet, rawURL, nil, nil, hdr)
	if fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return nil, classifyError(fetchErr, statusCode)
	}
	if page == nil {
		return nil, errors.New("no response received")
	}
	return page, nil
}

func (f *CollyFetcher) wait(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return classifyError(err, 0)
	}
	if f.cfg.RatePerSecond <= 0 {
		return nil
	}

	host := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	f.mu.Lock()
	limiter, ok := f.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(f.cfg.RatePerSecond), f.cfg.RateBurst)
		f.limiters[host] = limiter
	}
	f.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return classifyError(ctxErr, 0)
		}
		return ErrRateLimited{Err: err}
	}
	return nil
}
