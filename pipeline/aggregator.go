// Package pipeline fans a query out to every source and reduces the
// offers to a comparison result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aluiziolira/go-price-compare/models"
	"github.com/aluiziolira/go-price-compare/scraper"
	"github.com/sourcegraph/conc/iter"
)

var (
	// ErrEmptyQuery is returned when the query is blank after trimming.
	ErrEmptyQuery = errors.New("pipeline: query is required")
)

// Options configures an Aggregator.
type Options struct {
	Timeout            time.Duration
	UserAgent          string
	PlaceholderOnEmpty bool
	Metrics            *scraper.Metrics
	Logger             *slog.Logger
}

// Aggregator runs one strategy per source concurrently and picks the best
// offer among the results.
type Aggregator struct {
	fetcher     scraper.Fetcher
	strategies  []*scraper.Strategy
	header      http.Header
	timeout     time.Duration
	placeholder bool
	metrics     *scraper.Metrics
	logger      *slog.Logger
}

// NewAggregator wires fetcher and per-source strategies together.
func NewAggregator(fetcher scraper.Fetcher, strategies []*scraper.Strategy, opts Options) *Aggregator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	header := http.Header{}
	header.Set("Accept", "text/html,application/xhtml+xml")
	header.Set("Accept-Language", "en-US,en;q=0.9")
	if opts.UserAgent != "" {
		header.Set("User-Agent", opts.UserAgent)
	}

	return &Aggregator{
		fetcher:     fetcher,
		strategies:  strategies,
		header:      header,
		timeout:     timeout,
		placeholder: opts.PlaceholderOnEmpty,
		metrics:     opts.Metrics,
		logger:      logger,
	}
}

// Compare searches every source for name. Source failures only reduce
// the result set; the returned error is ErrEmptyQuery or the context
// error when the caller gave up.
func (a *Aggregator) Compare(ctx context.Context, name string) (*models.ComparisonResult, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		a.metrics.IncComparison("rejected")
		return nil, ErrEmptyQuery
	}

	mapper := iter.Mapper[*scraper.Strategy, []models.Offer]{MaxGoroutines: len(a.strategies)}
	perSource := mapper.Map(a.strategies, func(s **scraper.Strategy) []models.Offer {
		return a.runSource(ctx, *s, query)
	})

	if err := ctx.Err(); err != nil {
		a.metrics.IncComparison("canceled")
		return nil, err
	}

	offers := make([]models.Offer, 0)
	for _, batch := range perSource {
		offers = append(offers, batch...)
	}

	result := &models.ComparisonResult{
		PerfumeName: query,
		Results:     offers,
	}
	outcome := "found"
	if len(offers) == 0 {
		outcome = "empty"
		if a.placeholder {
			outcome = "placeholder"
			result.Results = PlaceholderOffers(a.strategies)
			result.Degraded = true
			result.Notice = PlaceholderNotice
		}
	}
	result.BestDeal = SelectBest(result.Results)

	a.metrics.IncComparison(outcome)
	a.logger.Info("comparison complete",
		slog.String("query", query),
		slog.Int("offers", len(offers)),
		slog.Bool("degraded", result.Degraded),
	)
	return result, nil
}

func (a *Aggregator) runSource(ctx context.Context, s *scraper.Strategy, query string) (offers []models.Offer) {
	name := s.Name()
	logger := a.logger.With(slog.String("source", name))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("source pipeline panic", slog.Any("panic", r))
			a.metrics.IncSourceError(name, "panic")
			offers = nil
		}
	}()

	searchURL := s.SearchURL(query)
	logger.Info("scraping source", slog.String("url", searchURL))

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	page, err := a.fetcher.Fetch(fetchCtx, searchURL, a.header.Clone())
	a.metrics.ObserveFetch(name, time.Since(start))
	if err == nil {
		err = checkPage(page)
	}
	if err != nil {
		a.sourceFailed(logger, name, searchURL, err)
		return nil
	}
	a.metrics.IncFetch(name, "success")

	doc, err := scraper.Parse(page.Body)
	if err != nil {
		a.sourceFailed(logger, name, searchURL, err)
		return nil
	}

	found, mode := s.Extract(doc)
	if ctx.Err() != nil {
		return nil
	}

	a.metrics.AddOffers(name, mode, len(found))
	logger.Info("source scraped",
		slog.String("mode", mode.String()),
		slog.Int("offers", len(found)),
	)
	return found
}

func (a *Aggregator) sourceFailed(logger *slog.Logger, name, searchURL string, err error) {
	category := scraper.ErrorType(err)
	a.metrics.IncFetch(name, "failure")
	a.metrics.IncSourceError(name, category)

	level := slog.LevelError
	switch category {
	case "canceled":
		level = slog.LevelDebug
	case "not_found", "forbidden", "rate_limited", "status":
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "source failed",
		slog.String("url", searchURL),
		slog.String("category", category),
		slog.Any("error", err),
	)
}

func checkPage(page *scraper.Page) error {
	if page == nil {
		return errors.New("empty page")
	}
	if page.StatusCode < 200 || page.StatusCode > 299 {
		if err := scraper.StatusError(page.StatusCode); err != nil {
			return err
		}
		return fmt.Errorf("invalid status %d", page.StatusCode)
	}
	return nil
}
