package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-price-compare/api"
	"github.com/aluiziolira/go-price-compare/config"
	"github.com/aluiziolira/go-price-compare/models"
	"github.com/aluiziolira/go-price-compare/pipeline"
	"github.com/aluiziolira/go-price-compare/scraper"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	port := flag.String("port", "", "HTTP listen port (overrides config)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	query := flag.String("query", "", "Run a single comparison for this name and exit")
	outputFile := flag.String("output", "", "Export offers of a -query run to this file")
	outputFormat := flag.String("format", "csv", "Export format: csv, json, or dual")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *verbose {
		cfg.Verbose = true
	}

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	metrics := scraper.NewMetrics()
	aggregator, err := buildAggregator(cfg, metrics, logger)
	if err != nil {
		slog.Error("initialising comparator", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *query != "" {
		if err := runOnce(ctx, aggregator, *query, *outputFile, strings.ToLower(*outputFormat)); err != nil {
			slog.Error("comparison failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, cfg, aggregator, metrics, logger); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func buildAggregator(cfg *config.Config, metrics *scraper.Metrics, logger *slog.Logger) (*pipeline.Aggregator, error) {
	fetcher, err := scraper.NewCollyFetcher(cfg.Fetch)
	if err != nil {
		return nil, err
	}

	strategies := make([]*scraper.Strategy, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		s, err := scraper.NewStrategy(src, cfg.Extract, logger)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}
		strategies = append(strategies, s)
	}

	return pipeline.NewAggregator(fetcher, strategies, pipeline.Options{
		Timeout:            cfg.Fetch.Timeout,
		UserAgent:          cfg.Fetch.UserAgent,
		PlaceholderOnEmpty: cfg.Results.PlaceholderOnEmpty,
		Metrics:            metrics,
		Logger:             logger,
	}), nil
}

func serve(ctx context.Context, cfg *config.Config, aggregator *pipeline.Aggregator, metrics *scraper.Metrics, logger *slog.Logger) error {
	handler := api.NewHandler(aggregator, logger)
	router := api.SetupRouter(cfg, handler, metrics.Registry, logger)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening",
			slog.String("addr", server.Addr),
			slog.String("environment", cfg.Server.Environment),
			slog.Int("sources", len(cfg.Sources)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutdown signal received, waiting for in-flight requests to finish")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Fetch.Timeout+5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runOnce(ctx context.Context, aggregator *pipeline.Aggregator, name, outputFile, format string) error {
	start := time.Now()
	result, err := aggregator.Compare(ctx, name)
	if err != nil {
		return err
	}

	if outputFile != "" {
		writer, err := pipeline.NewWriter(format, outputFile)
		if err != nil {
			return fmt.Errorf("create writer: %w", err)
		}
		if err := writer.Write(result); err != nil {
			writer.Close()
			return fmt.Errorf("write offers: %w", err)
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("close writer: %w", err)
		}
		if len(result.Results) > 0 {
			if err := writer.Validate(); err != nil {
				return fmt.Errorf("output validation: %w", err)
			}
		}
	}

	printSummary(result, time.Since(start), outputFile)
	return nil
}

func printSummary(result *models.ComparisonResult, duration time.Duration, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Printf("Comparison for %q\n", result.PerfumeName)
	if result.Degraded {
		fmt.Printf("  NOTE: %s\n", result.Notice)
	}

	for _, offer := range result.Results {
		fmt.Printf("  %-14s price=%-8s size=%-7s ppm=%-6s %s\n",
			offer.Site,
			floatOrDash(offer.Price),
			stringOrDash(offer.Size),
			floatOrDash(offer.PricePerML),
			offer.URL,
		)
	}
	fmt.Printf("  Offers:        %d\n", len(result.Results))
	if best := result.BestDeal; best != nil {
		fmt.Printf("  Best deal:     %s at %s (%s/ml)\n", best.Site, floatOrDash(best.Price), floatOrDash(best.PricePerML))
	} else {
		fmt.Println("  Best deal:     none")
	}
	fmt.Printf("  Duration:      %v\n", duration)
	if outputFile != "" {
		fmt.Printf("  Output file:   %s\n", outputFile)
	}
	fmt.Println(separator)
}

func floatOrDash(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func stringOrDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
