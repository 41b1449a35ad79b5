package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/adapter"
	"github.com/amishk599/jobscout/internal/config"
	"github.com/amishk599/jobscout/internal/fetch"
	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/notifier"
	"github.com/amishk599/jobscout/internal/pipeline"
	"github.com/amishk599/jobscout/internal/ratelimit"
	"github.com/amishk599/jobscout/internal/refine"
	"github.com/amishk599/jobscout/internal/retry"
	"github.com/amishk599/jobscout/internal/secrets"
	"github.com/amishk599/jobscout/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:          "jobscout",
	Short:        "Scrape job boards and tidy the results with an LLM",
	Long:         "jobscout scrapes job boards through a JobSpy backend, normalizes the postings and asks an OpenAI model to fill in the gaps.",
	SilenceUsage: true,
	// Default to `serve` so that `jobscout` with no args runs the HTTP service.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSCOUT_CONFIG env var or ./config.yaml if present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig loads .env, resolves the config path and parses it.
// Priority: explicit path arg > JOBSCOUT_CONFIG env var > "./config.yaml" if it
// exists > compiled-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("JOBSCOUT_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// setupScraper builds the JobSpy client and wraps it in the optional retry and
// rate-limit decorators.
func setupScraper(cfg *config.Config, logger *slog.Logger) model.Scraper {
	httpClient := &http.Client{Timeout: cfg.JobSpy.Timeout}
	var scraper model.Scraper = adapter.NewJobSpyAdapter(cfg.JobSpy.BaseURL, cfg.JobSpy.APIKey, httpClient)

	if cfg.Fetch.MinDelay > 0 || len(cfg.Fetch.SourceDelays) > 0 {
		limiter := ratelimit.NewSourceRateLimiter(cfg.Fetch.MinDelay, cfg.Fetch.SourceDelays)
		scraper = ratelimit.NewRateLimitedScraper(scraper, limiter)
		logger.Info("rate limiter configured", "min_delay", cfg.Fetch.MinDelay.String())
	}
	if cfg.Fetch.MaxRetries > 0 {
		scraper = retry.NewRetryScraper(scraper, cfg.Fetch.MaxRetries, cfg.Fetch.RetryBaseDelay, logger)
		logger.Info("retries enabled", "max_retries", cfg.Fetch.MaxRetries)
	}
	return scraper
}

func setupRefiner(cfg *config.Config, logger *slog.Logger) (*refine.Refiner, error) {
	apiKey, err := secrets.ResolveAPIKey(cfg.Refine.APIKey)
	if err != nil {
		logger.Debug("keyring unavailable", "error", err)
	}
	if apiKey == "" {
		logger.Warn("no OpenAI API key found; scrapes will fail at the refine stage",
			"hint", "set OPENAI_API_KEY or run `jobscout secret set`")
	}

	provider, err := refine.NewOpenAIProvider(refine.OpenAIConfig{
		BaseURL:          cfg.Refine.BaseURL,
		APIKey:           apiKey,
		Model:            cfg.Refine.Model,
		Temperature:      cfg.Refine.Temperature,
		StructuredOutput: cfg.Refine.StrictSchema,
	}, &http.Client{Timeout: cfg.Refine.Timeout})
	if err != nil {
		return nil, err
	}
	return refine.NewRefiner(provider, cfg.Output.ResultFile, cfg.Refine.StrictSchema, logger), nil
}

// setupNotifier returns nil when notifications are off.
func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	case "log":
		return notifier.NewLogNotifier(logger)
	default:
		return nil
	}
}

// setupRunStore opens the history database when enabled. The returned close
// function is always safe to call.
func setupRunStore(cfg *config.Config) (model.RunStore, func() error, error) {
	if !cfg.History.Enabled {
		return store.NewNopStore(), func() error { return nil }, nil
	}
	s, err := store.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

// buildPipeline wires every component of a run from cfg.
func buildPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, func() error, error) {
	refiner, err := setupRefiner(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	runs, closeRuns, err := setupRunStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	fetcher := fetch.NewFetcher(setupScraper(cfg, logger), cfg.Search.Sources, fetch.Query{
		SearchTerm:    cfg.Search.SearchTerm,
		Location:      cfg.Search.Location,
		ResultsWanted: cfg.Search.ResultsWanted,
		HoursOld:      cfg.Search.HoursOld,
		CountryIndeed: cfg.Search.CountryIndeed,
	}, cfg.Fetch.IsolateFailures, logger)

	p := pipeline.New(fetcher, refiner, cfg.Output.DebugFile, runs, logger)
	if n := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger); n != nil {
		p.NotifyWith(n)
	}
	return p, closeRuns, nil
}
