package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobscout/internal/model"
)

// Query is the search shared by every source.
type Query struct {
	SearchTerm    string
	Location      string
	ResultsWanted int
	HoursOld      int
	CountryIndeed string
}

// Fetcher queries each configured source in turn and concatenates the results.
type Fetcher struct {
	scraper model.Scraper
	sources []string
	query   Query
	isolate bool
	logger  *slog.Logger
}

// NewFetcher creates a fetcher for sources. When isolate is false the first
// failing source aborts the fetch; when true the failure is logged and the
// remaining sources are still queried.
func NewFetcher(scraper model.Scraper, sources []string, query Query, isolate bool, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		scraper: scraper,
		sources: sources,
		query:   query,
		isolate: isolate,
		logger:  logger,
	}
}

// Sources returns the configured source identifiers in query order.
func (f *Fetcher) Sources() []string {
	return f.sources
}

// Fetch runs one search per source, one after another. Postings keep the
// backend's order within a source and the configured order across sources.
func (f *Fetcher) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	all := []model.RawPosting{}
	for _, site := range f.sources {
		params := model.SearchParams{
			Site:          site,
			SearchTerm:    f.query.SearchTerm,
			Location:      f.query.Location,
			ResultsWanted: f.query.ResultsWanted,
			HoursOld:      f.query.HoursOld,
			CountryIndeed: f.query.CountryIndeed,
		}

		jobs, err := f.scraper.ScrapeJobs(ctx, params)
		if err != nil {
			if f.isolate && ctx.Err() == nil {
				f.logger.Warn("source failed, skipping", "site", site, "error", err)
				continue
			}
			return nil, fmt.Errorf("source %s: %w", site, err)
		}

		f.logger.Debug("fetched source", "site", site, "count", len(jobs))
		all = append(all, jobs...)
	}

	f.logger.Info("fetched postings", "sources", len(f.sources), "total", len(all))
	return all, nil
}
