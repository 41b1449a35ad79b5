package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/amishk599/jobscout/internal/model"
)

// Ensure JobSpyAdapter implements model.Scraper.
var _ model.Scraper = (*JobSpyAdapter)(nil)

// jobSpyResponse is the top-level JobSpy API search response.
type jobSpyResponse struct {
	Count int                `json:"count"`
	Jobs  []model.RawPosting `json:"jobs"`
}

// JobSpyAdapter queries a JobSpy API server, which wraps the python-jobspy
// scrapers (linkedin, indeed, zip_recruiter, google, bayt, ...) behind HTTP.
type JobSpyAdapter struct {
	baseURL string
	apiKey  string // optional, sent as x-api-key
	client  *http.Client
}

// NewJobSpyAdapter creates an adapter for the JobSpy API at baseURL.
func NewJobSpyAdapter(baseURL string, apiKey string, client *http.Client) *JobSpyAdapter {
	return &JobSpyAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

// ScrapeJobs runs one search against a single site and returns the raw postings
// in the order the backend returned them.
func (a *JobSpyAdapter) ScrapeJobs(ctx context.Context, params model.SearchParams) ([]model.RawPosting, error) {
	q := url.Values{}
	q.Set("site_name", params.Site)
	q.Set("search_term", params.SearchTerm)
	q.Set("location", params.Location)
	q.Set("results_wanted", strconv.Itoa(params.ResultsWanted))
	q.Set("hours_old", strconv.Itoa(params.HoursOld))
	q.Set("country_indeed", params.CountryIndeed)

	endpoint := a.baseURL + "/api/v1/search_jobs?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("jobspy fetch for %s: %w", params.Site, err)
	}
	req.Header.Set("Accept", "application/json")
	if a.apiKey != "" {
		req.Header.Set("x-api-key", a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jobspy fetch for %s: %w", params.Site, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, params.Site)
	}

	var jsResp jobSpyResponse
	if err := json.NewDecoder(resp.Body).Decode(&jsResp); err != nil {
		return nil, fmt.Errorf("jobspy fetch for %s: %w", params.Site, err)
	}

	if jsResp.Jobs == nil {
		return []model.RawPosting{}, nil
	}
	return jsResp.Jobs, nil
}
