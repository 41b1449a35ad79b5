package model

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NotAvailable is the sentinel used for every posting field the source could not provide.
const NotAvailable = "N/A"

// Job nature values. Normalization only emits onsite/remote; refinement may add hybrid.
const (
	NatureOnsite = "onsite"
	NatureRemote = "remote"
	NatureHybrid = "hybrid"
)

// RawPosting is a single posting as returned by the scraping backend. Fields are
// looked up by name and any of them may be missing.
type RawPosting map[string]any

// Field returns the text form of key. Missing keys, JSON null and blank strings
// report ok=false.
func (r RawPosting) Field(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}

	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		s = fmt.Sprint(t)
	}

	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Posting is the normalized shape shared by the debug file, the prompt payload and
// the refined result. Every field is always populated.
type Posting struct {
	JobTitle   string `json:"job_title"`
	Company    string `json:"company"`
	Experience string `json:"experience"`
	JobNature  string `json:"jobNature"`
	Location   string `json:"location"`
	Salary     string `json:"salary"`
	ApplyLink  string `json:"apply_link"`
}

// Columns returns the field names of p in output order.
func (p Posting) Columns() []string {
	return []string{"job_title", "company", "experience", "jobNature", "location", "salary", "apply_link"}
}

// Values returns the field values of p in the same order as Columns.
func (p Posting) Values() []string {
	return []string{p.JobTitle, p.Company, p.Experience, p.JobNature, p.Location, p.Salary, p.ApplyLink}
}

// RefinedResult is the documented shape of the refined document.
type RefinedResult struct {
	RelevantJobs []Posting `json:"relevant_jobs"`
}

// SearchParams is one query sent to the scraping backend.
type SearchParams struct {
	Site          string
	SearchTerm    string
	Location      string
	ResultsWanted int
	HoursOld      int
	CountryIndeed string
}

// Scraper fetches raw postings for a single site.
type Scraper interface {
	ScrapeJobs(ctx context.Context, params SearchParams) ([]RawPosting, error)
}

// Run summarizes one pass through the pipeline.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Stage      Stage // last stage entered
	Err        string
	Fetched    int
	Normalized int
}

// OK reports whether the run reached StageDone.
func (r Run) OK() bool { return r.Stage == StageDone }

// RunStore records finished runs.
type RunStore interface {
	RecordRun(ctx context.Context, run Run) error
	RecentRuns(ctx context.Context, limit int) ([]Run, error)
}

// Notifier reports a finished run. postings is the refined list on success and
// empty on failure.
type Notifier interface {
	Notify(ctx context.Context, run Run, postings []Posting) error
}
