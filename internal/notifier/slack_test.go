package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRun(stage model.Stage, errText string) model.Run {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	return model.Run{
		ID:         "run-123",
		StartedAt:  start,
		FinishedAt: start.Add(42 * time.Second),
		Stage:      stage,
		Err:        errText,
		Fetched:    12,
		Normalized: 12,
	}
}

func samplePosting(title, company string) model.Posting {
	return model.Posting{
		JobTitle:   title,
		Company:    company,
		Experience: "2+ years",
		JobNature:  model.NatureHybrid,
		Location:   "Lahore, Pakistan",
		Salary:     model.NotAvailable,
		ApplyLink:  "https://example.com/apply",
	}
}

func captureServer(t *testing.T, body *[]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %q", r.Method, r.Header.Get("Content-Type"))
		}
		*body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSlackNotifier_SuccessfulRun(t *testing.T) {
	var body []byte
	srv := captureServer(t, &body)

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	postings := []model.Posting{samplePosting("Backend Engineer", "Acme Corp"), samplePosting("SRE", "Beta")}

	if err := n.Notify(context.Background(), sampleRun(model.StageDone, ""), postings); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	// header, summary, 2 postings, divider
	if len(payload.Blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(payload.Blocks))
	}
	if payload.Blocks[0].Text.Text != "✅ jobscout: 2 postings" {
		t.Errorf("header text = %q", payload.Blocks[0].Text.Text)
	}
	if got := payload.Blocks[1].Fields[1].Text; got != "*Duration:*\n42s" {
		t.Errorf("duration field = %q", got)
	}
	posting := payload.Blocks[2]
	if !strings.HasPrefix(posting.Text.Text, "*Backend Engineer* at Acme Corp") || !strings.Contains(posting.Text.Text, "Hybrid") {
		t.Errorf("posting text = %q", posting.Text.Text)
	}
	if posting.Accessory == nil || posting.Accessory.URL != "https://example.com/apply" || posting.Accessory.Style != "primary" {
		t.Errorf("posting accessory = %+v", posting.Accessory)
	}
	if payload.Blocks[4].Type != "divider" {
		t.Errorf("last block type = %q, want divider", payload.Blocks[4].Type)
	}
}

func TestSlackNotifier_FailedRun(t *testing.T) {
	var body []byte
	srv := captureServer(t, &body)

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleRun(model.StageRefining, "refining: malformed response"), nil); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Blocks[0].Text.Text != "❌ jobscout run failed while refining" {
		t.Errorf("header text = %q", payload.Blocks[0].Text.Text)
	}
	if !strings.Contains(payload.Blocks[2].Text.Text, "malformed response") {
		t.Errorf("error block = %q", payload.Blocks[2].Text.Text)
	}
}

func TestBuildPayload_TruncatesPostings(t *testing.T) {
	var postings []model.Posting
	for i := 0; i < maxPostings+3; i++ {
		postings = append(postings, samplePosting(fmt.Sprintf("Engineer %d", i), "Acme"))
	}

	payload := buildPayload(sampleRun(model.StageDone, ""), postings)

	// header, summary, maxPostings postings, context, divider
	if len(payload.Blocks) != maxPostings+4 {
		t.Fatalf("expected %d blocks, got %d", maxPostings+4, len(payload.Blocks))
	}
	more := payload.Blocks[len(payload.Blocks)-2]
	if more.Type != "context" || more.Elements[0].Text != "…and 3 more" {
		t.Errorf("context block = %+v", more)
	}
}

func TestBuildPayload_NoButtonWithoutLink(t *testing.T) {
	p := samplePosting("Go Developer", "Acme")
	p.ApplyLink = model.NotAvailable

	payload := buildPayload(sampleRun(model.StageDone, ""), []model.Posting{p})
	if payload.Blocks[2].Accessory != nil {
		t.Errorf("expected no apply button for %q", p.ApplyLink)
	}
}

func TestSlackNotifier_SlackReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleRun(model.StageDone, ""), nil); err == nil {
		t.Error("expected error when slack returns 500, got nil")
	}
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := calls.Add(1)
		if c == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
		} else {
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(context.Background(), sampleRun(model.StageDone, ""), nil); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
}

func TestSlackNotifier_RateLimitedRetryCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(ctx, sampleRun(model.StageDone, ""), nil); err == nil {
		t.Fatal("expected error when the retry wait is cancelled")
	}
}

func TestSendTestMessage(t *testing.T) {
	var body []byte
	srv := captureServer(t, &body)

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := SendTestMessage(context.Background(), n); err != nil {
		t.Fatalf("SendTestMessage() = %v", err)
	}
	if !strings.Contains(string(body), "Integration Verified") {
		t.Errorf("test message body = %s", body)
	}
}

func TestSlackNotifier_RetryAfterIsCapped(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "3600")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if n.maxRetryWait != maxRetryWait {
		t.Fatalf("maxRetryWait = %v, want %v", n.maxRetryWait, maxRetryWait)
	}
	n.maxRetryWait = 20 * time.Millisecond

	start := time.Now()
	if err := n.Notify(context.Background(), sampleRun(model.StageDone, ""), nil); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Notify took %v, Retry-After should be capped", elapsed)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls, got %d", c)
	}
}
