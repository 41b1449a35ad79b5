package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// maxPostings caps the postings listed in one message; Slack rejects
// messages with more than 50 blocks.
const maxPostings = 15

// maxRetryWait caps how long a rate-limited message waits before its retry.
const maxRetryWait = 5 * time.Second

// SlackNotifier sends run summaries to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL   string
	httpClient   *http.Client
	logger       *slog.Logger
	maxRetryWait time.Duration
}

// NewSlackNotifier returns a notifier that posts one message per run to Slack.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL:   webhookURL,
		httpClient:   httpClient,
		logger:       logger,
		maxRetryWait: maxRetryWait,
	}
}

// Notify posts a Block Kit summary of run. A 429 is retried once after the
// Retry-After delay, capped at maxRetryWait.
func (s *SlackNotifier) Notify(ctx context.Context, run model.Run, postings []model.Posting) error {
	body, err := json.Marshal(buildPayload(run, postings))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return err
	}

	if status == http.StatusTooManyRequests {
		retryAfter = min(retryAfter, s.maxRetryWait)
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		select {
		case <-ctx.Done():
			return fmt.Errorf("slack retry cancelled: %w", ctx.Err())
		case <-time.After(retryAfter):
		}

		if status, _, err = s.post(ctx, body); err != nil {
			return fmt.Errorf("retry: %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack message sent", "run_id", run.ID, "retried", true)
		return nil
	}

	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack message sent", "run_id", run.ID)
	return nil
}

func (s *SlackNotifier) post(ctx context.Context, body []byte) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, time.Duration(secs) * time.Second, nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type      string        `json:"type"`
	Text      *slackText    `json:"text,omitempty"`
	Fields    []slackText   `json:"fields,omitempty"`
	Elements  []slackText   `json:"elements,omitempty"`
	Accessory *slackElement `json:"accessory,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style,omitempty"`
}

// SendTestMessage sends a sample run summary to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	now := time.Now()
	run := model.Run{
		ID:         "test-run",
		StartedAt:  now.Add(-3 * time.Second),
		FinishedAt: now,
		Stage:      model.StageDone,
		Fetched:    1,
		Normalized: 1,
	}
	postings := []model.Posting{{
		JobTitle:   "Test Notification - Integration Verified",
		Company:    "jobscout",
		Experience: model.NotAvailable,
		JobNature:  model.NatureRemote,
		Location:   "Everywhere",
		Salary:     model.NotAvailable,
		ApplyLink:  "https://example.com/jobs",
	}}
	return n.Notify(ctx, run, postings)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func buildPayload(run model.Run, postings []model.Posting) slackPayload {
	header := fmt.Sprintf("✅ jobscout: %d postings", len(postings))
	if !run.OK() {
		header = "❌ jobscout run failed while " + run.Stage.String()
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: header},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Run:*\n" + run.ID},
				{Type: "mrkdwn", Text: "*Duration:*\n" + run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()},
				{Type: "mrkdwn", Text: "*Fetched:*\n" + strconv.Itoa(run.Fetched)},
				{Type: "mrkdwn", Text: "*Normalized:*\n" + strconv.Itoa(run.Normalized)},
			},
		},
	}

	if run.Err != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Error:*\n```" + run.Err + "```"},
		})
	}

	shown := postings
	if len(shown) > maxPostings {
		shown = shown[:maxPostings]
	}
	for _, p := range shown {
		text := fmt.Sprintf("*%s* at %s\n%s · %s · %s · %s",
			p.JobTitle, p.Company, p.Location, capitalize(p.JobNature), p.Experience, p.Salary)
		block := slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: text},
		}
		if strings.HasPrefix(p.ApplyLink, "http") {
			block.Accessory = &slackElement{
				Type:  "button",
				Text:  slackText{Type: "plain_text", Text: "Apply"},
				URL:   p.ApplyLink,
				Style: "primary",
			}
		}
		blocks = append(blocks, block)
	}
	if extra := len(postings) - len(shown); extra > 0 {
		blocks = append(blocks, slackBlock{
			Type:     "context",
			Elements: []slackText{{Type: "mrkdwn", Text: fmt.Sprintf("…and %d more", extra)}},
		})
	}

	blocks = append(blocks, slackBlock{Type: "divider"})
	return slackPayload{Blocks: blocks}
}
