package notifier

import (
	"context"
	"log/slog"

	"github.com/amishk599/jobscout/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes finished runs to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each run and its postings via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs a summary line for run, then one line per posting.
// Returns nil (logging does not fail).
func (n *LogNotifier) Notify(_ context.Context, run model.Run, postings []model.Posting) error {
	args := []any{
		"run_id", run.ID,
		"ok", run.OK(),
		"stage", run.Stage.String(),
		"fetched", run.Fetched,
		"postings", len(postings),
		"duration", run.FinishedAt.Sub(run.StartedAt),
	}
	if run.Err != "" {
		args = append(args, "error", run.Err)
	}
	n.logger.Info("run finished", args...)

	for _, p := range postings {
		n.logger.Info("posting",
			"title", p.JobTitle,
			"company", p.Company,
			"location", p.Location,
			"nature", p.JobNature,
			"url", p.ApplyLink,
		)
	}
	return nil
}
