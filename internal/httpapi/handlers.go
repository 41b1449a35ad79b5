package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/amishk599/jobscout/internal/pipeline"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// ScrapeResponse is the body of a successful scrape.
type ScrapeResponse struct {
	Message string `json:"message"`
	Jobs    any    `json:"jobs"`
}

// ScrapeHandler serves GET /scrape-jobs/. A non-zero Timeout bounds each run
// so it fails with a detail before the server's write timeout drops the connection.
type ScrapeHandler struct {
	Runner  Runner
	Logger  *slog.Logger
	Timeout time.Duration
}

func (h ScrapeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	res, err := h.Runner.Run(ctx)
	if err != nil {
		WriteDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.Logger.Debug("scrape served",
		"request_id", RequestIDFrom(r.Context()),
		"run_id", res.Run.ID,
	)
	WriteJSON(w, http.StatusOK, ScrapeResponse{
		Message: res.Refined.Message,
		Jobs:    res.Refined.Document,
	})
}

// Health reports that the process is serving.
func Health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
