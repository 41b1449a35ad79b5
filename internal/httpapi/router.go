package httpapi

import (
	"log/slog"
	"net/http"
	"time"
)

// NewRouter builds the service's handler with its middleware stack. runTimeout
// bounds each scrape; zero leaves it to the client.
func NewRouter(runner Runner, logger *slog.Logger, runTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /scrape-jobs/{$}", ScrapeHandler{Runner: runner, Logger: logger, Timeout: runTimeout})
	mux.HandleFunc("GET /healthz", Health)

	return Chain(mux,
		Tracing("jobscout"),
		RequestID,
		Logger(logger),
		Recover(logger),
	)
}
