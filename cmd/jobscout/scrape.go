package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/httpapi"
	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/pipeline"
	"github.com/amishk599/jobscout/internal/tui"
)

var (
	scrapeJSON  bool
	scrapeNoTUI bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one scrape and show the refined jobs",
	Long:  "Run the full pipeline once without starting the HTTP service. Writes the same files as GET /scrape-jobs/.",
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeJSON, "json", false, "print the response body as JSON instead of the interactive view")
	scrapeCmd.Flags().BoolVar(&scrapeNoTUI, "no-tui", false, "print plain text instead of the interactive view")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	interactive := !scrapeJSON && !scrapeNoTUI

	// the interactive view owns the terminal, keep logs out of it unless debugging
	logger := setupLogger(debug)
	if interactive && !debug {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	p, closeRuns, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer closeRuns()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var res pipeline.Result
	if interactive {
		res, err = tui.RunLoader(ctx, len(cfg.Search.Sources), func(ctx context.Context, onStage func(model.Stage)) (pipeline.Result, error) {
			p.OnStage(onStage)
			return p.Run(ctx)
		})
	} else {
		res, err = p.Run(ctx)
	}

	if scrapeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "    ")
		if err != nil {
			enc.Encode(httpapi.DetailResponse{Detail: err.Error()})
			return err
		}
		return enc.Encode(httpapi.ScrapeResponse{Message: res.Refined.Message, Jobs: res.Refined.Document})
	}
	if err != nil {
		return err
	}

	postings, decodeErr := res.Refined.Postings()
	if decodeErr != nil {
		// not the documented shape; show what the model returned
		fmt.Println(res.Refined.Raw)
		fmt.Println(res.Refined.Message)
		return nil
	}

	if interactive {
		header := fmt.Sprintf("%s · %s · %d jobs", cfg.Search.SearchTerm, cfg.Search.Location, len(postings))
		if err := tui.RunPostingsView(header, postings); err != nil {
			return err
		}
	} else {
		fmt.Print(tui.RenderPostings(postings))
	}
	fmt.Println(res.Refined.Message)
	return nil
}
