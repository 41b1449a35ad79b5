package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/store"
)

var (
	historyLimit int
	historyPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent pipeline runs",
	Long:  "Reads the run history database (history.enabled must be true) and prints recent runs.",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete runs older than this before listing (e.g. 720h)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if !cfg.History.Enabled {
		fmt.Println("Run history is disabled. Set history.enabled: true in the config file to record runs.")
		return nil
	}

	s, err := store.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	if historyPrune > 0 {
		n, err := s.Prune(ctx, historyPrune)
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d runs older than %v\n\n", n, historyPrune)
	}

	runs, err := s.RecentRuns(ctx, historyLimit)
	if err != nil {
		return err
	}

	fmt.Printf("%-36s %-20s %-10s %-14s %7s %s\n", "Run", "Started", "Duration", "Stage", "Fetched", "Error")
	fmt.Println(strings.Repeat("─", 100))

	ok := 0
	for _, r := range runs {
		status := r.Stage.String()
		if r.OK() {
			ok++
		}
		fmt.Printf("%-36s %-20s %-10s %-14s %7d %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			status,
			r.Fetched,
			r.Err,
		)
	}

	fmt.Printf("\nTotal: %d runs (%d ok, %d failed)\n", len(runs), ok, len(runs)-ok)
	return nil
}
