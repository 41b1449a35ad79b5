package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured job boards and search",
	Long:  "Reads the config and prints the job boards queried on every scrape, plus the shared search parameters.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-4s %-20s %s\n", "#", "Source", "Min delay")
	fmt.Println(strings.Repeat("─", 40))
	for i, s := range cfg.Search.Sources {
		delay := cfg.Fetch.MinDelay
		if d, ok := cfg.Fetch.SourceDelays[s]; ok {
			delay = d
		}
		fmt.Printf("%-4d %-20s %s\n", i+1, s, delay)
	}

	fmt.Printf("\nSearch:   %q in %q\n", cfg.Search.SearchTerm, cfg.Search.Location)
	fmt.Printf("Results:  %d per source, posted within %dh\n", cfg.Search.ResultsWanted, cfg.Search.HoursOld)
	fmt.Printf("Country:  %s\n", cfg.Search.CountryIndeed)
	fmt.Printf("Backend:  %s\n", cfg.JobSpy.BaseURL)
	fmt.Printf("\nTotal: %d sources\n", len(cfg.Search.Sources))
	return nil
}
