package main

import (
	"fmt"
	"io"
	rdebug "runtime/debug"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build info",
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := rdebug.ReadBuildInfo()
		printVersion(cmd.OutOrStdout(), info)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// printVersion writes the version line, then the Go and VCS details from info
// when the binary carries them.
func printVersion(w io.Writer, info *rdebug.BuildInfo) {
	fmt.Fprintf(w, "jobscout %s\n", version)
	if info == nil {
		return
	}
	fmt.Fprintf(w, "  go:       %s\n", info.GoVersion)
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision", "vcs.time", "vcs.modified":
			fmt.Fprintf(w, "  %-9s %s\n", s.Key[len("vcs."):]+":", s.Value)
		}
	}
}
