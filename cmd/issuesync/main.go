// Command issuesync keeps a Notion database (or a local SQLite file) in
// step with the GitHub issues assigned to a user.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/issuesync/internal/schema"
	"github.com/mschirtzinger/issuesync/internal/ui"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// errReported signals a failure that was already printed.
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:   "issuesync",
	Short: "Sync assigned GitHub issues into Notion",
	Long: `issuesync fetches the GitHub issues assigned to you and writes one record per
issue into a Notion database or a local SQLite file. Records are matched by
issue URL, so repeated syncs update rather than duplicate.

Descriptions are generated by Claude when an Anthropic API key is configured
and from a fixed template otherwise.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadApp,
	PersistentPostRun: func(*cobra.Command, []string) { app.close() },
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "sync", Title: "Sync:"},
		&cobra.Group{ID: "inspect", Title: "Inspect:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default ./config.yaml or $XDG_CONFIG_HOME/issuesync/config.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.Bool("log-json", false, "write logs as JSON")
	flags.String("log-file", "", "write logs to a rotated file instead of stderr")
}

func main() {
	ui.Init(os.Stdout)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("Error:"), err)
			if hint := errorHint(err); hint != "" {
				fmt.Fprintf(os.Stderr, "%s %s\n", ui.RenderInfoIcon(), hint)
			}
		}
		app.close()
		os.Exit(1)
	}
}

// errorHint suggests a next step for errors the user can act on.
func errorHint(err error) string {
	switch {
	case schema.IsFatal(err):
		return "Run 'issuesync setup' or set the missing environment variables"
	case schema.IsTransport(err):
		return "Run 'issuesync check' to test the GitHub and store connections"
	}
	return ""
}
