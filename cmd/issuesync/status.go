package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	issuesync "github.com/mschirtzinger/issuesync/internal/sync"
	"github.com/mschirtzinger/issuesync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "inspect",
	Short:   "Show GitHub quota and the number of assigned issues",
	Long: `Query the GitHub rate limit and count the open issues assigned to the
configured user.

Shows:
  - Remaining API quota and when it resets
  - Open assigned issues visible to the token`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		orch, err := app.orchestrator(cmd.Context())
		if err != nil {
			return err
		}

		report := orch.Status(cmd.Context())
		if asJSON {
			return writeJSON(os.Stdout, report)
		}
		printStatus(os.Stdout, report, time.Now())
		if report.Error != "" {
			return errReported
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:     "check",
	GroupID: "inspect",
	Short:   "Test the GitHub and record store connections",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		orch, err := app.orchestrator(cmd.Context())
		if err != nil {
			return err
		}

		report := orch.TestConnections(cmd.Context())
		if asJSON {
			if err := writeJSON(os.Stdout, report); err != nil {
				return err
			}
		} else {
			printConnections(os.Stdout, report, storeName(app.cfg.Store.Driver))
		}
		if report.Overall != issuesync.CheckSuccess {
			return errReported
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("json", false, "print the report as JSON")
	checkCmd.Flags().Bool("json", false, "print the report as JSON")
	rootCmd.AddCommand(statusCmd, checkCmd)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStatus(w io.Writer, report issuesync.StatusReport, now time.Time) {
	fmt.Fprintf(w, "\n%s issuesync status\n\n", ui.RenderAccent("📊"))

	if report.Error != "" {
		fmt.Fprintf(w, "%s %s\n\n", ui.RenderFailIcon(), report.Error)
		return
	}

	rl := report.RateLimit
	fmt.Fprintf(w, "GitHub:\n")
	fmt.Fprintf(w, "   Rate limit:      %s / %s remaining\n",
		humanize.Comma(int64(rl.Remaining)), humanize.Comma(int64(rl.Limit)))
	if !rl.Reset.IsZero() {
		fmt.Fprintf(w, "   Resets:          %s\n", humanize.RelTime(rl.Reset, now, "ago", "from now"))
	}
	fmt.Fprintf(w, "   Assigned issues: %s open\n", humanize.Comma(int64(report.IssuesAvailable)))

	if last := report.LastResult; last != nil {
		fmt.Fprintf(w, "\nLast sync:\n")
		fmt.Fprintf(w, "   %s %s (%s)\n", ui.StatusIcon(string(last.Status)), last.Summary(),
			humanize.RelTime(last.StartedAt, now, "ago", "from now"))
	}
	fmt.Fprintln(w)
}

func printConnections(w io.Writer, report issuesync.ConnectionReport, storeLabel string) {
	line := func(name string, c issuesync.ConnectionCheck) {
		icon := ui.RenderPassIcon()
		if c.Status != issuesync.CheckSuccess {
			icon = ui.RenderFailIcon()
		}
		fmt.Fprintf(w, "%s %-8s %s\n", icon, name, c.Message)
	}

	line("GitHub", report.Source)
	line(storeLabel, report.Store)

	switch report.Overall {
	case issuesync.CheckSuccess:
		fmt.Fprintf(w, "\n%s All connections OK\n", ui.RenderPass(ui.IconPass))
	case issuesync.CheckPartial:
		fmt.Fprintf(w, "\n%s Some connections failed\n", ui.RenderWarn(ui.IconWarn))
	default:
		fmt.Fprintf(w, "\n%s All connections failed\n", ui.RenderFail(ui.IconFail))
	}
}
