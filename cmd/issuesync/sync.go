package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/mschirtzinger/issuesync/internal/github"
	issuesync "github.com/mschirtzinger/issuesync/internal/sync"
	"github.com/mschirtzinger/issuesync/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Sync assigned issues into the record store",
	Long: `Fetch every issue assigned to the configured GitHub user and create or
update one record per issue.

The pass keeps going when a single issue fails; failures are listed at the
end and the pass is reported as partial. The command exits 1 only when the
pass could not run at all.

Examples:
  issuesync sync                       # open issues
  issuesync sync --state all
  issuesync sync --since "2 days ago"  # only issues updated since then`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, _ := cmd.Flags().GetString("state")
		modeName, _ := cmd.Flags().GetString("mode")
		sinceText, _ := cmd.Flags().GetString("since")

		mode, err := issuesync.ParseMode(modeName)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("state") {
			state = app.cfg.Sync.State
		}
		opts := github.ListOptions{State: github.NormalizeState(state)}
		if sinceText != "" {
			if opts.Since, err = parseSince(sinceText, time.Now()); err != nil {
				return err
			}
		}

		orch, err := app.orchestrator(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("%s Syncing %s issues assigned to %s...\n",
			ui.RenderAccent("🔄"), opts.State, app.cfg.GitHub.Username)
		return reportResult(os.Stdout, orch.SyncAssigned(cmd.Context(), mode, opts))
	},
}

var syncIssueCmd = &cobra.Command{
	Use:   "issue <github-issue-url>",
	Short: "Sync a single issue by URL",
	Long: `Sync one issue, e.g.

  issuesync sync issue https://github.com/owner/repo/issues/123`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := app.orchestrator(cmd.Context())
		if err != nil {
			return err
		}

		outcome := orch.SyncIssueURL(cmd.Context(), args[0])
		if !outcome.Success {
			fmt.Printf("%s %s\n", ui.RenderFailIcon(), outcome.Message)
			return errReported
		}
		fmt.Printf("%s %s (%s)\n", ui.RenderPassIcon(), outcome.Message, outcome.Action)
		return nil
	},
}

var syncRepoCmd = &cobra.Command{
	Use:   "repo <owner/repo>",
	Short: "Sync the issues of one repository",
	Long: `Sync the issues of one repository that are assigned to a user, open and
closed alike. The assignee defaults to the configured GitHub username.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, repo, err := parseRepository(args[0])
		if err != nil {
			return err
		}
		assignee, _ := cmd.Flags().GetString("assignee")

		orch, err := app.orchestrator(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("%s Syncing %s/%s...\n", ui.RenderAccent("🔄"), owner, repo)
		return reportResult(os.Stdout, orch.SyncRepository(cmd.Context(), owner, repo, assignee))
	},
}

func init() {
	syncCmd.Flags().String("state", "open", "issue state: open, closed or all")
	syncCmd.Flags().String("mode", string(issuesync.ModeManual), "sync type recorded in the result")
	syncCmd.Flags().String("since", "", `only issues updated since, e.g. "yesterday" or an RFC 3339 time`)

	syncRepoCmd.Flags().String("assignee", "", "GitHub login (default: the configured username)")

	syncCmd.AddCommand(syncIssueCmd, syncRepoCmd)
	rootCmd.AddCommand(syncCmd)
}

// reportResult prints a pass summary. Failed passes return errReported so
// the process exits 1.
func reportResult(w io.Writer, result *issuesync.SyncResult) error {
	status := string(result.Status)
	fmt.Fprintf(w, "%s %s in %v\n", ui.StatusIcon(status), result.Summary(), result.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "   Status:    %s\n", ui.RenderStatus(status))
	fmt.Fprintf(w, "   Processed: %d\n", result.Processed)
	fmt.Fprintf(w, "   Created:   %d\n", result.Created)
	fmt.Fprintf(w, "   Updated:   %d\n", result.Updated)
	if result.Skipped > 0 {
		fmt.Fprintf(w, "   Skipped:   %d\n", result.Skipped)
	}
	if result.ErrorsCount > 0 {
		fmt.Fprintf(w, "   Errors:    %d\n", result.ErrorsCount)
		for _, msg := range result.ErrorMessages {
			fmt.Fprintf(w, "     %s %s\n", ui.RenderWarnIcon(), msg)
		}
	}

	if result.Status == issuesync.StatusFailed {
		return errReported
	}
	return nil
}

// parseSince accepts an RFC 3339 timestamp, a date, or a natural
// language expression such as "2 days ago" relative to now.
func parseSince(text string, now time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, text, now.Location()); err == nil {
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(text, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --since %q: %w", text, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("parse --since %q: not a recognizable time", text)
	}
	return r.Time, nil
}

// parseRepository splits "owner/repo".
func parseRepository(s string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.Trim(s, "/"), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("repository must be owner/repo, got %q", s)
	}
	return owner, repo, nil
}
