package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/issuesync/internal/schema"
	"github.com/mschirtzinger/issuesync/internal/ui"
)

var describeCmd = &cobra.Command{
	Use:     "describe <github-issue-url>",
	GroupID: "inspect",
	Short:   "Preview the record an issue would produce",
	Long: `Fetch one issue, generate its description and print the record that a sync
would write. Nothing is written to the record store.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")

		if err := app.cfg.ValidateGitHub(); err != nil {
			return err
		}
		owner, repo, number, err := schema.ParseIssueURL(args[0])
		if err != nil {
			return err
		}

		source, err := app.source()
		if err != nil {
			return err
		}
		ghIssue, err := source.FetchIssue(cmd.Context(), owner, repo, number)
		if err != nil {
			return err
		}
		issue, err := schema.Normalize(ghIssue)
		if err != nil {
			return err
		}

		description := app.enricher().Describe(cmd.Context(), issue)
		rec := schema.BuildRecord(issue, description)

		md := recordMarkdown(rec)
		if raw {
			fmt.Print(md)
			return nil
		}
		out, err := ui.RenderMarkdown(md, ui.DefaultWrap, ui.IsTerminal(os.Stdout))
		if err != nil {
			return fmt.Errorf("render description: %w", err)
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	describeCmd.Flags().Bool("raw", false, "print markdown without rendering")
	rootCmd.AddCommand(describeCmd)
}

// recordMarkdown lays out a record as a markdown document.
func recordMarkdown(rec *schema.Record) string {
	priority := string(rec.Priority)
	if priority == "" {
		priority = "none"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", rec.Title)
	fmt.Fprintf(&b, "| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| URL | %s |\n", rec.URL)
	fmt.Fprintf(&b, "| Priority | %s |\n", priority)
	fmt.Fprintf(&b, "| Issues | %d |\n", rec.IssueCount)
	fmt.Fprintf(&b, "| Assigned | %d |\n", rec.AssignedCount)
	fmt.Fprintf(&b, "| Last activity | %s |\n\n", rec.LastActivity)
	fmt.Fprintf(&b, "## Description\n\n%s\n", rec.Description)
	if rec.Body != "" {
		fmt.Fprintf(&b, "\n## Issue body\n\n%s\n", rec.Body)
	}
	return b.String()
}
