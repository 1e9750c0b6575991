package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/mschirtzinger/issuesync/internal/schema"
)

// bodyPreviewLength is how much of the issue body the template quotes.
const bodyPreviewLength = 300

// TemplateEnricher builds a deterministic description from issue fields.
type TemplateEnricher struct{}

// Describe implements Enricher.
func (TemplateEnricher) Describe(_ context.Context, issue *schema.Issue) string {
	return Template(issue)
}

// Template renders the fallback description for issue.
func Template(issue *schema.Issue) string {
	assignee := issue.Assignee
	if assignee == "" {
		assignee = "Not assigned"
	}

	parts := []string{
		fmt.Sprintf("**Issue #%d:** %s", issue.Number, issue.Title),
		fmt.Sprintf("**Repository:** %s", issue.RepositoryFullName()),
		fmt.Sprintf("**Status:** %s", titleCase(issue.State)),
		fmt.Sprintf("**Assignee:** %s", assignee),
		fmt.Sprintf("**GitHub URL:** %s", issue.URL),
	}

	if labels := issue.LabelNames(); len(labels) > 0 {
		parts = append(parts, "**Labels:** "+strings.Join(labels, ", "))
	}

	if issue.Body != "" {
		preview := issue.Body
		if r := []rune(preview); len(r) > bodyPreviewLength {
			preview = string(r[:bodyPreviewLength]) + "..."
		}
		parts = append(parts, "**Description:**\n"+preview)
	}

	return strings.Join(parts, "\n")
}

// titleCase upper-cases the first letter: "open" -> "Open".
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
