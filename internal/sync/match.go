package sync

import "github.com/mschirtzinger/issuesync/internal/schema"

// KeyFunc derives the natural key used to find an issue's record.
type KeyFunc func(issue *schema.Issue) string

// KeyByIssueURL keys records by the issue's URL, falling back to the
// repository URL when the issue has none. One record per issue.
func KeyByIssueURL(issue *schema.Issue) string {
	if issue.URL != "" {
		return issue.URL
	}
	return issue.RepositoryURL()
}

// KeyByRepositoryURL keys records by repository URL. All issues of a
// repository share one record and later issues overwrite earlier ones.
func KeyByRepositoryURL(issue *schema.Issue) string {
	return issue.RepositoryURL()
}

// FirstMatch returns the record to update, or nil if a new one must be
// created. Ties are broken by store order.
func FirstMatch(records []schema.Record) *schema.Record {
	if len(records) == 0 {
		return nil
	}
	return &records[0]
}
