package sync

import (
	"context"

	gh "github.com/google/go-github/v72/github"

	"github.com/mschirtzinger/issuesync/internal/github"
	"github.com/mschirtzinger/issuesync/internal/schema"
)

// Source fetches raw issues from the issue tracker.
//
// Every method blocks until the remote call returns. Implementations must
// wrap network and API failures with schema.ErrTransport so the orchestrator
// can tell them apart from configuration problems.
type Source interface {
	// FetchAssignedIssues lists issues assigned to the configured user,
	// following pagination until a short page or the page bound.
	//
	// Example:
	//   issues, err := source.FetchAssignedIssues(ctx, github.ListOptions{State: "open"})
	FetchAssignedIssues(ctx context.Context, opts github.ListOptions) ([]*gh.Issue, error)

	// FetchRepositoryIssues lists issues in any state for one repository,
	// filtered by assignee.
	FetchRepositoryIssues(ctx context.Context, owner, repo, assignee string) ([]*gh.Issue, error)

	// FetchIssue fetches a single issue by repository and number.
	FetchIssue(ctx context.Context, owner, repo string, number int) (*gh.Issue, error)

	// CountAssignedIssues returns the number of open assigned issues.
	CountAssignedIssues(ctx context.Context) (int, error)

	// CheckRateLimit reports the remaining API quota.
	CheckRateLimit(ctx context.Context) (github.RateLimit, error)

	// Username is the configured identity, used as the default assignee.
	Username() string
}

// Store reads and writes destination records.
//
// Records are looked up by their URL field with exact string equality.
// The store decides record IDs; the orchestrator treats them as opaque.
type Store interface {
	// FindByURL returns all records whose URL equals url, in store order.
	// An empty slice means no record exists yet.
	FindByURL(ctx context.Context, url string) ([]schema.Record, error)

	// Create inserts a record and returns its ID.
	Create(ctx context.Context, rec *schema.Record) (string, error)

	// Update overwrites the record with the given ID. It returns false when
	// the store did not apply the update (for example, the record is gone).
	Update(ctx context.Context, id string, rec *schema.Record) (bool, error)

	// SchemaInfo describes the store. It doubles as a connectivity check.
	SchemaInfo(ctx context.Context) (schema.StoreInfo, error)
}
