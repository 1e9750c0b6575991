package schema

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v72/github"
)

// Issue states as reported by GitHub.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

// Repository identifies the repository an issue belongs to.
type Repository struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName returns "owner/name".
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// URL returns the repository's web URL.
func (r Repository) URL() string {
	return "https://github.com/" + r.FullName()
}

// Label is a GitHub label attached to an issue.
type Label struct {
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// Issue is a normalized snapshot of a GitHub issue.
// It is immutable once built and lives only for the duration of a sync pass.
type Issue struct {
	// ===== Identity =====
	ID     int64 `json:"id"`     // source-assigned, globally unique
	Number int   `json:"number"` // per-repository issue number

	// ===== Content =====
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
	State string `json:"state"` // open, closed

	// ===== Ownership =====
	Repository Repository `json:"repository"`
	Assignee   string     `json:"assignee,omitempty"` // login
	Labels     []Label    `json:"labels,omitempty"`

	// ===== Timestamps =====
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`

	// URL is the canonical html URL of the issue.
	URL string `json:"url"`
}

// RepositoryFullName returns "owner/name" for the issue's repository.
func (i *Issue) RepositoryFullName() string {
	return i.Repository.FullName()
}

// RepositoryURL returns the web URL of the issue's repository.
func (i *Issue) RepositoryURL() string {
	return i.Repository.URL()
}

// LabelNames returns label names in source order.
func (i *Issue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		names = append(names, l.Name)
	}
	return names
}

// Normalize converts a raw GitHub API issue into an Issue.
//
// Returns ErrMalformedIssue if raw is nil or has no ID. Repository owner and
// name come from the embedded repository object when GitHub includes one and
// are otherwise parsed from repository_url.
func Normalize(raw *gh.Issue) (*Issue, error) {
	if raw == nil || raw.GetID() == 0 {
		return nil, ErrMalformedIssue
	}

	state := raw.GetState()
	if state == "" {
		state = StateOpen
	}

	issue := &Issue{
		ID:         raw.GetID(),
		Number:     raw.GetNumber(),
		Title:      raw.GetTitle(),
		Body:       raw.GetBody(),
		State:      state,
		Repository: repositoryOf(raw),
		Assignee:   raw.GetAssignee().GetLogin(),
		CreatedAt:  timestampPtr(raw.CreatedAt),
		UpdatedAt:  timestampPtr(raw.UpdatedAt),
		ClosedAt:   timestampPtr(raw.ClosedAt),
		URL:        raw.GetHTMLURL(),
	}

	for _, l := range raw.Labels {
		if l == nil {
			continue
		}
		issue.Labels = append(issue.Labels, Label{
			Name:        l.GetName(),
			Color:       l.GetColor(),
			Description: l.GetDescription(),
		})
	}

	return issue, nil
}

// repositoryOf extracts the owning repository from a raw issue.
func repositoryOf(raw *gh.Issue) Repository {
	if repo := raw.GetRepository(); repo != nil && repo.GetName() != "" {
		return Repository{Owner: repo.GetOwner().GetLogin(), Name: repo.GetName()}
	}

	// repository_url looks like https://api.github.com/repos/{owner}/{name}
	parts := strings.Split(strings.TrimSuffix(raw.GetRepositoryURL(), "/"), "/")
	var r Repository
	if len(parts) >= 1 {
		r.Name = parts[len(parts)-1]
	}
	if len(parts) >= 2 {
		r.Owner = parts[len(parts)-2]
	}
	return r
}

func timestampPtr(ts *gh.Timestamp) *time.Time {
	if ts == nil || ts.Time.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}

// ParseIssueURL splits a GitHub issue URL such as
// https://github.com/owner/repo/issues/123 into its parts.
func ParseIssueURL(raw string) (owner, repo string, number int, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: %v", ErrInvalidIssueURL, err)
	}
	if host := strings.ToLower(u.Host); host != "github.com" && host != "www.github.com" {
		return "", "", 0, fmt.Errorf("%w: %q is not a github.com URL", ErrInvalidIssueURL, raw)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 {
		return "", "", 0, fmt.Errorf("%w: %q", ErrInvalidIssueURL, raw)
	}

	n := len(parts)
	if parts[n-2] != "issues" {
		return "", "", 0, fmt.Errorf("%w: %q is not an issue URL", ErrInvalidIssueURL, raw)
	}
	number, err = strconv.Atoi(parts[n-1])
	if err != nil || number <= 0 {
		return "", "", 0, fmt.Errorf("%w: bad issue number in %q", ErrInvalidIssueURL, raw)
	}

	return parts[n-4], parts[n-3], number, nil
}
