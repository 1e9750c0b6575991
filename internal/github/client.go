// Package github is the issue source adapter. It wraps go-github to fetch the
// issues assigned to the configured user.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v72/github"

	"github.com/mschirtzinger/issuesync/internal/schema"
)

const (
	// DefaultBaseURL is the GitHub REST API endpoint.
	DefaultBaseURL = "https://api.github.com/"

	// DefaultTimeout bounds each HTTP request to GitHub.
	DefaultTimeout = 30 * time.Second

	// MaxPageSize is the largest page GitHub serves for issue listings.
	MaxPageSize = 100

	// DefaultMaxPages caps a single listing at 5000 issues.
	DefaultMaxPages = 50
)

// Config holds the settings for a Client.
type Config struct {
	Token    string
	Username string

	// BaseURL overrides DefaultBaseURL (GitHub Enterprise, tests).
	BaseURL string

	// MaxPages bounds pagination. Zero means DefaultMaxPages.
	MaxPages int

	// HTTPClient is used for all requests. Nil means a client with
	// DefaultTimeout.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// RateLimit is the core API quota as reported by GitHub.
type RateLimit struct {
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	Reset     time.Time `json:"reset"`
}

// ListOptions narrows FetchAssignedIssues.
type ListOptions struct {
	// State is open, closed or all. Anything else is treated as open.
	State string

	// PerPage defaults to MaxPageSize.
	PerPage int

	// Since limits results to issues updated at or after this time.
	Since time.Time
}

// Client fetches issues from GitHub on behalf of one user.
type Client struct {
	api      *gh.Client
	username string
	maxPages int
	logger   *slog.Logger
}

// NewClient creates a Client. It returns schema.ErrConfiguration when the
// token or username is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: GitHub token is required", schema.ErrConfiguration)
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("%w: GitHub username is required", schema.ErrConfiguration)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	api := gh.NewClient(httpClient).WithAuthToken(cfg.Token)
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid GitHub base URL: %v", schema.ErrConfiguration, err)
		}
		api.BaseURL = u
	}

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		api:      api,
		username: cfg.Username,
		maxPages: maxPages,
		logger:   logger.With("component", "github"),
	}, nil
}

// Username returns the configured GitHub login.
func (c *Client) Username() string {
	return c.username
}

// FetchAssignedIssues lists issues assigned to the authenticated user across
// all repositories, most recently updated first.
func (c *Client) FetchAssignedIssues(ctx context.Context, opts ListOptions) ([]*gh.Issue, error) {
	perPage := opts.PerPage
	if perPage <= 0 || perPage > MaxPageSize {
		perPage = MaxPageSize
	}

	listOpts := &gh.IssueListOptions{
		Filter:      "assigned",
		State:       NormalizeState(opts.State),
		Sort:        "updated",
		Direction:   "desc",
		Since:       opts.Since,
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	return c.paginate(ctx, "list assigned issues", perPage, func(page int) ([]*gh.Issue, *gh.Response, error) {
		listOpts.ListOptions.Page = page
		return c.api.Issues.List(ctx, true, listOpts)
	})
}

// FetchRepositoryIssues lists issues in any state for one repository,
// filtered by assignee.
func (c *Client) FetchRepositoryIssues(ctx context.Context, owner, repo, assignee string) ([]*gh.Issue, error) {
	listOpts := &gh.IssueListByRepoOptions{
		Assignee:    assignee,
		State:       schema.StateAll,
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: MaxPageSize},
	}

	op := fmt.Sprintf("list issues for %s/%s", owner, repo)
	return c.paginate(ctx, op, MaxPageSize, func(page int) ([]*gh.Issue, *gh.Response, error) {
		listOpts.ListOptions.Page = page
		return c.api.Issues.ListByRepo(ctx, owner, repo, listOpts)
	})
}

// paginate calls fetch for pages 1..maxPages, stopping at the first short or
// empty page.
func (c *Client) paginate(ctx context.Context, op string, perPage int, fetch func(page int) ([]*gh.Issue, *gh.Response, error)) ([]*gh.Issue, error) {
	var all []*gh.Issue

	for page := 1; page <= c.maxPages; page++ {
		issues, _, err := fetch(page)
		if err != nil {
			return nil, wrap(op, err)
		}
		all = append(all, issues...)

		if len(issues) < perPage {
			return all, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, wrap(op, err)
		}
	}

	c.logger.Warn("pagination limit reached, results truncated",
		"op", op, "max_pages", c.maxPages, "fetched", len(all))
	return all, nil
}

// FetchIssue fetches a single issue by repository and number.
func (c *Client) FetchIssue(ctx context.Context, owner, repo string, number int) (*gh.Issue, error) {
	issue, _, err := c.api.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, wrap(fmt.Sprintf("get issue %s/%s#%d", owner, repo, number), err)
	}
	return issue, nil
}

// CountAssignedIssues returns how many open issues are assigned to the user.
// It requests a single-item page and reads the total from the last page link.
func (c *Client) CountAssignedIssues(ctx context.Context) (int, error) {
	opts := &gh.IssueListOptions{
		Filter:      "assigned",
		State:       schema.StateOpen,
		ListOptions: gh.ListOptions{PerPage: 1},
	}

	issues, resp, err := c.api.Issues.List(ctx, true, opts)
	if err != nil {
		return 0, wrap("count assigned issues", err)
	}
	if resp != nil && resp.LastPage > 0 {
		return resp.LastPage, nil
	}
	return len(issues), nil
}

// CheckRateLimit reports the core API quota.
func (c *Client) CheckRateLimit(ctx context.Context) (RateLimit, error) {
	limits, _, err := c.api.RateLimit.Get(ctx)
	if err != nil {
		return RateLimit{}, wrap("check rate limit", err)
	}

	core := limits.GetCore()
	if core == nil {
		return RateLimit{}, fmt.Errorf("%w: check rate limit: no core quota in response", schema.ErrTransport)
	}
	return RateLimit{
		Remaining: core.Remaining,
		Limit:     core.Limit,
		Reset:     core.Reset.Time,
	}, nil
}

// NormalizeState maps anything other than open, closed or all to open.
func NormalizeState(state string) string {
	switch state {
	case schema.StateOpen, schema.StateClosed, schema.StateAll:
		return state
	default:
		return schema.StateOpen
	}
}

func wrap(op string, err error) error {
	return fmt.Errorf("%w: github: %s: %w", schema.ErrTransport, op, err)
}
