package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	gh "github.com/google/go-github/v72/github"

	"github.com/mschirtzinger/issuesync/internal/enrich"
	"github.com/mschirtzinger/issuesync/internal/github"
	"github.com/mschirtzinger/issuesync/internal/schema"
)

// Action is what happened to a single issue's record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
	ActionNone    Action = ""
)

// Orchestrator drives sync passes from a Source to a Store.
//
// A single pass is strictly sequential. Passes started from several
// goroutines (the dashboard, the daemon) run one at a time.
type Orchestrator struct {
	source   Source
	store    Store
	enricher enrich.Enricher

	logger   *slog.Logger
	keyFunc  KeyFunc
	clock    func() time.Time
	listener func(*SyncResult)

	// sem holds one token while a pass runs.
	sem  chan struct{}
	last atomic.Pointer[SyncResult]
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithKeyFunc sets the matching policy. The default is KeyByIssueURL.
func WithKeyFunc(fn KeyFunc) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.keyFunc = fn
		}
	}
}

// WithClock replaces time.Now for result timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithListener registers fn to receive a snapshot of every finished pass.
func WithListener(fn func(*SyncResult)) Option {
	return func(o *Orchestrator) {
		o.listener = fn
	}
}

// New creates an Orchestrator.
//
// A nil enricher means template descriptions only.
//
// Example:
//
//	source, _ := github.NewClient(github.Config{Token: token, Username: user})
//	store, _ := notion.NewClient(notion.Config{Token: ntoken, DatabaseID: dbID})
//	orch := sync.New(source, store, enrich.New(enrich.Config{APIKey: key}))
//	result := orch.SyncAssigned(ctx, sync.ModeManual, github.ListOptions{State: "open"})
func New(source Source, store Store, enricher enrich.Enricher, opts ...Option) *Orchestrator {
	if enricher == nil {
		enricher = enrich.TemplateEnricher{}
	}

	o := &Orchestrator{
		source:   source,
		store:    store,
		enricher: enricher,
		logger:   slog.Default(),
		keyFunc:  KeyByIssueURL,
		clock:    time.Now,
		sem:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "sync")
	return o
}

// LastResult returns the most recent finished pass, or nil if none ran.
func (o *Orchestrator) LastResult() *SyncResult {
	if r := o.last.Load(); r != nil {
		return r.Snapshot()
	}
	return nil
}

// SyncBatch reflects issues into the store in input order.
//
// Issues without a source identity are skipped silently. A failure on one
// issue is recorded in the result and the batch continues with the next.
func (o *Orchestrator) SyncBatch(ctx context.Context, issues []*gh.Issue, mode Mode) *SyncResult {
	result := newResult(mode, o.clock)
	if err := o.acquire(ctx); err != nil {
		result.MarkFailed("Sync failed: " + err.Error())
		return o.publish(result)
	}
	defer o.release()

	o.runBatch(ctx, result, issues)
	return o.publish(result)
}

// SyncAssigned fetches the issues assigned to the configured user and syncs
// them. A fetch failure ends the pass as failed with nothing processed.
func (o *Orchestrator) SyncAssigned(ctx context.Context, mode Mode, opts github.ListOptions) *SyncResult {
	opts.State = github.NormalizeState(opts.State)
	result := newResult(mode, o.clock)

	if err := o.acquire(ctx); err != nil {
		result.MarkFailed("Sync failed: " + err.Error())
		return o.publish(result)
	}
	defer o.release()

	o.logger.Info("starting sync", "mode", mode, "state", opts.State)

	issues, err := o.source.FetchAssignedIssues(ctx, opts)
	if err != nil {
		msg := "Sync failed: " + err.Error()
		o.logger.Error(msg, "mode", mode)
		result.MarkFailed(msg)
		return o.publish(result)
	}

	o.runBatch(ctx, result, issues)
	return o.publish(result)
}

// SyncRepository syncs every issue in owner/repo assigned to assignee, in
// any state. An empty assignee means the configured user.
func (o *Orchestrator) SyncRepository(ctx context.Context, owner, repo, assignee string) *SyncResult {
	if assignee == "" {
		assignee = o.source.Username()
	}
	result := newResult(ModeRepository, o.clock)

	if err := o.acquire(ctx); err != nil {
		result.MarkFailed("Sync failed: " + err.Error())
		return o.publish(result)
	}
	defer o.release()

	o.logger.Info("syncing repository", "repo", owner+"/"+repo, "assignee", assignee)

	issues, err := o.source.FetchRepositoryIssues(ctx, owner, repo, assignee)
	if err != nil {
		msg := "Sync failed: " + err.Error()
		o.logger.Error(msg, "repo", owner+"/"+repo)
		result.MarkFailed(msg)
		return o.publish(result)
	}

	o.runBatch(ctx, result, issues)
	return o.publish(result)
}

// IssueOutcome is the result of syncing one issue by URL.
type IssueOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Action  Action `json:"action,omitempty"`
}

// SyncIssueURL syncs the issue at a GitHub URL such as
// https://github.com/owner/repo/issues/123. Failures are reported in the
// outcome, never as an error.
func (o *Orchestrator) SyncIssueURL(ctx context.Context, issueURL string) IssueOutcome {
	owner, repo, number, err := schema.ParseIssueURL(issueURL)
	if err != nil {
		return IssueOutcome{Message: "Invalid GitHub URL format"}
	}

	if err := o.acquire(ctx); err != nil {
		return IssueOutcome{Message: fmt.Sprintf("Error syncing issue from %s: %v", issueURL, err)}
	}
	defer o.release()

	raw, err := o.source.FetchIssue(ctx, owner, repo, number)
	if err != nil {
		msg := fmt.Sprintf("Error syncing issue from %s: %v", issueURL, err)
		o.logger.Error(msg)
		return IssueOutcome{Message: msg}
	}

	action, err := o.process(ctx, raw)
	switch {
	case err != nil:
		msg := fmt.Sprintf("Error syncing issue from %s: %v", issueURL, err)
		o.logger.Error(msg)
		return IssueOutcome{Message: msg}
	case action == ActionSkipped:
		return IssueOutcome{Message: "Failed to sync issue from " + issueURL, Action: action}
	default:
		return IssueOutcome{Success: true, Message: "Successfully synced issue from " + issueURL, Action: action}
	}
}

// runBatch processes issues into result and finishes it.
func (o *Orchestrator) runBatch(ctx context.Context, result *SyncResult, issues []*gh.Issue) {
	result.setProcessed(len(issues))
	o.logger.Info("processing issues", "count", len(issues))

	for i, raw := range issues {
		if err := ctx.Err(); err != nil {
			result.AddError(fmt.Sprintf("Sync cancelled after %d of %d issues: %v", i, len(issues), err))
			break
		}

		action, err := o.process(ctx, raw)
		if err != nil {
			msg := fmt.Sprintf("Failed to process issue #%d: %v", raw.GetID(), err)
			o.logger.Error(msg)
			result.AddError(msg)
			continue
		}
		if action == ActionSkipped {
			result.recordSkipped()
			continue
		}
		result.recordSynced(action)
	}

	result.Finish()

	if result.Status == StatusCompleted {
		o.logger.Info(result.Summary(), "mode", result.Mode, "duration", result.Duration())
	} else {
		o.logger.Warn(result.Summary(), "mode", result.Mode, "duration", result.Duration())
	}
}

// process creates or updates the record for one raw issue.
func (o *Orchestrator) process(ctx context.Context, raw *gh.Issue) (Action, error) {
	issue, err := schema.Normalize(raw)
	if errors.Is(err, schema.ErrMalformedIssue) {
		o.logger.Warn("issue missing GitHub ID, skipping")
		return ActionSkipped, nil
	}
	if err != nil {
		return ActionNone, err
	}

	key := o.keyFunc(issue)

	existing, err := o.store.FindByURL(ctx, key)
	if err != nil {
		return ActionNone, fmt.Errorf("lookup record: %w", err)
	}

	rec := schema.BuildRecord(issue, o.enricher.Describe(ctx, issue))
	rec.URL = key

	if match := FirstMatch(existing); match != nil {
		ok, err := o.store.Update(ctx, match.ID, rec)
		if err != nil {
			return ActionNone, fmt.Errorf("update record %s: %w", match.ID, err)
		}
		if !ok {
			return ActionNone, fmt.Errorf("update record %s: %w", match.ID, ErrUpdateRejected)
		}
		o.logger.Info("updated record", "issue", issue.ID, "record", match.ID)
		return ActionUpdated, nil
	}

	id, err := o.store.Create(ctx, rec)
	if err != nil {
		return ActionNone, fmt.Errorf("create record: %w", err)
	}
	if strings.TrimSpace(id) == "" {
		return ActionNone, ErrNoRecordID
	}
	o.logger.Info("created record", "issue", issue.ID, "record", id)
	return ActionCreated, nil
}

// acquire waits until no other pass is running.
func (o *Orchestrator) acquire(ctx context.Context) error {
	select {
	case o.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) release() {
	<-o.sem
}

// publish stores a snapshot of a finished result and notifies the listener.
func (o *Orchestrator) publish(result *SyncResult) *SyncResult {
	snap := result.Snapshot()
	o.last.Store(snap)
	if o.listener != nil {
		o.listener(snap.Snapshot())
	}
	return result
}
