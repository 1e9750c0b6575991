package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/mschirtzinger/issuesync/internal/github"
)

// StatusReport is a point-in-time view of the source and the last pass.
type StatusReport struct {
	RateLimit       *github.RateLimit `json:"github_rate_limit,omitempty"`
	IssuesAvailable int               `json:"github_issues_available"`
	LastResult      *SyncResult       `json:"last_result,omitempty"`
	CheckedAt       time.Time         `json:"last_checked"`
	Error           string            `json:"error,omitempty"`
}

// Status queries the source quota and the number of open assigned issues.
// Failures are reported in the Error field.
func (o *Orchestrator) Status(ctx context.Context) StatusReport {
	report := StatusReport{
		LastResult: o.LastResult(),
		CheckedAt:  o.clock(),
	}

	rl, err := o.source.CheckRateLimit(ctx)
	if err != nil {
		o.logger.Error("failed to get sync status", "error", err)
		report.Error = err.Error()
		return report
	}
	report.RateLimit = &rl

	n, err := o.source.CountAssignedIssues(ctx)
	if err != nil {
		o.logger.Error("failed to get sync status", "error", err)
		report.Error = err.Error()
		return report
	}
	report.IssuesAvailable = n

	return report
}

// Connection check outcomes.
const (
	CheckSuccess = "success"
	CheckPartial = "partial"
	CheckFailed  = "failed"
)

// ConnectionCheck is the outcome of probing one remote system.
type ConnectionCheck struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ConnectionReport is the outcome of TestConnections.
type ConnectionReport struct {
	Source  ConnectionCheck `json:"github"`
	Store   ConnectionCheck `json:"store"`
	Overall string          `json:"overall"`
}

// TestConnections probes the source and the store independently.
func (o *Orchestrator) TestConnections(ctx context.Context) ConnectionReport {
	var report ConnectionReport

	if rl, err := o.source.CheckRateLimit(ctx); err != nil {
		report.Source = ConnectionCheck{Status: CheckFailed, Message: err.Error()}
	} else {
		report.Source = ConnectionCheck{
			Status:  CheckSuccess,
			Message: fmt.Sprintf("Connected. Rate limit: %d/%d", rl.Remaining, rl.Limit),
		}
	}

	if info, err := o.store.SchemaInfo(ctx); err != nil {
		report.Store = ConnectionCheck{Status: CheckFailed, Message: err.Error()}
	} else {
		title := info.Title
		if title == "" {
			title = "Unnamed"
		}
		report.Store = ConnectionCheck{
			Status:  CheckSuccess,
			Message: "Connected to database: " + title,
		}
	}

	switch {
	case report.Source.Status == CheckSuccess && report.Store.Status == CheckSuccess:
		report.Overall = CheckSuccess
	case report.Source.Status == CheckSuccess || report.Store.Status == CheckSuccess:
		report.Overall = CheckPartial
	default:
		report.Overall = CheckFailed
	}
	return report
}
