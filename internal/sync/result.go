package sync

import (
	"fmt"
	"slices"
	"time"
)

// Mode tags what triggered a sync. It is used only for reporting.
type Mode string

const (
	ModeManual     Mode = "manual"
	ModeScheduled  Mode = "scheduled"
	ModeWebhook    Mode = "webhook"
	ModeRepository Mode = "repository"
	ModeManualWeb  Mode = "manual_web" // POST /sync/manual
	ModeManualGet  Mode = "manual_get" // GET /sync
)

// ParseMode returns the Mode named by s, or an error for unknown names.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeManual, ModeScheduled, ModeWebhook, ModeRepository, ModeManualWeb, ModeManualGet:
		return m, nil
	default:
		return "", fmt.Errorf("unknown sync mode %q", s)
	}
}

// Status is the lifecycle state of a SyncResult.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// SyncResult summarizes one sync pass.
//
// A result starts running and moves to exactly one terminal status. Once
// terminal, every mutator is a no-op, so counters and messages are frozen.
// ErrorsCount always equals len(ErrorMessages).
type SyncResult struct {
	Mode        Mode       `json:"sync_type"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Processed int `json:"issues_processed"`
	Synced    int `json:"issues_synced"`
	Created   int `json:"issues_created"`
	Updated   int `json:"issues_updated"`
	Skipped   int `json:"issues_skipped"`

	ErrorsCount   int      `json:"errors_count"`
	ErrorMessages []string `json:"error_messages"`

	Status Status `json:"status"`

	clock func() time.Time
}

func newResult(mode Mode, clock func() time.Time) *SyncResult {
	if clock == nil {
		clock = time.Now
	}
	return &SyncResult{
		Mode:          mode,
		StartedAt:     clock(),
		ErrorMessages: []string{},
		Status:        StatusRunning,
		clock:         clock,
	}
}

func (r *SyncResult) now() time.Time {
	if r.clock == nil {
		return time.Now()
	}
	return r.clock()
}

// IsTerminal reports whether the status is completed, partial or failed.
func (r *SyncResult) IsTerminal() bool {
	return r.Status != StatusRunning
}

// Duration is the elapsed time of the pass, measured up to now while it is
// still running.
func (r *SyncResult) Duration() time.Duration {
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return r.now().Sub(r.StartedAt)
}

// AddError records a per-item failure.
func (r *SyncResult) AddError(msg string) {
	if r.IsTerminal() {
		return
	}
	r.ErrorMessages = append(r.ErrorMessages, msg)
	r.ErrorsCount = len(r.ErrorMessages)
}

func (r *SyncResult) setProcessed(n int) {
	if !r.IsTerminal() {
		r.Processed = n
	}
}

func (r *SyncResult) recordSynced(action Action) {
	if r.IsTerminal() {
		return
	}
	r.Synced++
	switch action {
	case ActionCreated:
		r.Created++
	case ActionUpdated:
		r.Updated++
	}
}

func (r *SyncResult) recordSkipped() {
	if !r.IsTerminal() {
		r.Skipped++
	}
}

func (r *SyncResult) finish(status Status) {
	if r.IsTerminal() {
		return
	}
	t := r.now()
	r.CompletedAt = &t
	r.Status = status
}

// MarkCompleted ends a pass with no per-item errors.
func (r *SyncResult) MarkCompleted() {
	r.finish(StatusCompleted)
}

// MarkPartial ends a pass in which some items failed.
func (r *SyncResult) MarkPartial() {
	r.finish(StatusPartial)
}

// Finish picks completed or partial from the error count.
func (r *SyncResult) Finish() {
	if r.ErrorsCount == 0 {
		r.MarkCompleted()
		return
	}
	r.MarkPartial()
}

// MarkFailed ends a pass whose setup phase failed. A non-empty msg is
// recorded as an error first.
func (r *SyncResult) MarkFailed(msg string) {
	if r.IsTerminal() {
		return
	}
	if msg != "" {
		r.AddError(msg)
	}
	r.finish(StatusFailed)
}

// Snapshot returns a copy that shares no memory with r.
func (r *SyncResult) Snapshot() *SyncResult {
	cp := *r
	cp.ErrorMessages = slices.Clone(r.ErrorMessages)
	if cp.ErrorMessages == nil {
		cp.ErrorMessages = []string{}
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// Summary is a one-line human description of the result.
func (r *SyncResult) Summary() string {
	switch r.Status {
	case StatusCompleted:
		return fmt.Sprintf("Sync completed successfully. %d/%d issues synced", r.Synced, r.Processed)
	case StatusPartial:
		return fmt.Sprintf("Sync completed with errors. %d/%d issues synced, %d errors", r.Synced, r.Processed, r.ErrorsCount)
	case StatusFailed:
		if len(r.ErrorMessages) > 0 {
			return r.ErrorMessages[len(r.ErrorMessages)-1]
		}
		return "Sync failed"
	default:
		return fmt.Sprintf("Sync running. %d/%d issues synced", r.Synced, r.Processed)
	}
}
