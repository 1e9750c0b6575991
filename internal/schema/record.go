package schema

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the dashboard priority derived from issue labels.
type Priority string

// Priority values. PriorityNone means the field is left unset on the record.
const (
	PriorityNone     Priority = ""
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
)

// Record is the destination-side representation of a synced issue.
type Record struct {
	// ID is assigned by the record store. Empty until created.
	ID string `json:"id,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description"`

	// URL is the natural key used to find an existing record.
	URL string `json:"url"`

	Priority Priority `json:"priority,omitempty"`

	// Dashboard projection counters.
	IssueCount    int `json:"issue_count"`
	AssignedCount int `json:"assigned_count"`

	LastActivity string `json:"last_activity"`

	// Body is written as page content on create. Stores that have no page
	// content concept keep it as a plain column.
	Body string `json:"body,omitempty"`
}

// Validate checks that the record carries a title and a natural key.
func (r *Record) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if r.URL == "" {
		return fmt.Errorf("url is required")
	}
	if r.IssueCount < 0 || r.AssignedCount < 0 {
		return fmt.Errorf("counters must not be negative")
	}
	return nil
}

// StoreInfo describes the destination store, as reported by its schema
// endpoint.
type StoreInfo struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Properties map[string]string `json:"properties,omitempty"` // name -> type
}

// priorityKeywords are the label substrings that indicate a priority at all.
var priorityKeywords = []string{"critical", "high", "urgent", "important"}

// DeriveLabelPriority returns the priority implied by the first label whose
// name mentions a priority keyword. Labels are scanned in the order given.
func DeriveLabelPriority(labels []Label) Priority {
	for _, label := range labels {
		name := strings.ToLower(label.Name)
		if !containsAny(name, priorityKeywords...) {
			continue
		}

		switch {
		case containsAny(name, "critical", "urgent"):
			return PriorityCritical
		case containsAny(name, "high", "important"):
			return PriorityHigh
		default:
			// Unreachable with the current keyword set; kept so that adding a
			// keyword does not silently drop the label.
			return PriorityMedium
		}
	}
	return PriorityNone
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// BuildRecord maps an issue and its description onto a destination record.
//
// The record title is the repository full name. The URL is the issue's html
// URL, or the repository URL when the issue has none.
func BuildRecord(issue *Issue, description string) *Record {
	recordURL := issue.URL
	if recordURL == "" {
		recordURL = issue.RepositoryURL()
	}

	assigned := 0
	if issue.Assignee != "" {
		assigned = 1
	}

	lastActivity := "Updated: Unknown"
	if issue.UpdatedAt != nil {
		lastActivity = "Updated: " + issue.UpdatedAt.UTC().Format(time.RFC3339)
	}

	return &Record{
		Title:         issue.RepositoryFullName(),
		Description:   description,
		URL:           recordURL,
		Priority:      DeriveLabelPriority(issue.Labels),
		IssueCount:    1,
		AssignedCount: assigned,
		LastActivity:  lastActivity,
		Body:          issue.Body,
	}
}
