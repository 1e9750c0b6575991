package schema

import (
	"testing"
	"time"
)

func labels(names ...string) []Label {
	out := make([]Label, len(names))
	for i, n := range names {
		out[i] = Label{Name: n}
	}
	return out
}

func TestDeriveLabelPriority(t *testing.T) {
	tests := []struct {
		name   string
		labels []Label
		want   Priority
	}{
		{"urgent anywhere in name", labels("bug", "URGENT fix"), PriorityCritical},
		{"no keyword", labels("good first issue"), PriorityNone},
		{"first match wins", labels("high-priority", "critical-path"), PriorityHigh},
		{"first match wins critical", labels("critical-path", "high-priority"), PriorityCritical},
		{"high before critical", labels("high", "critical"), PriorityHigh},
		{"important is high", labels("Important"), PriorityHigh},
		{"no labels", nil, PriorityNone},
		{"case insensitive", labels("CrItIcAl"), PriorityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveLabelPriority(tt.labels); got != tt.want {
				t.Errorf("DeriveLabelPriority() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildRecord(t *testing.T) {
	updated := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	issue := &Issue{
		ID:         1,
		Number:     12,
		Title:      "Crash on start",
		Body:       "stack trace",
		Repository: Repository{Owner: "acme", Name: "web"},
		Assignee:   "octocat",
		Labels:     labels("critical"),
		UpdatedAt:  &updated,
		URL:        "https://github.com/acme/web/issues/12",
	}

	rec := BuildRecord(issue, "desc")

	if rec.Title != "acme/web" {
		t.Errorf("Title = %q, want acme/web", rec.Title)
	}
	if rec.URL != issue.URL {
		t.Errorf("URL = %q, want %q", rec.URL, issue.URL)
	}
	if rec.Priority != PriorityCritical {
		t.Errorf("Priority = %q, want Critical", rec.Priority)
	}
	if rec.IssueCount != 1 || rec.AssignedCount != 1 {
		t.Errorf("counters = (%d, %d), want (1, 1)", rec.IssueCount, rec.AssignedCount)
	}
	if rec.LastActivity != "Updated: 2024-05-06T07:08:09Z" {
		t.Errorf("LastActivity = %q", rec.LastActivity)
	}
	if rec.Description != "desc" || rec.Body != "stack trace" {
		t.Errorf("Description/Body not carried over: %+v", rec)
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

func TestBuildRecord_Fallbacks(t *testing.T) {
	issue := &Issue{ID: 2, Repository: Repository{Owner: "acme", Name: "api"}}

	rec := BuildRecord(issue, "")

	if rec.URL != "https://github.com/acme/api" {
		t.Errorf("URL = %q, want repository URL fallback", rec.URL)
	}
	if rec.AssignedCount != 0 {
		t.Errorf("AssignedCount = %d, want 0", rec.AssignedCount)
	}
	if rec.LastActivity != "Updated: Unknown" {
		t.Errorf("LastActivity = %q", rec.LastActivity)
	}
	if rec.Priority != PriorityNone {
		t.Errorf("Priority = %q, want none", rec.Priority)
	}
}

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"valid", Record{Title: "a/b", URL: "https://github.com/a/b"}, false},
		{"missing title", Record{URL: "https://github.com/a/b"}, true},
		{"missing url", Record{Title: "a/b"}, true},
		{"negative counter", Record{Title: "a/b", URL: "u", IssueCount: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
