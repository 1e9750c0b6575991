package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mschirtzinger/issuesync/internal/config"
	"github.com/mschirtzinger/issuesync/internal/github"
	"github.com/mschirtzinger/issuesync/internal/schema"
	issuesync "github.com/mschirtzinger/issuesync/internal/sync"
)

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-06-01T08:30:00Z", time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC), false},
		{"2024-06-01", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{"2 days ago", now.Add(-48 * time.Hour), false},
		{"banana", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSince(tt.in, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSince(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("parseSince(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRepository(t *testing.T) {
	tests := []struct {
		in          string
		owner, repo string
		wantErr     bool
	}{
		{"acme/web", "acme", "web", false},
		{"/acme/web/", "acme", "web", false},
		{"acme", "", "", true},
		{"acme/", "", "", true},
		{"acme/web/issues", "", "", true},
	}

	for _, tt := range tests {
		owner, repo, err := parseRepository(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRepository(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if owner != tt.owner || repo != tt.repo {
			t.Errorf("parseRepository(%q) = %q, %q", tt.in, owner, repo)
		}
	}
}

func finished(status issuesync.Status, errs ...string) *issuesync.SyncResult {
	start := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	if errs == nil {
		errs = []string{}
	}
	return &issuesync.SyncResult{
		Mode:          issuesync.ModeManual,
		StartedAt:     start,
		CompletedAt:   &end,
		Processed:     3,
		Synced:        3 - len(errs),
		Created:       1,
		Updated:       2 - len(errs),
		ErrorsCount:   len(errs),
		ErrorMessages: errs,
		Status:        status,
	}
}

func TestReportResult(t *testing.T) {
	tests := []struct {
		name     string
		result   *issuesync.SyncResult
		wantErr  bool
		contains []string
	}{
		{
			"completed",
			finished(issuesync.StatusCompleted),
			false,
			[]string{"Sync completed successfully. 3/3 issues synced", "Created:   1", "1.5s"},
		},
		{
			"partial lists errors",
			finished(issuesync.StatusPartial, "Failed to process issue #7: boom"),
			false,
			[]string{"2/3 issues synced, 1 errors", "Errors:    1", "Failed to process issue #7: boom"},
		},
		{
			"failed exits non-zero",
			finished(issuesync.StatusFailed, "Sync failed: github down"),
			true,
			[]string{"Sync failed: github down"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := reportResult(&buf, tt.result)
			if tt.wantErr != errors.Is(err, errReported) {
				t.Errorf("reportResult() error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestPrintStatus(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	printStatus(&buf, issuesync.StatusReport{
		RateLimit:       &github.RateLimit{Remaining: 4321, Limit: 5000, Reset: now.Add(30 * time.Minute)},
		IssuesAvailable: 1234,
		CheckedAt:       now,
	}, now)

	out := buf.String()
	for _, want := range []string{"4,321 / 5,000", "30 minutes from now", "1,234 open"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printStatus(&buf, issuesync.StatusReport{Error: "transport error: bad credentials"}, now)
	if !strings.Contains(buf.String(), "bad credentials") {
		t.Errorf("error report missing message:\n%s", buf.String())
	}
}

func TestPrintConnections(t *testing.T) {
	var buf bytes.Buffer
	printConnections(&buf, issuesync.ConnectionReport{
		Source:  issuesync.ConnectionCheck{Status: issuesync.CheckSuccess, Message: "Connected. Rate limit: 10/10"},
		Store:   issuesync.ConnectionCheck{Status: issuesync.CheckFailed, Message: "notion: 401"},
		Overall: issuesync.CheckPartial,
	}, "Notion")

	out := buf.String()
	for _, want := range []string{"GitHub", "Connected. Rate limit: 10/10", "Notion", "notion: 401", "Some connections failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRecordMarkdown(t *testing.T) {
	md := recordMarkdown(&schema.Record{
		Title:         "acme/web",
		Description:   "**Issue:** Login fails",
		URL:           "https://github.com/acme/web/issues/1",
		IssueCount:    1,
		AssignedCount: 1,
		LastActivity:  "Updated: Unknown",
		Body:          "Steps to reproduce",
	})

	for _, want := range []string{"# acme/web", "| Priority | none |", "## Description", "**Issue:** Login fails", "## Issue body"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestKeyFuncAndStoreName(t *testing.T) {
	issue := &schema.Issue{
		URL:        "https://github.com/acme/web/issues/1",
		Repository: schema.Repository{Owner: "acme", Name: "web"},
	}

	if got := keyFunc(config.KeyIssue)(issue); got != issue.URL {
		t.Errorf("issue key = %q", got)
	}
	if got := keyFunc(config.KeyRepository)(issue); got != "https://github.com/acme/web" {
		t.Errorf("repository key = %q", got)
	}
	if storeName(config.DriverSQLite) != "SQLite" || storeName(config.DriverNotion) != "Notion" {
		t.Error("unexpected store names")
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"sync"}, {"sync", "issue"}, {"sync", "repo"}, {"status"}, {"check"},
		{"describe"}, {"serve"}, {"setup"}, {"records"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil || cmd == rootCmd {
			t.Errorf("command %v not registered", path)
		}
	}
}

func TestErrorHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"configuration", fmt.Errorf("%w: github.token is not set", schema.ErrConfiguration), "issuesync setup"},
		{"transport", fmt.Errorf("%w: 502", schema.ErrTransport), "issuesync check"},
		{"other", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorHint(tt.err)
			if tt.want == "" && got != "" {
				t.Errorf("errorHint() = %q, want none", got)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("errorHint() = %q, want it to mention %q", got, tt.want)
			}
		})
	}
}

func TestSyncRepoHelpCoversClosedIssues(t *testing.T) {
	if strings.Contains(syncRepoCmd.Short, "open issues") || !strings.Contains(syncRepoCmd.Long, "closed") {
		t.Errorf("sync repo help should describe issues in any state: %q", syncRepoCmd.Long)
	}
}
