package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/mschirtzinger/issuesync/internal/schema"
)

// newTestClient starts a fake GitHub API and returns a client pointed at it.
func newTestClient(t *testing.T, maxPages int, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		Token:    "test-token",
		Username: "octocat",
		BaseURL:  srv.URL,
		MaxPages: maxPages,
	})
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	return c
}

func issuesPage(start, n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		id := start + i
		out[i] = map[string]any{
			"id":       id,
			"number":   id,
			"title":    fmt.Sprintf("issue %d", id),
			"html_url": fmt.Sprintf("https://github.com/acme/web/issues/%d", id),
		}
	}
	return out
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing token", Config{Username: "octocat"}},
		{"missing username", Config{Token: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			if !errors.Is(err, schema.ErrConfiguration) {
				t.Errorf("NewClient() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestFetchAssignedIssues_Paginates(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/issues", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		if q.Get("filter") != "assigned" || q.Get("state") != "open" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}

		page, _ := strconv.Atoi(q.Get("page"))
		switch page {
		case 0, 1:
			json.NewEncoder(w).Encode(issuesPage(1, MaxPageSize))
		case 2:
			json.NewEncoder(w).Encode(issuesPage(101, 3))
		default:
			t.Errorf("unexpected page %d", page)
		}
	})

	c := newTestClient(t, 0, mux)

	issues, err := c.FetchAssignedIssues(context.Background(), ListOptions{State: "bogus"})
	if err != nil {
		t.Fatalf("FetchAssignedIssues() failed: %v", err)
	}
	if len(issues) != 103 {
		t.Errorf("len(issues) = %d, want 103", len(issues))
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestFetchAssignedIssues_PageBound(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/issues", func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		json.NewEncoder(w).Encode(issuesPage(n*MaxPageSize, MaxPageSize))
	})

	c := newTestClient(t, 2, mux)

	issues, err := c.FetchAssignedIssues(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("FetchAssignedIssues() failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (bounded by MaxPages)", calls.Load())
	}
	if len(issues) != 2*MaxPageSize {
		t.Errorf("len(issues) = %d, want %d", len(issues), 2*MaxPageSize)
	}
}

func TestFetchRepositoryIssues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/web/issues", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != "all" || q.Get("assignee") != "octocat" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(issuesPage(1, 2))
	})

	c := newTestClient(t, 0, mux)

	issues, err := c.FetchRepositoryIssues(context.Background(), "acme", "web", "octocat")
	if err != nil {
		t.Fatalf("FetchRepositoryIssues() failed: %v", err)
	}
	if len(issues) != 2 {
		t.Errorf("len(issues) = %d, want 2", len(issues))
	}
}

func TestFetchIssue_TransportError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/web/issues/9", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	})

	c := newTestClient(t, 0, mux)

	_, err := c.FetchIssue(context.Background(), "acme", "web", 9)
	if !schema.IsTransport(err) {
		t.Errorf("FetchIssue() error = %v, want ErrTransport", err)
	}
}

func TestCheckRateLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resources":{"core":{"limit":5000,"remaining":4321,"reset":1700000000}}}`))
	})

	c := newTestClient(t, 0, mux)

	rl, err := c.CheckRateLimit(context.Background())
	if err != nil {
		t.Fatalf("CheckRateLimit() failed: %v", err)
	}
	if rl.Remaining != 4321 || rl.Limit != 5000 {
		t.Errorf("RateLimit = %+v", rl)
	}
	if rl.Reset.Unix() != 1700000000 {
		t.Errorf("Reset = %v", rl.Reset)
	}
}

func TestCountAssignedIssues(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/issues", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", fmt.Sprintf(`<%s/issues?per_page=1&page=2>; rel="next", <%s/issues?per_page=1&page=37>; rel="last"`, srvURL, srvURL))
		json.NewEncoder(w).Encode(issuesPage(1, 1))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	srvURL = srv.URL

	c, err := NewClient(Config{Token: "t", Username: "octocat", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}

	n, err := c.CountAssignedIssues(context.Background())
	if err != nil {
		t.Fatalf("CountAssignedIssues() failed: %v", err)
	}
	if n != 37 {
		t.Errorf("CountAssignedIssues() = %d, want 37", n)
	}
}

func TestNormalizeState(t *testing.T) {
	tests := map[string]string{
		"open":   "open",
		"closed": "closed",
		"all":    "all",
		"":       "open",
		"OPEN":   "open",
		"merged": "open",
	}
	for in, want := range tests {
		if got := NormalizeState(in); got != want {
			t.Errorf("NormalizeState(%q) = %q, want %q", in, got, want)
		}
	}
}
