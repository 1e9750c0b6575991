package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mschirtzinger/issuesync/internal/schema"
)

func sampleIssue() *schema.Issue {
	return &schema.Issue{
		ID:         10,
		Number:     4,
		Title:      "Button does nothing",
		Body:       "Clicking save has no effect.",
		State:      schema.StateOpen,
		Repository: schema.Repository{Owner: "acme", Name: "web"},
		Labels:     []schema.Label{{Name: "bug"}, {Name: "ui"}},
		URL:        "https://github.com/acme/web/issues/4",
	}
}

func TestTemplate(t *testing.T) {
	want := strings.Join([]string{
		"**Issue #4:** Button does nothing",
		"**Repository:** acme/web",
		"**Status:** Open",
		"**Assignee:** Not assigned",
		"**GitHub URL:** https://github.com/acme/web/issues/4",
		"**Labels:** bug, ui",
		"**Description:**\nClicking save has no effect.",
	}, "\n")

	if got := Template(sampleIssue()); got != want {
		t.Errorf("Template() =\n%s\nwant\n%s", got, want)
	}
}

func TestTemplate_Truncation(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantEllipsis bool
	}{
		{"exactly 300", strings.Repeat("a", 300), false},
		{"301 chars", strings.Repeat("a", 301), true},
		{"multibyte", strings.Repeat("ü", 301), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := sampleIssue()
			issue.Body = tt.body
			got := Template(issue)
			if strings.HasSuffix(got, "...") != tt.wantEllipsis {
				t.Errorf("ellipsis = %v, want %v", strings.HasSuffix(got, "..."), tt.wantEllipsis)
			}
		})
	}
}

func TestTemplate_MinimalIssue(t *testing.T) {
	issue := &schema.Issue{
		Number:     1,
		Title:      "t",
		State:      schema.StateClosed,
		Assignee:   "octocat",
		Repository: schema.Repository{Owner: "o", Name: "r"},
	}
	got := Template(issue)

	if strings.Contains(got, "**Labels:**") || strings.Contains(got, "**Description:**") {
		t.Errorf("optional sections should be omitted:\n%s", got)
	}
	if !strings.Contains(got, "**Status:** Closed") || !strings.Contains(got, "**Assignee:** octocat") {
		t.Errorf("unexpected template:\n%s", got)
	}
}

type stubGenerator struct {
	text  string
	err   error
	panic bool
}

func (s stubGenerator) Generate(context.Context, *schema.Issue) (string, error) {
	if s.panic {
		panic("boom")
	}
	return s.text, s.err
}

func TestWithFallback(t *testing.T) {
	issue := sampleIssue()
	template := Template(issue)

	tests := []struct {
		name string
		gen  stubGenerator
		want string
	}{
		{"success", stubGenerator{text: "AI text"}, "AI text"},
		{"error", stubGenerator{err: errors.New("quota exceeded")}, template},
		{"empty reply", stubGenerator{text: "   "}, template},
		{"panic", stubGenerator{panic: true}, template},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WithFallback(tt.gen, nil).Describe(context.Background(), issue)
			if got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew_DisabledWithoutKey(t *testing.T) {
	for _, key := range []string{"", "  ", PlaceholderAPIKey} {
		if _, ok := New(Config{APIKey: key}).(TemplateEnricher); !ok {
			t.Errorf("New(APIKey=%q) should return the template enricher", key)
		}
	}
}

func TestAnthropicGenerator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q, want /v1/messages", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("X-Api-Key = %q", r.Header.Get("X-Api-Key"))
		}

		data, _ := io.ReadAll(r.Body)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content[0].Text, "Issue #4: Button does nothing") {
			t.Errorf("prompt not sent: %s", data)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"test-model",
			"content":[{"type":"text","text":"## Summary\nSave is broken."}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5}}`)
	}))
	defer srv.Close()

	enricher := New(Config{APIKey: "test-key", Model: "test-model", BaseURL: srv.URL + "/"})

	got := enricher.Describe(context.Background(), sampleIssue())
	if got != "## Summary\nSave is broken." {
		t.Errorf("Describe() = %q", got)
	}
}

func TestAnthropicGenerator_ServerErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"overloaded"}}`)
	}))
	defer srv.Close()

	issue := sampleIssue()
	enricher := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/"})

	if got := enricher.Describe(context.Background(), issue); got != Template(issue) {
		t.Errorf("Describe() = %q, want template fallback", got)
	}

	_, err := NewAnthropic(Config{APIKey: "test-key", BaseURL: srv.URL + "/"}).Generate(context.Background(), issue)
	if !errors.Is(err, schema.ErrEnrichment) {
		t.Errorf("Generate() error = %v, want ErrEnrichment", err)
	}
}

func TestPrompt(t *testing.T) {
	p := Prompt(&schema.Issue{Number: 2, Title: "x", State: "open", Repository: schema.Repository{Owner: "o", Name: "r"}})
	for _, want := range []string{"- Repository: o/r", "- Labels: None", "No description provided", "- Assignee: Not assigned"} {
		if !strings.Contains(p, want) {
			t.Errorf("Prompt() missing %q", want)
		}
	}
}
