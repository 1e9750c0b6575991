package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mschirtzinger/issuesync/internal/schema"
)

const (
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "claude-3-5-haiku-latest"

	// DefaultMaxTokens leaves room for a description of about 500 words.
	DefaultMaxTokens = 1024

	requestTimeout = 60 * time.Second
)

// AnthropicGenerator writes descriptions with the Anthropic Messages API.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic creates a generator from cfg. Retries are disabled: a slow or
// failing provider falls back to the template instead of stalling the sync.
func NewAnthropic(cfg Config) *AnthropicGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(requestTimeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &AnthropicGenerator{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Generate implements Generator.
func (g *AnthropicGenerator) Generate(ctx context.Context, issue *schema.Issue) (string, error) {
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(Prompt(issue))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", schema.ErrEnrichment, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// Prompt builds the request text for issue.
func Prompt(issue *schema.Issue) string {
	assignee := issue.Assignee
	if assignee == "" {
		assignee = "Not assigned"
	}
	labels := "None"
	if names := issue.LabelNames(); len(names) > 0 {
		labels = strings.Join(names, ", ")
	}
	body := issue.Body
	if body == "" {
		body = "No description provided"
	}

	var b strings.Builder
	b.WriteString("Create a professional and well-formatted description for a GitHub issue entry in a Notion database.\n\n")
	b.WriteString("Here's the GitHub issue information:\n")
	fmt.Fprintf(&b, "- Repository: %s\n", issue.RepositoryFullName())
	fmt.Fprintf(&b, "- Issue #%d: %s\n", issue.Number, issue.Title)
	fmt.Fprintf(&b, "- Status: %s\n", titleCase(issue.State))
	fmt.Fprintf(&b, "- Assignee: %s\n", assignee)
	fmt.Fprintf(&b, "- Labels: %s\n", labels)
	fmt.Fprintf(&b, "- Created: %s\n", formatTime(issue.CreatedAt))
	fmt.Fprintf(&b, "- Updated: %s\n", formatTime(issue.UpdatedAt))
	fmt.Fprintf(&b, "- GitHub URL: %s\n\n", issue.URL)
	b.WriteString("Original Issue Description:\n")
	b.WriteString(body)
	b.WriteString("\n\nPlease create a concise, professional description that:\n")
	b.WriteString("1. Summarizes the issue clearly\n")
	b.WriteString("2. Highlights the key points and requirements\n")
	b.WriteString("3. Mentions any important technical details\n")
	b.WriteString("4. Includes the current status and assignee\n")
	b.WriteString("5. Keeps it under 500 words\n")
	b.WriteString("6. Uses markdown formatting for better readability\n\n")
	b.WriteString("Format it as a well-structured description suitable for a project management dashboard.\n")
	return b.String()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
