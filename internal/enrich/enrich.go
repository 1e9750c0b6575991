// Package enrich turns an issue into the description text stored on its
// record.
//
// Enrichment never fails from the caller's point of view. Generators that talk
// to a model return errors; WithFallback wraps them so that any error or empty
// reply yields the template description instead.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mschirtzinger/issuesync/internal/schema"
)

// PlaceholderAPIKey is the value shipped in sample configs. It disables AI
// enrichment just like an empty key.
const PlaceholderAPIKey = "your-api-key-here"

// Enricher produces a description for an issue. Implementations must not
// fail: they return usable text for every input.
type Enricher interface {
	Describe(ctx context.Context, issue *schema.Issue) string
}

// Generator produces a description and may fail.
type Generator interface {
	Generate(ctx context.Context, issue *schema.Issue) (string, error)
}

// Config selects and configures the enricher built by New.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int64
	BaseURL   string
	Logger    *slog.Logger
}

// Enabled reports whether AI enrichment is configured.
func (c Config) Enabled() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && key != PlaceholderAPIKey
}

// New returns the AI enricher when an API key is configured and the template
// enricher otherwise.
func New(cfg Config) Enricher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if !cfg.Enabled() {
		logger.Warn("AI API key is not configured, descriptions will use the template", "component", "enrich")
		return TemplateEnricher{}
	}

	return WithFallback(NewAnthropic(cfg), logger)
}

// fallback adapts a Generator to an Enricher.
type fallback struct {
	gen    Generator
	logger *slog.Logger
}

// WithFallback wraps gen so that errors and empty output fall back to the
// template description.
func WithFallback(gen Generator, logger *slog.Logger) Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &fallback{gen: gen, logger: logger.With("component", "enrich")}
}

func (f *fallback) Describe(ctx context.Context, issue *schema.Issue) (desc string) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("description generator panicked", "issue", issue.Number, "panic", fmt.Sprint(r))
			desc = Template(issue)
		}
	}()

	text, err := f.gen.Generate(ctx, issue)
	if err != nil {
		f.logger.Warn("failed to generate AI description", "issue", issue.Number, "error", err)
		return Template(issue)
	}
	if strings.TrimSpace(text) == "" {
		f.logger.Warn("AI description was empty", "issue", issue.Number)
		return Template(issue)
	}

	f.logger.Debug("generated AI description", "issue", issue.Number)
	return text
}
