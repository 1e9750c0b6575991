// Package notion is the record store adapter for a Notion database.
//
// Requests are built with sjson and responses read with gjson so that only
// the handful of fields issuesync touches need to be modelled.
package notion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mschirtzinger/issuesync/internal/schema"
)

const (
	// DefaultBaseURL is the Notion public API endpoint.
	DefaultBaseURL = "https://api.notion.com/v1"

	// APIVersion is sent as the Notion-Version header.
	APIVersion = "2022-06-28"

	// DefaultTimeout bounds each HTTP request to Notion.
	DefaultTimeout = 30 * time.Second

	// MaxTextLength is Notion's limit for a single rich text object.
	MaxTextLength = 2000
)

// Database property names.
const (
	PropTitle        = "Repository"
	PropDescription  = "Description"
	PropURL          = "Repository URL"
	PropLastActivity = "Last Activity"
	PropIssues       = "Issues"
	PropAssigned     = "Assigned Issues"
	PropPriority     = "Priority"
)

// Config holds the settings for a Client.
type Config struct {
	Token      string
	DatabaseID string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client reads and writes pages in one Notion database.
type Client struct {
	token      string
	databaseID string
	baseURL    string
	http       *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client. It returns schema.ErrConfiguration when the
// token or database ID is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: Notion token is required", schema.ErrConfiguration)
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("%w: Notion database ID is required", schema.ErrConfiguration)
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
		baseURL:    baseURL,
		http:       httpClient,
		logger:     logger.With("component", "notion"),
	}, nil
}

// DatabaseID returns the configured database.
func (c *Client) DatabaseID() string {
	return c.databaseID
}

// APIError is a non-2xx response from Notion. It matches schema.ErrTransport.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("notion: %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, schema.ErrTransport) match API errors.
func (e *APIError) Is(target error) bool {
	return target == schema.ErrTransport
}

// do sends a request and returns the response body of a 2xx reply.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (gjson.Result, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("notion: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", APIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: notion: %s %s: %w", schema.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: notion: read response: %w", schema.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		parsed := gjson.ParseBytes(data)
		msg := parsed.Get("message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return gjson.Result{}, &APIError{
			Status:  resp.StatusCode,
			Code:    parsed.Get("code").String(),
			Message: msg,
		}
	}

	return gjson.ParseBytes(data), nil
}
