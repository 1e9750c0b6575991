package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/mschirtzinger/issuesync/internal/schema"
)

// maxBlocksPerAppend is Notion's limit on children in one append request.
const maxBlocksPerAppend = 100

// FindByURL returns every page whose URL property equals url exactly, in the
// order Notion returns them.
func (c *Client) FindByURL(ctx context.Context, url string) ([]schema.Record, error) {
	query, err := sjson.SetBytes([]byte(`{}`), "filter", map[string]any{
		"property": PropURL,
		"url":      map[string]any{"equals": url},
	})
	if err != nil {
		return nil, fmt.Errorf("notion: build query: %w", err)
	}

	var records []schema.Record
	cursor := ""
	for {
		body := query
		if cursor != "" {
			if body, err = sjson.SetBytes(query, "start_cursor", cursor); err != nil {
				return nil, fmt.Errorf("notion: build query: %w", err)
			}
		}

		res, err := c.do(ctx, http.MethodPost, "/databases/"+c.databaseID+"/query", body)
		if err != nil {
			return nil, err
		}

		res.Get("results").ForEach(func(_, page gjson.Result) bool {
			records = append(records, pageToRecord(page))
			return true
		})

		if !res.Get("has_more").Bool() {
			return records, nil
		}
		cursor = res.Get("next_cursor").String()
		if cursor == "" {
			return records, nil
		}
	}
}

// Create adds a page for rec and returns its ID. The record body is appended
// as paragraph blocks afterwards; a failed append is logged and does not fail
// the create.
func (c *Client) Create(ctx context.Context, rec *schema.Record) (string, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "parent.database_id", c.databaseID)
	if err != nil {
		return "", fmt.Errorf("notion: build page: %w", err)
	}
	if body, err = sjson.SetBytes(body, "properties", properties(rec)); err != nil {
		return "", fmt.Errorf("notion: build page: %w", err)
	}

	res, err := c.do(ctx, http.MethodPost, "/pages", body)
	if err != nil {
		return "", err
	}

	id := res.Get("id").String()
	if id == "" {
		return "", fmt.Errorf("%w: notion: create page: response has no id", schema.ErrTransport)
	}

	if rec.Body != "" {
		if err := c.appendParagraphs(ctx, id, rec.Body); err != nil {
			c.logger.Warn("failed to append page content", "page_id", id, "error", err)
		}
	}

	return id, nil
}

// Update replaces the properties of page id. It returns false without an
// error when the page no longer exists.
func (c *Client) Update(ctx context.Context, id string, rec *schema.Record) (bool, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "properties", properties(rec))
	if err != nil {
		return false, fmt.Errorf("notion: build update: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPatch, "/pages/"+id, body); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SchemaInfo reads the database title and its property types.
func (c *Client) SchemaInfo(ctx context.Context) (schema.StoreInfo, error) {
	res, err := c.do(ctx, http.MethodGet, "/databases/"+c.databaseID, nil)
	if err != nil {
		return schema.StoreInfo{}, err
	}

	info := schema.StoreInfo{
		ID:         res.Get("id").String(),
		Title:      plainText(res.Get("title")),
		Properties: make(map[string]string),
	}
	res.Get("properties").ForEach(func(name, prop gjson.Result) bool {
		info.Properties[name.String()] = prop.Get("type").String()
		return true
	})
	return info, nil
}

func (c *Client) appendParagraphs(ctx context.Context, pageID, text string) error {
	chunks := chunkText(text, MaxTextLength)

	for start := 0; start < len(chunks); start += maxBlocksPerAppend {
		end := min(start+maxBlocksPerAppend, len(chunks))

		blocks := make([]map[string]any, 0, end-start)
		for _, chunk := range chunks[start:end] {
			blocks = append(blocks, map[string]any{
				"object":    "block",
				"type":      "paragraph",
				"paragraph": map[string]any{"rich_text": richText(chunk)},
			})
		}

		body, err := sjson.SetBytes([]byte(`{}`), "children", blocks)
		if err != nil {
			return fmt.Errorf("notion: build blocks: %w", err)
		}
		if _, err := c.do(ctx, http.MethodPatch, "/blocks/"+pageID+"/children", body); err != nil {
			return err
		}
	}
	return nil
}

// properties maps a record onto Notion property values.
func properties(rec *schema.Record) map[string]any {
	props := map[string]any{
		PropTitle:        map[string]any{"title": richText(rec.Title)},
		PropDescription:  map[string]any{"rich_text": richText(rec.Description)},
		PropURL:          map[string]any{"url": rec.URL},
		PropLastActivity: map[string]any{"rich_text": richText(rec.LastActivity)},
		PropIssues:       map[string]any{"number": rec.IssueCount},
		PropAssigned:     map[string]any{"number": rec.AssignedCount},
	}
	if rec.Priority != schema.PriorityNone {
		props[PropPriority] = map[string]any{"select": map[string]any{"name": string(rec.Priority)}}
	}
	return props
}

func pageToRecord(page gjson.Result) schema.Record {
	props := page.Get("properties")
	return schema.Record{
		ID:            page.Get("id").String(),
		Title:         plainText(props.Get(PropTitle + ".title")),
		Description:   plainText(props.Get(PropDescription + ".rich_text")),
		URL:           props.Get(PropURL + ".url").String(),
		Priority:      schema.Priority(props.Get(PropPriority + ".select.name").String()),
		IssueCount:    int(props.Get(PropIssues + ".number").Int()),
		AssignedCount: int(props.Get(PropAssigned + ".number").Int()),
		LastActivity:  plainText(props.Get(PropLastActivity + ".rich_text")),
	}
}

// richText builds a single text object, truncated to MaxTextLength.
func richText(s string) []map[string]any {
	return []map[string]any{{
		"type": "text",
		"text": map[string]any{"content": truncate(s, MaxTextLength)},
	}}
}

// plainText concatenates the plain_text of a rich text array.
func plainText(arr gjson.Result) string {
	var b strings.Builder
	arr.ForEach(func(_, part gjson.Result) bool {
		b.WriteString(part.Get("plain_text").String())
		return true
	})
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func chunkText(s string, size int) []string {
	r := []rune(s)
	var chunks []string
	for len(r) > 0 {
		n := min(size, len(r))
		chunks = append(chunks, string(r[:n]))
		r = r[n:]
	}
	return chunks
}
