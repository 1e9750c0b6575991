package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mschirtzinger/issuesync/internal/schema"
)

// openTestDB opens a store in a temporary directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleRecord(url string) *schema.Record {
	return &schema.Record{
		Title:         "acme/web",
		Description:   "first",
		URL:           url,
		Priority:      schema.PriorityHigh,
		IssueCount:    1,
		AssignedCount: 1,
		LastActivity:  "Updated: Unknown",
		Body:          "body text",
	}
}

func TestOpen_CreatesSchema(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"records", "record_seq"} {
		var count int
		err := db.conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("Table %s does not exist", table)
		}
	}

	// Schema initialization is idempotent
	if err := db.InitSchemaContext(context.Background()); err != nil {
		t.Errorf("second InitSchemaContext() failed: %v", err)
	}
}

func TestOpen_AcceptsFilePrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefixed.db")
	db, err := Open("file:" + path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

func TestCreateAndFind(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	url := "https://github.com/acme/web/issues/1"

	id, err := db.Create(ctx, sampleRecord(url))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if id != "rec-1" {
		t.Errorf("id = %q, want rec-1", id)
	}

	found, err := db.FindByURL(ctx, url)
	if err != nil {
		t.Fatalf("FindByURL() failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("len(found) = %d, want 1", len(found))
	}
	got := found[0]
	if got.ID != id || got.Priority != schema.PriorityHigh || got.Body != "body text" {
		t.Errorf("found = %+v", got)
	}

	// Exact match only
	if found, _ := db.FindByURL(ctx, url+"/"); len(found) != 0 {
		t.Errorf("trailing slash should not match, got %d records", len(found))
	}
}

func TestFindByURL_InsertionOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	url := "https://github.com/acme/web"

	for range 3 {
		if _, err := db.Create(ctx, sampleRecord(url)); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	found, err := db.FindByURL(ctx, url)
	if err != nil {
		t.Fatalf("FindByURL() failed: %v", err)
	}
	want := []string{"rec-1", "rec-2", "rec-3"}
	if len(found) != len(want) {
		t.Fatalf("len(found) = %d, want %d", len(found), len(want))
	}
	for i, id := range want {
		if found[i].ID != id {
			t.Errorf("found[%d].ID = %q, want %q", i, found[i].ID, id)
		}
	}
}

func TestUpdate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	url := "https://github.com/acme/web/issues/2"

	id, err := db.Create(ctx, sampleRecord(url))
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	rec := sampleRecord(url)
	rec.Description = "second"
	rec.Priority = schema.PriorityNone
	rec.AssignedCount = 0

	ok, err := db.Update(ctx, id, rec)
	if err != nil || !ok {
		t.Fatalf("Update() = (%v, %v), want (true, nil)", ok, err)
	}

	found, _ := db.FindByURL(ctx, url)
	if found[0].Description != "second" || found[0].Priority != schema.PriorityNone || found[0].AssignedCount != 0 {
		t.Errorf("after update = %+v", found[0])
	}

	ok, err = db.Update(ctx, "rec-999", rec)
	if err != nil || ok {
		t.Errorf("Update(unknown) = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestCreate_InvalidRecord(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Create(context.Background(), &schema.Record{Title: "no url"}); err == nil {
		t.Error("Create() should reject a record without a URL")
	}
}

func TestListRecordsAndCount(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	high := sampleRecord("https://github.com/a/b/issues/1")
	crit := sampleRecord("https://github.com/a/b/issues/2")
	crit.Priority = schema.PriorityCritical
	none := sampleRecord("https://github.com/a/b/issues/3")
	none.Priority = schema.PriorityNone

	for _, r := range []*schema.Record{high, crit, none} {
		if _, err := db.Create(ctx, r); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	count, err := db.GetRecordCount(ctx)
	if err != nil {
		t.Fatalf("GetRecordCount() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	all, err := db.ListRecords(ctx, ListRecordsFilter{})
	if err != nil {
		t.Fatalf("ListRecords() failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(all) = %d, want 3", len(all))
	}

	critical, err := db.ListRecords(ctx, ListRecordsFilter{Priority: schema.PriorityCritical})
	if err != nil {
		t.Fatalf("ListRecords(critical) failed: %v", err)
	}
	if len(critical) != 1 || critical[0].URL != crit.URL {
		t.Errorf("critical = %+v", critical)
	}

	limited, _ := db.ListRecords(ctx, ListRecordsFilter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("len(limited) = %d, want 2", len(limited))
	}
}

func TestSchemaInfo(t *testing.T) {
	db := openTestDB(t)

	info, err := db.SchemaInfo(context.Background())
	if err != nil {
		t.Fatalf("SchemaInfo() failed: %v", err)
	}
	if info.Title != storeTitle {
		t.Errorf("Title = %q", info.Title)
	}
	if info.Properties["url"] != "TEXT" || info.Properties["issue_count"] != "INTEGER" {
		t.Errorf("Properties = %v", info.Properties)
	}
}
