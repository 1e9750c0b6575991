// Package db provides a local SQLite record store for issuesync.
//
// It implements the same create/find/update contract as the Notion adapter
// and is used when store.driver is "sqlite": offline dashboards, demos and
// tests that should not touch a remote workspace.
//
// Architecture:
//   - Database file: configurable, default .issuesync/records.db
//   - WAL mode: the dashboard reads while a sync writes
//   - Schema: records, record_seq
//   - Indexes: records(url) for natural-key lookups
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/mschirtzinger/issuesync/internal/schema"
)

// DefaultPath is where the store lives when no path is configured.
const DefaultPath = ".issuesync/records.db"

// storeTitle is reported by SchemaInfo in place of a database title.
const storeTitle = "issuesync local records"

// DB wraps the SQLite connection used as a record store.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the database at path and initializes its schema.
//
// The caller MUST call Close() when done.
//
// Example:
//
//	store, err := db.Open(".issuesync/records.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func Open(path string) (*DB, error) {
	return OpenContext(context.Background(), path)
}

// OpenContext is Open with context support.
func OpenContext(ctx context.Context, path string) (*DB, error) {
	filePath := strings.TrimPrefix(path, "file:")

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: filePath}

	pragmas := []struct{ stmt, what string }{
		{"PRAGMA journal_mode=WAL", "enable WAL mode"},
		{"PRAGMA busy_timeout=5000", "set busy timeout"},
	}
	for _, p := range pragmas {
		if _, err := db.conn.ExecContext(ctx, p.stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to %s: %w", p.what, err)
		}
	}

	if err := db.InitSchemaContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	// Best effort; the WAL is replayed on next open anyway
	_, _ = db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// InitSchemaContext creates the tables if they don't exist. Idempotent.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS record_seq (
		n INTEGER PRIMARY KEY AUTOINCREMENT
	);

	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL,
		priority TEXT,
		issue_count INTEGER NOT NULL DEFAULT 0,
		assigned_count INTEGER NOT NULL DEFAULT 0,
		last_activity TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_url ON records(url);
	CREATE INDEX IF NOT EXISTS idx_records_priority ON records(priority);
	`

	if _, err := db.conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// FindByURL returns every record whose url equals url exactly, oldest first.
func (db *DB) FindByURL(ctx context.Context, url string) ([]schema.Record, error) {
	rows, err := db.conn.QueryContext(ctx, selectRecords+` WHERE url = ? ORDER BY rowid ASC`, url)
	if err != nil {
		return nil, fmt.Errorf("failed to query records by url: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Create inserts rec and returns its new ID of the form rec-<n>.
func (db *DB) Create(ctx context.Context, rec *schema.Record) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", fmt.Errorf("invalid record: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO record_seq DEFAULT VALUES`)
	if err != nil {
		return "", fmt.Errorf("failed to allocate record id: %w", err)
	}
	n, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("failed to allocate record id: %w", err)
	}
	id := fmt.Sprintf("rec-%d", n)

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
	INSERT INTO records (
		id, title, description, url, priority,
		issue_count, assigned_count, last_activity, body,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		rec.Title,
		rec.Description,
		rec.URL,
		priorityToNullString(rec.Priority),
		rec.IssueCount,
		rec.AssignedCount,
		rec.LastActivity,
		rec.Body,
		now,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit record: %w", err)
	}
	return id, nil
}

// Update overwrites the fields of record id. It returns false when no such
// record exists. The body column is left untouched, matching page content
// that is only written on create.
func (db *DB) Update(ctx context.Context, id string, rec *schema.Record) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, fmt.Errorf("invalid record: %w", err)
	}

	res, err := db.conn.ExecContext(ctx, `
	UPDATE records SET
		title = ?,
		description = ?,
		url = ?,
		priority = ?,
		issue_count = ?,
		assigned_count = ?,
		last_activity = ?,
		updated_at = ?
	WHERE id = ?`,
		rec.Title,
		rec.Description,
		rec.URL,
		priorityToNullString(rec.Priority),
		rec.IssueCount,
		rec.AssignedCount,
		rec.LastActivity,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update record %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update record %s: %w", id, err)
	}
	return n > 0, nil
}

// SchemaInfo reports the store's title and column types.
func (db *DB) SchemaInfo(ctx context.Context) (schema.StoreInfo, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT name, type FROM pragma_table_info('records')`)
	if err != nil {
		return schema.StoreInfo{}, fmt.Errorf("failed to read schema: %w", err)
	}
	defer rows.Close()

	info := schema.StoreInfo{
		ID:         db.path,
		Title:      storeTitle,
		Properties: make(map[string]string),
	}
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return schema.StoreInfo{}, fmt.Errorf("failed to scan column: %w", err)
		}
		info.Properties[name] = typ
	}
	if err := rows.Err(); err != nil {
		return schema.StoreInfo{}, fmt.Errorf("error iterating columns: %w", err)
	}
	return info, nil
}

// ListRecordsFilter configures ListRecords.
type ListRecordsFilter struct {
	// Priority filters by exact priority (empty = all)
	Priority schema.Priority
	// Limit restricts the number of results (0 = no limit)
	Limit int
	// Offset skips the first N results
	Offset int
}

// ListRecords returns records, most recently updated first.
func (db *DB) ListRecords(ctx context.Context, filter ListRecordsFilter) ([]schema.Record, error) {
	query := selectRecords
	var args []any

	if filter.Priority != schema.PriorityNone {
		query += " WHERE priority = ?"
		args = append(args, string(filter.Priority))
	}

	query += " ORDER BY updated_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetRecordCount returns the total number of records.
func (db *DB) GetRecordCount(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get record count: %w", err)
	}
	return count, nil
}

const selectRecords = `
	SELECT id, title, description, url, priority,
	       issue_count, assigned_count, last_activity, body
	FROM records`

func scanRecords(rows *sql.Rows) ([]schema.Record, error) {
	var records []schema.Record

	for rows.Next() {
		var rec schema.Record
		var priority sql.NullString

		err := rows.Scan(
			&rec.ID,
			&rec.Title,
			&rec.Description,
			&rec.URL,
			&priority,
			&rec.IssueCount,
			&rec.AssignedCount,
			&rec.LastActivity,
			&rec.Body,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Priority = schema.Priority(priority.String)

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return records, nil
}

// priorityToNullString stores an empty priority as NULL.
func priorityToNullString(p schema.Priority) sql.NullString {
	if p == schema.PriorityNone {
		return sql.NullString{}
	}
	return sql.NullString{String: string(p), Valid: true}
}
