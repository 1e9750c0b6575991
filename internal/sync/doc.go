// Package sync reflects GitHub issues into a record store.
//
// # Overview
//
// An Orchestrator owns one Source (GitHub), one Store (Notion or the local
// SQLite store) and one enrich.Enricher. A sync pass fetches issues, then
// for each issue in order:
//
//	raw issue
//	   │ schema.Normalize        (no ID: skipped, not an error)
//	   ▼
//	Issue ──► KeyFunc ──► Store.FindByURL
//	                          │
//	            match? ───────┴─────── no match?
//	               │                       │
//	          Store.Update            Store.Create
//
// and accumulates the outcome in a SyncResult.
//
// # Results
//
// A SyncResult starts running and ends in exactly one of:
//
//   - completed: every issue was created, updated or skipped
//   - partial: at least one issue failed; the others were still written
//   - failed: the fetch itself failed and nothing was processed
//
// Per-issue failures are recorded as "Failed to process issue #<id>: <cause>"
// and never abort the pass. Callers always get a result, not an error.
//
// # Matching
//
// KeyByIssueURL (the default) keeps one record per issue. KeyByRepositoryURL
// keeps one record per repository; two issues from the same repository then
// update the same record and the later one wins.
//
// # Concurrency
//
// Items within a pass are processed one at a time in input order. Passes
// themselves are serialized: a manual sync from the dashboard waits for a
// scheduled pass from the daemon to finish. Waiting honours the context.
//
// Usage:
//
//	orch := sync.New(source, store, enricher, sync.WithLogger(logger))
//	result := orch.SyncAssigned(ctx, sync.ModeManual, github.ListOptions{State: "open"})
//	fmt.Println(result.Summary())
package sync
