// Package schema defines the data shapes that flow through issuesync.
//
// # Overview
//
// Two records matter here. An Issue is the normalized snapshot of a GitHub
// issue taken at fetch time; it is never persisted locally. A Record is the
// destination-side row (a Notion page or a SQLite row) that a sync pass
// creates or updates.
//
//	GitHub API (*github.Issue)
//	     │ Normalize
//	     ▼
//	  Issue ──────────► BuildRecord(issue, description)
//	                          │
//	                          ▼
//	                       Record ──► record store (create or update)
//
// # Natural Key
//
// Records are matched by their URL field. The value is compared with exact
// string equality, so "https://github.com/o/r/issues/1" and
// "https://github.com/o/r/issues/1/" are different keys.
//
// # Priority
//
// DeriveLabelPriority maps issue labels to a dashboard priority:
//
//	labels := []schema.Label{{Name: "bug"}, {Name: "URGENT fix"}}
//	schema.DeriveLabelPriority(labels) // PriorityCritical
//
// The first matching label wins. No match leaves the priority empty and the
// field is omitted from the destination record.
package schema
