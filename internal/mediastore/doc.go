// Package mediastore persists import tasks and published media records in
// SQLite and exposes the queries the import pipeline needs.
//
// The Store manages database connections, schema initialization, busy
// retries, and the lifecycle of four record types: ImportTask (one batch of
// uploads), MediaUnit (one photo, video, or live-photo pair within a task),
// MediaAsset (the published result of processing a unit), and StoredFile (one
// remote file variant belonging to an asset).
//
// The durable task status — not the in-memory import queue — is the source of
// truth for recovery: after a restart the restarter re-submits every task the
// store still reports as queued or in progress. Treat this package as the
// single home for status semantics; new statuses or columns mean updating
// schema.sql and bumping schemaVersion.
package mediastore
