// Package importqueue provides the in-memory work queue feeding the import
// worker. The queue holds task ids only; the database row is the source of
// truth for task state, so losing queue contents on a crash is recoverable.
package importqueue
