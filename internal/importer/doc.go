// Package importer contains the import worker and the per-unit processor.
// The worker drains the import queue and drives task state in the media
// store; the processor turns one media unit into a stored asset with
// originals, web-friendly alternates, and thumbnails. Processing is
// idempotent so a task can be re-run after a crash without duplicating
// assets.
package importer
