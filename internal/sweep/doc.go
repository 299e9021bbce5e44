// Package sweep holds the periodic maintenance loops: the restarter that
// re-queues unfinished tasks, the content-type corrector, the alternate
// format backfill, and the temp-file collector. Each loop logs failures and
// keeps ticking; a bad tick never kills the daemon.
package sweep
