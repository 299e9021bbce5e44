// Package logging constructs the slog loggers used across dugout.
//
// Output format (console or JSON) and level come from configuration; the
// daemon writes to stdout and a rolling log file in the configured log
// directory. Helpers in attrs.go keep field names consistent between the
// worker, the sweepers, and the API server.
package logging
