// Package daemon assembles the import pipeline: it enforces single-instance
// execution with a file lock, runs the worker and the maintenance loops under
// one errgroup, and serves the HTTP API the site backend talks to.
package daemon
