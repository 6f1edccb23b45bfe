// Package server owns the development server: the process-wide lifecycle
// (start, stop, query) and the reference HTTP implementation that serves
// bundler output with hot reload and metrics.
//
// The lifecycle holds at most one running server. Starting a second one is
// a logged no-op, not an error, so callers can issue "start" freely without
// double-binding ports. The chosen port is persisted to project settings
// while the server runs and cleared on stop, so other tooling can find it.
package server
