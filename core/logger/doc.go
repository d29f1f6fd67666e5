// Package logger holds the shell's diagnostic logger and its session event
// log.
//
// Diagnostics go through log/slog. Session events (what ran, what could not
// be resolved, which builtins were invoked incorrectly) are written as
// newline delimited JSON so they can be summarized later with Report.
package logger
