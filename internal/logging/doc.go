// Package logging assembles structured slog loggers and formatting helpers used
// across clipmark.
//
// It owns the console/JSON handlers, centralizes level and output plumbing, and
// exposes context-aware helpers so scan and session code can tag log lines with
// scan IDs, session IDs and recording names. TeeLogger mirrors a logger into a
// per-scan log file and CleanupOldLogs prunes those files on startup.
package logging
