// Package services defines shared utilities consumed by the scan, clip and
// multi-vod components.
//
// Key responsibilities:
//   - Context helpers that stamp scan IDs, session IDs, recording names and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that let the CLI map
//     failures onto exit codes and JSON error kinds.
//   - Command runner types that make external tool execution (ffmpeg,
//     ffprobe, tesseract) substitutable in tests.
package services
