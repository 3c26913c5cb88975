// Package scan runs pausable OCR scans over recorded videos.
//
// A scan samples frames, recognizes text in the configured capture region,
// and appends a bookmark whenever a keyword survives the detector cooldown.
// Coordination with other processes happens through marker files in the
// bookmarks directory: "<prefix>_<stem>.scanning" carries progress and
// "<prefix>_<stem>.paused" is both the pause request and, once honored, the
// resume checkpoint. A per-vod flock keeps two workers off the same video.
package scan
