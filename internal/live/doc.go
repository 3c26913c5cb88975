// Package live bookmarks a running game capture in real time.
//
// Watcher reads frames from a capture device or stream through the ffmpeg
// decoder, runs OCR at a fixed wall-clock interval, and appends a bookmark for
// each debounced keyword hit. When replay renaming is enabled, the newest
// file in the replay-buffer directory is renamed after the event text.
package live
