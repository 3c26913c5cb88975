// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and returns a Result; Result.VideoInfo condenses it to
// the frame rate, frame count, resolution and codec that frame sampling and
// multi-vod session creation need.
package ffprobe
