// Package clips turns bookmark events into padded, merged time windows and
// exports each window from the source recording with a stream-copy ffmpeg
// trim.
//
// Export is fail-stop: clips are cut sequentially and the first ffmpeg failure
// aborts the remaining windows. Clips written before the failure stay on disk
// and are listed in the Report.
package clips
