// Package timersync reads in-game countdown timers from video frames and
// turns two readings into an offset between recordings.
//
// Parse understands an optional leading ring (round) digit so that two rounds
// showing the same clock value are never paired. Detector extracts one frame
// with ffmpeg, crops the per-game timer region and runs OCR with per-line
// confidences. SyncVods combines two detections into a SyncResult that the
// session manager can apply as a timer_ocr offset.
package timersync
