// Package sampler walks a video source frame by frame and yields only the
// frames that fall on the sampling stride.
package sampler

import (
	"errors"
	"image"
	"math"
)

// MinSampleFPS is the lowest accepted sampling rate.
const MinSampleFPS = 0.1

// SourceInfo describes a video source. FPS or FrameCount of zero means the
// value is unknown (typically a live capture).
type SourceInfo struct {
	FPS        float64
	FrameCount int64
	Width      int
	Height     int
	Live       bool
}

// Source is a sequential frame reader. Grab advances one frame without
// decoding it and reports false at end of stream. Retrieve decodes the most
// recently grabbed frame and may return a nil image when that frame is
// unavailable; such frames are skipped.
type Source interface {
	Grab() (bool, error)
	Retrieve() (image.Image, error)
	Info() SourceInfo
	PositionSeconds() float64
	Close() error
}

// ErrClosed is returned after the sampler reached end of stream.
var ErrClosed = errors.New("sampler: source exhausted")

// Stride converts a target sampling rate into a frame step for a source
// running at nativeFPS. Unknown native rates sample every frame.
func Stride(nativeFPS, targetFPS float64) int {
	targetFPS = max(targetFPS, MinSampleFPS)
	if nativeFPS <= 0 || math.IsNaN(nativeFPS) {
		return 1
	}
	return max(1, int(math.Round(nativeFPS/targetFPS)))
}

// Sample is one selected frame.
type Sample struct {
	// Index is the 1-based number of grabs performed so far.
	Index int64
	// Elapsed is the position in seconds from the start of the video.
	Elapsed float64
	Image   image.Image
}

// Sampler selects frames whose index is past startFrame and a multiple of the
// stride.
type Sampler struct {
	src        Source
	info       SourceInfo
	stride     int64
	startFrame int64
	index      int64
	done       bool
}

// New wraps src. startFrame is the resume point: frames with index <= startFrame
// are grabbed but never decoded.
func New(src Source, targetFPS float64, startFrame int64) *Sampler {
	info := src.Info()
	return &Sampler{
		src:        src,
		info:       info,
		stride:     int64(Stride(info.FPS, targetFPS)),
		startFrame: max(startFrame, 0),
	}
}

// Stride returns the frame step in use.
func (s *Sampler) Stride() int { return int(s.stride) }

// Info returns the source description captured at construction.
func (s *Sampler) Info() SourceInfo { return s.info }

// Index returns the number of frames grabbed so far.
func (s *Sampler) Index() int64 { return s.index }

// Next grabs frames until the next sampled frame and decodes it. It reports
// false once the source is exhausted; an error means the source failed.
func (s *Sampler) Next() (Sample, bool, error) {
	if s.done {
		return Sample{}, false, nil
	}
	for {
		ok, err := s.src.Grab()
		if err != nil {
			return Sample{}, false, err
		}
		if !ok {
			s.done = true
			return Sample{}, false, nil
		}
		s.index++
		if s.index <= s.startFrame || s.index%s.stride != 0 {
			continue
		}
		img, err := s.src.Retrieve()
		if err != nil {
			return Sample{}, false, err
		}
		if img == nil {
			continue
		}
		return Sample{Index: s.index, Elapsed: s.Elapsed(s.index), Image: img}, true, nil
	}
}

// Elapsed converts a frame index to seconds using the native frame rate, or
// the source-reported position when the rate is unknown.
func (s *Sampler) Elapsed(index int64) float64 {
	if s.info.FPS > 0 {
		return max(0, float64(index)/s.info.FPS)
	}
	return max(0, s.src.PositionSeconds())
}

// Progress reports min(100, index*100/frameCount). The boolean is false when
// the frame count is unknown.
func (s *Sampler) Progress() (int, bool) {
	return Progress(s.index, s.info.FrameCount)
}

// Progress computes integer percent complete for a frame index.
func Progress(index, frameCount int64) (int, bool) {
	if frameCount <= 0 {
		return 0, false
	}
	return int(min(100, index*100/frameCount)), true
}
