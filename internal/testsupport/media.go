package testsupport

import (
	"context"
	"errors"
	"image"
	"sync"

	"clipmark/internal/ocr"
	"clipmark/internal/sampler"
)

// FakeSource yields Frames solid gray frames. FailAt makes the grab of that
// 1-based frame return an error. Retrieve returns a nil image for the 1-based
// frames listed in Missing.
type FakeSource struct {
	Frames  int64
	FPS     float64
	Width   int
	Height  int
	FailAt  int64
	Unknown bool // report an unknown frame count
	Missing map[int64]bool

	grabbed int64
	closed  bool
}

// Grab advances one frame.
func (f *FakeSource) Grab() (bool, error) {
	if f.FailAt > 0 && f.grabbed+1 == f.FailAt {
		return false, errors.New("fake source: decode error")
	}
	if f.grabbed >= f.Frames {
		return false, nil
	}
	f.grabbed++
	return true, nil
}

// Retrieve returns a frame whose gray level is the frame index.
func (f *FakeSource) Retrieve() (image.Image, error) {
	if f.Missing[f.grabbed] {
		return nil, nil
	}
	w, h := max(f.Width, 8), max(f.Height, 4)
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(f.grabbed)
	}
	return img, nil
}

// Info describes the fake stream.
func (f *FakeSource) Info() sampler.SourceInfo {
	info := sampler.SourceInfo{FPS: f.FPS, FrameCount: f.Frames, Width: f.Width, Height: f.Height}
	if f.Unknown {
		info.FrameCount = 0
	}
	return info
}

// PositionSeconds reports the position from the frame rate.
func (f *FakeSource) PositionSeconds() float64 {
	if f.FPS <= 0 {
		return float64(f.grabbed)
	}
	return float64(f.grabbed) / f.FPS
}

// Close marks the source closed.
func (f *FakeSource) Close() error {
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeSource) Closed() bool { return f.closed }

// FakeEngine returns scripted OCR lines keyed by 1-based call number.
type FakeEngine struct {
	mu     sync.Mutex
	calls  int
	Script map[int][]string
	// OnCall runs before each recognition with the call number.
	OnCall func(call int)
	Err    error
	// HonorContext fails a recognition whose context is done, the way a
	// killed tesseract process does.
	HonorContext bool
}

// Recognize satisfies ocr.Engine.
func (e *FakeEngine) Recognize(ctx context.Context, _ image.Image) ([]ocr.Line, error) {
	e.mu.Lock()
	e.calls++
	call := e.calls
	hook := e.OnCall
	e.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	if e.HonorContext && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if e.Err != nil {
		return nil, e.Err
	}
	var lines []ocr.Line
	for _, text := range e.Script[call] {
		lines = append(lines, ocr.Line{Text: text, Confidence: -1})
	}
	return lines, nil
}

// Calls returns how many recognitions ran.
func (e *FakeEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
