package sampler

import (
	"errors"
	"image"
	"testing"
)

type stubSource struct {
	info     SourceInfo
	frames   int64
	grabbed  int64
	retrieve []int64
	missing  map[int64]bool
	failAt   int64
	pos      float64
}

func (s *stubSource) Grab() (bool, error) {
	if s.failAt > 0 && s.grabbed+1 == s.failAt {
		return false, errors.New("decode error")
	}
	if s.grabbed >= s.frames {
		return false, nil
	}
	s.grabbed++
	return true, nil
}

func (s *stubSource) Retrieve() (image.Image, error) {
	s.retrieve = append(s.retrieve, s.grabbed)
	if s.missing[s.grabbed] {
		return nil, nil
	}
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

func (s *stubSource) Info() SourceInfo        { return s.info }
func (s *stubSource) PositionSeconds() float64 { return s.pos }
func (s *stubSource) Close() error             { return nil }

func TestStride(t *testing.T) {
	tests := []struct {
		native, target float64
		want           int
	}{
		{60, 2, 30},
		{30, 2, 15},
		{29.97, 2, 15},
		{30, 60, 1},
		{0, 2, 1},
		{30, 0, 300},
		{30, 0.05, 300},
	}
	for _, tt := range tests {
		if got := Stride(tt.native, tt.target); got != tt.want {
			t.Errorf("Stride(%v, %v) = %d, want %d", tt.native, tt.target, got, tt.want)
		}
	}
}

func TestSamplerSelectsStrideFrames(t *testing.T) {
	src := &stubSource{info: SourceInfo{FPS: 30, FrameCount: 90}, frames: 90}
	s := New(src, 2, 0)

	var indices []int64
	var elapsed []float64
	for {
		sample, ok, err := s.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		indices = append(indices, sample.Index)
		elapsed = append(elapsed, sample.Elapsed)
	}
	want := []int64{15, 30, 45, 60, 75, 90}
	if len(indices) != len(want) {
		t.Fatalf("indices = %v, want %v", indices, want)
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("indices = %v, want %v", indices, want)
		}
	}
	if elapsed[0] != 0.5 || elapsed[5] != 3 {
		t.Fatalf("unexpected elapsed values: %v", elapsed)
	}
	if len(src.retrieve) != len(want) {
		t.Fatalf("expected only sampled frames decoded, got %v", src.retrieve)
	}
	if p, ok := s.Progress(); !ok || p != 100 {
		t.Fatalf("Progress = %d %v", p, ok)
	}
	if _, ok, _ := s.Next(); ok {
		t.Fatal("expected exhausted sampler to stay exhausted")
	}
}

func TestSamplerSkipsResumedFrames(t *testing.T) {
	src := &stubSource{info: SourceInfo{FPS: 10, FrameCount: 100}, frames: 100}
	s := New(src, 2, 50)
	sample, ok, err := s.Next()
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if sample.Index != 55 {
		t.Fatalf("first sample after resume = %d, want 55", sample.Index)
	}
	if src.retrieve[0] != 55 {
		t.Fatalf("frames before resume point must not be decoded: %v", src.retrieve)
	}
}

func TestSamplerSkipsUnavailableFrames(t *testing.T) {
	src := &stubSource{info: SourceInfo{FPS: 2}, frames: 4, missing: map[int64]bool{1: true}}
	s := New(src, 2, 0)
	sample, ok, err := s.Next()
	if err != nil || !ok || sample.Index != 2 {
		t.Fatalf("expected frame 2, got %+v ok=%v err=%v", sample, ok, err)
	}
}

func TestSamplerPropagatesSourceError(t *testing.T) {
	src := &stubSource{info: SourceInfo{FPS: 1}, frames: 10, failAt: 3}
	s := New(src, 1, 0)
	for range 2 {
		if _, ok, err := s.Next(); err != nil || !ok {
			t.Fatalf("unexpected early stop: ok=%v err=%v", ok, err)
		}
	}
	if _, _, err := s.Next(); err == nil {
		t.Fatal("expected source error")
	}
}

func TestElapsedFallsBackToPosition(t *testing.T) {
	src := &stubSource{info: SourceInfo{}, frames: 3, pos: 12.5}
	s := New(src, 2, 0)
	sample, ok, err := s.Next()
	if err != nil || !ok {
		t.Fatalf("Next: %v %v", ok, err)
	}
	if sample.Elapsed != 12.5 {
		t.Fatalf("Elapsed = %v, want source position", sample.Elapsed)
	}
	if _, known := s.Progress(); known {
		t.Fatal("progress must be unknown without a frame count")
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		index, total int64
		want         int
		known        bool
	}{
		{0, 100, 0, true},
		{33, 100, 33, true},
		{150, 100, 100, true},
		{10, 0, 0, false},
	}
	for _, tt := range tests {
		got, known := Progress(tt.index, tt.total)
		if got != tt.want || known != tt.known {
			t.Errorf("Progress(%d, %d) = %d %v, want %d %v", tt.index, tt.total, got, known, tt.want, tt.known)
		}
	}
}
