package decoder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"slices"
	"testing"

	"clipmark/internal/sampler"
	"clipmark/internal/services"
)

type fakeStream struct {
	*bytes.Reader
	closed   bool
	closeErr error
}

func (f *fakeStream) Close() error {
	f.closed = true
	return f.closeErr
}

func frames(w, h int, values ...byte) []byte {
	var buf []byte
	for _, v := range values {
		buf = append(buf, bytes.Repeat([]byte{v}, w*h)...)
	}
	return buf
}

func TestSourceReadsFixedSizeFrames(t *testing.T) {
	raw := append(frames(4, 2, 10, 20, 30), 0x01, 0x02) // trailing partial frame
	stream := &fakeStream{Reader: bytes.NewReader(raw)}
	var gotArgs []string
	opts := Options{
		Info: sampler.SourceInfo{FPS: 30, FrameCount: 3, Width: 1920, Height: 1080},
		Crop: image.Rect(100, 50, 104, 52),
		Start: func(_ context.Context, name string, args ...string) (io.ReadCloser, error) {
			gotArgs = args
			return stream, nil
		},
	}
	src, err := Open(context.Background(), "vod.mp4", opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !slices.Contains(gotArgs, "crop=4:2:100:50,format=gray") {
		t.Fatalf("expected crop filter in args, got %v", gotArgs)
	}
	if info := src.Info(); info.Width != 4 || info.Height != 2 || info.FPS != 30 {
		t.Fatalf("unexpected info %+v", info)
	}

	var seen []uint8
	for {
		ok, err := src.Grab()
		if err != nil {
			t.Fatalf("Grab: %v", err)
		}
		if !ok {
			break
		}
		img, err := src.Retrieve()
		if err != nil || img == nil {
			t.Fatalf("Retrieve: img=%v err=%v", img, err)
		}
		seen = append(seen, img.(*image.Gray).GrayAt(3, 1).Y)
	}
	if !slices.Equal(seen, []uint8{10, 20, 30}) {
		t.Fatalf("unexpected frame values %v", seen)
	}
	if got := src.PositionSeconds(); got != 0.1 {
		t.Fatalf("position = %v, want 0.1", got)
	}
	if !stream.closed {
		t.Fatal("expected stream closed at end of input")
	}
	if img, _ := src.Retrieve(); img != nil {
		t.Fatal("expected nil image after end of stream")
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestSourceReportsProducerFailure(t *testing.T) {
	stream := &fakeStream{Reader: bytes.NewReader(nil), closeErr: errors.New("exit status 1: moov atom not found")}
	src, err := Open(context.Background(), "broken.mp4", Options{
		Info:  sampler.SourceInfo{Width: 2, Height: 2},
		Start: func(context.Context, string, ...string) (io.ReadCloser, error) { return stream, nil },
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ok, err := src.Grab()
	if ok || !errors.Is(err, services.ErrSource) {
		t.Fatalf("expected source error, got ok=%v err=%v", ok, err)
	}
}

func TestOpenRequiresFrameSize(t *testing.T) {
	_, err := Open(context.Background(), "x.mp4", Options{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestArgsForCaptureDevice(t *testing.T) {
	args := Args(":0.0", Options{InputFormat: "x11grab", FrameRate: 2})
	want := []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-f", "x11grab", "-framerate", "2", "-i", ":0.0", "-an", "-sn", "-vf", "format=gray", "-f", "rawvideo", "-pix_fmt", "gray", "pipe:1"}
	if !slices.Equal(args, want) {
		t.Fatalf("Args = %v\nwant %v", args, want)
	}
}

func TestFrameAtDecodesPNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 3))
	img.SetGray(1, 1, color.Gray{Y: 200})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	var gotArgs []string
	run := func(_ context.Context, _ string, args ...string) ([]byte, error) {
		gotArgs = args
		return buf.Bytes(), nil
	}
	got, err := FrameAtWith(context.Background(), run, "ffmpeg", "vod.mp4", 12.5)
	if err != nil {
		t.Fatalf("FrameAtWith: %v", err)
	}
	if got.Bounds().Dx() != 3 {
		t.Fatalf("unexpected bounds %v", got.Bounds())
	}
	if !slices.Contains(gotArgs, "12.500") {
		t.Fatalf("expected seek argument, got %v", gotArgs)
	}

	if _, err := FrameAtWith(context.Background(), run, "ffmpeg", "vod.mp4", -1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for negative time, got %v", err)
	}
	empty := func(context.Context, string, ...string) ([]byte, error) { return nil, nil }
	if _, err := FrameAtWith(context.Background(), empty, "ffmpeg", "vod.mp4", 1); !errors.Is(err, services.ErrSource) {
		t.Fatalf("expected source error for empty output, got %v", err)
	}
}
