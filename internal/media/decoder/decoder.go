// Package decoder reads grayscale frames from ffmpeg for OCR sampling.
package decoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"clipmark/internal/sampler"
	"clipmark/internal/services"
)

// Starter launches a frame producer and returns its output stream. Closing
// the stream must stop the producer and report its exit status.
type Starter func(ctx context.Context, name string, args ...string) (io.ReadCloser, error)

// Options configures Open.
type Options struct {
	FFmpeg string
	// InputFormat forces an ffmpeg demuxer or capture device (e.g. "x11grab").
	InputFormat string
	// FrameRate is passed as -framerate, used by capture devices.
	FrameRate float64
	// Info carries the probed stream properties. Width and Height are the
	// full video dimensions.
	Info sampler.SourceInfo
	// Crop limits decoding to a region of the frame. Empty means full frame.
	Crop image.Rectangle
	// Start overrides the process launcher, mainly for tests.
	Start Starter
}

// Source implements sampler.Source over a raw gray8 frame stream.
type Source struct {
	stream  io.ReadCloser
	cancel  context.CancelFunc
	info    sampler.SourceInfo
	width   int
	height  int
	frame   []byte
	have    bool
	grabbed int64
	eof     bool
	started time.Time
	now     func() time.Time
}

// Open starts decoding path. The returned source yields frames of the crop
// size; Info reports those dimensions alongside the probed rate and count.
func Open(ctx context.Context, path string, opts Options) (*Source, error) {
	width, height := opts.Info.Width, opts.Info.Height
	if !opts.Crop.Empty() {
		width, height = opts.Crop.Dx(), opts.Crop.Dy()
	}
	if width <= 0 || height <= 0 {
		return nil, services.Wrap(services.ErrValidation, "decoder", "open", fmt.Sprintf("unknown frame size %dx%d for %s", width, height, path), nil)
	}
	binary := strings.TrimSpace(opts.FFmpeg)
	if binary == "" {
		binary = "ffmpeg"
	}
	start := opts.Start
	if start == nil {
		start = startProcess
	}

	ctx, cancel := context.WithCancel(ctx)
	stream, err := start(ctx, binary, Args(path, opts)...)
	if err != nil {
		cancel()
		return nil, services.Wrap(services.ErrSource, "decoder", "open", path, err)
	}
	info := opts.Info
	info.Width, info.Height = width, height
	return &Source{
		stream:  stream,
		cancel:  cancel,
		info:    info,
		width:   width,
		height:  height,
		frame:   make([]byte, width*height),
		started: time.Now(),
		now:     time.Now,
	}, nil
}

// Args builds the ffmpeg command line used by Open.
func Args(path string, opts Options) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
	if opts.InputFormat != "" {
		args = append(args, "-f", opts.InputFormat)
	}
	if opts.FrameRate > 0 {
		args = append(args, "-framerate", strconv.FormatFloat(opts.FrameRate, 'f', -1, 64))
	}
	args = append(args, "-i", path, "-an", "-sn")
	filter := "format=gray"
	if c := opts.Crop; !c.Empty() {
		filter = fmt.Sprintf("crop=%d:%d:%d:%d,format=gray", c.Dx(), c.Dy(), c.Min.X, c.Min.Y)
	}
	return append(args, "-vf", filter, "-f", "rawvideo", "-pix_fmt", "gray", "pipe:1")
}

// Grab reads the next frame. It reports false at end of stream; a producer
// that exited with an error surfaces here.
func (s *Source) Grab() (bool, error) {
	if s.eof {
		return false, nil
	}
	_, err := io.ReadFull(s.stream, s.frame)
	switch {
	case err == nil:
		s.grabbed++
		s.have = true
		return true, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.eof = true
		s.have = false
		if cerr := s.stream.Close(); cerr != nil {
			return false, services.Wrap(services.ErrSource, "decoder", "read", "", cerr)
		}
		return false, nil
	default:
		s.have = false
		return false, services.Wrap(services.ErrSource, "decoder", "read", "", err)
	}
}

// Retrieve returns a copy of the last grabbed frame, or nil when none is
// available.
func (s *Source) Retrieve() (image.Image, error) {
	if !s.have {
		return nil, nil
	}
	img := image.NewGray(image.Rect(0, 0, s.width, s.height))
	copy(img.Pix, s.frame)
	return img, nil
}

// Info returns the stream properties.
func (s *Source) Info() sampler.SourceInfo { return s.info }

// PositionSeconds derives the position from the frame count when the rate is
// known and from the wall clock otherwise.
func (s *Source) PositionSeconds() float64 {
	if s.info.FPS > 0 {
		return float64(s.grabbed) / s.info.FPS
	}
	return s.now().Sub(s.started).Seconds()
}

// Close stops the producer.
func (s *Source) Close() error {
	s.cancel()
	if s.eof {
		return nil
	}
	s.eof = true
	_ = s.stream.Close()
	return nil
}

type processStream struct {
	io.ReadCloser
	cmd    *exec.Cmd
	stderr *bytes.Buffer
	once   sync.Once
	err    error
}

func (p *processStream) Close() error {
	p.once.Do(func() {
		_ = p.ReadCloser.Close()
		if err := p.cmd.Wait(); err != nil {
			p.err = fmt.Errorf("%s: %w: %s", p.cmd.Path, err, strings.TrimSpace(p.stderr.String()))
		}
	})
	return p.err
}

func startProcess(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}
	return &processStream{ReadCloser: stdout, cmd: cmd, stderr: &stderr}, nil
}

// FrameAt decodes the frame at seconds as an image.
func FrameAt(ctx context.Context, binary, path string, seconds float64) (image.Image, error) {
	return FrameAtWith(ctx, services.CommandOutput, binary, path, seconds)
}

// FrameAtWith is FrameAt with an injectable runner.
func FrameAtWith(ctx context.Context, run services.OutputRunner, binary, path string, seconds float64) (image.Image, error) {
	if seconds < 0 {
		return nil, services.Wrap(services.ErrValidation, "decoder", "frame", "timestamp must be >= 0", nil)
	}
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	args := []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-ss", strconv.FormatFloat(seconds, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe", "-vcodec", "png", "pipe:1",
	}
	out, err := run(ctx, binary, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "decoder", "frame", path, err)
	}
	if len(out) == 0 {
		return nil, services.Wrap(services.ErrSource, "decoder", "frame", fmt.Sprintf("no frame at %.3fs in %s", seconds, path), nil)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, services.Wrap(services.ErrSource, "decoder", "frame", "decode png", err)
	}
	return img, nil
}
