package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"

	"clipmark/internal/services"
)

// Line is one recognized text line. Confidence is in [0,1], or -1 when the
// engine does not report one.
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Engine recognizes text in an image.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]Line, error)
}

// Texts extracts the text of each line.
func Texts(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return out
}

// Runner executes a program with input on stdin and returns stdout.
type Runner func(ctx context.Context, input []byte, name string, args ...string) ([]byte, error)

// Tesseract shells out to the tesseract CLI, feeding a PNG on stdin.
type Tesseract struct {
	Binary string
	PSM    int
	Lang   string
	// TSV requests per-word confidences, aggregated per line.
	TSV bool

	run Runner
}

// NewTesseract returns an engine using the given binary and settings.
func NewTesseract(binary string, psm int, lang string) *Tesseract {
	return &Tesseract{Binary: binary, PSM: psm, Lang: lang, run: runWithStdin}
}

// WithRunner injects a custom runner (primarily for tests).
func (t *Tesseract) WithRunner(r Runner) *Tesseract {
	t.run = r
	return t
}

// WithConfidence returns a copy that reports per-line confidences.
func (t *Tesseract) WithConfidence() *Tesseract {
	clone := *t
	clone.TSV = true
	return &clone
}

// Recognize encodes img as PNG and returns the trimmed, non-empty lines.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]Line, error) {
	if img == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode ocr input: %w", err)
	}
	run := t.run
	if run == nil {
		run = runWithStdin
	}
	output, err := run(ctx, buf.Bytes(), t.binary(), t.args()...)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ocr", "tesseract", "", err)
	}
	if t.TSV {
		return ParseTSV(output), nil
	}
	return parsePlain(output), nil
}

func (t *Tesseract) binary() string {
	if b := strings.TrimSpace(t.Binary); b != "" {
		return b
	}
	return "tesseract"
}

func (t *Tesseract) args() []string {
	args := []string{"stdin", "stdout"}
	if t.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.PSM))
	}
	if lang := strings.TrimSpace(t.Lang); lang != "" {
		args = append(args, "-l", lang)
	}
	if t.TSV {
		args = append(args, "tsv")
	}
	return args
}

func parsePlain(output []byte) []Line {
	var lines []Line
	for _, raw := range strings.Split(string(output), "\n") {
		if text := strings.TrimSpace(raw); text != "" {
			lines = append(lines, Line{Text: text, Confidence: -1})
		}
	}
	return lines
}

func runWithStdin(ctx context.Context, input []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}
