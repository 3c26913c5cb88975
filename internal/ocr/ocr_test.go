package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"clipmark/internal/services"
)

func TestTesseractPlainOutput(t *testing.T) {
	var gotName string
	var gotArgs []string
	var gotInput []byte
	engine := NewTesseract("", 6, "eng").WithRunner(func(_ context.Context, input []byte, name string, args ...string) ([]byte, error) {
		gotName, gotArgs, gotInput = name, args, input
		return []byte("  You knocked down Wraith \n\n ASSIST \n"), nil
	})

	lines, err := engine.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if gotName != "tesseract" {
		t.Fatalf("binary = %q", gotName)
	}
	if strings.Join(gotArgs, " ") != "stdin stdout --psm 6 -l eng" {
		t.Fatalf("args = %v", gotArgs)
	}
	if _, err := png.Decode(bytes.NewReader(gotInput)); err != nil {
		t.Fatalf("expected PNG on stdin: %v", err)
	}
	if got := Texts(lines); strings.Join(got, "|") != "You knocked down Wraith|ASSIST" {
		t.Fatalf("lines = %v", got)
	}
	if lines[0].Confidence != -1 {
		t.Fatalf("plain mode confidence = %v, want -1", lines[0].Confidence)
	}
}

func TestTesseractConfidenceMode(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"1\t1\t0\t0\t0\t0\t0\t0\t100\t40\t-1\t\n" +
		"5\t1\t1\t1\t1\t1\t2\t2\t10\t10\t90\t1\n" +
		"5\t1\t1\t1\t1\t2\t14\t2\t30\t10\t70\t00:27\n" +
		"5\t1\t1\t1\t2\t1\t2\t20\t30\t10\t50.5\tnoise\n"
	base := NewTesseract("tess", 7, "")
	var args []string
	engine := base.WithConfidence().WithRunner(func(_ context.Context, _ []byte, _ string, a ...string) ([]byte, error) {
		args = a
		return []byte(tsv), nil
	})
	if base.TSV {
		t.Fatal("WithConfidence must not mutate the receiver")
	}
	lines, err := engine.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 2, 2)))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if args[len(args)-1] != "tsv" {
		t.Fatalf("expected tsv config, got %v", args)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %+v", lines)
	}
	if lines[0].Text != "1 00:27" || lines[0].Confidence != 0.8 {
		t.Fatalf("unexpected first line: %+v", lines[0])
	}
	if lines[1].Text != "noise" || lines[1].Confidence != 0.505 {
		t.Fatalf("unexpected second line: %+v", lines[1])
	}
}

func TestTesseractRunnerFailure(t *testing.T) {
	engine := NewTesseract("tesseract", 6, "eng").WithRunner(func(context.Context, []byte, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})
	_, err := engine.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestRecognizeNilImage(t *testing.T) {
	lines, err := NewTesseract("", 0, "").Recognize(context.Background(), nil)
	if err != nil || lines != nil {
		t.Fatalf("expected no-op for nil image, got %v %v", lines, err)
	}
}
