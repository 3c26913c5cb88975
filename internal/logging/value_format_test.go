package logging

import (
	"log/slog"
	"testing"
	"time"
)

func TestFormatVideoDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{2500 * time.Millisecond, "2.5s"},
		{90 * time.Millisecond, "0.1s"},
		{65300 * time.Millisecond, "1:05.3"},
		{3723500 * time.Millisecond, "1:02:03.5"},
		{-30 * time.Second, "-30s"},
	}
	for _, tt := range tests {
		if got := formatValue(slog.DurationValue(tt.in)); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSecondsRoundsNegativeOffsets(t *testing.T) {
	if got := Seconds("offset", -12.5).Value.Float64(); got != -12.5 {
		t.Fatalf("Seconds(-12.5) = %v", got)
	}
	if got := Seconds("at", 1.23456).Value.Float64(); got != 1.235 {
		t.Fatalf("Seconds(1.23456) = %v", got)
	}
	if attr := Frame(42); attr.Key != FieldFrameIndex || attr.Value.Int64() != 42 {
		t.Fatalf("Frame(42) = %v", attr)
	}
}
