package main

import (
	"errors"
	"testing"

	"clipmark/internal/services"
)

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"90", 90},
		{"12.5", 12.5},
		{"1:30", 90},
		{"1:02:03", 3723},
		{" 0:05.5 ", 5.5},
	}
	for _, tt := range tests {
		got, err := parseSeconds(tt.in)
		if err != nil {
			t.Fatalf("parseSeconds(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("parseSeconds(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "abc", "1:75", "1:2:3:4", "NaN"} {
		_, err := parseSeconds(bad)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("parseSeconds(%q) err = %v, want validation", bad, err)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[float64]string{
		0:      "0:00.0",
		65.3:   "1:05.3",
		3723.5: "1:02:03.5",
		-30:    "-0:30.0",
	}
	for in, want := range tests {
		if got := formatClock(in); got != want {
			t.Fatalf("formatClock(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestHumanHelpers(t *testing.T) {
	if got := humanUnix(0); got != "-" {
		t.Fatalf("humanUnix(0) = %q", got)
	}
	if got := humanMegabytes(1); got != "1.0 MiB" {
		t.Fatalf("humanMegabytes(1) = %q", got)
	}
	if got := progressText(nil); got != "-" {
		t.Fatalf("progressText(nil) = %q", got)
	}
}
