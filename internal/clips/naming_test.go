package clips

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipmark/internal/bookmarks"
)

func TestCountEventsPrecedence(t *testing.T) {
	evs := []bookmarks.Event{
		{Event: "knocked"},
		{Event: "Killed"},
		{Event: "kill assist"},
		{Event: "death"},
		{Event: "elimination"},
		{Event: "revived"},
	}
	got := CountEvents(evs)
	want := Counts{Kills: 3, Assists: 1, Deaths: 1}
	if got != want {
		t.Fatalf("CountEvents = %+v, want %+v", got, want)
	}
	if s := got.Format("k{kills}_a{assists}_d{deaths}"); s != "k3_a1_d1" {
		t.Fatalf("Format = %q", s)
	}
}

func TestVodStartTimeFromName(t *testing.T) {
	got, err := VodStartTime("/vods/apex_20240501_201500.mp4")
	if err != nil {
		t.Fatalf("VodStartTime: %v", err)
	}
	want := time.Date(2024, 5, 1, 20, 15, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestVodStartTimeFallsBackToModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recording.mkv")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2023, 1, 2, 3, 4, 5, 0, time.Local)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	got, err := VodStartTime(path)
	if err != nil {
		t.Fatalf("VodStartTime: %v", err)
	}
	if !got.Equal(mtime) {
		t.Fatalf("got %v, want %v", got, mtime)
	}
	if _, err := VodStartTime(filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Fatal("expected error for missing file without stamp")
	}
}

func TestClipName(t *testing.T) {
	start := time.Date(2024, 5, 1, 20, 15, 0, 0, time.Local)
	tests := []struct {
		name   string
		w      Window
		index  int
		counts *Counts
		want   string
	}{
		{"plain", Window{Start: 65, End: 80}, 1, nil, "clip_20240501_201605_01_t65s"},
		{"half to even", Window{Start: 12.5, End: 20}, 2, nil, "clip_20240501_201512_02_t12s"},
		{"counts", Window{Start: 0, End: 10}, 12, &Counts{Kills: 2}, "clip_20240501_201500_12_t0s_k2_a0_d0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClipName(start, tt.index, tt.w, tt.counts, "k{kills}_a{assists}_d{deaths}")
			if got != tt.want {
				t.Fatalf("ClipName = %q, want %q", got, tt.want)
			}
		})
	}
}
