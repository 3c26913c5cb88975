package multivod

import (
	"errors"
	"math"
	"strings"
	"testing"

	"clipmark/internal/services"
)

func vods(n int) []SessionVod {
	out := make([]SessionVod, 0, n)
	for i := range n {
		out = append(out, SessionVod{VodID: "vod-" + string(rune('1'+i)), Path: "/v/" + string(rune('a'+i)) + ".mp4", Duration: 100})
	}
	return out
}

func TestValidateVodCount(t *testing.T) {
	for n, ok := range map[int]bool{0: false, 1: false, 2: true, 3: true, 4: false} {
		s := Session{Vods: vods(n)}
		err := s.Validate()
		if ok && err != nil {
			t.Fatalf("%d vods: unexpected error %v", n, err)
		}
		if !ok && !errors.Is(err, services.ErrValidation) {
			t.Fatalf("%d vods: expected validation error, got %v", n, err)
		}
	}
}

func TestValidateNamesOffendingVod(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]SessionVod)
		want   string
	}{
		{"missing path", func(v []SessionVod) { v[1].Path = "" }, "vod 1 missing path or id"},
		{"missing id", func(v []SessionVod) { v[2].VodID = " " }, "vod 2 missing path or id"},
		{"zero duration", func(v []SessionVod) { v[0].Duration = 0 }, "vod 0 has invalid duration"},
		{"duplicate id", func(v []SessionVod) { v[2].VodID = v[0].VodID }, "vod 2 reuses id"},
		{"reference offset", func(v []SessionVod) { v[0].Offset = 3 }, "vod 0 is the reference"},
		{"nan offset", func(v []SessionVod) { v[1].Offset = math.NaN() }, "vod 1 has invalid offset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := vods(3)
			tt.mutate(v)
			err := (&Session{Vods: v}).Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
		})
	}
}

func TestNewSessionIDFormat(t *testing.T) {
	id := NewSessionID()
	if !strings.HasPrefix(id, "comp-") || len(id) != len("comp-")+8 {
		t.Fatalf("unexpected session id %q", id)
	}
	if id == NewSessionID() {
		t.Fatal("expected unique ids")
	}
}
