package timersync

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		total int
		ok    bool
	}{
		{"1 00:27", "1:00:27", 27, true},
		{"3 14:32", "3:14:32", 872, true},
		{"00:27", "0:27", 27, true},
		{"14:32", "14:32", 872, true},
		{"RING 2  01:05 ", "2:01:05", 65, true},
		{"  4:07", "4:07", 247, true},
		{"1 5:30", "1:05:30", 330, true},
		{"2 9:59", "2:09:59", 599, true},
		{"2  9:59", "2:09:59", 599, true},
		{"1 0:27", "1:00:27", 27, true},
		{"100:27", "1:00:27", 27, true},
		{"4\t12:03", "4:12:03", 723, true},
		{"1 75:10", "", 0, false},
		{"12:75", "", 0, false},
		{"no timer here", "", 0, false},
		{"", "", 0, false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		if ok != tt.ok {
			t.Fatalf("Parse(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
		if !ok {
			continue
		}
		if got.String() != tt.want || got.TotalSeconds() != tt.total {
			t.Fatalf("Parse(%q) = %s (%ds), want %s (%ds)", tt.in, got, got.TotalSeconds(), tt.want, tt.total)
		}
	}
}

func TestMatch(t *testing.T) {
	p, _ := Parse("14:32")
	s, _ := Parse("14:33")
	offset, ok := Match(p, s, 2)
	if !ok || offset != 1 {
		t.Fatalf("Match(14:32, 14:33) = %v %v, want 1 true", offset, ok)
	}
	far, _ := Parse("14:40")
	if _, ok := Match(p, far, 2); ok {
		t.Fatal("expected 8s apart to be rejected")
	}

	r1, _ := Parse("1 00:27")
	r2, _ := Parse("2 00:27")
	if _, ok := Match(r1, r2, 2); ok {
		t.Fatal("different rings must not match")
	}
	bare, _ := Parse("00:28")
	if offset, ok := Match(r1, bare, 2); !ok || offset != 1 {
		t.Fatalf("ring vs bare = %v %v, want 1 true", offset, ok)
	}

	short, _ := Parse("1 5:30")
	glued, _ := Parse("15:31")
	if _, ok := Match(short, glued, 2); ok {
		t.Fatal("ring 1 at 5:30 must not match a bare 15:31")
	}
}

func TestRegion(t *testing.T) {
	apex, err := Region("Apex", 1920, 1080)
	if err != nil {
		t.Fatal(err)
	}
	if apex.Left != 0 || apex.Top != 810 || apex.Width != 480 || apex.Height != 270 {
		t.Fatalf("apex region = %+v", apex)
	}
	val, err := Region("valorant", 1920, 1080)
	if err != nil {
		t.Fatal(err)
	}
	if val.Left != 910 || val.Top != 993 || val.Width != 100 || val.Height != 40 {
		t.Fatalf("valorant region = %+v", val)
	}
	if def, _ := Region("", 100, 100); def.Width != 25 {
		t.Fatalf("empty game should default to apex, got %+v", def)
	}
	if _, err := Region("chess", 1920, 1080); err == nil {
		t.Fatal("expected unsupported game error")
	}
	small, _ := Region("valorant", 60, 20)
	if small.Left+small.Width > 60 || small.Top+small.Height > 20 {
		t.Fatalf("region escapes frame: %+v", small)
	}
}
