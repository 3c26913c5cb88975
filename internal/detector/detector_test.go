package detector

import (
	"testing"
	"time"
)

func TestDetectFirstLineThenFirstKeyword(t *testing.T) {
	d := New([]string{"Knocked", "killed"}, 0)
	lines := []string{"Squad wiped", "You KILLED Bloodhound", "You knocked down Wraith"}
	match, ok := d.Detect(lines, 0)
	if !ok {
		t.Fatal("expected match")
	}
	if match.Line != "You KILLED Bloodhound" || match.Keyword != "killed" {
		t.Fatalf("unexpected match: %+v", match)
	}
}

func TestDetectNormalizesPunctuation(t *testing.T) {
	d := New([]string{"knocked down"}, 0)
	if match, ok := d.Detect([]string{"[Knocked-Down]"}, 0); ok {
		t.Fatalf("dropping the hyphen joins the words, expected no match: %+v", match)
	}
	match, ok := d.Detect([]string{"Knocked, down!!"}, 0)
	if !ok || match.Line != "Knocked, down!!" {
		t.Fatalf("expected original line returned, got %+v ok=%v", match, ok)
	}
}

func TestDetectCooldownUsesSuppliedClock(t *testing.T) {
	d := New([]string{"knocked"}, 8*time.Second)
	lines := []string{"knocked"}

	steps := []struct {
		at   time.Duration
		want bool
	}{
		{5 * time.Second, true},
		{7 * time.Second, false},
		{12 * time.Second, false},
		{13 * time.Second, true},
		{21 * time.Second, true},
	}
	for _, step := range steps {
		if _, ok := d.Detect(lines, step.at); ok != step.want {
			t.Fatalf("Detect at %v = %v, want %v", step.at, ok, step.want)
		}
	}
}

func TestDetectNoMatchLeavesCooldownUntouched(t *testing.T) {
	d := New([]string{"assist"}, 10*time.Second)
	if _, ok := d.Detect([]string{"assist"}, 0); !ok {
		t.Fatal("expected first match")
	}
	if _, ok := d.Detect([]string{"nothing here"}, 9*time.Second); ok {
		t.Fatal("unexpected match")
	}
	if _, ok := d.Detect([]string{"assist"}, 10*time.Second); !ok {
		t.Fatal("expected match exactly at cooldown boundary")
	}
}

func TestDetectFirstMatchAtZeroAccepted(t *testing.T) {
	d := New([]string{"eliminated"}, time.Minute)
	if _, ok := d.Detect([]string{"Eliminated"}, 0); !ok {
		t.Fatal("first match must be accepted even at time zero")
	}
	d.Reset()
	if _, ok := d.Detect([]string{"Eliminated"}, time.Second); !ok {
		t.Fatal("expected match after reset")
	}
}

func TestDetectIndependentInstances(t *testing.T) {
	a := New([]string{"killed"}, time.Hour)
	b := New([]string{"killed"}, time.Hour)
	if _, ok := a.Detect([]string{"killed"}, 0); !ok {
		t.Fatal("a should match")
	}
	if _, ok := b.Detect([]string{"killed"}, 0); !ok {
		t.Fatal("b must not share cooldown state with a")
	}
}

func TestNewDropsEmptyKeywords(t *testing.T) {
	d := New([]string{"", "  ", "Assist"}, -time.Second)
	if got := d.Keywords(); len(got) != 1 || got[0] != "assist" {
		t.Fatalf("unexpected keywords: %v", got)
	}
	if _, ok := d.Detect([]string{""}, 0); ok {
		t.Fatal("empty lines must not match")
	}
}
