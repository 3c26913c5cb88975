// Package detector recognizes configured keywords in OCR output and debounces
// repeated hits with a cooldown measured on the caller's clock.
package detector

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Match is an accepted detection.
type Match struct {
	// Line is the OCR line as recognized, before normalization.
	Line    string `json:"line"`
	Keyword string `json:"keyword"`
}

// Detector holds per-instance cooldown state. It is safe for concurrent use,
// though a scan normally owns its own Detector.
type Detector struct {
	keywords []string
	cooldown time.Duration
	folder   cases.Caser

	mu          sync.Mutex
	lastTrigger time.Duration
	triggered   bool
}

// New builds a detector. Keywords are case-folded; empty keywords are dropped.
func New(keywords []string, cooldown time.Duration) *Detector {
	d := &Detector{
		cooldown: max(cooldown, 0),
		folder:   cases.Lower(language.Und),
	}
	for _, kw := range keywords {
		kw = strings.TrimSpace(d.folder.String(kw))
		if kw != "" {
			d.keywords = append(d.keywords, kw)
		}
	}
	return d
}

// Keywords returns the normalized keyword list.
func (d *Detector) Keywords() []string {
	return append([]string(nil), d.keywords...)
}

// Detect scans lines in order and returns the first line containing any
// keyword. A hit is accepted only when no previous match exists or at least
// the cooldown has elapsed since the last accepted match; rejected hits do not
// move the cooldown window.
func (d *Detector) Detect(lines []string, at time.Duration) (Match, bool) {
	match, ok := d.find(lines)
	if !ok {
		return Match{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.triggered && at-d.lastTrigger < d.cooldown {
		return Match{}, false
	}
	d.triggered = true
	d.lastTrigger = at
	return match, true
}

// Reset forgets the last accepted match.
func (d *Detector) Reset() {
	d.mu.Lock()
	d.triggered = false
	d.lastTrigger = 0
	d.mu.Unlock()
}

func (d *Detector) find(lines []string) (Match, bool) {
	for _, line := range lines {
		normalized := d.Normalize(line)
		if normalized == "" {
			continue
		}
		for _, kw := range d.keywords {
			if strings.Contains(normalized, kw) {
				return Match{Line: line, Keyword: kw}, true
			}
		}
	}
	return Match{}, false
}

// Normalize lowercases text and drops every rune that is not a letter, digit
// or whitespace.
func (d *Detector) Normalize(text string) string {
	lowered := d.folder.String(text)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, lowered)
}
