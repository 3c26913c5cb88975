package timersync

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// A ring digit separated from an M:SS or MM:SS countdown ("1 5:30").
	spacedRingPattern = regexp.MustCompile(`(?:^|[^0-9])([1-9]) ([0-9]{1,2}):([0-9]{2})(?:[^0-9]|$)`)
	// OCR sometimes drops the space, leaving the ring glued to a two digit
	// minute field ("100:27").
	joinedRingPattern = regexp.MustCompile(`(?:^|[^0-9])([1-9])([0-9]{2}):([0-9]{2})(?:[^0-9]|$)`)
	barePattern       = regexp.MustCompile(`(?:^|[^0-9])([0-9]{1,2}):([0-9]{2})(?:[^0-9]|$)`)
)

// Reading is a parsed timer. Ring is zero when the text carried no ring digit.
type Reading struct {
	Ring    int `json:"ring,omitempty"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// String renders "ring:mm:ss" or "m:ss".
func (r Reading) String() string {
	if r.Ring > 0 {
		return fmt.Sprintf("%d:%02d:%02d", r.Ring, r.Minutes, r.Seconds)
	}
	return fmt.Sprintf("%d:%02d", r.Minutes, r.Seconds)
}

// TotalSeconds is the clock value without the ring.
func (r Reading) TotalSeconds() int {
	return r.Minutes*60 + r.Seconds
}

// Parse extracts a timer from recognized text. Whitespace runs collapse to a
// single space and commas are dropped before matching.
func Parse(text string) (Reading, bool) {
	cleaned := strings.Join(strings.Fields(strings.ReplaceAll(text, ",", "")), " ")
	if cleaned == "" {
		return Reading{}, false
	}
	for _, pattern := range []*regexp.Regexp{spacedRingPattern, joinedRingPattern} {
		if m := pattern.FindStringSubmatch(cleaned); m != nil {
			ring, _ := strconv.Atoi(m[1])
			if r, ok := clock(m[2], m[3]); ok {
				r.Ring = ring
				return r, true
			}
		}
	}
	if m := barePattern.FindStringSubmatch(cleaned); m != nil {
		return clock(m[1], m[2])
	}
	return Reading{}, false
}

func clock(minutes, seconds string) (Reading, bool) {
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return Reading{}, false
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return Reading{}, false
	}
	if m >= 60 || s >= 60 {
		return Reading{}, false
	}
	return Reading{Minutes: m, Seconds: s}, true
}

// Match reports whether two readings are candidates for the same moment:
// rings agree when both are known and the clocks differ by at most
// tolerance seconds. The returned offset is secondary minus primary.
func Match(primary, secondary Reading, tolerance float64) (float64, bool) {
	if primary.Ring > 0 && secondary.Ring > 0 && primary.Ring != secondary.Ring {
		return 0, false
	}
	diff := float64(secondary.TotalSeconds() - primary.TotalSeconds())
	if math.Abs(diff) > tolerance {
		return 0, false
	}
	return diff, true
}
