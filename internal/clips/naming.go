package clips

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clipmark/internal/bookmarks"
	"clipmark/internal/textutil"
)

const clipTimeLayout = "20060102_150405"

var vodStampPattern = regexp.MustCompile(`\d{8}_\d{6}`)

// Counts tallies events in a window by category.
type Counts struct {
	Kills   int `json:"kills"`
	Assists int `json:"assists"`
	Deaths  int `json:"deaths"`
}

var killWords = []string{"kill", "killed", "knocked", "elimination"}

// CountEvents classifies each event by its text: "assist" wins over "death",
// which wins over the kill words.
func CountEvents(events []bookmarks.Event) Counts {
	var c Counts
	for _, ev := range events {
		text := strings.ToLower(ev.Event)
		switch {
		case strings.Contains(text, "assist"):
			c.Assists++
		case strings.Contains(text, "death"):
			c.Deaths++
		case containsAny(text, killWords):
			c.Kills++
		}
	}
	return c
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Format substitutes {kills}, {assists} and {deaths} in format.
func (c Counts) Format(format string) string {
	return strings.NewReplacer(
		"{kills}", strconv.Itoa(c.Kills),
		"{assists}", strconv.Itoa(c.Assists),
		"{deaths}", strconv.Itoa(c.Deaths),
	).Replace(format)
}

// VodStartTime parses a YYYYmmdd_HHMMSS stamp from the file stem, falling back
// to the file's modification time.
func VodStartTime(path string) (time.Time, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, m := range vodStampPattern.FindAllString(stem, -1) {
		if ts, err := time.ParseInLocation(clipTimeLayout, m, time.Local); err == nil {
			return ts, nil
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("vod start time: %w", err)
	}
	return info.ModTime(), nil
}

// ClipName builds "clip_<YYYYmmdd_HHMMSS>_<NN>_t<start>s[_<counts>]" without an
// extension. The timestamp is the recording start plus the window start and NN
// is the 1-based index padded to two digits. The start offset rounds half to
// even. Counts are appended only when non-nil.
func ClipName(vodStart time.Time, index int, w Window, counts *Counts, format string) string {
	at := vodStart.Add(time.Duration(w.Start * float64(time.Second)))
	name := fmt.Sprintf("clip_%s_%02d_t%ds", at.Format(clipTimeLayout), index, int(math.RoundToEven(w.Start)))
	if counts != nil {
		if suffix := textutil.SanitizeFileName(counts.Format(format)); suffix != "" {
			name += "_" + suffix
		}
	}
	return name
}
