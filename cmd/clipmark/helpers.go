package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"clipmark/internal/services"
)

// parseSeconds accepts plain seconds ("90.5") or a clock ("1:30", "1:02:03").
func parseSeconds(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, services.Wrap(services.ErrValidation, "cli", "parse time", "empty time value", nil)
	}
	if !strings.Contains(value, ":") {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, services.Wrap(services.ErrValidation, "cli", "parse time", fmt.Sprintf("invalid time %q", value), nil)
		}
		return v, nil
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, services.Wrap(services.ErrValidation, "cli", "parse time", fmt.Sprintf("invalid time %q", value), nil)
	}
	var total float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 || (i > 0 && v >= 60) {
			return 0, services.Wrap(services.ErrValidation, "cli", "parse time", fmt.Sprintf("invalid time %q", value), nil)
		}
		total = total*60 + v
	}
	return total, nil
}

// formatClock renders seconds as h:mm:ss.s or m:ss.s.
func formatClock(seconds float64) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	h := int(seconds) / 3600
	m := int(seconds) / 60 % 60
	s := seconds - float64(h*3600+m*60)
	if h > 0 {
		return fmt.Sprintf("%s%d:%02d:%04.1f", sign, h, m, s)
	}
	return fmt.Sprintf("%s%d:%04.1f", sign, m, s)
}

func formatOffset(seconds float64) string {
	return fmt.Sprintf("%+.2fs", seconds)
}

// humanUnix renders a Unix-seconds timestamp relative to now.
func humanUnix(ts float64) string {
	if ts <= 0 {
		return "-"
	}
	sec, frac := math.Modf(ts)
	return humanize.Time(time.Unix(int64(sec), int64(frac*1e9)))
}

func humanMegabytes(mb float64) string {
	if mb <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(mb * 1024 * 1024))
}

func absPath(path string) (string, error) {
	abs, err := filepath.Abs(strings.TrimSpace(path))
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	return abs, nil
}

func absPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := absPath(p)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

func progressText(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p) + "%"
}
