package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

func attrString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return formatValue(v)
	}
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return formatVideoDuration(v.Duration())
	case slog.KindTime:
		return v.Time().In(time.Local).Format(consoleTimestampLayout)
	default:
		return quoteIfNeeded(attrString(v))
	}
}

// formatVideoDuration renders short spans as seconds ("2.5s") and longer ones
// as a video clock ("1:05:02.5") so they read like positions in a recording.
func formatVideoDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign, d = "-", -d
	}
	d = d.Round(100 * time.Millisecond)
	if d < time.Minute {
		return sign + strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
	}
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	sec := (d % time.Minute).Seconds()
	if h > 0 {
		return fmt.Sprintf("%s%d:%02d:%04.1f", sign, h, m, sec)
	}
	return fmt.Sprintf("%s%d:%04.1f", sign, m, sec)
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}
