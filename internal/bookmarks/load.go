package bookmarks

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"clipmark/internal/services"
)

// Load reads every complete record of the log at path. The format follows the
// file extension. A trailing line without a newline is treated as an
// in-progress append and skipped.
func Load(path string) ([]Event, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "bookmarks", "load", "bookmark log not found: "+path, nil)
		}
		return nil, fmt.Errorf("read bookmark log: %w", err)
	}
	if i := bytes.LastIndexByte(raw, '\n'); i < len(raw)-1 {
		raw = raw[:i+1]
	}

	if FormatFromPath(path) == FormatJSONL {
		return parseJSONL(raw, path)
	}
	return parseCSV(raw, path)
}

func parseJSONL(raw []byte, path string) ([]Event, error) {
	var events []Event
	for n, line := range bytes.Split(raw, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec jsonRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, services.Wrap(services.ErrValidation, "bookmarks", "load", fmt.Sprintf("%s line %d", path, n+1), err)
		}
		events = append(events, Event{
			Timestamp: parseTimestamp(rec.Timestamp),
			Seconds:   rec.Seconds,
			Event:     rec.Event,
			OCR:       rec.OCR,
		})
	}
	return events, nil
}

func parseCSV(raw []byte, path string) ([]Event, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "bookmarks", "load", path+": header", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	secondsCol, ok := col["seconds_since_start"]
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "bookmarks", "load", path+": missing seconds_since_start column", nil)
	}
	field := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	var events []Event
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "bookmarks", "load", path, err)
		}
		if secondsCol >= len(row) {
			continue
		}
		seconds, err := strconv.ParseFloat(strings.TrimSpace(row[secondsCol]), 64)
		if err != nil {
			line, _ := reader.FieldPos(secondsCol)
			return nil, services.Wrap(services.ErrValidation, "bookmarks", "load", fmt.Sprintf("%s line %d: bad seconds_since_start", path, line), err)
		}
		ev := Event{
			Timestamp: parseTimestamp(field(row, "timestamp")),
			Seconds:   seconds,
			Event:     field(row, "event"),
		}
		if ocr := field(row, "ocr"); ocr != "" {
			ev.OCR = strings.Split(ocr, OCRSeparator)
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}
	}
	return ts
}
