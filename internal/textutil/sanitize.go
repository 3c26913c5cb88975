package textutil

import (
	"regexp"
	"strings"
)

var (
	stemUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	slugUnsafe = regexp.MustCompile(`[^a-zA-Z0-9 _-]`)
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// SanitizeStem collapses every run of characters outside [A-Za-z0-9_-] into a
// single underscore and trims underscores from both ends. It is used to derive
// marker and bookmark file names from a recording's stem.
func SanitizeStem(value string) string {
	return strings.Trim(stemUnsafe.ReplaceAllString(value, "_"), "_")
}

// Slugify reduces free text (an OCR line) to a short file-name fragment:
// unsafe characters are dropped, spaces become underscores, and the result is
// cut to limit bytes. Empty input yields "event".
func Slugify(text string, limit int) string {
	cleaned := strings.TrimSpace(slugUnsafe.ReplaceAllString(text, ""))
	cleaned = strings.ReplaceAll(cleaned, " ", "_")
	if cleaned == "" {
		return "event"
	}
	if limit > 0 && len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return cleaned
}
