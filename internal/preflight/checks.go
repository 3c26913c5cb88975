package preflight

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"golang.org/x/sys/unix"
	_ "modernc.org/sqlite"

	"clipmark/internal/config"
	"clipmark/internal/deps"
	"clipmark/internal/language"
	"clipmark/internal/services"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFile verifies that path is a readable regular file.
func CheckFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckSessionDatabase opens the SQLite session database and pings it. A
// missing file is fine; it is created on first use.
func CheckSessionDatabase(ctx context.Context, path string) Result {
	const name = "Session database"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first use)", path)}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer db.Close()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var count int
	if err := db.QueryRowContext(checkCtx, "SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d sessions)", path, count)}
}

// CheckTesseractLanguage verifies that tesseract has the configured language
// data installed. A nil run uses services.CommandOutput.
func CheckTesseractLanguage(ctx context.Context, run services.OutputRunner, binary, lang string) Result {
	name := "Tesseract language"
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return Result{Name: name, Passed: true, Detail: "default"}
	}
	name = fmt.Sprintf("Tesseract language (%s)", language.DisplayList(lang))
	if _, err := exec.LookPath(binary); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("binary %q not found", binary)}
	}
	if run == nil {
		run = services.CommandOutput
	}
	out, err := run(ctx, binary, "--list-langs")
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("list languages failed (%v)", err)}
	}
	var installed []string
	for i, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if i == 0 && strings.HasPrefix(strings.ToLower(line), "list of available languages") {
			continue
		}
		if line != "" {
			installed = append(installed, line)
		}
	}
	for part := range strings.SplitSeq(lang, "+") {
		if !slices.Contains(installed, part) {
			return Result{Name: name, Detail: fmt.Sprintf("language data %q not installed", part)}
		}
	}
	return Result{Name: name, Passed: true, Detail: "installed"}
}

// CheckSystemDeps evaluates the external binaries clipmark runs.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinariesWith(ctx, services.CommandOutput, Requirements(cfg))
}

// Requirements lists the binaries needed for cfg.
func Requirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for frame decoding and clip export",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "Tesseract",
			Command:     cfg.TesseractBinary(),
			Description: "Required for text recognition",
			VersionArgs: []string{"--version"},
		},
	}
}
