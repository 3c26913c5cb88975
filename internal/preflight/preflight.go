package preflight

import (
	"context"

	"clipmark/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Bookmarks directory", cfg.Paths.BookmarksDir),
		CheckDirectoryAccess("Sessions directory", cfg.Paths.SessionsDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if cfg.Split.RecordingsDir != "" {
		if cfg.Split.InputSource == "path" {
			results = append(results, CheckFile("Recording", cfg.Split.RecordingsDir))
		} else {
			results = append(results, CheckDirectoryAccess("Recordings directory", cfg.Split.RecordingsDir))
		}
	}

	if cfg.Replay.Enabled {
		results = append(results, CheckDirectoryAccess("Replay directory", cfg.Replay.Directory))
	}

	if cfg.Sync.Store == "sqlite" {
		results = append(results, CheckSessionDatabase(ctx, cfg.SessionDatabasePath()))
	}

	results = append(results, CheckTesseractLanguage(ctx, nil, cfg.TesseractBinary(), cfg.OCR.Lang))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
