package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"clipmark/internal/deps"
	"clipmark/internal/preflight"
)

func TestDoctorReportsHealthyEnvironment(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "[OK]")

	out, _, err = runCLI(t, []string{"--json", "doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor json: %v", err)
	}
	var payload struct {
		Checks       []preflight.Result `json:"checks"`
		Dependencies []deps.Status      `json:"dependencies"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode doctor output: %v", err)
	}
	if len(payload.Dependencies) != 3 {
		t.Fatalf("expected 3 dependencies, got %d", len(payload.Dependencies))
	}
	for _, c := range payload.Checks {
		if !c.Passed {
			t.Fatalf("check %s failed: %s", c.Name, c.Detail)
		}
	}
}

func TestDoctorFailsOnMissingTool(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Tools.FFmpeg = filepath.Join(env.baseDir, "bin", "no-such-ffmpeg")
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err == nil {
		t.Fatal("expected doctor to fail")
	}
	requireContains(t, out, "[ERROR]")
}

func TestDependencyKind(t *testing.T) {
	if dependencyKind(deps.Status{Available: true}) != statusOK {
		t.Fatal("available should be OK")
	}
	if dependencyKind(deps.Status{Optional: true}) != statusWarn {
		t.Fatal("missing optional should warn")
	}
	if dependencyKind(deps.Status{}) != statusError {
		t.Fatal("missing required should error")
	}
}
