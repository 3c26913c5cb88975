package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"clipmark/internal/multivod"
	"clipmark/internal/testsupport"
)

func createSession(t *testing.T, env *cliTestEnv) multivod.Session {
	t.Helper()
	a := filepath.Join(env.baseDir, "pov_a.mp4")
	b := filepath.Join(env.baseDir, "pov_b.mp4")
	testsupport.WriteFile(t, a, 2048)
	testsupport.WriteFile(t, b, 2048)

	out, _, err := runCLI(t, []string{"--json", "session", "create", a, b, "--name", "Scrim", "--created-by", "coach"}, env.configPath)
	if err != nil {
		t.Fatalf("session create: %v", err)
	}
	var sess multivod.Session
	if err := json.Unmarshal([]byte(out), &sess); err != nil {
		t.Fatalf("decode session: %v\n%s", err, out)
	}
	return sess
}

func TestSessionLifecycle(t *testing.T) {
	for _, kind := range []string{"file", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			env := setupCLITestEnv(t, testsupport.WithSessionStore(kind))
			sess := createSession(t, env)
			if len(sess.Vods) != 2 || sess.Vods[1].VodID != "vod-2" {
				t.Fatalf("unexpected vods: %+v", sess.Vods)
			}
			if sess.Vods[0].Duration != 600 || sess.Vods[0].Resolution != "1920x1080" {
				t.Fatalf("probe metadata not stored: %+v", sess.Vods[0])
			}

			out, _, err := runCLI(t, []string{"session", "list"}, env.configPath)
			if err != nil {
				t.Fatalf("session list: %v", err)
			}
			requireContains(t, out, sess.SessionID)
			requireContains(t, out, "Scrim")

			if _, _, err := runCLI(t, []string{"session", "offset", sess.SessionID, "vod-2=12.5"}, env.configPath); err != nil {
				t.Fatalf("session offset: %v", err)
			}

			out, _, err = runCLI(t, []string{"--json", "session", "seek", sess.SessionID, "1:00"}, env.configPath)
			if err != nil {
				t.Fatalf("session seek: %v", err)
			}
			var seeked multivod.Session
			if err := json.Unmarshal([]byte(out), &seeked); err != nil {
				t.Fatalf("decode seek: %v", err)
			}
			if seeked.Vods[0].CurrentTime != 60 || seeked.Vods[1].CurrentTime != 47.5 {
				t.Fatalf("unexpected positions %v / %v", seeked.Vods[0].CurrentTime, seeked.Vods[1].CurrentTime)
			}

			out, _, err = runCLI(t, []string{"--json", "session", "history", sess.SessionID, "--vod", "vod-2"}, env.configPath)
			if err != nil {
				t.Fatalf("session history: %v", err)
			}
			var history []multivod.HistoryRecord
			if err := json.Unmarshal([]byte(out), &history); err != nil {
				t.Fatalf("decode history: %v", err)
			}
			if len(history) != 1 || history[0].NewOffset != 12.5 || history[0].ChangedBy != "cli" {
				t.Fatalf("unexpected history %+v", history)
			}

			out, _, err = runCLI(t, []string{"session", "mode", sess.SessionID, "independent"}, env.configPath)
			if err != nil {
				t.Fatalf("session mode: %v", err)
			}
			requireContains(t, out, "independent")

			if _, _, err := runCLI(t, []string{"session", "delete", sess.SessionID}, env.configPath); err != nil {
				t.Fatalf("session delete: %v", err)
			}
			out, _, err = runCLI(t, []string{"session", "list"}, env.configPath)
			if err != nil {
				t.Fatalf("session list after delete: %v", err)
			}
			requireContains(t, out, "No sessions")
		})
	}
}

func TestSessionOffsetRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)
	sess := createSession(t, env)

	cases := [][]string{
		{"session", "offset", sess.SessionID, "vod-2"},
		{"session", "offset", sess.SessionID, "vod-2=abc"},
		{"session", "offset", sess.SessionID, "vod-9=3"},
		{"session", "offset", sess.SessionID, "vod-2=3", "--source", "timer_ocr"},
	}
	for _, args := range cases {
		if _, _, err := runCLI(t, args, env.configPath); err == nil {
			t.Fatalf("expected %v to fail", args)
		}
	}

	out, _, err := runCLI(t, []string{"--json", "session", "show", sess.SessionID}, env.configPath)
	if err != nil {
		t.Fatalf("session show: %v", err)
	}
	var got multivod.Session
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if got.Vods[1].Offset != 0 || len(got.Vods[1].OffsetHistory) != 0 {
		t.Fatalf("rejected offsets must not change the session: %+v", got.Vods[1])
	}
}

func TestParseOffsetArgs(t *testing.T) {
	got, err := parseOffsetArgs([]string{"vod-2=1.5", " vod-3 = -4 "})
	if err != nil {
		t.Fatalf("parseOffsetArgs: %v", err)
	}
	if got["vod-2"] != 1.5 || got["vod-3"] != -4 {
		t.Fatalf("unexpected offsets %v", got)
	}
	if _, err := parseOffsetArgs([]string{"=3"}); err == nil {
		t.Fatal("expected empty vod id to fail")
	}
}
