package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MyelinBots/wellness-sync/internal/apperr"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`{
  "LocalConfig": {"Path": %q},
  "RemoteConfig": {"Driver": "badger", "BadgerPath": %q},
  "SyncConfig": {"TimeZone": "UTC"},
  "LogConfig": {"Level": "error"}
}`, filepath.Join(dir, "local.db"), filepath.Join(dir, "remote"))
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, cfg string, args ...string) string {
	t.Helper()
	out, err := run(t, cfg, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestScoreAndSync(t *testing.T) {
	t.Setenv("WS_ACCOUNT", "")
	cfg := writeConfig(t)

	if out := mustRun(t, cfg, "activity", "done", "--category", "body", "morning", "stretch"); !strings.Contains(out, "morning stretch done, +5 points") {
		t.Errorf("activity done = %q", out)
	}
	if out := mustRun(t, cfg, "score", "add", "roamio", "3"); strings.TrimSpace(out) != "roamio 3" {
		t.Errorf("score add = %q", out)
	}

	scores := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(mustRun(t, cfg, "score", "show")), "\n") {
		f := strings.Fields(line)
		scores[f[0]] = f[1]
	}
	want := map[string]string{"snaptask": "0", "activityjar": "5", "roamio": "3", "total": "8"}
	for k, v := range want {
		if scores[k] != v {
			t.Errorf("score show %s = %q, want %s", k, scores[k], v)
		}
	}

	if out := mustRun(t, cfg, "--account", "u1", "sync"); !strings.Contains(out, "sync: completed score=8") {
		t.Errorf("first sync = %q", out)
	}
	if out := mustRun(t, cfg, "--account", "u1", "sync"); !strings.Contains(out, "sync: skipped_not_due") {
		t.Errorf("second sync = %q", out)
	}
	if out := mustRun(t, cfg, "--account", "u1", "sync", "--force"); !strings.Contains(out, "sync: completed") {
		t.Errorf("forced sync = %q", out)
	}
}

func TestAccountRequired(t *testing.T) {
	t.Setenv("WS_ACCOUNT", "")
	cfg := writeConfig(t)

	for _, args := range [][]string{
		{"sync"},
		{"friends", "list"},
		{"profile", "show"},
		{"--account", "  ", "friends", "request", "u2"},
	} {
		if _, err := run(t, cfg, args...); !errors.Is(err, errNoAccount) {
			t.Errorf("%v = %v, want errNoAccount", args, err)
		}
	}
}

func TestFriendsFlow(t *testing.T) {
	t.Setenv("WS_ACCOUNT", "u1")
	cfg := writeConfig(t)

	mustRun(t, cfg, "friends", "request", "u2", "Bo", "Lee")
	out := mustRun(t, cfg, "friends", "list")
	if !strings.Contains(out, "u2") || !strings.Contains(out, "pending") || !strings.Contains(out, "Bo Lee") {
		t.Errorf("friends list = %q", out)
	}

	if _, err := run(t, cfg, "friends", "accept", "u3"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("accept unknown = %v, want ErrNotFound", err)
	}
	mustRun(t, cfg, "friends", "accept", "u2")

	mustRun(t, cfg, "sync")
	if out := mustRun(t, cfg, "friends", "cached"); !strings.Contains(out, "accepted") {
		t.Errorf("friends cached = %q", out)
	}

	mustRun(t, cfg, "friends", "remove", "u2")
	if out := mustRun(t, cfg, "friends", "list"); !strings.Contains(out, "no friends yet") {
		t.Errorf("friends list after remove = %q", out)
	}
}

func TestProfileAndMicroApps(t *testing.T) {
	t.Setenv("WS_ACCOUNT", "u1")
	cfg := writeConfig(t)

	if _, err := run(t, cfg, "profile", "show"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("show before signup = %v", err)
	}
	mustRun(t, cfg, "profile", "signup", "Ada", "ada@example.com")
	if out := mustRun(t, cfg, "profile", "update", "Ada L", "ada@example.com"); !strings.Contains(out, "Ada L <ada@example.com>") {
		t.Errorf("profile update = %q", out)
	}

	mustRun(t, cfg, "task", "begin", "water plants")
	if _, err := run(t, cfg, "task", "begin", "again"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("second begin = %v, want ErrConflict", err)
	}
	if out := mustRun(t, cfg, "task", "complete"); !strings.Contains(out, "+10 points") {
		t.Errorf("task complete = %q", out)
	}

	mustRun(t, cfg, "walk", "start")
	mustRun(t, cfg, "walk", "update", "250", "400")
	if out := mustRun(t, cfg, "walk", "finish"); !strings.Contains(out, "+2 points") {
		t.Errorf("walk finish = %q", out)
	}

	if out := mustRun(t, cfg, "streak", "checkin"); !strings.Contains(out, "streak 1") {
		t.Errorf("checkin = %q", out)
	}
	if out := mustRun(t, cfg, "streak", "checkin"); !strings.Contains(out, "already checked in") {
		t.Errorf("second checkin = %q", out)
	}
	if out := mustRun(t, cfg, "badges", "list"); !strings.Contains(out, "no badges yet") {
		t.Errorf("badges list = %q", out)
	}
}
