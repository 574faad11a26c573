package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeRecorder captures history calls for assertions.
type fakeRecorder struct {
	startedRunID  string
	startedScript string
	finishedRunID string
	finishedState string
	finishedTotal int
	finishedOK    int
	finishedBad   int
	finishedErr   string
	sections      []string
}

func (f *fakeRecorder) RecordRunStarted(_ context.Context, runID, script, _, _, _ string, _ time.Time) error {
	f.startedRunID = runID
	f.startedScript = script
	return nil
}

func (f *fakeRecorder) RecordRunFinished(_ context.Context, runID, status string, total, ok, failed int, _ time.Duration, errMsg string) error {
	f.finishedRunID = runID
	f.finishedState = status
	f.finishedTotal = total
	f.finishedOK = ok
	f.finishedBad = failed
	f.finishedErr = errMsg
	return nil
}

func (f *fakeRecorder) RecordSection(_ context.Context, _, title, status string, _ time.Time, _ time.Duration, _ string) error {
	f.sections = append(f.sections, title+"="+status)
	return nil
}

func setupRunContext(t *testing.T, rec Recorder, dryRun bool) *RunContext {
	t.Helper()

	rc, err := NewRunContext(Config{
		Script:    "update-server",
		RepoDir:   t.TempDir(),
		Workspace: t.TempDir(),
		DryRun:    dryRun,
		Recorder:  rec,
	})
	if err != nil {
		t.Fatalf("NewRunContext failed: %v", err)
	}
	t.Cleanup(func() {
		if err := rc.Close(context.Background()); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return rc
}

func TestNewRunContext_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing script", Config{RepoDir: os.TempDir(), Workspace: os.TempDir()}},
		{"missing repo dir", Config{Script: "update-vk", Workspace: os.TempDir()}},
		{"repo dir does not exist", Config{Script: "update-vk", RepoDir: "/nonexistent/repo", Workspace: os.TempDir()}},
		{"missing workspace", Config{Script: "update-vk", RepoDir: os.TempDir()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRunContext(tt.cfg); err == nil {
				t.Error("NewRunContext accepted invalid config")
			}
		})
	}
}

func TestNewRunContext_WiresRun(t *testing.T) {
	rc := setupRunContext(t, nil, false)

	if rc.RunID == "" {
		t.Error("run ID was not assigned")
	}
	if rc.Component != filepath.Base(rc.RepoDir) {
		t.Errorf("component = %q, want base of repo dir %q", rc.Component, rc.RepoDir)
	}

	wantDir := filepath.Join(rc.Workspace, ".protoctl-logs", rc.Component)
	if filepath.Dir(rc.LogPath) != wantDir {
		t.Errorf("log path %q not under %q", rc.LogPath, wantDir)
	}
	if !strings.HasPrefix(filepath.Base(rc.LogPath), "update-server-") {
		t.Errorf("log file name %q does not carry the script name", filepath.Base(rc.LogPath))
	}
	if _, err := os.Stat(rc.LogPath); err != nil {
		t.Errorf("log file was not created: %v", err)
	}
}

func TestRunContext_CloseWritesMetricsSnapshot(t *testing.T) {
	rc, err := NewRunContext(Config{
		Script:    "update-vk",
		RepoDir:   t.TempDir(),
		Workspace: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewRunContext failed: %v", err)
	}

	if err := rc.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(rc.LogPath + ".prom"); err != nil {
		t.Errorf("metrics snapshot was not written: %v", err)
	}
}

func TestExecute_DryRunSkipsFlow(t *testing.T) {
	rec := &fakeRecorder{}
	rc := setupRunContext(t, rec, true)

	ran := false
	err := Execute(context.Background(), rc, func(context.Context, *RunContext) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if ran {
		t.Error("flow ran despite dry-run")
	}
	if rec.startedRunID != "" {
		t.Error("dry-run must not touch the run history")
	}
}

func TestExecute_RecordsLifecycle(t *testing.T) {
	rec := &fakeRecorder{}
	rc := setupRunContext(t, rec, false)

	boom := errors.New("deploy blew up")
	err := Execute(context.Background(), rc, func(ctx context.Context, rc *RunContext) error {
		if err := rc.Section(ctx, "prepare", 0, func(context.Context) error { return nil }); err != nil {
			return err
		}
		return rc.Section(ctx, "deploy", 0, func(context.Context) error { return boom })
	})
	if err != boom {
		t.Fatalf("Execute error = %v, want %v", err, boom)
	}

	if rec.startedRunID != rc.RunID || rec.startedScript != "update-server" {
		t.Errorf("run start recorded as (%q, %q)", rec.startedRunID, rec.startedScript)
	}
	if rec.finishedState != RunStatusFailed {
		t.Errorf("finish status = %q, want %q", rec.finishedState, RunStatusFailed)
	}
	if rec.finishedTotal != 2 || rec.finishedOK != 1 || rec.finishedBad != 1 {
		t.Errorf("finish counts = (%d, %d, %d), want (2, 1, 1)",
			rec.finishedTotal, rec.finishedOK, rec.finishedBad)
	}
	if rec.finishedErr != boom.Error() {
		t.Errorf("finish error = %q, want %q", rec.finishedErr, boom.Error())
	}

	want := []string{"prepare=succeeded", "deploy=failed"}
	if len(rec.sections) != len(want) {
		t.Fatalf("section records = %v, want %v", rec.sections, want)
	}
	for i := range want {
		if rec.sections[i] != want[i] {
			t.Errorf("section record %d = %q, want %q", i, rec.sections[i], want[i])
		}
	}
}

func TestExecute_InterruptMapsToInterrupted(t *testing.T) {
	rec := &fakeRecorder{}
	rc := setupRunContext(t, rec, false)

	err := Execute(context.Background(), rc, func(ctx context.Context, rc *RunContext) error {
		return context.Canceled
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute error = %v, want context.Canceled", err)
	}
	if rec.finishedState != RunStatusInterrupted {
		t.Errorf("finish status = %q, want %q", rec.finishedState, RunStatusInterrupted)
	}
}
