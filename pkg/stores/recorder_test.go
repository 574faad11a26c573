package stores

import (
	"context"
	"testing"
	"time"

	"github.com/matter-labs/zksync-os-scripts/pkg/pipeline"
)

// The store must satisfy the pipeline's recorder contract without the
// source package importing pipeline. Only the test binary links both.
var _ pipeline.Recorder = (*SQLiteStore)(nil)

func TestRecorderBridge(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	started := time.Now()
	err := store.RecordRunStarted(ctx, "run-abc", "update-vk", "zksync-os-server",
		"/work/zksync-os-server", "/work/logs/update-vk.log", started)
	if err != nil {
		t.Fatalf("failed to record run start: %v", err)
	}

	run, err := store.GetRun(ctx, "run-abc")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if run.Status != RunStatusRunning {
		t.Errorf("status = %s, want running", run.Status)
	}
	if run.Script != "update-vk" || run.Component != "zksync-os-server" {
		t.Errorf("script/component = %s/%s", run.Script, run.Component)
	}

	err = store.RecordSection(ctx, "run-abc", "Generate verification keys", "succeeded",
		started, 42*time.Second, "")
	if err != nil {
		t.Fatalf("failed to record section: %v", err)
	}
	err = store.RecordSection(ctx, "run-abc", "Upload keys", "failed",
		started.Add(42*time.Second), 3*time.Second, "bucket unreachable")
	if err != nil {
		t.Fatalf("failed to record section: %v", err)
	}

	sections, err := store.ListSectionsByRun(ctx, "run-abc")
	if err != nil {
		t.Fatalf("failed to list sections: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if sections[0].Duration != 42000 {
		t.Errorf("duration = %dms, want 42000", sections[0].Duration)
	}
	if sections[0].Error != nil {
		t.Errorf("succeeded section has error %q", *sections[0].Error)
	}
	if sections[1].Error == nil || *sections[1].Error != "bucket unreachable" {
		t.Errorf("failed section error = %v, want bucket unreachable", sections[1].Error)
	}

	err = store.RecordRunFinished(ctx, "run-abc", "failed", 2, 1, 1, 45*time.Second, "bucket unreachable")
	if err != nil {
		t.Fatalf("failed to record run finish: %v", err)
	}

	run, err = store.GetRun(ctx, "run-abc")
	if err != nil {
		t.Fatalf("failed to get finished run: %v", err)
	}
	if run.Status != RunStatusFailed {
		t.Errorf("status = %s, want failed", run.Status)
	}
	if run.Error == nil || *run.Error != "bucket unreachable" {
		t.Errorf("error = %v, want bucket unreachable", run.Error)
	}
}

func TestRecordRunFinished_EmptyErrorStoresNull(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.RecordRunStarted(ctx, "run-ok", "update-server", "zksync-os-server",
		"/work/zksync-os-server", "/work/logs/run.log", time.Now()); err != nil {
		t.Fatalf("failed to record run start: %v", err)
	}
	if err := store.RecordRunFinished(ctx, "run-ok", "completed", 3, 3, 0, time.Minute, ""); err != nil {
		t.Fatalf("failed to record run finish: %v", err)
	}

	run, err := store.GetRun(ctx, "run-ok")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if run.Error != nil {
		t.Errorf("clean run has error %q", *run.Error)
	}
}
