package stores

import (
	"context"
	"testing"
	"time"
)

// setupTestStore creates an in-memory SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	t.Cleanup(func() { store.Close() })
	return store
}

func newTestRun(id string) *Run {
	now := time.Now()
	return &Run{
		ID:        id,
		Script:    "update-server",
		Component: "zksync-os-server",
		RepoDir:   "/work/zksync-os-server",
		LogPath:   "/work/.protoctl-logs/zksync-os-server/update-server-20250825-120000.log",
		Status:    RunStatusRunning,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TestStoreLifecycle tests database initialization and closure
func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Fatal("store created without a path")
	}
}

// TestStoreMigrations tests database migrations
func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, table := range []string{"runs", "sections"} {
		query := "SELECT COUNT(*) FROM " + table
		var count int
		if err := store.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}
}

func TestRunLifecycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run := newTestRun("run-001")
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	retrieved, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if retrieved.Script != run.Script {
		t.Errorf("script = %s, want %s", retrieved.Script, run.Script)
	}
	if retrieved.Status != RunStatusRunning {
		t.Errorf("status = %s, want running", retrieved.Status)
	}
	if retrieved.FinishedAt != nil {
		t.Error("fresh run already has a finish time")
	}

	errMsg := "deploy blew up"
	if err := store.FinishRun(ctx, run.ID, RunStatusFailed, 5, 3, 2, 90*time.Second, &errMsg); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	finished, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to get finished run: %v", err)
	}
	if finished.Status != RunStatusFailed {
		t.Errorf("status = %s, want failed", finished.Status)
	}
	if finished.SectionsTotal != 5 || finished.SectionsOK != 3 || finished.SectionsFailed != 2 {
		t.Errorf("counts = (%d, %d, %d), want (5, 3, 2)",
			finished.SectionsTotal, finished.SectionsOK, finished.SectionsFailed)
	}
	if finished.Duration == nil || *finished.Duration != 90000 {
		t.Errorf("duration = %v, want 90000ms", finished.Duration)
	}
	if finished.Error == nil || *finished.Error != errMsg {
		t.Errorf("error = %v, want %q", finished.Error, errMsg)
	}
	if finished.FinishedAt == nil {
		t.Error("finished run has no finish time")
	}
}

func TestFinishRun_UnknownRun(t *testing.T) {
	store := setupTestStore(t)

	err := store.FinishRun(context.Background(), "no-such-run", RunStatusCompleted, 0, 0, 0, 0, nil)
	if err == nil {
		t.Fatal("finishing an unknown run succeeded")
	}
}

func TestGetRun_NotFound(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.GetRun(context.Background(), "no-such-run"); err == nil {
		t.Fatal("getting an unknown run succeeded")
	}
}

func TestListRecentRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		run := newTestRun("run-00" + string(rune('1'+i)))
		run.StartedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.CreateRun(ctx, run); err != nil {
			t.Fatalf("failed to create run %d: %v", i, err)
		}
	}

	runs, err := store.ListRecentRuns(ctx, 3)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	// Most recent first.
	if runs[0].ID != "run-005" || runs[2].ID != "run-003" {
		t.Errorf("order = [%s, %s, %s], want [run-005, run-004, run-003]",
			runs[0].ID, runs[1].ID, runs[2].ID)
	}
}

func TestSectionRecords(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run := newTestRun("run-001")
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	titles := []string{"Build server", "Deploy ecosystem", "Patch constants"}
	for _, title := range titles {
		section := &SectionRecord{
			RunID:     run.ID,
			Title:     title,
			Status:    "succeeded",
			StartedAt: time.Now(),
			Duration:  1500,
		}
		if err := store.AppendSection(ctx, section); err != nil {
			t.Fatalf("failed to append section %q: %v", title, err)
		}
		if section.ID == 0 {
			t.Errorf("section %q did not get an ID", title)
		}
	}

	sections, err := store.ListSectionsByRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to list sections: %v", err)
	}
	if len(sections) != len(titles) {
		t.Fatalf("got %d sections, want %d", len(sections), len(titles))
	}
	for i, title := range titles {
		if sections[i].Title != title {
			t.Errorf("section %d = %q, want %q", i, sections[i].Title, title)
		}
	}
}

func TestAppendSection_RequiresRun(t *testing.T) {
	store := setupTestStore(t)

	section := &SectionRecord{
		RunID:     "no-such-run",
		Title:     "orphan",
		Status:    "succeeded",
		StartedAt: time.Now(),
	}
	if err := store.AppendSection(context.Background(), section); err == nil {
		t.Fatal("orphan section accepted despite foreign key")
	}
}

func TestPruneRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		run := newTestRun("run-00" + string(rune('1'+i)))
		run.StartedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.CreateRun(ctx, run); err != nil {
			t.Fatalf("failed to create run %d: %v", i, err)
		}
		section := &SectionRecord{
			RunID:     run.ID,
			Title:     "only section",
			Status:    "succeeded",
			StartedAt: run.StartedAt,
		}
		if err := store.AppendSection(ctx, section); err != nil {
			t.Fatalf("failed to append section: %v", err)
		}
	}

	pruned, err := store.PruneRuns(ctx, 2)
	if err != nil {
		t.Fatalf("failed to prune: %v", err)
	}
	if pruned != 3 {
		t.Errorf("pruned %d runs, want 3", pruned)
	}

	runs, err := store.ListRecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs after prune, want 2", len(runs))
	}
	if runs[0].ID != "run-005" || runs[1].ID != "run-004" {
		t.Errorf("kept [%s, %s], want [run-005, run-004]", runs[0].ID, runs[1].ID)
	}

	// Cascade removed the pruned runs' sections.
	sections, err := store.ListSectionsByRun(ctx, "run-001")
	if err != nil {
		t.Fatalf("failed to list sections: %v", err)
	}
	if len(sections) != 0 {
		t.Errorf("pruned run still has %d sections", len(sections))
	}
}
