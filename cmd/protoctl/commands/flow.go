package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/matter-labs/zksync-os-scripts/pkg/pipeline"
	"github.com/matter-labs/zksync-os-scripts/pkg/stores"
)

// historyDBPath is where the run history lives inside the workspace.
func historyDBPath() string {
	return filepath.Join(workspace, ".protoctl-logs", "history.db")
}

// openHistory opens and migrates the run history store. The caller closes
// it.
func openHistory(ctx context.Context) (*stores.SQLiteStore, error) {
	path := historyDBPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// runFlow builds the run context for one flow invocation and executes it.
// A broken history store downgrades to a warning; the flow still runs.
func runFlow(ctx context.Context, script string, flow pipeline.Flow) error {
	if repoDir == "" {
		return fmt.Errorf("repository not set: pass --repo or set REPO_DIR")
	}

	var recorder pipeline.Recorder
	store, err := openHistory(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Run history unavailable")
	} else {
		recorder = store
		defer store.Close()
	}

	rc, err := pipeline.NewRunContext(pipeline.Config{
		Script:    script,
		RepoDir:   repoDir,
		Workspace: workspace,
		Verbose:   verbose,
		DryRun:    dryRun,
		Recorder:  recorder,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rc.Close(context.Background()); cerr != nil {
			log.Warn().Err(cerr).Msg("Failed to flush run telemetry")
		}
	}()

	return pipeline.Execute(ctx, rc, flow)
}
