package stores

import (
	"context"
	"time"
)

// The methods below present the store as a run recorder to the pipeline.
// Signatures stay flat; the pipeline never imports this package.

// RecordRunStarted inserts the run row at the top of a run.
func (s *SQLiteStore) RecordRunStarted(ctx context.Context, runID, script, component, repoDir, logPath string, startedAt time.Time) error {
	now := time.Now()
	return s.CreateRun(ctx, &Run{
		ID:        runID,
		Script:    script,
		Component: component,
		RepoDir:   repoDir,
		LogPath:   logPath,
		Status:    RunStatusRunning,
		StartedAt: startedAt,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// RecordRunFinished closes out the run row when the run ends.
func (s *SQLiteStore) RecordRunFinished(ctx context.Context, runID, status string, total, ok, failed int, duration time.Duration, errMsg string) error {
	var errPtr *string
	if errMsg != "" {
		errPtr = &errMsg
	}
	return s.FinishRun(ctx, runID, RunStatus(status), total, ok, failed, duration, errPtr)
}

// RecordSection appends one finished section to the run's history.
func (s *SQLiteStore) RecordSection(ctx context.Context, runID, title, status string, startedAt time.Time, duration time.Duration, errMsg string) error {
	var errPtr *string
	if errMsg != "" {
		errPtr = &errMsg
	}
	return s.AppendSection(ctx, &SectionRecord{
		RunID:     runID,
		Title:     title,
		Status:    status,
		StartedAt: startedAt,
		Duration:  duration.Milliseconds(),
		Error:     errPtr,
	})
}
