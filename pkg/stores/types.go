package stores

import (
	"context"
	"time"
)

// RunStatus represents the status of a recorded run.
type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusCompleted   RunStatus = "completed"
	RunStatusFailed      RunStatus = "failed"
	RunStatusInterrupted RunStatus = "interrupted"
)

// Run is one protoctl invocation as recorded in history.
type Run struct {
	ID             string     `json:"id"`
	Script         string     `json:"script"`
	Component      string     `json:"component"`
	RepoDir        string     `json:"repo_dir"`
	LogPath        string     `json:"log_path"`
	Status         RunStatus  `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Duration       *int64     `json:"duration_ms,omitempty"`
	SectionsTotal  int        `json:"sections_total"`
	SectionsOK     int        `json:"sections_ok"`
	SectionsFailed int        `json:"sections_failed"`
	Error          *string    `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// SectionRecord is one finished section of a run.
type SectionRecord struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Duration  int64     `json:"duration_ms"`
	Error     *string   `json:"error,omitempty"`
}

// HistoryStore defines the persistence interface for run history.
type HistoryStore interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	FinishRun(ctx context.Context, id string, status RunStatus, total, ok, failed int, duration time.Duration, errMsg *string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRecentRuns(ctx context.Context, limit int) ([]*Run, error)
	PruneRuns(ctx context.Context, keep int) (int64, error)

	// Section operations
	AppendSection(ctx context.Context, section *SectionRecord) error
	ListSectionsByRun(ctx context.Context, runID string) ([]*SectionRecord, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
