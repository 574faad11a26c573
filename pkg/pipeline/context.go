package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/matter-labs/zksync-os-scripts/pkg/telemetry"
)

// Config describes one release run before it starts.
type Config struct {
	// Script is the flow name, used in log file names and run history.
	Script string `validate:"required"`

	// RepoDir is the target repository checkout the flow operates on.
	RepoDir string `validate:"required,dir"`

	// Workspace is the scratch root for logs, downloads, and state.
	Workspace string `validate:"required"`

	// Verbose streams external command output at info level instead of debug.
	Verbose bool

	// DryRun logs the run header and exits before doing any work.
	DryRun bool

	// Telemetry overrides the default telemetry configuration when set.
	Telemetry *telemetry.Config

	// Recorder persists run history when set.
	Recorder Recorder
}

// RunContext is the process-wide state of one protoctl invocation: identity
// fields, the run logger and log file, and the owned section counters. It is
// created once at startup, passed explicitly to all operations, and read for
// the final report at exit.
type RunContext struct {
	RunID     string
	Script    string
	Component string
	Workspace string
	RepoDir   string
	Verbose   bool
	DryRun    bool
	LogPath   string
	StartedAt time.Time

	Telemetry *telemetry.Telemetry
	Log       *telemetry.Logger
	Runner    *Runner

	recorder Recorder
}

// NewRunContext validates cfg, opens the per-run log file under
// <workspace>/.protoctl-logs/<component>/<script>-<timestamp>.log, and wires
// the telemetry stack and section runner for the run.
func NewRunContext(cfg Config) (*RunContext, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}

	now := time.Now()
	component := filepath.Base(filepath.Clean(cfg.RepoDir))
	logPath := filepath.Join(
		cfg.Workspace, ".protoctl-logs", component,
		fmt.Sprintf("%s-%s.log", cfg.Script, now.Format("20060102-150405")),
	)

	tcfg := cfg.Telemetry
	if tcfg == nil {
		tcfg = telemetry.DefaultConfig()
	}
	tcfg.Logging.FilePath = logPath
	if cfg.Verbose {
		tcfg.Logging.Level = "debug"
	}

	tel, err := telemetry.New(tcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	runID := uuid.New().String()
	runner := NewRunner(RunnerConfig{
		Logger:   tel.Logger,
		Tracer:   tel.Tracer,
		Metrics:  tel.Metrics,
		Counters: NewCounters(),
		Recorder: cfg.Recorder,
		RunID:    runID,
	})

	return &RunContext{
		RunID:     runID,
		Script:    cfg.Script,
		Component: component,
		Workspace: cfg.Workspace,
		RepoDir:   cfg.RepoDir,
		Verbose:   cfg.Verbose,
		DryRun:    cfg.DryRun,
		LogPath:   logPath,
		StartedAt: now,
		Telemetry: tel,
		Log:       tel.Logger,
		Runner:    runner,
		recorder:  cfg.Recorder,
	}, nil
}

// Summary returns the current section counts.
func (rc *RunContext) Summary() Summary {
	return rc.Runner.Summary()
}

// Section runs fn as a numbered section of this run.
func (rc *RunContext) Section(ctx context.Context, title string, expected time.Duration, fn func(context.Context) error) error {
	return rc.Runner.Run(ctx, title, expected, fn)
}

// Close flushes telemetry and writes the metrics snapshot next to the run
// log. Safe to call once at process exit.
func (rc *RunContext) Close(ctx context.Context) error {
	snapshot := rc.LogPath + ".prom"
	if err := rc.Telemetry.Metrics.WriteSnapshot(snapshot); err != nil {
		rc.Log.WithError(err).Warn("Failed to write metrics snapshot")
	}
	return rc.Telemetry.Shutdown(ctx)
}
