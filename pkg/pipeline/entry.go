package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/matter-labs/zksync-os-scripts/pkg/telemetry"
)

// Run status values written into the run history.
const (
	RunStatusRunning     = "running"
	RunStatusCompleted   = "completed"
	RunStatusFailed      = "failed"
	RunStatusInterrupted = "interrupted"
)

// Flow is a release procedure: an ordered set of sections executed against
// one RunContext.
type Flow func(ctx context.Context, rc *RunContext) error

// Execute drives one run end to end: header, dry-run gate, the flow itself,
// and the final summary. The flow's error is returned unchanged; the caller
// maps it to an exit code.
func Execute(ctx context.Context, rc *RunContext, flow Flow) error {
	rule := strings.Repeat("=", 60)
	rc.Log.Info(rule)
	rc.Log.Infof("🚀 Running %s for %s", rc.Script, rc.Component)
	rc.Log.Info(rule)

	if rc.DryRun {
		rc.Log.Warn("⚠ DRY RUN enabled, no changes will be made")
		return nil
	}

	recordStart(ctx, rc)
	rc.Telemetry.Metrics.RecordRunStarted(rc.Script)

	err := runFlow(ctx, rc, flow)

	status := RunStatusCompleted
	switch {
	case errors.Is(err, context.Canceled):
		status = RunStatusInterrupted
		rc.Log.Warn("Interrupted")
	case err != nil:
		status = RunStatusFailed
		rc.Log.WithError(err).Error("Run failed")
	}

	report(rc)

	duration := time.Since(rc.StartedAt)
	rc.Telemetry.Metrics.RecordRunCompleted(rc.Script, status, duration)
	recordFinish(ctx, rc, status, duration, err)

	return err
}

// runFlow executes the flow under the run's root span.
func runFlow(ctx context.Context, rc *RunContext, flow Flow) error {
	if rc.Telemetry.Tracer == nil {
		return flow(ctx, rc)
	}
	sctx, span := rc.Telemetry.Tracer.StartRunSpan(ctx, rc.RunID, rc.Script)
	defer span.End()

	err := flow(sctx, rc)
	if err != nil {
		telemetry.RecordError(span, err)
	} else {
		telemetry.RecordSuccess(span)
	}
	return err
}

// report emits the end-of-run summary block.
func report(rc *RunContext) {
	s := rc.Summary()
	if s.Failed > 0 {
		rc.Log.Warnf("⚠ %d section(s) failed out of %d", s.Failed, s.Total)
	} else {
		rc.Log.Info("✅ All sections completed successfully")
	}
	rc.Log.Infof("Sections : %d OK, %d failed", s.OK, s.Failed)
	rc.Log.Infof("Duration : %.1fs total", time.Since(rc.StartedAt).Seconds())
	rc.Log.Infof("Logs     : %s", rc.LogPath)
}

func recordStart(ctx context.Context, rc *RunContext) {
	if rc.recorder == nil {
		return
	}
	err := rc.recorder.RecordRunStarted(
		context.WithoutCancel(ctx),
		rc.RunID, rc.Script, rc.Component, rc.RepoDir, rc.LogPath, rc.StartedAt,
	)
	if err != nil {
		rc.Log.WithError(err).Warn("Failed to record run start")
	}
}

func recordFinish(ctx context.Context, rc *RunContext, status string, duration time.Duration, runErr error) {
	if rc.recorder == nil {
		return
	}
	s := rc.Summary()
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	err := rc.recorder.RecordRunFinished(
		context.WithoutCancel(ctx),
		rc.RunID, status, s.Total, s.OK, s.Failed, duration, errMsg,
	)
	if err != nil {
		rc.Log.WithError(err).Warn("Failed to record run finish")
	}
}

// ExitCode maps a run error to the process exit code: 0 on success, 130 on
// interrupt, 1 on any other failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
