package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matter-labs/zksync-os-scripts/pkg/telemetry"
)

// Recorder persists run and section history. Recording failures are logged
// and dropped; history must never fail a run.
type Recorder interface {
	RecordRunStarted(ctx context.Context, runID, script, component, repoDir, logPath string, startedAt time.Time) error
	RecordRunFinished(ctx context.Context, runID, status string, total, ok, failed int, duration time.Duration, errMsg string) error
	RecordSection(ctx context.Context, runID, title, status string, startedAt time.Time, duration time.Duration, errMsg string) error
}

// RunnerConfig configures a Runner. Counters defaults to a fresh set;
// Tracer, Metrics, and Recorder are optional.
type RunnerConfig struct {
	Logger   *telemetry.Logger
	Tracer   *telemetry.Tracer
	Metrics  *telemetry.Metrics
	Counters *Counters
	Recorder Recorder
	RunID    string
}

// Runner supervises sections: it numbers them, logs start and outcome with
// elapsed-vs-expected timing, aggregates counts, and re-raises every failure
// unchanged to the caller.
type Runner struct {
	log      *telemetry.Logger
	tracer   *telemetry.Tracer
	metrics  *telemetry.Metrics
	counters *Counters
	recorder Recorder
	runID    string
}

// NewRunner creates a section runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = telemetry.FromContext(context.Background())
	}
	if cfg.Counters == nil {
		cfg.Counters = NewCounters()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &telemetry.Metrics{}
	}
	return &Runner{
		log:      cfg.Logger,
		tracer:   cfg.Tracer,
		metrics:  cfg.Metrics,
		counters: cfg.Counters,
		recorder: cfg.Recorder,
		runID:    cfg.RunID,
	}
}

// Counters returns the counter set owned by this runner's run.
func (r *Runner) Counters() *Counters {
	return r.counters
}

// Summary returns a read-only snapshot of the section counters.
func (r *Runner) Summary() Summary {
	return r.counters.Snapshot()
}

// Begin starts a section: bumps the total counter, assigns the ordinal,
// logs the numbered start line, and opens a child span. The returned
// context carries the section span for nested command spans.
func (r *Runner) Begin(ctx context.Context, title string, expected time.Duration) (context.Context, *Section) {
	n := r.counters.Begin()
	s := &Section{
		Ordinal:   n,
		Title:     title,
		Expected:  expected,
		StartedAt: time.Now(),
		Status:    SectionStatusRunning,
	}

	if expected > 0 {
		r.log.Infof("[%d] %s (expected ~%.0fs)", n, title, expected.Seconds())
	} else {
		r.log.Infof("[%d] %s", n, title)
	}

	r.metrics.RecordSectionStarted()
	if r.tracer != nil {
		ctx, s.span = r.tracer.StartSectionSpan(ctx, title, n)
	}
	return ctx, s
}

// End finalizes a section exactly once: computes elapsed time, bumps the
// ok/failed counter, and logs the one-line summary with the sign-prefixed
// delta when an expectation was given. err is only observed here; the
// caller keeps propagating it.
func (r *Runner) End(ctx context.Context, s *Section, err error) {
	if s == nil || s.Status.IsTerminal() {
		return
	}

	s.Duration = time.Since(s.StartedAt)
	outcome := "SUCCESS"
	if err != nil {
		s.Status = SectionStatusFailed
		s.Err = err
		r.counters.Failure()
		outcome = "FAILED"
	} else {
		s.Status = SectionStatusSucceeded
		r.counters.Success()
	}

	if s.Expected > 0 {
		r.log.Infof("%s: %s (%.1fs, %+.1fs vs expected %.1fs)",
			s.Title, outcome, s.Duration.Seconds(), s.Delta().Seconds(), s.Expected.Seconds())
	} else {
		r.log.Infof("%s: %s (%.1fs)", s.Title, outcome, s.Duration.Seconds())
	}

	r.metrics.RecordSectionCompleted(string(s.Status), s.Duration)

	if s.span != nil {
		if err != nil {
			telemetry.RecordError(s.span, err)
		} else {
			telemetry.RecordSuccess(s.span)
		}
		s.span.End()
	}

	if r.recorder != nil {
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		// History is written even when the run context was just cancelled.
		rctx := context.WithoutCancel(ctx)
		if rerr := r.recorder.RecordSection(rctx, r.runID, s.Title, string(s.Status), s.StartedAt, s.Duration, errMsg); rerr != nil {
			r.log.WithError(rerr).Warn("Failed to record section history")
		}
	}
}

// Run wraps fn in a section scope. End is invoked exactly once whether fn
// returns normally, returns an error, or panics; the error (or panic)
// propagates to the caller unchanged.
func (r *Runner) Run(ctx context.Context, title string, expected time.Duration, fn func(context.Context) error) (err error) {
	sctx, s := r.Begin(ctx, title, expected)
	defer func() {
		if p := recover(); p != nil {
			r.End(sctx, s, fmt.Errorf("panic: %v", p))
			panic(p)
		}
		r.End(sctx, s, err)
	}()
	return fn(sctx)
}
