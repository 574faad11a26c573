package telemetry_test

import (
	"context"
	"fmt"
	"time"

	"github.com/matter-labs/zksync-os-scripts/pkg/telemetry"
)

// Example_basicSetup demonstrates wiring telemetry for a protoctl process.
func Example_basicSetup() {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceName = "protoctl"
	cfg.ServiceVersion = "1.0.0"

	tel, err := telemetry.New(cfg)
	if err != nil {
		panic(err)
	}
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	logger := telemetry.FromContext(ctx)
	logger.Info("Run starting")

	// Output varies, no output specified
}

// Example_runLogging demonstrates structured logging during a release run.
func Example_runLogging() {
	cfg := telemetry.DefaultConfig()

	tel, _ := telemetry.New(cfg)
	defer tel.Shutdown(context.Background())

	// Component-specific logger with run identity
	logger := tel.Logger.NewComponentLogger("zksync-os")
	logger = logger.WithRunID("run-123").WithSection("Building contracts")

	logger.Info("Section started")
	logger.Debug("cargo build --release")
	logger.Warn("Tool version drifted from pin")

	err := fmt.Errorf("exit status 1")
	logger.WithError(err).Error("Section failed")

	// Output varies, no output specified
}

// Example_metricsCollection demonstrates recording run metrics.
func Example_metricsCollection() {
	cfg := telemetry.DefaultConfig()
	cfg.Metrics.Enabled = true

	tel, _ := telemetry.New(cfg)
	defer tel.Shutdown(context.Background())

	tel.Metrics.RecordRunStarted("update-server")

	timer := telemetry.NewTimer()
	time.Sleep(10 * time.Millisecond)

	tel.Metrics.RecordSectionStarted()
	tel.Metrics.RecordSectionCompleted("succeeded", timer.Duration())
	tel.Metrics.RecordCommand("cargo", "succeeded", 5*time.Millisecond)
	tel.Metrics.RecordPatch("update_declaration", "succeeded")
	tel.Metrics.RecordDownload("succeeded", 2048)
	tel.Metrics.RecordRunCompleted("update-server", "completed", timer.Duration())

	fmt.Println("Metrics recorded successfully")
	// Output: Metrics recorded successfully
}

// Example_tracing demonstrates spans for a run and its sections.
func Example_tracing() {
	cfg := telemetry.DefaultConfig()
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "none"

	tel, _ := telemetry.New(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	ctx, runSpan := tel.Tracer.StartRunSpan(ctx, "run-123", "update-server")
	defer runSpan.End()

	_, sectionSpan := tel.Tracer.StartSectionSpan(ctx, "Building contracts", 1)
	telemetry.RecordSuccess(sectionSpan)
	sectionSpan.End()

	fmt.Printf("trace id length: %d\n", len(telemetry.TraceID(ctx)))
	// Output: trace id length: 32
}
