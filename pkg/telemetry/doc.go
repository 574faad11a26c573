// Package telemetry provides observability instrumentation for protoctl.
//
// The package integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), and metrics (Prometheus) into one system for monitoring
// and debugging release runs.
//
// # Architecture
//
// The telemetry system is built on three pillars:
//
//  1. Structured Logging - console output for the operator plus a per-run
//     debug-level log file capturing full command output
//  2. Distributed Tracing - runs as root spans, sections and external
//     commands as children, exported via stdout or OTLP gRPC
//  3. Metrics Collection - Prometheus counters and histograms, snapshotted
//     to a textfile at the end of each run
//
// # Usage
//
// Initialize telemetry at process startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = version
//	cfg.Logging.FilePath = runLogPath
//
//	tel, err := telemetry.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// Component loggers carry their origin:
//
//	log := tel.Logger.NewComponentLogger("patch")
//	log.Infof("Updating %s in %s", name, path)
package telemetry
