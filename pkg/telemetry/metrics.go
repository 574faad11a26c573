package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides Prometheus metrics for protoctl runs. All record methods
// are safe to call on a disabled (no-op) instance.
type Metrics struct {
	config MetricsConfig

	// Run metrics
	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	// Section metrics
	sectionsStarted   prometheus.Counter
	sectionsCompleted *prometheus.CounterVec
	sectionDuration   *prometheus.HistogramVec
	activeSections    prometheus.Gauge

	// External command metrics
	commandsExecuted *prometheus.CounterVec
	commandDuration  *prometheus.HistogramVec

	// Patch metrics
	patchesApplied *prometheus.CounterVec

	// Download metrics
	downloadsCompleted *prometheus.CounterVec
	downloadBytes      prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		runsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_started_total",
				Help:      "Total number of runs started",
			},
			[]string{"script"},
		),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of runs completed",
			},
			[]string{"script", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of run execution in seconds",
				Buckets:   buckets,
			},
			[]string{"script", "status"},
		),

		sectionsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sections_started_total",
				Help:      "Total number of sections started",
			},
		),
		sectionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sections_completed_total",
				Help:      "Total number of sections completed",
			},
			[]string{"status"},
		),
		sectionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "section_duration_seconds",
				Help:      "Duration of section execution in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),
		activeSections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sections",
				Help:      "Current number of running sections",
			},
		),

		commandsExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_executed_total",
				Help:      "Total number of external commands executed",
			},
			[]string{"command", "status"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Duration of external command execution in seconds",
				Buckets:   buckets,
			},
			[]string{"command"},
		),

		patchesApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "patches_applied_total",
				Help:      "Total number of source patches applied",
			},
			[]string{"operation", "status"},
		),

		downloadsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "downloads_completed_total",
				Help:      "Total number of artifact downloads",
			},
			[]string{"status"},
		),
		downloadBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "download_bytes_total",
				Help:      "Total bytes downloaded",
			},
		),
	}

	registry.MustRegister(
		m.runsStarted,
		m.runsCompleted,
		m.runDuration,
		m.sectionsStarted,
		m.sectionsCompleted,
		m.sectionDuration,
		m.activeSections,
		m.commandsExecuted,
		m.commandDuration,
		m.patchesApplied,
		m.downloadsCompleted,
		m.downloadBytes,
	)

	return m, nil
}

// RecordRunStarted increments the counter for started runs.
func (m *Metrics) RecordRunStarted(script string) {
	if m.runsStarted == nil {
		return
	}
	m.runsStarted.WithLabelValues(script).Inc()
}

// RecordRunCompleted records a completed run with its status and duration.
func (m *Metrics) RecordRunCompleted(script, status string, duration time.Duration) {
	if m.runsCompleted == nil {
		return
	}
	m.runsCompleted.WithLabelValues(script, status).Inc()
	m.runDuration.WithLabelValues(script, status).Observe(duration.Seconds())
}

// RecordSectionStarted increments the started-section counters.
func (m *Metrics) RecordSectionStarted() {
	if m.sectionsStarted == nil {
		return
	}
	m.sectionsStarted.Inc()
	m.activeSections.Inc()
}

// RecordSectionCompleted records a finished section with status and duration.
func (m *Metrics) RecordSectionCompleted(status string, duration time.Duration) {
	if m.sectionsCompleted == nil {
		return
	}
	m.sectionsCompleted.WithLabelValues(status).Inc()
	m.sectionDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.activeSections.Dec()
}

// RecordCommand records an external command execution.
func (m *Metrics) RecordCommand(command, status string, duration time.Duration) {
	if m.commandsExecuted == nil {
		return
	}
	m.commandsExecuted.WithLabelValues(command, status).Inc()
	m.commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordPatch records a patch operation.
func (m *Metrics) RecordPatch(operation, status string) {
	if m.patchesApplied == nil {
		return
	}
	m.patchesApplied.WithLabelValues(operation, status).Inc()
}

// RecordDownload records an artifact download.
func (m *Metrics) RecordDownload(status string, bytes int64) {
	if m.downloadsCompleted == nil {
		return
	}
	m.downloadsCompleted.WithLabelValues(status).Inc()
	if bytes > 0 {
		m.downloadBytes.Add(float64(bytes))
	}
}

// WriteSnapshot writes the current metric values to a Prometheus text file.
// Runs are one-shot processes; the final state lands next to the run log
// for the textfile collector to pick up.
func (m *Metrics) WriteSnapshot(path string) error {
	if m.registry == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
