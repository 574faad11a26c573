package pipeline

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// SectionStatus represents the lifecycle state of a section. Transitions are
// strictly linear: pending -> running -> succeeded or failed, no re-entry.
type SectionStatus string

const (
	SectionStatusPending   SectionStatus = "pending"
	SectionStatusRunning   SectionStatus = "running"
	SectionStatusSucceeded SectionStatus = "succeeded"
	SectionStatusFailed    SectionStatus = "failed"
)

// IsTerminal returns true if the status is a final state.
func (s SectionStatus) IsTerminal() bool {
	return s == SectionStatusSucceeded || s == SectionStatusFailed
}

// Validate checks if the status is a known value.
func (s SectionStatus) Validate() error {
	switch s {
	case SectionStatusPending, SectionStatusRunning, SectionStatusSucceeded, SectionStatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid section status: %s", s)
	}
}

// Section is the ephemeral record of one logged, timed unit of work. It is
// created by Runner.Begin, finalized exactly once by Runner.End, and never
// mutated afterward.
type Section struct {
	// Ordinal is the 1-based start order within the run.
	Ordinal int

	// Title names the section in logs and reports.
	Title string

	// Expected is the caller's duration estimate; zero means no estimate.
	Expected time.Duration

	// StartedAt is the wall-clock start time.
	StartedAt time.Time

	// Duration is the measured elapsed time, set on finalization.
	Duration time.Duration

	// Status is the lifecycle state.
	Status SectionStatus

	// Err holds the failure that finalized the section, if any.
	Err error

	span trace.Span
}

// Delta returns the signed difference between the measured duration and the
// expectation. Only meaningful when an expectation was given.
func (s *Section) Delta() time.Duration {
	return s.Duration - s.Expected
}
