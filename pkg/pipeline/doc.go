// Package pipeline provides the section-based execution harness for release
// runs. A Runner supervises named, optionally time-estimated sections,
// records success/failure per section into explicitly owned counters, and
// reports elapsed-vs-expected timing. Errors are observed and logged, never
// swallowed; abort-vs-continue stays with the caller.
package pipeline
