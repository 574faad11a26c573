package pipeline

import "sync"

// Summary is a read-only snapshot of the section counters, valid at any
// point during a run.
type Summary struct {
	Total  int `json:"total"`
	OK     int `json:"ok"`
	Failed int `json:"failed"`
}

// Counters aggregates section outcomes for one run. It is owned by the
// RunContext that created it and is safe for concurrent use; independent
// sections may run under a worker pool without extra locking at call sites.
type Counters struct {
	mu     sync.Mutex
	total  int
	ok     int
	failed int
}

// NewCounters creates an empty counter set.
func NewCounters() *Counters {
	return &Counters{}
}

// Begin registers a newly started section and returns its ordinal, starting
// at 1. Sections that never start are never counted.
func (c *Counters) Begin() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	return c.total
}

// Success records a section that completed normally.
func (c *Counters) Success() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ok++
}

// Failure records a section that returned an error.
func (c *Counters) Failure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed++
}

// Snapshot returns the current counts.
func (c *Counters) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Summary{Total: c.total, OK: c.ok, Failed: c.failed}
}
