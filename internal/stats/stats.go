// Package stats holds the process-lifetime counters surfaced by the admin
// API's debug/dashboard endpoints (spec.md §6). Plain atomics, no storage
// backing — Design Note 9 treats these as reset-on-restart by design.
package stats

import (
	"sync/atomic"
	"time"

	"botfleet/entity"
)

// Counters is safe for concurrent use by every bot worker and the LLM
// Adapter; entity.RequestStats is the read-only snapshot taken from it.
type Counters struct {
	startTime time.Time
	total     atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	apiCalls  atomic.Int64
}

func New(startTime time.Time) *Counters {
	return &Counters{startTime: startTime}
}

// IncRequest records one pipeline pass, success or not.
func (c *Counters) IncRequest(ok bool) {
	c.total.Add(1)
	if ok {
		c.succeeded.Add(1)
	} else {
		c.failed.Add(1)
	}
}

// IncAPICall is incremented by the LLM Adapter before each HTTP call is
// issued, so a failed call still counts (spec.md §4.3).
func (c *Counters) IncAPICall() {
	c.apiCalls.Add(1)
}

func (c *Counters) Snapshot() entity.RequestStats {
	return entity.RequestStats{
		TotalRequests:      c.total.Load(),
		SuccessfulRequests: c.succeeded.Load(),
		FailedRequests:     c.failed.Load(),
		ApiCalls:           c.apiCalls.Load(),
		StartTime:          c.startTime,
	}
}
