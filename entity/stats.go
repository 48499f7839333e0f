package entity

import "time"

// RequestStats are the process-wide counters surfaced by the dashboard and
// debug APIs (spec.md §3). All fields are maintained with atomic
// operations by internal/stats.Counters; this struct is the read snapshot.
type RequestStats struct {
	TotalRequests      int64     `json:"total_requests"`
	SuccessfulRequests int64     `json:"successful_requests"`
	FailedRequests     int64     `json:"failed_requests"`
	ApiCalls           int64     `json:"api_calls"`
	StartTime          time.Time `json:"start_time"`
}

func (s RequestStats) UptimeSeconds() float64 {
	return time.Since(s.StartTime).Seconds()
}
