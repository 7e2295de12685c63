package job

import "time"

// Metrics aggregates per-job execution counters. It is owned by the
// scheduler and mutated only under its lock, each time an execution
// reaches a terminal state.
type Metrics struct {
	JobName         string        `json:"job_name"`
	TotalExecutions int64         `json:"total_executions"`
	SuccessCount    int64         `json:"success_count"`
	FailureCount    int64         `json:"failure_count"`
	CancelledCount  int64         `json:"cancelled_count"`
	TimeoutCount    int64         `json:"timeout_count"`
	SkippedCount    int64         `json:"skipped_count"`
	AvgDuration     time.Duration `json:"avg_duration"`
	MinDuration     time.Duration `json:"min_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
	LastExecution   time.Time     `json:"last_execution"`
	LastSuccess     time.Time     `json:"last_success"`
	LastFailure     time.Time     `json:"last_failure"`
}

// Record folds a terminal execution into the aggregates. Skipped
// executions count toward SkippedCount but not toward the duration
// aggregates, since no work ran.
func (m *Metrics) Record(e *Execution) {
	now := time.Now().UTC()
	m.LastExecution = now

	switch e.Status {
	case StatusCompleted:
		m.SuccessCount++
		m.LastSuccess = now
	case StatusFailed:
		m.FailureCount++
		m.LastFailure = now
	case StatusTimeout:
		m.TimeoutCount++
		m.LastFailure = now
	case StatusCancelled:
		m.CancelledCount++
	case StatusSkipped:
		m.SkippedCount++
		m.TotalExecutions++
		return
	case StatusRetrying:
		// Superseded attempt; counted when the chain terminates.
		return
	}

	m.TotalExecutions++

	d := e.Duration()
	if m.MinDuration == 0 || d < m.MinDuration {
		m.MinDuration = d
	}
	if d > m.MaxDuration {
		m.MaxDuration = d
	}

	// Running average over executions that actually ran.
	ran := m.SuccessCount + m.FailureCount + m.TimeoutCount + m.CancelledCount
	if ran > 0 {
		m.AvgDuration = time.Duration((int64(m.AvgDuration)*(ran-1) + int64(d)) / ran)
	}
}

// Clone returns a copy of the metrics for snapshots.
func (m *Metrics) Clone() *Metrics {
	cp := *m
	return &cp
}
