package orchestrator

import (
	"sync"
	"time"

	"iris/internal/api"
)

// metrics accumulates processing counters. The average is cumulative over
// the process lifetime.
type metrics struct {
	mu            sync.Mutex
	total         int64
	success       int64
	failure       int64
	totalDuration time.Duration
}

func (m *metrics) record(succeeded bool, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	if succeeded {
		m.success++
	} else {
		m.failure++
	}
	m.totalDuration += elapsed
}

func (m *metrics) snapshot() api.Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := api.Metrics{
		TotalProcessed: m.total,
		SuccessCount:   m.success,
		ErrorCount:     m.failure,
	}
	if m.total > 0 {
		out.AverageTimeMS = (m.totalDuration / time.Duration(m.total)).Milliseconds()
	}
	return out
}
