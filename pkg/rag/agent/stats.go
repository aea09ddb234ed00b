package agent

import (
	"sync"
	"time"

	"multilingual-rag-be/pkg/rag/schema"
)

// Stats accumulates usage counters for one pipeline stage. Counters are
// process-wide and keep growing across queries until Reset is called.
// Concurrent queries share the same instance, so every update takes the lock.
type Stats struct {
	mu          sync.Mutex
	calls       int
	totalTokens int
	totalCost   float64
	totalTime   float64
	errors      int
}

func NewStats() *Stats {
	return &Stats{}
}

// RecordCall adds one successful call to the counters.
func (s *Stats) RecordCall(tokens int, cost float64, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.totalTokens += tokens
	s.totalCost += cost
	s.totalTime += elapsed.Seconds()
}

// RecordError counts a failed call.
func (s *Stats) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() schema.StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schema.StatsSnapshot{
		Calls:       s.calls,
		TotalTokens: s.totalTokens,
		TotalCost:   s.totalCost,
		TotalTime:   s.totalTime,
		Errors:      s.errors,
	}
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = 0
	s.totalTokens = 0
	s.totalCost = 0
	s.totalTime = 0
	s.errors = 0
}
