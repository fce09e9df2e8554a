package loggers

import "sync"

// StepCounter assigns auto-incrementing step indices per metric name.
//
// Counters start at 0, advance by one per call, and are independent across
// metric names. Every adapter instance owns its own counter, so constructing
// a new adapter resets the sequence.
type StepCounter struct {
	mu   sync.Mutex
	next map[string]int64
}

// NewStepCounter creates an empty step counter.
func NewStepCounter() *StepCounter {
	return &StepCounter{next: make(map[string]int64)}
}

// Next returns the current step for the metric name and advances it.
// The first call for a given name returns 0.
func (c *StepCounter) Next(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	step := c.next[name]
	c.next[name] = step + 1

	return step
}
