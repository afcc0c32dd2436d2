package sqsconsumer

import "sync"

// InflightCounter tracks the number of messages handed to the application
// but not yet finalized. It emits edge signals rather than levels: a
// transition from the cap to one below it, and a transition to zero.
// Reaching the cap raises no signal here.
type InflightCounter struct {
	mu    sync.Mutex
	value int
	cap   int

	onDrained  func()
	onBelowCap func()
}

func newInflightCounter(cap int) *InflightCounter {
	return &InflightCounter{cap: cap}
}

// Value returns the current in-flight count.
func (c *InflightCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Cap returns the configured cap, or 0 for unbounded.
func (c *InflightCounter) Cap() int {
	return c.cap
}

// Increment records one more message handed to the application.
func (c *InflightCounter) Increment() {
	c.mu.Lock()
	c.value++
	c.mu.Unlock()
}

// Decrement records one fewer in-flight message. It fires onDrained on any
// transition to zero, and onBelowCap whenever the value drops below the cap
// (so a paused ReceiveLoop can re-check whether it may poll again).
func (c *InflightCounter) Decrement() {
	c.mu.Lock()
	c.value--
	v, cap := c.value, c.cap
	c.mu.Unlock()

	if v == 0 && c.onDrained != nil {
		c.onDrained()
	}
	if cap > 0 && v == cap-1 && c.onBelowCap != nil {
		c.onBelowCap()
	}
}
