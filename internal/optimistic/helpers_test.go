package optimistic

import "time"

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func (c *Coordinator[V]) pendingCount(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.pending
	}
	return 0
}
