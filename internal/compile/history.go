package compile

import "sync"

// DefaultHistoryLimit caps the in-memory chain log before pruning.
const DefaultHistoryLimit = 100

// History is a prunable log of evaluation chains for one run. Oldest chains
// are dropped once the limit is exceeded.
type History struct {
	mu     sync.RWMutex
	chains []*Chain
	limit  int
}

// NewHistory creates a History with the given cap; non-positive means the
// default.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Append adds a chain, pruning the oldest entries past the cap.
func (h *History) Append(c *Chain) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chains = append(h.chains, c)
	if over := len(h.chains) - h.limit; over > 0 {
		h.chains = h.chains[over:]
	}
}

// Recent returns up to n chains, newest last.
func (h *History) Recent(n int) []*Chain {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n <= 0 || n > len(h.chains) {
		n = len(h.chains)
	}
	out := make([]*Chain, n)
	copy(out, h.chains[len(h.chains)-n:])
	return out
}

// Get returns a chain by id.
func (h *History) Get(id string) (*Chain, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.chains {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Len returns the number of retained chains.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.chains)
}
