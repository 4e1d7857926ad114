package compile

import (
	"testing"

	"ghostpatch/internal/effect"
)

func testChain(stability int) *Chain {
	c := newChain()
	c.append(newEvent(EventSuccess, "ok", effect.Delta{Stability: stability, Insight: 1}, true, false))
	return c
}

func TestHistoryPrunesOldest(t *testing.T) {
	h := NewHistory(3)

	var ids []string
	for i := 0; i < 5; i++ {
		c := testChain(i)
		ids = append(ids, c.ID)
		h.Append(c)
	}

	if h.Len() != 3 {
		t.Fatalf("Len = %d, want 3", h.Len())
	}
	for _, id := range ids[:2] {
		if _, ok := h.Get(id); ok {
			t.Errorf("pruned chain %s still retrievable", id)
		}
	}
	for _, id := range ids[2:] {
		if _, ok := h.Get(id); !ok {
			t.Errorf("retained chain %s not found", id)
		}
	}
}

func TestHistoryRecentOrder(t *testing.T) {
	h := NewHistory(10)
	a, b, c := testChain(1), testChain(2), testChain(3)
	h.Append(a)
	h.Append(b)
	h.Append(c)

	got := h.Recent(2)
	if len(got) != 2 || got[0].ID != b.ID || got[1].ID != c.ID {
		t.Errorf("Recent(2) returned wrong chains")
	}

	all := h.Recent(0)
	if len(all) != 3 {
		t.Errorf("Recent(0) = %d chains, want all 3", len(all))
	}
}

func TestHistoryDefaultLimit(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < DefaultHistoryLimit+10; i++ {
		h.Append(testChain(i))
	}
	if h.Len() != DefaultHistoryLimit {
		t.Errorf("Len = %d, want %d", h.Len(), DefaultHistoryLimit)
	}
}
