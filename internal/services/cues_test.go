package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestCueQueueDeliversInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewCueQueue(8, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var got []Cue
	done := make(chan struct{})
	q.Start(ctx, func(c Cue) {
		mu.Lock()
		got = append(got, c)
		if len(got) == 2 {
			close(done)
		}
		mu.Unlock()
	})

	q.Enqueue(CueSound, "patch_resolve")
	q.Enqueue(CueVisual, "cascade_flicker")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cues not delivered")
	}
	cancel()
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	if got[0] != (Cue{Kind: CueSound, Name: "patch_resolve"}) ||
		got[1] != (Cue{Kind: CueVisual, Name: "cascade_flicker"}) {
		t.Errorf("cues = %+v", got)
	}
}

func TestCueQueueDropsWhenFull(t *testing.T) {
	// No consumer: the buffer fills, then every further enqueue drops.
	q := NewCueQueue(2, nil)

	for i := 0; i < 5; i++ {
		q.Enqueue(CueSound, "ping")
	}
	if q.Dropped() != 3 {
		t.Errorf("Dropped = %d, want 3", q.Dropped())
	}
}

func TestCueQueueEnqueueNeverBlocks(t *testing.T) {
	q := NewCueQueue(1, nil)

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			q.Enqueue(CueVisual, "burst")
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full buffer")
	}
}

func TestCueQueueSingleConsumer(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewCueQueue(4, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	seen := 0
	q.Start(ctx, func(Cue) { mu.Lock(); seen++; mu.Unlock() })
	q.Start(ctx, func(Cue) { mu.Lock(); seen += 100; mu.Unlock() }) // ignored

	q.Enqueue(CueSound, "one")
	time.Sleep(50 * time.Millisecond)
	cancel()
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	if seen != 1 {
		t.Errorf("seen = %d, want 1 from the single consumer", seen)
	}
}
