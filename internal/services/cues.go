package services

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// CueKind distinguishes the effect channels.
type CueKind string

const (
	CueSound  CueKind = "sound"
	CueVisual CueKind = "visual"
)

// Cue is one fire-and-forget effect request.
type Cue struct {
	Kind CueKind
	Name string
}

// CueQueue buffers effect requests for whatever playback layer is attached.
// Enqueue never blocks: when the buffer is full the cue is dropped, since
// cues are not required for correctness.
type CueQueue struct {
	ch      chan Cue
	logger  *zap.Logger
	mu      sync.Mutex
	dropped int
	done    chan struct{}
	started bool
}

// NewCueQueue creates a queue with the given buffer size.
func NewCueQueue(size int, logger *zap.Logger) *CueQueue {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CueQueue{
		ch:     make(chan Cue, size),
		logger: logger.Named("cues"),
		done:   make(chan struct{}),
	}
}

// Enqueue submits a cue without blocking.
func (q *CueQueue) Enqueue(kind CueKind, name string) {
	select {
	case q.ch <- Cue{Kind: kind, Name: name}:
	default:
		q.mu.Lock()
		q.dropped++
		q.mu.Unlock()
		q.logger.Debug("Cue dropped", zap.String("name", name))
	}
}

// Start consumes cues with the given handler until the context is cancelled.
// Non-blocking; at most one consumer runs.
func (q *CueQueue) Start(ctx context.Context, handle func(Cue)) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	go func() {
		defer close(q.done)
		for {
			select {
			case <-ctx.Done():
				return
			case cue, ok := <-q.ch:
				if !ok {
					return
				}
				handle(cue)
			}
		}
	}()
}

// Wait blocks until the consumer goroutine has exited.
func (q *CueQueue) Wait() {
	q.mu.Lock()
	started := q.started
	q.mu.Unlock()
	if started {
		<-q.done
	}
}

// Dropped reports how many cues were discarded on a full buffer.
func (q *CueQueue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
