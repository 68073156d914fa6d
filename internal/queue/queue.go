// Package queue buffers translated analytics actions and flushes them to the
// sink in bounded batches.
package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/johnwards/hubsync/internal/domain"
	"github.com/johnwards/hubsync/internal/metrics"
	"github.com/johnwards/hubsync/internal/sink"
)

// maxInFlight bounds the number of background flushes outstanding at once.
const maxInFlight = 4

// Queue is an unbounded in-memory action queue. Push appends; once the
// pending count exceeds the threshold, the pending list is snapshotted,
// cleared, and handed to a background flush, so pushing can continue while
// the send is in flight. Each snapshot is delivered at most once. Drain
// waits for every background flush and then sends the remainder
// synchronously.
type Queue struct {
	sink      sink.Sink
	threshold int
	log       *zap.SugaredLogger
	sem       *semaphore.Weighted

	mu      sync.Mutex
	pending []*domain.Action
	wg      sync.WaitGroup
}

// New creates a Queue flushing to the given sink once more than threshold
// actions are pending.
func New(s sink.Sink, threshold int, log *zap.SugaredLogger) *Queue {
	return &Queue{
		sink:      s,
		threshold: threshold,
		log:       log,
		sem:       semaphore.NewWeighted(maxInFlight),
	}
}

// Push appends one action, triggering a background flush when the pending
// count crosses the threshold. Safe to call while a prior flush is in flight.
func (q *Queue) Push(ctx context.Context, a *domain.Action) {
	q.mu.Lock()
	q.pending = append(q.pending, a)
	if len(q.pending) <= q.threshold {
		q.mu.Unlock()
		return
	}
	snapshot := q.pending
	q.pending = nil
	q.mu.Unlock()

	q.wg.Add(1)
	go q.flush(ctx, snapshot)
}

func (q *Queue) flush(ctx context.Context, actions []*domain.Action) {
	defer q.wg.Done()

	if err := q.sem.Acquire(ctx, 1); err != nil {
		metrics.QueueFlushErrorsTotal.Inc()
		q.log.Errorw("flush aborted", "count", len(actions), "error", err)
		return
	}
	defer q.sem.Release(1)

	q.send(ctx, actions)
}

// Drain blocks until all background flushes have completed, then flushes any
// remaining actions synchronously. The queue is empty when Drain returns.
func (q *Queue) Drain(ctx context.Context) error {
	q.wg.Wait()

	q.mu.Lock()
	remainder := q.pending
	q.pending = nil
	q.mu.Unlock()

	if len(remainder) == 0 {
		return nil
	}
	return q.send(ctx, remainder)
}

// Len returns the number of actions currently pending.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) send(ctx context.Context, actions []*domain.Action) error {
	metrics.QueueFlushesTotal.Inc()
	q.log.Infow("flushing actions", "count", len(actions))

	if err := q.sink.Accept(ctx, actions); err != nil {
		metrics.QueueFlushErrorsTotal.Inc()
		q.log.Errorw("flush failed", "count", len(actions), "error", err)
		return err
	}
	return nil
}
