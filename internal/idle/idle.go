// Package idle provides a single-goroutine FIFO work queue used to hop
// between pipeline stages (voicecall and SMS filter chains) the way
// ofono's driver code uses g_idle_add to continue a filter chain from
// the glib main loop rather than recursing directly from within a
// filter's own completion callback. Running every hop through one queue
// bounds stack depth for long filter chains and keeps chain state
// mutations on a single logical thread, so chain/request bookkeeping
// needs no locking.
//
// The worker goroutine is supervised by an errgroup.Group so a panicking
// hop surfaces as an error from Close instead of silently killing the
// queue, and every hop is run holding a weight-1 semaphore.Weighted as a
// runtime assertion of the single-scheduling-thread invariant: Enqueue
// itself never needs it (the channel already serializes dispatch), but
// it catches the case of a second goroutine calling run() directly,
// which would otherwise violate the invariant silently instead of
// blocking.
package idle

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Queue runs enqueued functions in submission order, one at a time, on
// its own goroutine.
type Queue struct {
	work   chan func()
	sem    *semaphore.Weighted
	group  *errgroup.Group
	cancel context.CancelFunc
	done   <-chan struct{}
}

// New starts a Queue's worker goroutine. Callers must call Close when
// finished to release it.
func New() *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	q := &Queue{
		work:   make(chan func(), 64),
		sem:    semaphore.NewWeighted(1),
		group:  group,
		cancel: cancel,
		done:   ctx.Done(),
	}
	group.Go(func() error { return q.run(ctx) })
	return q
}

func (q *Queue) run(ctx context.Context) error {
	for {
		select {
		case fn := <-q.work:
			if err := q.runOne(ctx, fn); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// runOne acquires the single-scheduling-thread permit, runs fn, and
// converts a panic inside fn into an error rather than taking the whole
// queue down.
func (q *Queue) runOne(ctx context.Context, fn func()) (err error) {
	if acquireErr := q.sem.Acquire(ctx, 1); acquireErr != nil {
		return nil
	}
	defer q.sem.Release(1)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("idle: hop panicked: %v", r)
		}
	}()
	fn()
	return nil
}

// Enqueue schedules fn to run after every function already enqueued.
// Enqueue on a closed Queue is a no-op.
func (q *Queue) Enqueue(fn func()) {
	select {
	case q.work <- fn:
	case <-q.stopped():
	}
}

func (q *Queue) stopped() <-chan struct{} {
	return q.done
}

// Close stops the worker goroutine and waits for it to exit, returning
// any error a panicking hop produced. Pending work is discarded.
func (q *Queue) Close() error {
	q.cancel()
	return q.group.Wait()
}
