package voicecallfilter

import (
	"sync"

	"github.com/ofonogo/core/internal/idle"
)

// Request drives one Descriptor through a fixed, already-sorted slice of
// filters, mirroring voicecall_filter_request's walk over its chain's
// req_list: each filter is given a chance to block the call, and a
// DecisionContinue from one filter advances to the next only after an
// idle-queue hop, so a chain of N filters never recurses N stack frames
// deep regardless of how many filters decide synchronously.
type Request struct {
	filters []Filter
	desc    Descriptor
	queue   *idle.Queue
	final   func(Decision)
	destroy func()

	mu        sync.Mutex
	idx       int
	done      bool
	curCancel func()
}

// newRequest builds and starts a Request. final is invoked exactly once,
// either with the blocking filter's Decision or DecisionContinue once
// every filter has allowed the call through. destroy, if non-nil, runs
// exactly once after final (or instead of it, on Cancel) regardless of
// which path the request completes through.
func newRequest(filters []Filter, desc Descriptor, queue *idle.Queue, final func(Decision), destroy func()) *Request {
	r := &Request{
		filters: filters,
		desc:    desc,
		queue:   queue,
		final:   final,
		destroy: destroy,
	}
	r.advance()
	return r
}

func (r *Request) runDestroy() {
	if r.destroy != nil {
		r.destroy()
	}
}

func (r *Request) advance() {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	if r.idx >= len(r.filters) {
		r.done = true
		r.mu.Unlock()
		r.final(DecisionContinue)
		r.runDestroy()
		return
	}
	f := r.filters[r.idx]
	r.idx++
	r.mu.Unlock()

	cancel := f.Process(r.desc, func(d Decision) {
		r.onDecision(d)
	})

	r.mu.Lock()
	if r.done {
		// The request was canceled (or already completed by a
		// synchronous Process call above) while Process ran; make
		// sure we don't leak the filter's own cancel handle.
		r.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return
	}
	r.curCancel = cancel
	r.mu.Unlock()
}

func (r *Request) onDecision(d Decision) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	if d != DecisionContinue {
		r.done = true
		r.mu.Unlock()
		r.final(d)
		r.runDestroy()
		return
	}
	r.mu.Unlock()
	r.queue.Enqueue(r.advance)
}

// Cancel aborts the request. final is not invoked, but destroy still
// runs, matching the original chain_cancel contract. Cancel is
// idempotent.
func (r *Request) Cancel() {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.done = true
	cancel := r.curCancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.runDestroy()
}
