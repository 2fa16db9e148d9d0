package smsfilter

import (
	"sync"

	"github.com/ofonogo/core/internal/idle"
)

// request drives one Message through a fixed, already-sorted slice of
// filters, threading mutations from one filter to the next and hopping
// through queue between filters the same way voicecallfilter.Request
// does, so a long chain never recurses directly from a filter's own
// completion callback.
type request struct {
	filters []Filter
	msg     *Message
	queue   *idle.Queue
	final   func(*Message, Outcome)
	destroy func()

	mu        sync.Mutex
	idx       int
	done      bool
	curCancel func()
}

// newRequest builds and starts a request. destroy, if non-nil, runs
// exactly once after final (or instead of it, on cancel), mirroring
// voicecallfilter's Request.
func newRequest(filters []Filter, msg *Message, queue *idle.Queue, final func(*Message, Outcome), destroy func()) *request {
	r := &request{filters: filters, msg: msg, queue: queue, final: final, destroy: destroy}
	r.advance()
	return r
}

func (r *request) runDestroy() {
	if r.destroy != nil {
		r.destroy()
	}
}

func (r *request) advance() {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	if r.idx >= len(r.filters) {
		r.done = true
		r.mu.Unlock()
		r.final(r.msg, OutcomeContinue)
		r.runDestroy()
		return
	}
	f := r.filters[r.idx]
	r.idx++
	r.mu.Unlock()

	cancel := f.Process(r.msg, r.onOutcome)

	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return
	}
	r.curCancel = cancel
	r.mu.Unlock()
}

func (r *request) onOutcome(o Outcome) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	if o == OutcomeDrop {
		r.done = true
		r.mu.Unlock()
		r.final(r.msg, OutcomeDrop)
		r.runDestroy()
		return
	}
	r.mu.Unlock()
	r.queue.Enqueue(r.advance)
}

// cancel aborts the request. final is not invoked, but destroy still
// runs. cancel is idempotent.
func (r *request) cancel() {
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
