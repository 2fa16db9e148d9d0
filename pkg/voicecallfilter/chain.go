package voicecallfilter

import (
	"sync"

	"github.com/ofonogo/core/internal/idle"
)

// Chain evaluates calls against a Registry's filters, one Request at a
// time per call, and supports restarting or canceling the in-flight
// requests for a given call the way __ofono_voicecall_filter_chain_
// restart/cancel select requests by matching a call's identity.
type Chain struct {
	registry *Registry
	queue    *idle.Queue

	mu       sync.Mutex
	inflight map[int]*Request
}

// NewChain returns a Chain that evaluates against registry, hopping
// between filters on queue.
func NewChain(registry *Registry, queue *idle.Queue) *Chain {
	return &Chain{
		registry: registry,
		queue:    queue,
		inflight: make(map[int]*Request),
	}
}

// Dial evaluates a dial request keyed by the raw number being placed.
// final is invoked with the chain's verdict; DecisionContinue means the
// dial should proceed. destroy, if non-nil, runs exactly once after the
// request finishes by any path (completion or Cancel).
func (c *Chain) Dial(number string, callID int, final func(Decision), destroy func()) {
	c.run(Descriptor{Kind: KindDial, Number: number, CallID: callID}, final, destroy)
}

// DialCheck re-evaluates a dial that has already been placed and now has
// an assigned call record, keyed by callID rather than a raw number.
// Used after the call appears in the call list, so subsequent
// cancellation (e.g. the call hanging up before a deferred filter
// decides) can target it by identity.
func (c *Chain) DialCheck(callID int, final func(Decision), destroy func()) {
	c.run(Descriptor{Kind: KindDial, CallID: callID}, final, destroy)
}

// Registry returns the Registry this chain evaluates against, so callers
// holding only a Chain can still register/unregister filters.
func (c *Chain) Registry() *Registry {
	return c.registry
}

// Incoming evaluates an incoming call. final is invoked with the chain's
// verdict: CONTINUE, HANGUP (driver must release the call), or IGNORE
// (driver must not notify the UI). destroy, if non-nil, runs exactly
// once after the request finishes by any path.
func (c *Chain) Incoming(number string, callID int, final func(Decision), destroy func()) {
	c.run(Descriptor{Kind: KindIncoming, Number: number, CallID: callID}, final, destroy)
}

func (c *Chain) run(desc Descriptor, final func(Decision), destroy func()) {
	filters := c.registry.Filters()

	req := newRequest(filters, desc, c.queue, func(d Decision) {
		c.mu.Lock()
		delete(c.inflight, desc.CallID)
		c.mu.Unlock()
		final(d)
	}, destroy)

	c.mu.Lock()
	c.inflight[desc.CallID] = req
	c.mu.Unlock()
}

// Cancel aborts the in-flight request for callID, if any. Its final
// callback is not invoked; its destroy callback, if any, still runs.
func (c *Chain) Cancel(callID int) {
	c.mu.Lock()
	req := c.inflight[callID]
	delete(c.inflight, callID)
	c.mu.Unlock()
	if req != nil {
		req.Cancel()
	}
}

// Restart cancels any in-flight request for callID and re-evaluates the
// call from the start of the (possibly now-changed) filter set. Used
// when a filter registers or unregisters while a call is mid-chain.
func (c *Chain) Restart(desc Descriptor, final func(Decision), destroy func()) {
	c.Cancel(desc.CallID)
	c.run(desc, final, destroy)
}

// Free cancels every in-flight request — running each one's destroy
// callback but not its completion callback — and empties the chain. It
// is safe to call from inside a completion callback: the callback's own
// Request has already been removed from inflight by the time final
// fires, so Free never tries to cancel the request that's calling it.
func (c *Chain) Free() {
	c.mu.Lock()
	reqs := make([]*Request, 0, len(c.inflight))
	for id, req := range c.inflight {
		reqs = append(reqs, req)
		delete(c.inflight, id)
	}
	c.mu.Unlock()
	for _, req := range reqs {
		req.Cancel()
	}
}
