package smsfilter

import (
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/ofonogo/core/internal/idle"
)

// Chain evaluates SMS traffic against a Registry's filters, one request
// at a time. Registration ordering and cancellation semantics mirror
// voicecallfilter.Chain; the only structural difference is that a
// Message is keyed by its own UUID rather than a call id, since SMS
// traffic has no call identity to key on.
type Chain struct {
	registry *Registry
	queue    *idle.Queue

	mu       sync.Mutex
	inflight map[string]*request
}

// NewChain returns a Chain that evaluates against registry, hopping
// between filters on queue. A nil Chain is valid and behaves as the
// original driver's NULL-chain convenience: every Send/Recv call fires
// straight through with OutcomeContinue and the message unmodified,
// matching __ofono_sms_filter_chain_send_text/_recv_text/_recv_datagram
// being no-ops when no chain has been installed.
func NewChain(registry *Registry, queue *idle.Queue) *Chain {
	return &Chain{registry: registry, queue: queue, inflight: make(map[string]*request)}
}

// Registry returns the Registry this chain evaluates against, or nil for
// a nil Chain.
func (c *Chain) Registry() *Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// SendText evaluates an outgoing text message. final receives the
// (possibly address/text-rewritten) message and the chain's outcome;
// OutcomeContinue means the message should be handed to the modem.
// destroy, if non-nil, runs exactly once after the request finishes by
// any path (completion or Cancel), and the returned UUID identifies the
// request for Cancel/Restart.
func (c *Chain) SendText(address, text string, final func(*Message, Outcome), destroy func()) string {
	msg := &Message{Direction: DirectionSendText, UUID: xid.New().String(), Address: address, Text: text}
	return c.run(msg, final, destroy)
}

// RecvText evaluates an incoming text message, assigning it a fresh UUID
// before the first filter sees it.
func (c *Chain) RecvText(address, text string, class int, scts time.Time, final func(*Message, Outcome), destroy func()) string {
	msg := &Message{
		Direction: DirectionRecvText,
		UUID:      xid.New().String(),
		Address:   address,
		Text:      text,
		Class:     class,
		SCTS:      scts,
	}
	return c.run(msg, final, destroy)
}

// RecvDatagram evaluates an incoming datagram (port-addressed binary SMS),
// assigning it a fresh UUID before the first filter sees it.
func (c *Chain) RecvDatagram(address string, dstPort, srcPort int, buf []byte, scts time.Time, final func(*Message, Outcome), destroy func()) string {
	msg := &Message{
		Direction: DirectionRecvDatagram,
		UUID:      xid.New().String(),
		Address:   address,
		DstPort:   dstPort,
		SrcPort:   srcPort,
		Buf:       buf,
		SCTS:      scts,
	}
	return c.run(msg, final, destroy)
}

func (c *Chain) run(msg *Message, final func(*Message, Outcome), destroy func()) string {
	if c == nil || c.registry == nil {
		final(msg, OutcomeContinue)
		if destroy != nil {
			destroy()
		}
		return msg.UUID
	}

	req := newRequest(c.registry.Filters(), msg, c.queue, func(m *Message, o Outcome) {
		c.mu.Lock()
		delete(c.inflight, msg.UUID)
		c.mu.Unlock()
		final(m, o)
	}, destroy)

	c.mu.Lock()
	c.inflight[msg.UUID] = req
	c.mu.Unlock()
	return msg.UUID
}

// Cancel aborts the in-flight request for uuid, if any. Its final
// callback is not invoked; its destroy callback, if any, still runs.
func (c *Chain) Cancel(uuid string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	req := c.inflight[uuid]
	delete(c.inflight, uuid)
	c.mu.Unlock()
	if req != nil {
		req.cancel()
	}
}

// Restart cancels any in-flight request for msg's UUID and re-evaluates
// it from the start of the (possibly now-changed) filter set.
func (c *Chain) Restart(msg *Message, final func(*Message, Outcome), destroy func()) string {
	c.Cancel(msg.UUID)
	return c.run(msg, final, destroy)
}

// Free cancels every in-flight request — running each one's destroy
// callback but not its completion callback — and empties the chain. It
// is safe to call from inside a completion callback, the same way
// voicecallfilter.Chain.Free is.
func (c *Chain) Free() {
	if c == nil {
		return
	}
	c.mu.Lock()
	reqs := make([]*request, 0, len(c.inflight))
	for uuid, req := range c.inflight {
		reqs = append(reqs, req)
		delete(c.inflight, uuid)
	}
	c.mu.Unlock()
	for _, req := range reqs {
		req.cancel()
	}
}
