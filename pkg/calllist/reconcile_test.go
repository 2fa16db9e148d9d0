package calllist_test

import (
	"testing"

	"github.com/ofonogo/core/pkg/calllist"
)

func TestReconcileSameSnapshotIsNoOp(t *testing.T) {
	calls := []calllist.Call{
		{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusActive},
		{ID: 2, Type: calllist.TypeVoice, Status: calllist.StatusHeld},
	}
	events, _ := calllist.Reconcile(calls, calls)
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0: %+v", len(events), events)
	}
}

func TestReconcileToEmptyEmitsAllDisconnects(t *testing.T) {
	calls := []calllist.Call{
		{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusActive},
		{ID: 2, Type: calllist.TypeVoice, Status: calllist.StatusHeld},
	}
	events, retained := calllist.Reconcile(calls, nil)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	for _, e := range events {
		if e.Kind != calllist.EventDisconnected {
			t.Errorf("got kind %v, want EventDisconnected", e.Kind)
		}
	}
	if len(retained) != 0 {
		t.Fatalf("got %d retained, want 0", len(retained))
	}
}

// TestReconcileToEmptyDisconnectsNonVoiceToo exercises spec.md §8's
// testable law that reconcile(S, ∅) emits exactly |S| disconnects, one
// per element of S, regardless of Type — only New/Modified are
// voice-only.
func TestReconcileToEmptyDisconnectsNonVoiceToo(t *testing.T) {
	calls := []calllist.Call{
		{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusActive},
		{ID: 2, Type: calllist.TypeOther, Status: calllist.StatusActive},
	}
	events, retained := calllist.Reconcile(calls, nil)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (disconnect fires for every type): %+v", len(events), events)
	}
	for _, e := range events {
		if e.Kind != calllist.EventDisconnected {
			t.Errorf("got kind %v, want EventDisconnected", e.Kind)
		}
	}
	if len(retained) != 0 {
		t.Fatalf("got %d retained, want 0", len(retained))
	}
}

func TestReconcileFromEmptyEmitsVoiceNewOnly(t *testing.T) {
	newCalls := []calllist.Call{
		{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusActive},
		{ID: 2, Type: calllist.TypeOther, Status: calllist.StatusActive},
	}
	events, retained := calllist.Reconcile(nil, newCalls)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (non-voice suppressed): %+v", len(events), events)
	}
	if events[0].Kind != calllist.EventNew || events[0].Call.ID != 1 {
		t.Fatalf("got %+v", events[0])
	}
	if len(retained) != 2 {
		t.Fatalf("got %d retained, want 2 (both tracked for identity)", len(retained))
	}
}

func TestReconcileModifiedOnStatusChange(t *testing.T) {
	old := []calllist.Call{{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusDialing}}
	newCalls := []calllist.Call{{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusActive}}

	events, _ := calllist.Reconcile(old, newCalls)
	if len(events) != 1 || events[0].Kind != calllist.EventModified {
		t.Fatalf("got %+v, want single EventModified", events)
	}
}

func TestReconcileNewHigherIDWhileOldLowerIDDisconnects(t *testing.T) {
	// Old call 1 vanishes, new call 3 appears: disconnect(1) then new(3).
	old := []calllist.Call{{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusActive}}
	newCalls := []calllist.Call{{ID: 3, Type: calllist.TypeVoice, Status: calllist.StatusActive}}

	events, _ := calllist.Reconcile(old, newCalls)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if events[0].Kind != calllist.EventDisconnected || events[0].Call.ID != 1 {
		t.Fatalf("expected disconnect(1) first, got %+v", events[0])
	}
	if events[1].Kind != calllist.EventNew || events[1].Call.ID != 3 {
		t.Fatalf("expected new(3) second, got %+v", events[1])
	}
}

func TestReconcileDropsDisconnectedNewEntries(t *testing.T) {
	// A call that appears already hung up should not emit a New event
	// nor be retained.
	newCalls := []calllist.Call{
		{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusDisconnected},
	}
	events, retained := calllist.Reconcile(nil, newCalls)
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0: %+v", len(events), events)
	}
	if len(retained) != 0 {
		t.Fatalf("got %d retained, want 0", len(retained))
	}
}

func TestReconcilerDialCallbackSuppressesSpuriousNew(t *testing.T) {
	r := calllist.NewReconciler()
	r.DialCallback(5, "+15551234567", true)

	// First poll after dialing reports the same call, already known, but
	// CLCC never echoes back the called number: only the stub carries it.
	events := r.Notify([]calllist.Call{
		{ID: 5, Type: calllist.TypeVoice, Status: calllist.StatusDialing, Originating: true},
	})
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0 (no duplicate New): %+v", len(events), events)
	}
	if got := r.Retained()[0].CalledNumber; got != "+15551234567" {
		t.Fatalf("called number not carried forward: got %q", got)
	}

	// Second poll reports the call now active: exactly one modified event,
	// and the called number is still carried forward since CLCC still
	// doesn't report it.
	events = r.Notify([]calllist.Call{
		{ID: 5, Type: calllist.TypeVoice, Status: calllist.StatusActive, Originating: true},
	})
	if len(events) != 1 || events[0].Kind != calllist.EventModified {
		t.Fatalf("got %+v, want single EventModified", events)
	}
	if events[0].Call.CalledNumber != "+15551234567" {
		t.Fatalf("called number lost across second poll: %+v", events[0].Call)
	}
}

// TestReconcileCarriesCLIPAndCNAPForward covers edge-case policies (b)
// and (c): CLIP/CNAP validity (and the identity data they carry) seen
// once must survive polls where the modem doesn't repeat them.
func TestReconcileCarriesCLIPAndCNAPForward(t *testing.T) {
	old := []calllist.Call{{
		ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusActive,
		LineID: "+15550001111", Presentation: calllist.PresentationValid,
		Name: "ALICE", NamePresentation: calllist.PresentationValid,
	}}
	newCalls := []calllist.Call{{
		ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusActive,
	}}

	events, retained := calllist.Reconcile(old, newCalls)
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0 (carried-forward call is unchanged): %+v", len(events), events)
	}
	got := retained[0]
	if got.LineID != "+15550001111" || got.Presentation != calllist.PresentationValid {
		t.Fatalf("CLIP not carried forward: %+v", got)
	}
	if got.Name != "ALICE" || got.NamePresentation != calllist.PresentationValid {
		t.Fatalf("CNAP not carried forward: %+v", got)
	}
}

// TestReconcileHoldsIncomingCallUntilCLIPArrives covers edge-case policy
// (e): an incoming call with no CLIP yet is held back from New until
// CLIP resolves.
func TestReconcileHoldsIncomingCallUntilCLIPArrives(t *testing.T) {
	r := calllist.NewReconciler()

	events := r.Notify([]calllist.Call{
		{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusIncoming},
	})
	if len(events) != 0 {
		t.Fatalf("got %+v, want 0 (CLIP not yet known)", events)
	}

	events = r.Notify([]calllist.Call{
		{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusIncoming,
			LineID: "+15559998888", Presentation: calllist.PresentationValid},
	})
	if len(events) != 1 || events[0].Kind != calllist.EventNew {
		t.Fatalf("got %+v, want single EventNew once CLIP arrives", events)
	}

	// Further polls with the same data must not emit again.
	events = r.Notify([]calllist.Call{
		{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusIncoming,
			LineID: "+15559998888", Presentation: calllist.PresentationValid},
	})
	if len(events) != 0 {
		t.Fatalf("got %+v, want 0 (already notified)", events)
	}
}

// TestReconcileHoldsIncomingCallUntilRingThreshold covers the RING-count
// fallback half of policy (e): a modem that never delivers CLIP still
// gets a New event once NeedCLIPRingThreshold polls have passed.
func TestReconcileHoldsIncomingCallUntilRingThreshold(t *testing.T) {
	r := calllist.NewReconciler()

	for n := 0; n < calllist.NeedCLIPRingThreshold; n++ {
		events := r.Notify([]calllist.Call{
			{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusIncoming},
		})
		if len(events) != 0 {
			t.Fatalf("poll %d: got %+v, want 0 (still under threshold)", n, events)
		}
	}

	events := r.Notify([]calllist.Call{
		{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusIncoming},
	})
	if len(events) != 1 || events[0].Kind != calllist.EventNew {
		t.Fatalf("got %+v, want single EventNew once ring threshold exceeded", events)
	}
}

func TestReconcilerSequentialPolls(t *testing.T) {
	r := calllist.NewReconciler()

	events := r.Notify([]calllist.Call{
		{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusActive},
	})
	if len(events) != 1 || events[0].Kind != calllist.EventNew {
		t.Fatalf("round 1: got %+v", events)
	}

	events = r.Notify([]calllist.Call{
		{ID: 1, Type: calllist.TypeVoice, Status: calllist.StatusHeld},
	})
	if len(events) != 1 || events[0].Kind != calllist.EventModified {
		t.Fatalf("round 2: got %+v", events)
	}

	events = r.Notify(nil)
	if len(events) != 1 || events[0].Kind != calllist.EventDisconnected {
		t.Fatalf("round 3: got %+v", events)
	}

	if len(r.Retained()) != 0 {
		t.Fatalf("expected empty retained set after disconnect")
	}
}
