package calllist

import "sort"

// Reconcile diffs a newly parsed call-list snapshot against the
// previously retained one and returns the events needed to bring a
// voicecall plugin's view up to date, plus the snapshot that should be
// retained for the next call.
//
// The merge walks both lists, sorted ascending by ID, with two cursors:
// an old-list entry with no matching new entry (absent, or the next new
// entry's ID is higher) is a disconnect; a new-list entry with no
// matching old entry (absent, or its ID is lower than the next old
// entry) is a new call; equal IDs compare full call structs and emit a
// modification when they differ. Disconnects fire for every departed
// call regardless of Type, matching ofono_call_list_notify's unguarded
// ofono_voicecall_disconnected call; only New and Modified are limited
// to TypeVoice, since only voice calls are ever surfaced as "new" to a
// voicecall plugin in the first place.
//
// New-list entries already carrying StatusDisconnected are dropped
// before the merge: a call that both appeared and hung up between polls
// never existed from the plugin's point of view.
//
// At a matching id, CLIP validity, CNAP validity, and the called-number
// are carried forward from the old record into the new one per edge-case
// policies (b)-(d): modems often report these only once, on the poll
// where they first resolve. An incoming call additionally holds back its
// New event under policy (e) until CLIP resolves or NeedCLIPRingThreshold
// polls have passed with the call still pending, whichever comes first.
func Reconcile(old, newSnapshot []Call) (events []Event, retained []Call) {
	oldSorted := sortedByID(old)
	newSorted := sortedByID(dropDisconnected(newSnapshot))

	i, j := 0, 0
	for i < len(oldSorted) || j < len(newSorted) {
		switch {
		case j >= len(newSorted) || (i < len(oldSorted) && newSorted[j].ID > oldSorted[i].ID):
			events = append(events, Event{Kind: EventDisconnected, Call: oldSorted[i]})
			i++
		case i >= len(oldSorted) || newSorted[j].ID < oldSorted[i].ID:
			call := newSorted[j]
			if call.Type == TypeVoice && needsCLIP(call) {
				call.NeedCLIP = true
				newSorted[j] = call
			} else if call.Type == TypeVoice {
				events = append(events, Event{Kind: EventNew, Call: call})
			}
			j++
		default:
			merged := carryForward(oldSorted[i], newSorted[j])
			if merged.Type == TypeVoice {
				switch {
				case oldSorted[i].NeedCLIP && !needsCLIP(merged):
					merged.NeedCLIP = false
					events = append(events, Event{Kind: EventNew, Call: merged})
				case oldSorted[i].NeedCLIP:
					merged.RingCount = oldSorted[i].RingCount + 1
					if merged.RingCount >= NeedCLIPRingThreshold {
						merged.NeedCLIP = false
						events = append(events, Event{Kind: EventNew, Call: merged})
					}
				case !oldSorted[i].Equal(merged):
					events = append(events, Event{Kind: EventModified, Call: merged})
				}
			}
			newSorted[j] = merged
			i++
			j++
		}
	}
	return events, newSorted
}

// needsCLIP reports whether call is an incoming call whose CLIP has not
// yet resolved, the gating condition for edge-case policy (e).
func needsCLIP(call Call) bool {
	return call.Status == StatusIncoming && call.Presentation != PresentationValid
}

// carryForward applies edge-case policies (b)-(d): a.Presentation,
// a.Name/a.NamePresentation, and a.CalledNumber/a.CalledNumberPlan are
// copied into b whenever b arrived without them, since modems commonly
// report CLIP/CNAP once and the called-number only at dial time.
func carryForward(a, b Call) Call {
	if a.Presentation == PresentationValid && b.Presentation != PresentationValid {
		b.Presentation = a.Presentation
		b.LineID = a.LineID
	}
	if a.NamePresentation == PresentationValid && b.NamePresentation != PresentationValid {
		b.NamePresentation = a.NamePresentation
		b.Name = a.Name
	}
	if b.CalledNumber == "" {
		b.CalledNumber = a.CalledNumber
		b.CalledNumberPlan = a.CalledNumberPlan
	}
	b.NeedCLIP = a.NeedCLIP
	b.RingCount = a.RingCount
	return b
}

func dropDisconnected(calls []Call) []Call {
	out := make([]Call, 0, len(calls))
	for _, c := range calls {
		if c.Status == StatusDisconnected {
			continue
		}
		out = append(out, c)
	}
	return out
}

func sortedByID(calls []Call) []Call {
	out := make([]Call, len(calls))
	copy(out, calls)
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// Reconciler owns the retained call-list snapshot across successive
// polls, the way the driver's GSList **call_list out-parameter does for
// a single modem instance.
type Reconciler struct {
	retained []Call
}

// NewReconciler returns a Reconciler with an empty retained snapshot.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Notify reconciles newSnapshot against the retained state, updates the
// retained state to newSnapshot (with disconnected entries dropped), and
// returns the resulting events.
func (r *Reconciler) Notify(newSnapshot []Call) []Event {
	events, retained := Reconcile(r.retained, newSnapshot)
	r.retained = retained
	return events
}

// Retained returns the currently retained snapshot.
func (r *Reconciler) Retained() []Call {
	out := make([]Call, len(r.retained))
	copy(out, r.retained)
	return out
}

// DialCallback inserts a synthetic dialing call directly into the
// retained set, ahead of the next poll. This mirrors
// ofono_call_list_dial_callback: when a dial completes, the network may
// not report the new call in CLCC for one or more polls, so a stub entry
// is retained immediately to avoid the first post-dial poll synthesizing
// a spurious New event for a call the plugin already knows about from
// the dial path itself. The dialed number is recorded as CalledNumber,
// not LineID: CLCC never reports the called number on a poll, so the
// stub is the only source carryForward has to propagate it from.
func (r *Reconciler) DialCallback(id int, calledNumber string, originating bool) {
	for _, c := range r.retained {
		if c.ID == id {
			return
		}
	}
	r.retained = append(r.retained, Call{
		ID:           id,
		Type:         TypeVoice,
		Status:       StatusDialing,
		CalledNumber: calledNumber,
		Originating:  originating,
	})
}
