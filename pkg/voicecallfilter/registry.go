// Package voicecallfilter runs incoming and outgoing voice calls through
// a priority-ordered chain of registered filters before they reach the
// modem's dial/accept path, mirroring ofono's src/voicecall-filter.c.
// Each filter in the chain either allows the call to continue to the
// next filter or blocks it outright; a filter may decide synchronously
// or defer its decision (e.g. pending a lookup), in which case the chain
// resumes through internal/idle once the filter calls back.
package voicecallfilter

import "sort"

// Kind distinguishes the two call directions a filter can be asked to
// evaluate, matching the dial/incoming request subtypes in the original
// driver.
type Kind int

const (
	KindDial Kind = iota
	KindIncoming
)

// Decision is a filter's verdict on a call. CONTINUE, HANGUP, and IGNORE
// are distinct terminal dispositions for an incoming call: HANGUP means
// the driver must release the call, IGNORE means the driver must leave
// it live but never surface it to the UI. DecisionBlock is kept as an
// alias of DecisionHangup for dial-direction filters, where "hang up"
// and "block" mean the same thing.
type Decision int

const (
	DecisionContinue Decision = iota
	DecisionHangup
	DecisionIgnore
)

// DecisionBlock is the dial-direction spelling of DecisionHangup: a
// blocked outgoing call is simply never placed, same underlying verdict.
const DecisionBlock = DecisionHangup

func (d Decision) String() string {
	switch d {
	case DecisionContinue:
		return "continue"
	case DecisionHangup:
		return "hangup"
	case DecisionIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}

// Descriptor carries the call information a filter needs to decide.
type Descriptor struct {
	Kind   Kind
	Number string
	CallID int
}

// Filter evaluates one Descriptor and reports a Decision via done.
//
// Process must call done exactly once. If the filter can decide
// immediately, it should call done before returning and may return a nil
// cancel function. If it needs to perform asynchronous work first, it
// arranges for done to be invoked later and returns a cancel function the
// chain will call if the request is torn down before done fires; cancel
// must make the eventual done call (if any) a no-op.
type Filter interface {
	Name() string
	Priority() int
	Process(desc Descriptor, done func(Decision)) (cancel func())
}

// Registry holds a set of registered filters, sorted by
// descending priority and then by name for a stable total order, exactly
// as voicecall_filter_sort orders ofono's GSList of filters.
//
// Registry is deliberately unsynchronized: registration happens during
// plugin load and chain evaluation happens entirely on the single
// scheduling thread (see internal/idle), so no concurrent access is
// possible in practice.
type Registry struct {
	filters []Filter
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds f to the registry, keeping the (-priority, name) order.
func (r *Registry) Register(f Filter) {
	r.filters = append(r.filters, f)
	sort.SliceStable(r.filters, func(i, j int) bool {
		a, b := r.filters[i], r.filters[j]
		if a.Priority() != b.Priority() {
			return a.Priority() > b.Priority()
		}
		return a.Name() < b.Name()
	})
}

// Unregister removes f from the registry, if present.
func (r *Registry) Unregister(f Filter) {
	for i, existing := range r.filters {
		if existing == f {
			r.filters = append(r.filters[:i:i], r.filters[i+1:]...)
			return
		}
	}
}

// Filters returns the registered filters in evaluation order. The
// returned slice is owned by the caller and safe to iterate without
// further synchronization.
func (r *Registry) Filters() []Filter {
	out := make([]Filter, len(r.filters))
	copy(out, r.filters)
	return out
}
