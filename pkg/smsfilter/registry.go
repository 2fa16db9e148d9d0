package smsfilter

import "sort"

// Filter evaluates one Message, possibly mutating it in place, and
// reports an Outcome via done.
//
// Process must call done exactly once. A synchronous decision calls done
// before returning and may return a nil cancel function; an asynchronous
// one arranges for done to be called later and returns a cancel function
// the chain will invoke if torn down first.
type Filter interface {
	Name() string
	Priority() int
	Process(msg *Message, done func(Outcome)) (cancel func())
}

// Registry holds the process-wide set of registered SMS filters, ordered
// by descending priority then ascending name, matching the voicecall
// filter chain's stable sort (and, by inference, sms-filter.c's use of
// the same vocabulary in its registration API).
//
// Like voicecallfilter.Registry, Registry is deliberately unsynchronized:
// it is only ever mutated and read from the single scheduling thread.
type Registry struct {
	filters []Filter
}

func NewRegistry() *Registry {
	return &Registry{}
}

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

func (r *Registry) Unregister(f Filter) {
	for i, existing := range r.filters {
		if existing == f {
			r.filters = append(r.filters[:i:i], r.filters[i+1:]...)
			return
		}
	}
}

func (r *Registry) Filters() []Filter {
	out := make([]Filter, len(r.filters))
	copy(out, r.filters)
	return out
}
