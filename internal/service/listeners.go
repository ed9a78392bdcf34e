package service

import (
	"sync"

	"pitwatch"
	"pitwatch/internal/metrics"
)

// Listener receives the latest sample after every applied tick. A nil sample
// means the tick produced no data.
type Listener interface {
	OnSample(latest *pitwatch.NamedSample)
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(latest *pitwatch.NamedSample)

func (f ListenerFunc) OnSample(latest *pitwatch.NamedSample) { f(latest) }

type listenerEntry struct {
	id int
	l  Listener
}

// Listeners is the observer registry. Delivery is synchronous and in
// registration order. Callbacks may Unsubscribe but must not Subscribe.
type Listeners struct {
	// deliver serializes notifications so a new subscriber never sees an
	// older sample after a newer one.
	deliver sync.Mutex

	mu      sync.Mutex
	entries []listenerEntry
	nextID  int
	latest  *pitwatch.NamedSample

	metrics *metrics.Metrics
}

func NewListeners(m *metrics.Metrics) *Listeners {
	return &Listeners{metrics: m}
}

// Subscribe registers l and returns its id. When the last applied tick
// produced a sample, l receives it immediately.
func (r *Listeners) Subscribe(l Listener) int {
	r.deliver.Lock()
	defer r.deliver.Unlock()

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.entries = append(r.entries, listenerEntry{id: id, l: l})
	latest := r.latest
	n := len(r.entries)
	r.mu.Unlock()

	r.metrics.SetListeners(n)
	if latest != nil {
		l.OnSample(latest)
	}
	return id
}

// Unsubscribe removes the listener with id. Unknown ids are ignored.
func (r *Listeners) Unsubscribe(id int) {
	r.mu.Lock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			break
		}
	}
	n := len(r.entries)
	r.mu.Unlock()

	r.metrics.SetListeners(n)
}

// Notify records latest and delivers it to every listener.
func (r *Listeners) Notify(latest *pitwatch.NamedSample) {
	r.deliver.Lock()
	defer r.deliver.Unlock()

	r.mu.Lock()
	r.latest = latest
	snapshot := make([]Listener, len(r.entries))
	for i, e := range r.entries {
		snapshot[i] = e.l
	}
	r.mu.Unlock()

	for _, l := range snapshot {
		l.OnSample(latest)
	}
}

// Len returns the number of registered listeners.
func (r *Listeners) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
