// Package timer keeps the set of pending countdown timers. The Registry is
// the only owner of its entries; callers hold ids, never entries.
package timer

import (
	log "log/slog"
	"sort"
	"sync"
	"time"
)

// Handle describes one pending timer.
type Handle struct {
	ID        int
	Duration  time.Duration
	CreatedAt time.Time
}

// FireAt is when the timer is due.
func (h Handle) FireAt() time.Time {
	return h.CreatedAt.Add(h.Duration)
}

// Notifier is told about every timer that runs to completion.
type Notifier func(Handle)

// Gauge receives the number of pending timers after every change.
type Gauge interface {
	Set(float64)
}

type entry struct {
	handle Handle
	t      *time.Timer
}

type Registry struct {
	mu      sync.Mutex
	lastID  int
	entries map[int]*entry

	notify Notifier
	gauge  Gauge
	now    func() time.Time
}

type Option func(*Registry)

// WithGauge reports the pending-timer count to g.
func WithGauge(g Gauge) Option {
	return func(r *Registry) { r.gauge = g }
}

func NewRegistry(notify Notifier, opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[int]*entry),
		notify:  notify,
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Start schedules a timer and returns its handle.
func (r *Registry) Start(d time.Duration) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	h := Handle{
		ID:        r.lastID,
		Duration:  d,
		CreatedAt: r.now(),
	}

	id := h.ID
	r.entries[id] = &entry{
		handle: h,
		t:      time.AfterFunc(d, func() { r.fire(id) }),
	}
	r.reportLocked()

	log.Debug("Timer started", "id", id, "duration", d)
	return h
}

// fire runs on the timer goroutine. The entry is removed under the lock and
// the notifier runs only if this call was the one that removed it.
func (r *Registry) fire(id int) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
		r.reportLocked()
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	log.Info("Timer fired", "id", id, "duration", e.handle.Duration)
	if r.notify != nil {
		r.notify(e.handle)
	}
}

// Cancel removes a pending timer. It reports false when the id is unknown or
// the timer already fired.
func (r *Registry) Cancel(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.t.Stop()
	delete(r.entries, id)
	r.reportLocked()

	log.Info("Timer cancelled", "id", id)
	return true
}

// Active returns the pending timers ordered by id.
func (r *Registry) Active() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Handle, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.handle)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stop cancels every pending timer without notifying.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.entries {
		e.t.Stop()
		delete(r.entries, id)
	}
	r.reportLocked()
}

func (r *Registry) reportLocked() {
	if r.gauge != nil {
		r.gauge.Set(float64(len(r.entries)))
	}
}
