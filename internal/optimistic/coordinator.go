package optimistic

import (
	"context"
	"log/slog"
	"sync"

	"github.com/homeyum/yum/internal/failure"
	"github.com/homeyum/yum/internal/logging"
)

// Value is a possibly absent entry. Present=false means the key has no value
// (for example, no reaction).
type Value[V any] struct {
	Data    V
	Present bool
}

// Some wraps a present value.
func Some[V any](v V) Value[V] { return Value[V]{Data: v, Present: true} }

// None is the absent value.
func None[V any]() Value[V] { return Value[V]{} }

// SendFunc performs the network call for a mutation. When the server echoes
// an authoritative value it returns it with ok=true.
type SendFunc[V any] func(ctx context.Context) (server Value[V], ok bool, err error)

type entry[V any] struct {
	visible      Value[V]
	confirmed    Value[V]
	issued       uint64
	confirmedSeq uint64
	pending      int
}

// Coordinator is a keyed store with optimistic writes.
type Coordinator[V any] struct {
	name     string
	logger   *slog.Logger
	onChange func(key string)
	merge    func(server, local V) V

	mu      sync.Mutex
	entries map[string]*entry[V]
}

// Options configure a Coordinator.
type Options struct {
	// Name is used in logs and error messages.
	Name   string
	Logger *slog.Logger
	// OnChange runs after the visible value of key changes. It must not
	// call back into the coordinator.
	OnChange func(key string)
}

// New builds an empty coordinator.
func New[V any](opts Options) *Coordinator[V] {
	name := opts.Name
	if name == "" {
		name = "store"
	}
	return &Coordinator[V]{
		name:     name,
		logger:   logging.NewComponentLogger(opts.Logger, name),
		onChange: opts.OnChange,
		entries:  map[string]*entry[V]{},
	}
}

// MergeWith sets fn to fill fields a server echo leaves out from the local
// visible value. fn runs under the coordinator lock when an echo is
// confirmed. Call it before the first Apply.
func (c *Coordinator[V]) MergeWith(fn func(server, local V) V) *Coordinator[V] {
	c.merge = fn
	return c
}

// Apply makes next visible immediately, then runs send. On success the
// server value (or next) becomes the confirmed baseline, unless a response to
// a later request was confirmed first; applied reports whether this one was.
// On failure the key rolls back to the last confirmed value unless a newer
// apply is still outstanding, and the returned error wraps
// failure.ErrMutation.
func (c *Coordinator[V]) Apply(ctx context.Context, key string, next Value[V], send SendFunc[V]) (result Value[V], applied bool, err error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.issued++
	seq := e.issued
	e.pending++
	e.visible = next
	c.mu.Unlock()
	c.changed(key)

	server, ok, err := send(ctx)

	c.mu.Lock()
	e = c.entryLocked(key)
	if e.pending > 0 {
		e.pending--
	}
	latest := seq == e.issued
	if err == nil && seq > e.confirmedSeq {
		switch {
		case ok && c.merge != nil && server.Present && e.visible.Present:
			e.confirmed = Some(c.merge(server.Data, e.visible.Data))
		case ok:
			e.confirmed = server
		default:
			e.confirmed = next
		}
		e.confirmedSeq = seq
		applied = true
	}
	settle := latest || e.pending == 0
	if settle {
		e.visible = e.confirmed
	}
	result = e.visible
	if !result.Present && !e.confirmed.Present && e.pending == 0 {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if settle {
		c.changed(key)
	}
	if err != nil {
		c.logger.Warn("mutation failed",
			logging.String(logging.FieldKey, key),
			logging.Uint64("seq", seq),
			logging.Bool("rolled_back", settle),
			logging.Error(err),
		)
		return result, false, failure.Wrap(failure.ErrMutation, c.name, "apply", "mutation for "+key+" failed", err)
	}
	if !applied {
		c.logger.Debug("late response ignored", logging.String(logging.FieldKey, key), logging.Uint64("seq", seq))
	} else if !latest {
		c.logger.Debug("superseded mutation confirmed", logging.String(logging.FieldKey, key), logging.Uint64("seq", seq))
	}
	return result, applied, nil
}

// Get returns the visible value for key.
func (c *Coordinator[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.visible.Present {
		var zero V
		return zero, false
	}
	return e.visible.Data, true
}

// Pending reports whether key has a mutation in flight.
func (c *Coordinator[V]) Pending(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && e.pending > 0
}

// ConfirmedValue returns the last server-confirmed value for key.
func (c *Coordinator[V]) ConfirmedValue(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.confirmed.Present {
		var zero V
		return zero, false
	}
	return e.confirmed.Data, true
}

// Snapshot copies every present visible value.
func (c *Coordinator[V]) Snapshot() map[string]V {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]V, len(c.entries))
	for k, e := range c.entries {
		if e.visible.Present {
			out[k] = e.visible.Data
		}
	}
	return out
}

// Confirmed copies every present confirmed value. This is what gets
// persisted locally.
func (c *Coordinator[V]) Confirmed() map[string]V {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]V, len(c.entries))
	for k, e := range c.entries {
		if e.confirmed.Present {
			out[k] = e.confirmed.Data
		}
	}
	return out
}

// Replace swaps in server state wholesale, as after a list fetch. Keys with
// a mutation in flight keep their optimistic value; the new data becomes
// their baseline.
func (c *Coordinator[V]) Replace(values map[string]V) {
	c.mu.Lock()
	next := make(map[string]*entry[V], len(values))
	for k, v := range values {
		e := &entry[V]{visible: Some(v), confirmed: Some(v)}
		if old, ok := c.entries[k]; ok {
			e.issued, e.confirmedSeq, e.pending = old.issued, old.confirmedSeq, old.pending
			if old.pending > 0 {
				e.visible = old.visible
			}
		}
		next[k] = e
	}
	for k, old := range c.entries {
		if _, ok := next[k]; ok || old.pending == 0 {
			continue
		}
		next[k] = &entry[V]{visible: old.visible, issued: old.issued, confirmedSeq: old.confirmedSeq, pending: old.pending}
	}
	c.entries = next
	c.mu.Unlock()
	c.changed("")
}

// Update rewrites an existing present value in place with fn. It reports
// false, and changes nothing, when key is absent.
func (c *Coordinator[V]) Update(key string, fn func(V) V) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || !e.visible.Present {
		c.mu.Unlock()
		return false
	}
	e.visible = Some(fn(e.visible.Data))
	if e.confirmed.Present {
		e.confirmed = Some(fn(e.confirmed.Data))
	}
	c.mu.Unlock()
	c.changed(key)
	return true
}

// Rekey moves the entry at from to to, as when a temporary id is replaced by
// the server id. Keys with a mutation in flight are not moved.
func (c *Coordinator[V]) Rekey(from, to string) bool {
	if from == to {
		return true
	}
	c.mu.Lock()
	e, ok := c.entries[from]
	if ok && e.pending == 0 {
		delete(c.entries, from)
		c.entries[to] = e
	} else {
		ok = false
	}
	c.mu.Unlock()
	if ok {
		c.changed(to)
	}
	return ok
}

func (c *Coordinator[V]) entryLocked(key string) *entry[V] {
	e, ok := c.entries[key]
	if !ok {
		e = &entry[V]{}
		c.entries[key] = e
	}
	return e
}

func (c *Coordinator[V]) changed(key string) {
	if c.onChange != nil {
		c.onChange(key)
	}
}
