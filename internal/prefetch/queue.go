package prefetch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/homeyum/yum/internal/logging"
)

// Page is one fetched page. An empty Cursor means the source is exhausted.
type Page[T any] struct {
	Items  []T
	Cursor string
}

// FetchFunc loads the page after cursor for query. An empty cursor asks for
// the first page.
type FetchFunc[T any] func(ctx context.Context, query, cursor string) (Page[T], error)

const (
	DefaultTargetSize    = 10
	DefaultThreshold     = 3
	DefaultMaxEmptyPages = 3
)

// Options configure a Queue.
type Options[T any] struct {
	Name  string
	Fetch FetchFunc[T]
	// Key identifies an item for de-duplication.
	Key func(T) string
	// Admit filters fetched items. Nil admits everything.
	Admit func(T) bool
	// TargetSize is how many items the queue keeps ahead of the consumer.
	TargetSize int
	// Threshold is how close to the end the consumer gets before a refill.
	Threshold int
	// MaxEmptyPages bounds back-to-back fetches that admit nothing.
	MaxEmptyPages int
	Logger        *slog.Logger
	// OnChange is called after items or flags change. It must not block.
	OnChange func()
}

// State is a point-in-time view of the queue's bookkeeping.
type State struct {
	Query     string
	Len       int
	Position  int
	Cursor    string
	InFlight  bool
	Exhausted bool
	// Empty is set when the queue gave up: either the source is exhausted
	// with nothing admitted, or MaxEmptyPages pages in a row admitted nothing.
	Empty   bool
	LastErr error
	Fetches int
}

// Queue is a paged buffer kept filled ahead of a consumption position.
// Only one fetch runs at a time; a query change discards whatever the
// previous query's fetch returns.
type Queue[T any] struct {
	fetch         FetchFunc[T]
	key           func(T) string
	admit         func(T) bool
	target        int
	threshold     int
	maxEmptyPages int
	logger        *slog.Logger
	onChange      func()

	mu        sync.Mutex
	query     string
	items     []T
	keys      map[string]struct{}
	cursor    string
	started   bool
	exhausted bool
	inFlight  bool
	empty     bool
	position  int
	gen       uint64
	lastErr   error
	fetches   int
}

// New builds an empty queue for the initial query.
func New[T any](query string, opts Options[T]) *Queue[T] {
	q := &Queue[T]{
		fetch:         opts.Fetch,
		key:           opts.Key,
		admit:         opts.Admit,
		target:        opts.TargetSize,
		threshold:     opts.Threshold,
		maxEmptyPages: opts.MaxEmptyPages,
		onChange:      opts.OnChange,
		query:         query,
		keys:          map[string]struct{}{},
	}
	if q.target <= 0 {
		q.target = DefaultTargetSize
	}
	if q.threshold <= 0 {
		q.threshold = DefaultThreshold
	}
	if q.maxEmptyPages <= 0 {
		q.maxEmptyPages = DefaultMaxEmptyPages
	}
	name := opts.Name
	if name == "" {
		name = "queue"
	}
	q.logger = logging.NewComponentLogger(opts.Logger, "prefetch").With(logging.String("queue", name))
	return q
}

// EnsureFilled fetches one page when the queue holds fewer than the target
// number of items ahead of the consumer. It returns immediately while another
// fetch is in flight, once the source is exhausted, or after the queue gave
// up on empty pages. Pages that admit nothing but carry a cursor are
// re-fetched right away, up to MaxEmptyPages in a row.
func (q *Queue[T]) EnsureFilled(ctx context.Context) error {
	q.mu.Lock()
	if q.fetch == nil || q.inFlight || q.exhausted || q.empty || len(q.items)-q.position >= q.target {
		q.mu.Unlock()
		return nil
	}
	q.inFlight = true
	gen := q.gen
	query := q.query
	cursor := q.cursor
	initializing := !q.started
	q.mu.Unlock()
	q.changed()

	for emptyPages := 0; ; {
		page, err := q.fetch(ctx, query, cursor)

		q.mu.Lock()
		if gen != q.gen {
			q.mu.Unlock()
			q.logger.Debug("discarding page for stale query", logging.String(logging.FieldQuery, query))
			return nil
		}
		q.fetches++
		if err != nil {
			q.inFlight = false
			q.lastErr = err
			q.mu.Unlock()
			q.logger.Warn("prefetch failed; will retry", logging.String(logging.FieldQuery, query), logging.Error(err))
			q.changed()
			return err
		}

		q.started = true
		q.lastErr = nil
		added := q.appendLocked(page.Items)
		if initializing && len(q.items) > q.target {
			q.truncateLocked(q.target)
		}
		q.cursor = page.Cursor
		cursor = page.Cursor
		if cursor == "" {
			q.exhausted = true
		}

		if added == 0 && cursor != "" {
			emptyPages++
			if emptyPages < q.maxEmptyPages {
				q.mu.Unlock()
				q.logger.Debug("page admitted nothing; fetching next", logging.Int("empty_pages", emptyPages))
				continue
			}
			q.empty = true
			q.inFlight = false
			q.mu.Unlock()
			q.logger.Info("giving up after empty pages", logging.String(logging.FieldQuery, query), logging.Int("empty_pages", emptyPages))
			q.changed()
			return nil
		}

		q.empty = q.exhausted && len(q.items) == 0
		q.inFlight = false
		q.mu.Unlock()
		q.changed()
		return nil
	}
}

func (q *Queue[T]) appendLocked(items []T) int {
	added := 0
	for _, item := range items {
		if q.admit != nil && !q.admit(item) {
			continue
		}
		if q.key != nil {
			k := q.key(item)
			if _, dup := q.keys[k]; dup {
				continue
			}
			q.keys[k] = struct{}{}
		}
		q.items = append(q.items, item)
		added++
	}
	return added
}

// truncateLocked keeps the first n items and forgets the keys of the rest.
func (q *Queue[T]) truncateLocked(n int) {
	if q.key != nil {
		for _, item := range q.items[n:] {
			delete(q.keys, q.key(item))
		}
	}
	clear(q.items[n:])
	q.items = q.items[:n]
}

// OnConsumptionAdvance records the consumer's position and refills when it
// comes within Threshold items of the end.
func (q *Queue[T]) OnConsumptionAdvance(ctx context.Context, position int) error {
	if position < 0 {
		position = 0
	}
	q.mu.Lock()
	q.position = position
	trigger := position >= len(q.items)-q.threshold
	q.mu.Unlock()
	if !trigger {
		return nil
	}
	return q.EnsureFilled(ctx)
}

// OnQueryChange drops all items and the cursor, then fills for query.
// Any fetch still running for the previous query is ignored when it returns.
func (q *Queue[T]) OnQueryChange(ctx context.Context, query string) error {
	q.mu.Lock()
	q.gen++
	q.query = query
	q.items = nil
	q.keys = map[string]struct{}{}
	q.cursor = ""
	q.started = false
	q.exhausted = false
	q.inFlight = false
	q.empty = false
	q.position = 0
	q.lastErr = nil
	q.mu.Unlock()
	q.changed()
	return q.EnsureFilled(ctx)
}

// Refresh reloads the current query from the first page.
func (q *Queue[T]) Refresh(ctx context.Context) error {
	return q.OnQueryChange(ctx, q.Query())
}

// Retry clears the empty-state flag set after too many empty pages and
// resumes fetching from the last cursor.
func (q *Queue[T]) Retry(ctx context.Context) error {
	q.mu.Lock()
	if q.empty && !q.exhausted {
		q.empty = false
	}
	q.lastErr = nil
	q.mu.Unlock()
	return q.EnsureFilled(ctx)
}

// Items returns a copy of the buffered items.
func (q *Queue[T]) Items() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// Query returns the active query key.
func (q *Queue[T]) Query() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.query
}

// State reports the queue's bookkeeping.
func (q *Queue[T]) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return State{
		Query:     q.query,
		Len:       len(q.items),
		Position:  q.position,
		Cursor:    q.cursor,
		InFlight:  q.inFlight,
		Exhausted: q.exhausted,
		Empty:     q.empty,
		LastErr:   q.lastErr,
		Fetches:   q.fetches,
	}
}

func (q *Queue[T]) changed() {
	if q.onChange != nil {
		q.onChange()
	}
}
