package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/homeyum/yum/internal/prefetch"
	"github.com/homeyum/yum/internal/search"
)

// Searcher is the external video search provider.
type Searcher interface {
	Search(ctx context.Context, query, pageToken string) (search.Result, error)
}

// SearchOptions configure a Search queue.
type SearchOptions struct {
	TargetSize    int
	Threshold     int
	MaxEmptyPages int
	// Admit overrides the short-form heuristic.
	Admit    func(search.Video) bool
	Logger   *slog.Logger
	OnChange func()
}

// Search is the queue behind the search screen.
type Search struct {
	queue *prefetch.Queue[search.Video]

	mu    sync.Mutex
	index int
}

// NewSearch builds an idle search queue.
func NewSearch(provider Searcher, opts SearchOptions) *Search {
	admit := opts.Admit
	if admit == nil {
		admit = search.IsLikelyShort
	}
	fetch := func(ctx context.Context, query, cursor string) (prefetch.Page[search.Video], error) {
		res, err := provider.Search(ctx, query, cursor)
		if err != nil {
			return prefetch.Page[search.Video]{}, err
		}
		return prefetch.Page[search.Video]{Items: res.Videos, Cursor: res.NextPageToken}, nil
	}
	return &Search{
		queue: prefetch.New("", prefetch.Options[search.Video]{
			Name:          "search",
			Fetch:         fetch,
			Key:           func(v search.Video) string { return v.VideoID },
			Admit:         admit,
			TargetSize:    opts.TargetSize,
			Threshold:     opts.Threshold,
			MaxEmptyPages: opts.MaxEmptyPages,
			Logger:        opts.Logger,
			OnChange:      opts.OnChange,
		}),
	}
}

// SetQuery starts a new search. Blank queries and the current query are
// ignored.
func (s *Search) SetQuery(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" || query == s.queue.Query() {
		return nil
	}
	s.mu.Lock()
	s.index = 0
	s.mu.Unlock()
	return s.queue.OnQueryChange(ctx, query)
}

// Query returns the active query.
func (s *Search) Query() string {
	return s.queue.Query()
}

// SetCurrentIndex records the result being viewed.
func (s *Search) SetCurrentIndex(ctx context.Context, index int) error {
	if s.queue.Query() == "" {
		return nil
	}
	if index < 0 {
		index = 0
	}
	s.mu.Lock()
	s.index = index
	s.mu.Unlock()
	return s.queue.OnConsumptionAdvance(ctx, index)
}

// Retry resumes after the queue gave up on empty pages or an error.
func (s *Search) Retry(ctx context.Context) error {
	if s.queue.Query() == "" {
		return nil
	}
	return s.queue.Retry(ctx)
}

// Results returns the admitted videos.
func (s *Search) Results() []search.Video {
	return s.queue.Items()
}

// State exposes the queue bookkeeping.
func (s *Search) State() prefetch.State {
	return s.queue.State()
}
