package feed

import (
	"context"
	"log/slog"
	"sync"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/prefetch"
)

// DefaultPageSize is the feed page size requested from the backend.
const DefaultPageSize = 10

// Backend is the feed endpoint.
type Backend interface {
	FetchFeed(ctx context.Context, pageSize int, lastVideoID string) ([]api.Video, error)
}

// Options configure a Feed.
type Options struct {
	PageSize      int
	TargetSize    int
	Threshold     int
	MaxEmptyPages int
	Logger        *slog.Logger
	OnChange      func()
}

// Feed is the home video feed.
type Feed struct {
	queue *prefetch.Queue[api.Video]

	mu    sync.Mutex
	index int
}

// New builds an empty feed. Nothing is fetched until Load.
func New(backend Backend, opts Options) *Feed {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	fetch := func(ctx context.Context, _ string, cursor string) (prefetch.Page[api.Video], error) {
		videos, err := backend.FetchFeed(ctx, pageSize, cursor)
		if err != nil {
			return prefetch.Page[api.Video]{}, err
		}
		page := prefetch.Page[api.Video]{Items: videos}
		// A short page means the backend has nothing after it.
		if len(videos) >= pageSize {
			page.Cursor = videos[len(videos)-1].VideoID
		}
		return page, nil
	}
	return &Feed{
		queue: prefetch.New("", prefetch.Options[api.Video]{
			Name:          "feed",
			Fetch:         fetch,
			Key:           func(v api.Video) string { return v.VideoID },
			TargetSize:    opts.TargetSize,
			Threshold:     opts.Threshold,
			MaxEmptyPages: opts.MaxEmptyPages,
			Logger:        opts.Logger,
			OnChange:      opts.OnChange,
		}),
	}
}

// Load fills the feed up to its target size.
func (f *Feed) Load(ctx context.Context) error {
	return f.queue.EnsureFilled(ctx)
}

// SetCurrentIndex records the video being watched and refills when the
// viewer nears the end.
func (f *Feed) SetCurrentIndex(ctx context.Context, index int) error {
	if index < 0 {
		index = 0
	}
	f.mu.Lock()
	f.index = index
	f.mu.Unlock()
	return f.queue.OnConsumptionAdvance(ctx, index)
}

// CurrentIndex returns the last index passed to SetCurrentIndex.
func (f *Feed) CurrentIndex() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index
}

// Refresh reloads from the top of the feed.
func (f *Feed) Refresh(ctx context.Context) error {
	f.mu.Lock()
	f.index = 0
	f.mu.Unlock()
	return f.queue.Refresh(ctx)
}

// Videos returns the buffered videos in feed order.
func (f *Feed) Videos() []api.Video {
	return f.queue.Items()
}

// HasMore reports whether another page may exist.
func (f *Feed) HasMore() bool {
	st := f.queue.State()
	return !st.Exhausted && !st.Empty
}

// State exposes the queue bookkeeping.
func (f *Feed) State() prefetch.State {
	return f.queue.State()
}
