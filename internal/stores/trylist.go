package stores

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/failure"
	"github.com/homeyum/yum/internal/optimistic"
)

// TryListBackend is the try-list endpoint.
type TryListBackend interface {
	AddToTryList(ctx context.Context, videoID, notes string) (api.TryListItem, error)
	RemoveFromTryList(ctx context.Context, videoID string) error
	ListTryList(ctx context.Context) ([]api.TryListItem, error)
}

// TempIDPrefix marks ids minted locally before the server assigns one.
const TempIDPrefix = "temp-"

// TryList maps video id to the saved item.
type TryList struct {
	backend TryListBackend
	store   *optimistic.Coordinator[api.TryListItem]
	opts    Options
}

// NewTryList builds an empty try list.
func NewTryList(backend TryListBackend, opts Options) *TryList {
	return &TryList{
		backend: backend,
		store:   optimistic.New[api.TryListItem](opts.coordinator("trylist")),
		opts:    opts,
	}
}

// Add saves videoID. Adding a video already on the list is a no-op.
func (t *TryList) Add(ctx context.Context, videoID, notes string) (api.TryListItem, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return api.TryListItem{}, failure.Validation("trylist", "add", "video id required")
	}
	if item, ok := t.store.Get(videoID); ok {
		return item, nil
	}
	draft := api.TryListItem{
		TryListID: TempIDPrefix + uuid.NewString(),
		VideoID:   videoID,
		AddedDate: t.opts.timestamp(),
		Notes:     notes,
	}
	got, _, err := t.store.Apply(ctx, videoID, optimistic.Some(draft), func(ctx context.Context) (optimistic.Value[api.TryListItem], bool, error) {
		saved, err := t.backend.AddToTryList(ctx, videoID, notes)
		if err != nil || saved.TryListID == "" {
			return optimistic.Value[api.TryListItem]{}, false, err
		}
		if saved.VideoID == "" {
			saved.VideoID = videoID
		}
		return optimistic.Some(saved), true, nil
	})
	return got.Data, err
}

// Remove drops videoID. Removing a video not on the list is a no-op.
func (t *TryList) Remove(ctx context.Context, videoID string) error {
	videoID = strings.TrimSpace(videoID)
	if _, ok := t.store.Get(videoID); !ok {
		return nil
	}
	_, _, err := t.store.Apply(ctx, videoID, optimistic.None[api.TryListItem](), func(ctx context.Context) (optimistic.Value[api.TryListItem], bool, error) {
		return optimistic.Value[api.TryListItem]{}, false, t.backend.RemoveFromTryList(ctx, videoID)
	})
	return err
}

// Contains reports whether videoID is on the list.
func (t *TryList) Contains(videoID string) bool {
	_, ok := t.store.Get(videoID)
	return ok
}

// Items returns the list, newest first.
func (t *TryList) Items() []api.TryListItem {
	snap := t.store.Snapshot()
	out := make([]api.TryListItem, 0, len(snap))
	for _, item := range snap {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedDate != out[j].AddedDate {
			return out[i].AddedDate > out[j].AddedDate
		}
		return out[i].VideoID < out[j].VideoID
	})
	return out
}

// Load replaces local state with the server's list.
func (t *TryList) Load(ctx context.Context) error {
	list, err := t.backend.ListTryList(ctx)
	if err != nil {
		return err
	}
	values := make(map[string]api.TryListItem, len(list))
	for _, item := range list {
		if item.VideoID != "" {
			values[item.VideoID] = item
		}
	}
	t.store.Replace(values)
	return nil
}

func (t *TryList) confirmed() map[string]api.TryListItem { return t.store.Confirmed() }

func (t *TryList) restore(values map[string]api.TryListItem) { t.store.Replace(values) }
