package stores

import (
	"context"
	"sort"
	"strings"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/failure"
	"github.com/homeyum/yum/internal/optimistic"
)

// ReactionBackend is the reactions endpoint.
type ReactionBackend interface {
	AddReaction(ctx context.Context, videoID string, reaction api.ReactionType) (api.Reaction, error)
	RemoveReaction(ctx context.Context, videoID string) error
	ListReactions(ctx context.Context) ([]api.Reaction, error)
}

// Reactions maps video id to the user's reaction.
type Reactions struct {
	backend ReactionBackend
	store   *optimistic.Coordinator[api.ReactionType]
}

// NewReactions builds an empty reaction store.
func NewReactions(backend ReactionBackend, opts Options) *Reactions {
	return &Reactions{
		backend: backend,
		store:   optimistic.New[api.ReactionType](opts.coordinator("reactions")),
	}
}

// React applies reaction to videoID. Reacting with the reaction the user
// already has clears it. It returns the reaction left visible afterwards.
func (r *Reactions) React(ctx context.Context, videoID string, reaction api.ReactionType) (api.ReactionType, bool, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", false, failure.Validation("reactions", "react", "video id required")
	}
	if !reaction.Valid() {
		return "", false, failure.Validation("reactions", "react", "unknown reaction "+string(reaction))
	}

	var (
		next optimistic.Value[api.ReactionType]
		send optimistic.SendFunc[api.ReactionType]
	)
	if current, ok := r.store.Get(videoID); ok && current == reaction {
		next = optimistic.None[api.ReactionType]()
		send = func(ctx context.Context) (optimistic.Value[api.ReactionType], bool, error) {
			return next, false, r.backend.RemoveReaction(ctx, videoID)
		}
	} else {
		next = optimistic.Some(reaction)
		send = func(ctx context.Context) (optimistic.Value[api.ReactionType], bool, error) {
			saved, err := r.backend.AddReaction(ctx, videoID, reaction)
			if err != nil || !saved.ReactionType.Valid() {
				return next, false, err
			}
			return optimistic.Some(saved.ReactionType), true, nil
		}
	}
	got, _, err := r.store.Apply(ctx, videoID, next, send)
	return got.Data, got.Present, err
}

// ReactionFor returns the visible reaction for videoID.
func (r *Reactions) ReactionFor(videoID string) (api.ReactionType, bool) {
	return r.store.Get(videoID)
}

// Liked returns the ids of liked videos, sorted.
func (r *Reactions) Liked() []string {
	var out []string
	for id, reaction := range r.store.Snapshot() {
		if reaction == api.ReactionLike {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// All copies the visible reactions.
func (r *Reactions) All() map[string]api.ReactionType {
	return r.store.Snapshot()
}

// Load replaces local state with the server's list.
func (r *Reactions) Load(ctx context.Context) error {
	list, err := r.backend.ListReactions(ctx)
	if err != nil {
		return err
	}
	values := make(map[string]api.ReactionType, len(list))
	for _, reaction := range list {
		if reaction.VideoID != "" && reaction.ReactionType.Valid() {
			values[reaction.VideoID] = reaction.ReactionType
		}
	}
	r.store.Replace(values)
	return nil
}

func (r *Reactions) confirmed() map[string]api.ReactionType { return r.store.Confirmed() }

func (r *Reactions) restore(values map[string]api.ReactionType) { r.store.Replace(values) }
