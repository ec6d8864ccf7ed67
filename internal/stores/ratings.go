package stores

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/failure"
	"github.com/homeyum/yum/internal/optimistic"
)

const (
	MinRating = 1
	MaxRating = 5
)

// RatingBackend is the ratings endpoint.
type RatingBackend interface {
	RateMeal(ctx context.Context, req api.RateRequest) (api.MealRating, error)
	ListRatings(ctx context.Context) ([]api.MealRating, error)
}

// Ratings maps video id to the user's latest rating.
type Ratings struct {
	backend RatingBackend
	store   *optimistic.Coordinator[api.MealRating]
	opts    Options
	// onRated runs after a rating tied to a meal is confirmed.
	onRated func(mealID string, rating api.MealRating)
	pushMu  sync.Mutex
}

// NewRatings builds an empty rating store.
func NewRatings(backend RatingBackend, opts Options) *Ratings {
	return &Ratings{
		backend: backend,
		store:   optimistic.New[api.MealRating](opts.coordinator("ratings")),
		opts:    opts,
	}
}

// OnRated registers the hook run after a meal rating is confirmed.
func (r *Ratings) OnRated(fn func(mealID string, rating api.MealRating)) {
	r.onRated = fn
}

// Rate records req.Rating stars for req.VideoID.
func (r *Ratings) Rate(ctx context.Context, req api.RateRequest) (api.MealRating, error) {
	req.VideoID = strings.TrimSpace(req.VideoID)
	if req.VideoID == "" {
		return api.MealRating{}, failure.Validation("ratings", "rate", "video id required")
	}
	if req.Rating < MinRating || req.Rating > MaxRating {
		return api.MealRating{}, failure.Validation("ratings", "rate", fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}

	draft, ok := r.store.Get(req.VideoID)
	if !ok {
		draft = api.MealRating{RatingID: TempIDPrefix + uuid.NewString(), VideoID: req.VideoID, CreatedAt: r.opts.timestamp()}
	}
	draft.Rating = req.Rating
	draft.Comment = req.Comment
	draft.UpdatedAt = r.opts.timestamp()
	if req.MealID != "" {
		draft.MealID = req.MealID
	}

	got, applied, err := r.store.Apply(ctx, req.VideoID, optimistic.Some(draft), func(ctx context.Context) (optimistic.Value[api.MealRating], bool, error) {
		saved, err := r.backend.RateMeal(ctx, req)
		if err != nil || saved.RatingID == "" {
			return optimistic.Value[api.MealRating]{}, false, err
		}
		if saved.VideoID == "" {
			saved.VideoID = req.VideoID
		}
		if saved.MealID == "" {
			saved.MealID = draft.MealID
		}
		return optimistic.Some(saved), true, nil
	})
	if err != nil {
		return got.Data, err
	}
	if applied {
		r.propagate(req.VideoID)
	}
	return got.Data, nil
}

// propagate hands the confirmed rating for videoID to onRated. Pushes are
// serialized and read the confirmed value at push time, so the last push
// carries the newest rating.
func (r *Ratings) propagate(videoID string) {
	if r.onRated == nil {
		return
	}
	r.pushMu.Lock()
	defer r.pushMu.Unlock()
	rating, ok := r.store.ConfirmedValue(videoID)
	if !ok || rating.MealID == "" {
		return
	}
	r.onRated(rating.MealID, rating)
}

// RatingFor returns the visible rating for videoID.
func (r *Ratings) RatingFor(videoID string) (api.MealRating, bool) {
	return r.store.Get(videoID)
}

// Rated returns every rating, most recently updated first.
func (r *Ratings) Rated() []api.MealRating {
	snap := r.store.Snapshot()
	out := make([]api.MealRating, 0, len(snap))
	for _, rating := range snap {
		out = append(out, rating)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].VideoID < out[j].VideoID
	})
	return out
}

// Load replaces local state with the server's list.
func (r *Ratings) Load(ctx context.Context) error {
	list, err := r.backend.ListRatings(ctx)
	if err != nil {
		return err
	}
	values := make(map[string]api.MealRating, len(list))
	for _, rating := range list {
		if rating.VideoID != "" {
			values[rating.VideoID] = rating
		}
	}
	r.store.Replace(values)
	return nil
}

func (r *Ratings) confirmed() map[string]api.MealRating { return r.store.Confirmed() }

func (r *Ratings) restore(values map[string]api.MealRating) { r.store.Replace(values) }
