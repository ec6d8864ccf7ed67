package stores

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/logging"
)

// Collection names used for local snapshots.
const (
	CollectionReactions = "reactions"
	CollectionTryList   = "trylist"
	CollectionRatings   = "ratings"
	CollectionSchedule  = "schedule"
)

// Backend is every endpoint the library needs.
type Backend interface {
	ReactionBackend
	TryListBackend
	RatingBackend
	ScheduleBackend
}

// Persister keeps confirmed entities between runs.
type Persister interface {
	SaveCollection(ctx context.Context, collection string, entries map[string][]byte) error
	LoadCollection(ctx context.Context, collection string) (map[string][]byte, error)
}

// Library is the user's reactions, try list, ratings and schedule.
type Library struct {
	Reactions *Reactions
	TryList   *TryList
	Ratings   *Ratings
	Schedule  *Schedule

	persist Persister
	logger  *slog.Logger
}

// NewLibrary builds the four stores and wires rating propagation. persist
// may be nil.
func NewLibrary(backend Backend, persist Persister, opts Options) *Library {
	l := &Library{
		Reactions: NewReactions(backend, opts),
		TryList:   NewTryList(backend, opts),
		Ratings:   NewRatings(backend, opts),
		Schedule:  NewSchedule(backend, opts),
		persist:   persist,
		logger:    logging.NewComponentLogger(opts.Logger, "library"),
	}
	l.Ratings.OnRated(func(mealID string, rating api.MealRating) {
		if !PushRatingToSchedule(l.Schedule, mealID, rating) {
			l.logger.Debug("rated meal not in local schedule", logging.String("meal_id", mealID))
		}
	})
	return l
}

// Initialize loads all four stores from the server in parallel. Missing
// lists load as empty. The first error is returned after every load has
// finished; stores that did load keep their data.
func (l *Library) Initialize(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return wrapLoad(CollectionReactions, l.Reactions.Load(ctx)) })
	g.Go(func() error { return wrapLoad(CollectionTryList, l.TryList.Load(ctx)) })
	g.Go(func() error { return wrapLoad(CollectionRatings, l.Ratings.Load(ctx)) })
	g.Go(func() error { return wrapLoad(CollectionSchedule, l.Schedule.Load(ctx)) })
	err := g.Wait()
	if err != nil {
		l.logger.Warn("library load incomplete", logging.Error(err))
	}
	if perr := l.Persist(ctx); perr != nil {
		l.logger.Warn("persist library snapshot failed", logging.Error(perr))
	}
	return err
}

func wrapLoad(collection string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", collection, err)
	}
	return nil
}

// Persist writes every store's confirmed values to the persister.
func (l *Library) Persist(ctx context.Context) error {
	if l.persist == nil {
		return nil
	}
	return errors.Join(
		save(ctx, l.persist, CollectionReactions, l.Reactions.confirmed()),
		save(ctx, l.persist, CollectionTryList, l.TryList.confirmed()),
		save(ctx, l.persist, CollectionRatings, l.Ratings.confirmed()),
		save(ctx, l.persist, CollectionSchedule, l.Schedule.confirmed()),
	)
}

// Restore seeds the stores from the last persisted snapshot so the UI has
// something to show before Initialize returns.
func (l *Library) Restore(ctx context.Context) error {
	if l.persist == nil {
		return nil
	}
	var errs []error
	if v, err := load[api.ReactionType](ctx, l.persist, CollectionReactions); err != nil {
		errs = append(errs, err)
	} else if len(v) > 0 {
		l.Reactions.restore(v)
	}
	if v, err := load[api.TryListItem](ctx, l.persist, CollectionTryList); err != nil {
		errs = append(errs, err)
	} else if len(v) > 0 {
		l.TryList.restore(v)
	}
	if v, err := load[api.MealRating](ctx, l.persist, CollectionRatings); err != nil {
		errs = append(errs, err)
	} else if len(v) > 0 {
		l.Ratings.restore(v)
	}
	if v, err := load[api.Meal](ctx, l.persist, CollectionSchedule); err != nil {
		errs = append(errs, err)
	} else if len(v) > 0 {
		l.Schedule.restore(v)
	}
	return errors.Join(errs...)
}

func save[V any](ctx context.Context, p Persister, collection string, values map[string]V) error {
	entries := make(map[string][]byte, len(values))
	for k, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", collection, k, err)
		}
		entries[k] = raw
	}
	if err := p.SaveCollection(ctx, collection, entries); err != nil {
		return fmt.Errorf("save %s: %w", collection, err)
	}
	return nil
}

func load[V any](ctx context.Context, p Persister, collection string) (map[string]V, error) {
	entries, err := p.LoadCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("load %s snapshot: %w", collection, err)
	}
	out := make(map[string]V, len(entries))
	for k, raw := range entries {
		var v V
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, k, err)
		}
		out[k] = v
	}
	return out, nil
}
