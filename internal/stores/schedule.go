package stores

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/failure"
	"github.com/homeyum/yum/internal/optimistic"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ScheduleBackend is the meal schedule endpoint.
type ScheduleBackend interface {
	ScheduleMeal(ctx context.Context, req api.ScheduleRequest) (api.Meal, error)
	UpdateMealSchedule(ctx context.Context, mealID string, req api.ScheduleRequest) (api.Meal, error)
	DeleteMealSchedule(ctx context.Context, mealID string) error
	ListScheduledMeals(ctx context.Context) ([]api.Meal, error)
}

// Schedule maps meal id to the scheduled meal.
type Schedule struct {
	backend ScheduleBackend
	store   *optimistic.Coordinator[api.Meal]
	opts    Options
}

// NewSchedule builds an empty schedule.
func NewSchedule(backend ScheduleBackend, opts Options) *Schedule {
	return &Schedule{
		backend: backend,
		store:   optimistic.New[api.Meal](opts.coordinator("schedule")).MergeWith(mergeMeal),
		opts:    opts,
	}
}

func validateSlot(op, date, clock string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return failure.Validation("schedule", op, "meal date must be YYYY-MM-DD")
	}
	if _, err := time.Parse(TimeLayout, clock); err != nil {
		return failure.Validation("schedule", op, "meal time must be HH:MM")
	}
	return nil
}

// ScheduleMeal plans videoID for date at clock. The meal shows up at once
// under a temporary id and moves to the server id when confirmed.
func (s *Schedule) ScheduleMeal(ctx context.Context, videoID, date, clock string) (api.Meal, error) {
	videoID, date, clock = strings.TrimSpace(videoID), strings.TrimSpace(date), strings.TrimSpace(clock)
	if videoID == "" {
		return api.Meal{}, failure.Validation("schedule", "schedule", "video id required")
	}
	if err := validateSlot("schedule", date, clock); err != nil {
		return api.Meal{}, err
	}

	now := s.opts.timestamp()
	tempID := TempIDPrefix + uuid.NewString()
	draft := api.Meal{MealID: tempID, VideoID: videoID, MealDate: date, MealTime: clock, CreatedAt: now, UpdatedAt: now}

	var saved api.Meal
	got, _, err := s.store.Apply(ctx, tempID, optimistic.Some(draft), func(ctx context.Context) (optimistic.Value[api.Meal], bool, error) {
		var err error
		saved, err = s.backend.ScheduleMeal(ctx, api.ScheduleRequest{VideoID: videoID, MealDate: date, MealTime: clock})
		if err != nil || saved.MealID == "" {
			return optimistic.Value[api.Meal]{}, false, err
		}
		return optimistic.Some(saved), true, nil
	})
	if err != nil {
		return api.Meal{}, err
	}
	if saved.MealID != "" {
		s.store.Rekey(tempID, saved.MealID)
		return saved, nil
	}
	return got.Data, nil
}

// MoveMeal reschedules an existing meal.
func (s *Schedule) MoveMeal(ctx context.Context, mealID, date, clock string) (api.Meal, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if err := validateSlot("move", date, clock); err != nil {
		return api.Meal{}, err
	}
	current, ok := s.store.Get(mealID)
	if !ok {
		return api.Meal{}, failure.Wrap(failure.ErrNotFound, "schedule", "move", "meal "+mealID+" not scheduled", nil)
	}
	if strings.HasPrefix(mealID, TempIDPrefix) {
		return api.Meal{}, failure.Validation("schedule", "move", "meal is still being scheduled")
	}

	draft := current
	draft.MealDate = date
	draft.MealTime = clock
	draft.UpdatedAt = s.opts.timestamp()

	got, _, err := s.store.Apply(ctx, mealID, optimistic.Some(draft), func(ctx context.Context) (optimistic.Value[api.Meal], bool, error) {
		saved, err := s.backend.UpdateMealSchedule(ctx, mealID, api.ScheduleRequest{MealDate: date, MealTime: clock})
		if err != nil || saved.MealID == "" {
			return optimistic.Value[api.Meal]{}, false, err
		}
		return optimistic.Some(saved), true, nil
	})
	return got.Data, err
}

// DeleteMeal removes a scheduled meal.
func (s *Schedule) DeleteMeal(ctx context.Context, mealID string) error {
	if _, ok := s.store.Get(mealID); !ok {
		return nil
	}
	_, _, err := s.store.Apply(ctx, mealID, optimistic.None[api.Meal](), func(ctx context.Context) (optimistic.Value[api.Meal], bool, error) {
		return optimistic.Value[api.Meal]{}, false, s.backend.DeleteMealSchedule(ctx, mealID)
	})
	return err
}

// mergeMeal fills the joined fields a schedule echo omits from the local
// meal, which may have been rated while the request was in flight.
func mergeMeal(server, local api.Meal) api.Meal {
	if server.Video == nil {
		server.Video = local.Video
	}
	if server.Rating == nil {
		server.Rating = local.Rating
	}
	return server
}

// SetMealRating writes rating into the cached meal. It reports false, and
// creates nothing, when the meal is not held locally.
func (s *Schedule) SetMealRating(mealID string, rating api.MealRating) bool {
	if mealID == "" {
		return false
	}
	return s.store.Update(mealID, func(m api.Meal) api.Meal {
		r := rating
		m.Rating = &r
		return m
	})
}

// Meal returns the cached meal.
func (s *Schedule) Meal(mealID string) (api.Meal, bool) {
	return s.store.Get(mealID)
}

// Meals returns every meal ordered by date then time.
func (s *Schedule) Meals() []api.Meal {
	out := s.values()
	sort.Slice(out, func(i, j int) bool { return mealBefore(out[i], out[j]) })
	return out
}

// MealsByDate returns the meals on date ordered by time.
func (s *Schedule) MealsByDate(date string) []api.Meal {
	var out []api.Meal
	for _, m := range s.values() {
		if m.MealDate == date {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return mealBefore(out[i], out[j]) })
	return out
}

// Tried returns rated meals, newest date first.
func (s *Schedule) Tried() []api.Meal {
	var out []api.Meal
	for _, m := range s.values() {
		if m.Rating != nil {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return mealBefore(out[j], out[i]) })
	return out
}

// Load replaces local state with the server's list.
func (s *Schedule) Load(ctx context.Context) error {
	list, err := s.backend.ListScheduledMeals(ctx)
	if err != nil {
		return err
	}
	values := make(map[string]api.Meal, len(list))
	for _, m := range list {
		if m.MealID != "" {
			values[m.MealID] = m
		}
	}
	s.store.Replace(values)
	return nil
}

func (s *Schedule) values() []api.Meal {
	snap := s.store.Snapshot()
	out := make([]api.Meal, 0, len(snap))
	for _, m := range snap {
		out = append(out, m)
	}
	return out
}

func (s *Schedule) confirmed() map[string]api.Meal { return s.store.Confirmed() }

func (s *Schedule) restore(values map[string]api.Meal) { s.store.Replace(values) }

func mealBefore(a, b api.Meal) bool {
	if a.MealDate != b.MealDate {
		return a.MealDate < b.MealDate
	}
	if a.MealTime != b.MealTime {
		return a.MealTime < b.MealTime
	}
	return a.MealID < b.MealID
}

// MealPeriod names the part of the day an HH:MM time falls in.
func MealPeriod(clock string) string {
	hour, err := strconv.Atoi(strings.SplitN(clock, ":", 2)[0])
	switch {
	case err != nil:
		return ""
	case hour < 11:
		return "Breakfast"
	case hour < 16:
		return "Lunch"
	default:
		return "Dinner"
	}
}
