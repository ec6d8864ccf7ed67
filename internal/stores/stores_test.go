package stores

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/auth"
	"github.com/homeyum/yum/internal/failure"
	"github.com/homeyum/yum/internal/fakeapi"
)

func newLibrary(t *testing.T, persist Persister) (*Library, *fakeapi.Server) {
	t.Helper()
	fake := fakeapi.New(fakeapi.Options{Videos: fakeapi.SampleVideos(6)})
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	client, err := api.NewClient(srv.URL, auth.Static("tok"))
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return NewLibrary(client, persist, Options{Now: func() time.Time { return fixed }}), fake
}

func TestScenario_ReactionToggle(t *testing.T) {
	lib, fake := newLibrary(t, nil)
	ctx := context.Background()

	got, present, err := lib.Reactions.React(ctx, "v1", api.ReactionLike)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, api.ReactionLike, got)
	r, ok := lib.Reactions.ReactionFor("v1")
	assert.True(t, ok)
	assert.Equal(t, api.ReactionLike, r)

	_, present, err = lib.Reactions.React(ctx, "v1", api.ReactionLike)
	require.NoError(t, err)
	assert.False(t, present)
	_, ok = lib.Reactions.ReactionFor("v1")
	assert.False(t, ok)
	assert.Equal(t, 1, fake.Calls(http.MethodDelete, "/api/videos/reactions/{id}"), "toggle issues a remove call")
	_, onServer := fake.Reaction("v1")
	assert.False(t, onServer)
}

func TestReactions_FailingLikeAfterToggleRestoresNone(t *testing.T) {
	lib, fake := newLibrary(t, nil)
	ctx := context.Background()

	_, _, err := lib.Reactions.React(ctx, "X", api.ReactionLike)
	require.NoError(t, err)
	_, _, err = lib.Reactions.React(ctx, "X", api.ReactionLike)
	require.NoError(t, err)

	fake.FailNext(http.MethodPost, "/api/videos/reactions", http.StatusInternalServerError, 1, "")
	_, present, err := lib.Reactions.React(ctx, "X", api.ReactionLike)
	require.Error(t, err)
	assert.True(t, errors.Is(err, failure.ErrMutation))
	assert.False(t, present)
	_, ok := lib.Reactions.ReactionFor("X")
	assert.False(t, ok)
}

func TestReactions_SwitchKeepsServerValue(t *testing.T) {
	lib, _ := newLibrary(t, nil)
	ctx := context.Background()
	_, _, err := lib.Reactions.React(ctx, "v1", api.ReactionLike)
	require.NoError(t, err)
	got, _, err := lib.Reactions.React(ctx, "v1", api.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, api.ReactionDislike, got)
	assert.Empty(t, lib.Reactions.Liked())
}

func TestReactions_Validation(t *testing.T) {
	lib, fake := newLibrary(t, nil)
	_, _, err := lib.Reactions.React(context.Background(), "v1", "LOVE")
	assert.True(t, errors.Is(err, failure.ErrValidation))
	_, _, err = lib.Reactions.React(context.Background(), " ", api.ReactionLike)
	assert.True(t, errors.Is(err, failure.ErrValidation))
	assert.Zero(t, fake.Calls(http.MethodPost, "/api/videos/reactions"))
}

func TestTryList_AddRemoveAndRollback(t *testing.T) {
	lib, fake := newLibrary(t, nil)
	ctx := context.Background()

	item, err := lib.TryList.Add(ctx, "v3", "for friday")
	require.NoError(t, err)
	assert.NotEmpty(t, item.TryListID)
	assert.NotContains(t, item.TryListID, TempIDPrefix, "server id replaces the temporary one")
	assert.True(t, lib.TryList.Contains("v3"))

	_, err = lib.TryList.Add(ctx, "v3", "again")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Calls(http.MethodPost, "/api/videos/try-list"), "adding twice is a no-op")

	fake.FailNext(http.MethodDelete, "/api/videos/try-list/{id}", http.StatusBadGateway, 1, "")
	err = lib.TryList.Remove(ctx, "v3")
	require.Error(t, err)
	assert.True(t, lib.TryList.Contains("v3"), "failed remove rolls back")

	require.NoError(t, lib.TryList.Remove(ctx, "v3"))
	assert.False(t, lib.TryList.Contains("v3"))
	assert.Empty(t, lib.TryList.Items())

	require.NoError(t, lib.TryList.Remove(ctx, "v3"))
	assert.Equal(t, 2, fake.Calls(http.MethodDelete, "/api/videos/try-list/{id}"))
}

func TestRatings_Validation(t *testing.T) {
	lib, fake := newLibrary(t, nil)
	for _, stars := range []int{0, 6, -1} {
		_, err := lib.Ratings.Rate(context.Background(), api.RateRequest{VideoID: "v1", Rating: stars})
		assert.True(t, errors.Is(err, failure.ErrValidation), "rating %d", stars)
	}
	assert.Zero(t, fake.Calls(http.MethodPost, "/api/meals/rate"))
}

func TestScenario_RatingPropagatesToSchedule(t *testing.T) {
	lib, fake := newLibrary(t, nil)
	ctx := context.Background()

	meal, err := lib.Schedule.ScheduleMeal(ctx, "v002", "2026-03-04", "18:30")
	require.NoError(t, err)
	mealID := meal.MealID
	assert.NotContains(t, mealID, TempIDPrefix)
	_, ok := lib.Schedule.Meal(mealID)
	require.True(t, ok)
	assert.Len(t, lib.Schedule.Meals(), 1, "temporary entry is re-keyed, not duplicated")

	listCalls := fake.Calls(http.MethodGet, "/api/meals/schedule")
	_, err = lib.Ratings.Rate(ctx, api.RateRequest{VideoID: "v002", MealID: mealID, Rating: 4})
	require.NoError(t, err)

	cached, ok := lib.Schedule.Meal(mealID)
	require.True(t, ok)
	require.NotNil(t, cached.Rating)
	assert.Equal(t, 4, cached.Rating.Rating)
	assert.Equal(t, listCalls, fake.Calls(http.MethodGet, "/api/meals/schedule"), "no schedule refetch")

	rating, ok := lib.Ratings.RatingFor("v002")
	require.True(t, ok)
	assert.Equal(t, 4, rating.Rating)
	assert.Len(t, lib.Schedule.Tried(), 1)
}

func TestPushRatingToSchedule_NeverCreates(t *testing.T) {
	lib, _ := newLibrary(t, nil)
	assert.False(t, PushRatingToSchedule(lib.Schedule, "m-missing", api.MealRating{Rating: 5}))
	assert.Empty(t, lib.Schedule.Meals())

	_, err := lib.Ratings.Rate(context.Background(), api.RateRequest{VideoID: "v1", MealID: "m-missing", Rating: 5})
	require.NoError(t, err)
	assert.Empty(t, lib.Schedule.Meals())
}

func TestRatings_FailureDoesNotPropagate(t *testing.T) {
	lib, fake := newLibrary(t, nil)
	ctx := context.Background()
	meal, err := lib.Schedule.ScheduleMeal(ctx, "v001", "2026-03-04", "08:00")
	require.NoError(t, err)

	fake.FailNext(http.MethodPost, "/api/meals/rate", http.StatusInternalServerError, 1, "")
	_, err = lib.Ratings.Rate(ctx, api.RateRequest{VideoID: "v001", MealID: meal.MealID, Rating: 2})
	require.Error(t, err)
	_, ok := lib.Ratings.RatingFor("v001")
	assert.False(t, ok)
	cached, _ := lib.Schedule.Meal(meal.MealID)
	assert.Nil(t, cached.Rating)
}

func TestSchedule_MoveDeleteAndQueries(t *testing.T) {
	lib, fake := newLibrary(t, nil)
	ctx := context.Background()

	dinner, err := lib.Schedule.ScheduleMeal(ctx, "v001", "2026-03-04", "18:30")
	require.NoError(t, err)
	lunch, err := lib.Schedule.ScheduleMeal(ctx, "v002", "2026-03-04", "12:00")
	require.NoError(t, err)
	_, err = lib.Schedule.ScheduleMeal(ctx, "v003", "2026-03-05", "07:30")
	require.NoError(t, err)

	day := lib.Schedule.MealsByDate("2026-03-04")
	require.Len(t, day, 2)
	assert.Equal(t, lunch.MealID, day[0].MealID)
	assert.Equal(t, dinner.MealID, day[1].MealID)

	moved, err := lib.Schedule.MoveMeal(ctx, dinner.MealID, "2026-03-06", "19:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-06", moved.MealDate)
	require.NotNil(t, moved.Video, "joined video survives the move echo")
	assert.Len(t, lib.Schedule.MealsByDate("2026-03-04"), 1)

	fake.FailNext(http.MethodPut, "/api/meals/schedule/{id}", http.StatusInternalServerError, 1, "")
	_, err = lib.Schedule.MoveMeal(ctx, dinner.MealID, "2026-03-07", "19:00")
	require.Error(t, err)
	back, _ := lib.Schedule.Meal(dinner.MealID)
	assert.Equal(t, "2026-03-06", back.MealDate)

	require.NoError(t, lib.Schedule.DeleteMeal(ctx, lunch.MealID))
	_, ok := lib.Schedule.Meal(lunch.MealID)
	assert.False(t, ok)
	assert.Len(t, lib.Schedule.Meals(), 2)

	_, err = lib.Schedule.MoveMeal(ctx, "nope", "2026-03-07", "19:00")
	assert.True(t, errors.Is(err, failure.ErrNotFound))
	_, err = lib.Schedule.ScheduleMeal(ctx, "v001", "03/04/2026", "18:30")
	assert.True(t, errors.Is(err, failure.ErrValidation))
	_, err = lib.Schedule.ScheduleMeal(ctx, "v001", "2026-03-04", "6pm")
	assert.True(t, errors.Is(err, failure.ErrValidation))
}

func TestSchedule_FailedScheduleLeavesNothing(t *testing.T) {
	lib, fake := newLibrary(t, nil)
	fake.FailNext(http.MethodPost, "/api/meals/schedule", http.StatusInternalServerError, 1, "")
	_, err := lib.Schedule.ScheduleMeal(context.Background(), "v001", "2026-03-04", "18:30")
	require.Error(t, err)
	assert.Empty(t, lib.Schedule.Meals())
}

func TestMealPeriod(t *testing.T) {
	tests := map[string]string{
		"07:30": "Breakfast",
		"10:59": "Breakfast",
		"11:00": "Lunch",
		"15:45": "Lunch",
		"16:00": "Dinner",
		"21:15": "Dinner",
		"later": "",
	}
	for clock, want := range tests {
		assert.Equal(t, want, MealPeriod(clock), clock)
	}
}

// heldBackend holds chosen responses after the server has applied them, so
// replies reach the stores out of order.
type heldBackend struct {
	*api.Client
	holdRating int
	holdMove   bool
	entered    chan struct{}
	release    chan struct{}
}

func (b *heldBackend) RateMeal(ctx context.Context, req api.RateRequest) (api.MealRating, error) {
	saved, err := b.Client.RateMeal(ctx, req)
	if req.Rating == b.holdRating {
		b.hold()
	}
	return saved, err
}

func (b *heldBackend) UpdateMealSchedule(ctx context.Context, mealID string, req api.ScheduleRequest) (api.Meal, error) {
	saved, err := b.Client.UpdateMealSchedule(ctx, mealID, req)
	if b.holdMove {
		b.hold()
	}
	return saved, err
}

func (b *heldBackend) hold() {
	close(b.entered)
	<-b.release
}

func newHeldLibrary(t *testing.T, holdRating int, holdMove bool) (*Library, *heldBackend) {
	t.Helper()
	fake := fakeapi.New(fakeapi.Options{Videos: fakeapi.SampleVideos(6)})
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	client, err := api.NewClient(srv.URL, auth.Static("tok"))
	require.NoError(t, err)
	held := &heldBackend{
		Client:     client,
		holdRating: holdRating,
		holdMove:   holdMove,
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	return NewLibrary(held, nil, Options{}), held
}

func TestRatings_LateReplyDoesNotReachSchedule(t *testing.T) {
	lib, held := newHeldLibrary(t, 3, false)
	ctx := context.Background()

	meal, err := lib.Schedule.ScheduleMeal(ctx, "v002", "2026-03-04", "18:30")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := lib.Ratings.Rate(ctx, api.RateRequest{VideoID: "v002", MealID: meal.MealID, Rating: 3})
		done <- err
	}()
	<-held.entered

	_, err = lib.Ratings.Rate(ctx, api.RateRequest{VideoID: "v002", MealID: meal.MealID, Rating: 5})
	require.NoError(t, err)
	close(held.release)
	require.NoError(t, <-done)

	rating, ok := lib.Ratings.RatingFor("v002")
	require.True(t, ok)
	assert.Equal(t, 5, rating.Rating)
	cached, ok := lib.Schedule.Meal(meal.MealID)
	require.True(t, ok)
	require.NotNil(t, cached.Rating)
	assert.Equal(t, 5, cached.Rating.Rating, "schedule must agree with the ratings store")
}

func TestSchedule_RatingDuringMoveSurvives(t *testing.T) {
	lib, held := newHeldLibrary(t, 0, false)
	ctx := context.Background()

	meal, err := lib.Schedule.ScheduleMeal(ctx, "v002", "2026-03-01", "18:30")
	require.NoError(t, err)
	held.holdMove = true

	done := make(chan error, 1)
	go func() {
		_, err := lib.Schedule.MoveMeal(ctx, meal.MealID, "2026-03-02", "19:00")
		done <- err
	}()
	<-held.entered

	_, err = lib.Ratings.Rate(ctx, api.RateRequest{VideoID: "v002", MealID: meal.MealID, Rating: 4})
	require.NoError(t, err)
	close(held.release)
	require.NoError(t, <-done)

	cached, ok := lib.Schedule.Meal(meal.MealID)
	require.True(t, ok)
	assert.Equal(t, "2026-03-02", cached.MealDate)
	require.NotNil(t, cached.Rating, "rating pushed during the move was lost")
	assert.Equal(t, 4, cached.Rating.Rating)
}
