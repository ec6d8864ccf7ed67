package app

import (
	"context"
	"strings"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/jobs"
	"github.com/homeyum/yum/internal/logging"
	"github.com/homeyum/yum/internal/prefs"
	"github.com/homeyum/yum/internal/search"
	"github.com/homeyum/yum/internal/state"
	"github.com/homeyum/yum/internal/stores"
)

// Snapshot returns the latest published view.
func (a *App) Snapshot() state.Snapshot { return a.store.Snapshot() }

// Changed receives a value whenever a new snapshot is published. Signals
// coalesce; a reader sees at most one pending.
func (a *App) Changed() <-chan struct{} { return a.changed }

// Prefs returns the current preferences.
func (a *App) Prefs() prefs.Prefs {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.prefs
}

// UpdatePrefs applies fn and saves the result.
func (a *App) UpdatePrefs(fn func(*prefs.Prefs)) error {
	a.mu.Lock()
	fn(&a.prefs)
	p := a.prefs
	a.mu.Unlock()
	return prefs.Save(a.prefsPath, p)
}

// Library exposes the user stores for read access.
func (a *App) Library() *stores.Library { return a.library }

// Job returns the tracked job of kind.
func (a *App) Job(kind jobs.Kind) jobs.Job { return a.tracker(kind).Job() }

func (a *App) tracker(kind jobs.Kind) *jobs.Tracker {
	if kind == jobs.KindManualPrompt {
		return a.manual
	}
	return a.links
}

// SubmitLink starts a recipe import from a video URL.
func (a *App) SubmitLink(ctx context.Context, url string) (jobs.Job, error) {
	return a.links.Submit(ctx, url)
}

// SubmitPrompt starts a recipe generated from a free-text description.
func (a *App) SubmitPrompt(ctx context.Context, text string) (jobs.Job, error) {
	return a.manual.Submit(ctx, text)
}

// ReviseRecipe asks for changes to the draft manual recipe.
func (a *App) ReviseRecipe(ctx context.Context, recipeUpdates, imageUpdates string) (jobs.Job, error) {
	return a.manual.Revise(ctx, recipeUpdates, imageUpdates)
}

// ConfirmRecipe accepts the draft manual recipe.
func (a *App) ConfirmRecipe(ctx context.Context) (jobs.Job, error) {
	return a.manual.Confirm(ctx)
}

// ResumeJob starts tracking jobID, or the last known job of kind when jobID
// is empty.
func (a *App) ResumeJob(ctx context.Context, kind jobs.Kind, jobID string) (jobs.Job, error) {
	return a.tracker(kind).Resume(ctx, jobID)
}

// WaitJob blocks until the job of kind settles or ctx ends.
func (a *App) WaitJob(ctx context.Context, kind jobs.Kind) (jobs.Job, error) {
	return a.tracker(kind).Wait(ctx)
}

// ResetJob stops tracking the job of kind.
func (a *App) ResetJob(kind jobs.Kind) { a.tracker(kind).Reset() }

// LoadFeed fills the feed if it is not already full.
func (a *App) LoadFeed(ctx context.Context) error { return a.feed.Load(ctx) }

// Videos returns the buffered feed.
func (a *App) Videos() []api.Video { return a.feed.Videos() }

// WatchFeed records the feed position being viewed.
func (a *App) WatchFeed(ctx context.Context, index int) error {
	return a.feed.SetCurrentIndex(ctx, index)
}

// RefreshFeed reloads the feed from the top.
func (a *App) RefreshFeed(ctx context.Context) error { return a.feed.Refresh(ctx) }

// Search starts a new external search and remembers the query.
func (a *App) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	err := a.search.SetQuery(ctx, query)
	if query != "" {
		if perr := a.UpdatePrefs(func(p *prefs.Prefs) { p.LastQuery = query }); perr != nil {
			a.logger.Warn("save last query failed", logging.Error(perr))
		}
	}
	return err
}

// SearchResults returns the admitted results for the current query.
func (a *App) SearchResults() []search.Video { return a.search.Results() }

// WatchSearch records the search position being viewed.
func (a *App) WatchSearch(ctx context.Context, index int) error {
	return a.search.SetCurrentIndex(ctx, index)
}

// RetrySearch resumes a search that gave up after empty pages.
func (a *App) RetrySearch(ctx context.Context) error { return a.search.Retry(ctx) }

// React likes or dislikes a video; repeating the current reaction clears it.
func (a *App) React(ctx context.Context, videoID string, reaction api.ReactionType) (api.ReactionType, bool, error) {
	return a.library.Reactions.React(ctx, videoID, reaction)
}

// ToggleTry adds videoID to the try list, or removes it when present. It
// reports whether the video is on the list afterwards.
func (a *App) ToggleTry(ctx context.Context, videoID string) (bool, error) {
	if a.library.TryList.Contains(videoID) {
		if err := a.library.TryList.Remove(ctx, videoID); err != nil {
			return true, err
		}
		return false, nil
	}
	if _, err := a.library.TryList.Add(ctx, videoID, ""); err != nil {
		return false, err
	}
	return true, nil
}

// Rate rates a video, and the scheduled meal when req names one.
func (a *App) Rate(ctx context.Context, req api.RateRequest) (api.MealRating, error) {
	return a.library.Ratings.Rate(ctx, req)
}

// ScheduleMeal plans videoID. An empty clock uses the preferred meal time.
func (a *App) ScheduleMeal(ctx context.Context, videoID, date, clock string) (api.Meal, error) {
	if strings.TrimSpace(clock) == "" {
		clock = a.Prefs().MealTime
	}
	return a.library.Schedule.ScheduleMeal(ctx, videoID, date, clock)
}

// MoveMeal changes when a scheduled meal happens.
func (a *App) MoveMeal(ctx context.Context, mealID, date, clock string) (api.Meal, error) {
	return a.library.Schedule.MoveMeal(ctx, mealID, date, clock)
}

// DeleteMeal removes a scheduled meal.
func (a *App) DeleteMeal(ctx context.Context, mealID string) error {
	return a.library.Schedule.DeleteMeal(ctx, mealID)
}

// Reaction returns the visible reaction for videoID.
func (a *App) Reaction(videoID string) (api.ReactionType, bool) {
	return a.library.Reactions.ReactionFor(videoID)
}

// OnTryList reports whether videoID is on the try list.
func (a *App) OnTryList(videoID string) bool { return a.library.TryList.Contains(videoID) }

// TryList returns the try list, newest first.
func (a *App) TryList() []api.TryListItem { return a.library.TryList.Items() }

// Meals returns every scheduled meal in date order.
func (a *App) Meals() []api.Meal { return a.library.Schedule.Meals() }
