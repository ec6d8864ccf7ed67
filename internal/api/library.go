package api

import (
	"context"
	"net/http"
)

const (
	reactionsPath = "/api/videos/reactions"
	tryListPath   = "/api/videos/try-list"
	ratingsPath   = "/api/meals/ratings"
	ratePath      = "/api/meals/rate"
	schedulePath  = "/api/meals/schedule"
)

// AddReaction records a reaction and returns the stored value.
func (c *Client) AddReaction(ctx context.Context, videoID string, reaction ReactionType) (Reaction, error) {
	var payload Reaction
	body := struct {
		VideoID      string       `json:"videoId"`
		ReactionType ReactionType `json:"reactionType"`
	}{videoID, reaction}
	if err := c.do(ctx, http.MethodPost, reactionsPath, nil, body, &payload); err != nil {
		return Reaction{}, err
	}
	return payload, nil
}

// RemoveReaction clears the user's reaction on a video.
func (c *Client) RemoveReaction(ctx context.Context, videoID string) error {
	return c.do(ctx, http.MethodDelete, idPath(reactionsPath, videoID), nil, nil, nil)
}

// ListReactions returns all of the user's reactions.
func (c *Client) ListReactions(ctx context.Context) ([]Reaction, error) {
	var payload []Reaction
	if err := c.list(ctx, reactionsPath, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// AddToTryList saves a video to the try list.
func (c *Client) AddToTryList(ctx context.Context, videoID, notes string) (TryListItem, error) {
	var payload TryListItem
	body := struct {
		VideoID string `json:"videoId"`
		Notes   string `json:"notes,omitempty"`
	}{videoID, notes}
	if err := c.do(ctx, http.MethodPost, tryListPath, nil, body, &payload); err != nil {
		return TryListItem{}, err
	}
	return payload, nil
}

// RemoveFromTryList drops a video from the try list.
func (c *Client) RemoveFromTryList(ctx context.Context, videoID string) error {
	return c.do(ctx, http.MethodDelete, idPath(tryListPath, videoID), nil, nil, nil)
}

// ListTryList returns the user's try list.
func (c *Client) ListTryList(ctx context.Context) ([]TryListItem, error) {
	var payload []TryListItem
	if err := c.list(ctx, tryListPath, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// RateMeal stores a rating for a cooked meal.
func (c *Client) RateMeal(ctx context.Context, req RateRequest) (MealRating, error) {
	var payload MealRating
	if err := c.do(ctx, http.MethodPost, ratePath, nil, req, &payload); err != nil {
		return MealRating{}, err
	}
	return payload, nil
}

// ListRatings returns all ratings the user has left.
func (c *Client) ListRatings(ctx context.Context) ([]MealRating, error) {
	var payload []MealRating
	if err := c.list(ctx, ratingsPath, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ScheduleMeal plans a meal for a video.
func (c *Client) ScheduleMeal(ctx context.Context, req ScheduleRequest) (Meal, error) {
	var payload Meal
	if err := c.do(ctx, http.MethodPost, schedulePath, nil, req, &payload); err != nil {
		return Meal{}, err
	}
	return payload, nil
}

// UpdateMealSchedule moves a scheduled meal to a new date and time.
func (c *Client) UpdateMealSchedule(ctx context.Context, mealID string, req ScheduleRequest) (Meal, error) {
	var payload Meal
	req.VideoID = ""
	if err := c.do(ctx, http.MethodPut, idPath(schedulePath, mealID), nil, req, &payload); err != nil {
		return Meal{}, err
	}
	return payload, nil
}

// DeleteMealSchedule removes a scheduled meal.
func (c *Client) DeleteMealSchedule(ctx context.Context, mealID string) error {
	return c.do(ctx, http.MethodDelete, idPath(schedulePath, mealID), nil, nil, nil)
}

// ListScheduledMeals returns every scheduled meal for the user.
func (c *Client) ListScheduledMeals(ctx context.Context) ([]Meal, error) {
	var payload []Meal
	if err := c.list(ctx, schedulePath, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
