package stores

import "github.com/homeyum/yum/internal/api"

// PushRatingToSchedule copies a confirmed rating into the schedule's cached
// meal so it shows without refetching the schedule. A meal that is not held
// locally is left alone.
func PushRatingToSchedule(schedule *Schedule, mealID string, rating api.MealRating) bool {
	if schedule == nil {
		return false
	}
	return schedule.SetMealRating(mealID, rating)
}
