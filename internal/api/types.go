package api

// JobKind selects the recipe-generation pipeline.
type JobKind string

const (
	JobKindLinkImport   JobKind = "link_import"
	JobKindManualPrompt JobKind = "manual_prompt"
)

// CreateJobRequest is the body of POST /api/recipe-jobs.
type CreateJobRequest struct {
	Kind   JobKind `json:"kind"`
	Source string  `json:"source"`
}

// RevisionRequest is the body of PUT /api/recipe-jobs/{id}/update.
type RevisionRequest struct {
	RecipeUpdates string `json:"recipe_updates,omitempty"`
	ImageUpdates  string `json:"image_updates,omitempty"`
}

// JobResponse mirrors the recipe job payload returned by create and status
// endpoints.
type JobResponse struct {
	JobID     string         `json:"jobId"`
	Kind      JobKind        `json:"kind"`
	Status    string         `json:"status"`
	Steps     []StepPayload  `json:"steps"`
	Error     string         `json:"error,omitempty"`
	Recipe    *RecipePayload `json:"recipe,omitempty"`
	CreatedAt string         `json:"createdAt,omitempty"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
}

// StepPayload is one pipeline step as reported by the backend.
type StepPayload struct {
	Step      string `json:"step"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// RecipePayload is the generated recipe attached to a finished job.
type RecipePayload struct {
	Title    string `json:"title"`
	Markdown string `json:"recipe"`
	ImageURL string `json:"imageUrl,omitempty"`
	VideoID  string `json:"videoId,omitempty"`
}

// Video is a feed entry.
type Video struct {
	VideoID          string `json:"videoId"`
	UserID           string `json:"userId"`
	VideoTitle       string `json:"videoTitle"`
	VideoDescription string `json:"videoDescription"`
	MealName         string `json:"mealName"`
	MealDescription  string `json:"mealDescription"`
	VideoURL         string `json:"videoUrl"`
	ThumbnailURL     string `json:"thumbnailUrl"`
	Duration         int    `json:"duration"`
	UploadedAt       string `json:"uploadedAt"`
	Source           string `json:"source"`
}

// ReactionType is the kind of reaction a user left on a video.
type ReactionType string

const (
	ReactionLike    ReactionType = "LIKE"
	ReactionDislike ReactionType = "DISLIKE"
)

// Valid reports whether r is a known reaction type.
func (r ReactionType) Valid() bool {
	return r == ReactionLike || r == ReactionDislike
}

// Reaction is a user's reaction to a video.
type Reaction struct {
	ReactionID   string       `json:"reactionId"`
	UserID       string       `json:"userId"`
	VideoID      string       `json:"videoId"`
	ReactionType ReactionType `json:"reactionType"`
	ReactionDate string       `json:"reactionDate"`
}

// TryListItem is a video the user wants to cook later.
type TryListItem struct {
	TryListID string `json:"tryListId"`
	UserID    string `json:"userId"`
	VideoID   string `json:"videoId"`
	AddedDate string `json:"addedDate"`
	Notes     string `json:"notes,omitempty"`
}

// RateRequest is the body of POST /api/meals/rate.
type RateRequest struct {
	VideoID string `json:"videoId"`
	Rating  int    `json:"rating"`
	MealID  string `json:"mealId,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// MealRating is a user's rating of a cooked meal.
type MealRating struct {
	RatingID  string `json:"ratingId"`
	UserID    string `json:"userId"`
	VideoID   string `json:"videoId"`
	MealID    string `json:"mealId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// ScheduleRequest is the body used to create or move a scheduled meal.
type ScheduleRequest struct {
	VideoID  string `json:"videoId,omitempty"`
	MealDate string `json:"mealDate"`
	MealTime string `json:"mealTime"`
}

// Meal is a scheduled cooking session.
type Meal struct {
	MealID    string        `json:"mealId"`
	UserID    string        `json:"userId"`
	VideoID   string        `json:"videoId"`
	MealDate  string        `json:"mealDate"`
	MealTime  string        `json:"mealTime"`
	Completed bool          `json:"completed"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt"`
	Video     *VideoDetails `json:"video,omitempty"`
	Rating    *MealRating   `json:"rating,omitempty"`
}

// VideoDetails is the subset of video fields embedded in meals.
type VideoDetails struct {
	VideoID         string `json:"videoId"`
	MealName        string `json:"mealName"`
	MealDescription string `json:"mealDescription"`
	ThumbnailURL    string `json:"thumbnailUrl"`
}
