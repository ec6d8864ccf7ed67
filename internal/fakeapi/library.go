package fakeapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/homeyum/yum/internal/api"
)

func (s *Server) feed(w http.ResponseWriter, r *http.Request) {
	size, err := strconv.Atoi(r.URL.Query().Get("page_size"))
	if err != nil || size <= 0 {
		size = 10
	}
	last := r.URL.Query().Get("last_video_id")

	s.mu.Lock()
	start := 0
	if last != "" {
		start = len(s.videos)
		for i, v := range s.videos {
			if v.VideoID == last {
				start = i + 1
				break
			}
		}
	}
	end := min(start+size, len(s.videos))
	page := append([]api.Video{}, s.videos[start:end]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) video(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.videos {
		if v.VideoID == id {
			writeJSON(w, http.StatusOK, v)
			return
		}
	}
	writeError(w, http.StatusNotFound, "video not found")
}

// listReactions answers 404 for a user with no reactions, as the real
// backend does.
func (s *Server) listReactions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if len(s.reactions) == 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "no reactions")
		return
	}
	out := sortedValues(s.reactions, func(a, b api.Reaction) bool { return a.VideoID < b.VideoID })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) addReaction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VideoID      string           `json:"videoId"`
		ReactionType api.ReactionType `json:"reactionType"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.VideoID == "" || !body.ReactionType.Valid() {
		writeError(w, http.StatusBadRequest, "videoId and a valid reactionType are required")
		return
	}
	s.mu.Lock()
	reaction, ok := s.reactions[body.VideoID]
	if !ok {
		reaction = api.Reaction{ReactionID: s.nextID("rx-"), UserID: UserID, VideoID: body.VideoID}
	}
	reaction.ReactionType = body.ReactionType
	reaction.ReactionDate = s.stamp()
	s.reactions[body.VideoID] = reaction
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, reaction)
}

func (s *Server) removeReaction(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.reactions, chi.URLParam(r, "id"))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTryList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := sortedValues(s.tryList, func(a, b api.TryListItem) bool { return a.AddedDate > b.AddedDate })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) addTryList(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VideoID string `json:"videoId"`
		Notes   string `json:"notes"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.VideoID == "" {
		writeError(w, http.StatusBadRequest, "videoId required")
		return
	}
	s.mu.Lock()
	item, ok := s.tryList[body.VideoID]
	if !ok {
		item = api.TryListItem{TryListID: s.nextID("try-"), UserID: UserID, VideoID: body.VideoID, AddedDate: s.stamp(), Notes: body.Notes}
		s.tryList[body.VideoID] = item
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) removeTryList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.tryList, chi.URLParam(r, "id"))
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listRatings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := sortedValues(s.ratings, func(a, b api.MealRating) bool { return a.VideoID < b.VideoID })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) rate(w http.ResponseWriter, r *http.Request) {
	var body api.RateRequest
	if !decode(w, r, &body) {
		return
	}
	if body.VideoID == "" || body.Rating < 1 || body.Rating > 5 {
		writeError(w, http.StatusBadRequest, "videoId and a rating from 1 to 5 are required")
		return
	}
	s.mu.Lock()
	rating, ok := s.ratings[body.VideoID]
	if !ok {
		rating = api.MealRating{RatingID: s.nextID("rating-"), UserID: UserID, VideoID: body.VideoID, CreatedAt: s.stamp()}
	}
	rating.Rating = body.Rating
	rating.Comment = body.Comment
	rating.UpdatedAt = s.stamp()
	if body.MealID != "" {
		rating.MealID = body.MealID
	}
	s.ratings[body.VideoID] = rating
	if meal, ok := s.meals[rating.MealID]; ok {
		rated := rating
		meal.Rating = &rated
		meal.Completed = true
		s.meals[meal.MealID] = meal
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, rating)
}

func (s *Server) listMeals(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := sortedValues(s.meals, func(a, b api.Meal) bool {
		if a.MealDate != b.MealDate {
			return a.MealDate < b.MealDate
		}
		return a.MealTime < b.MealTime
	})
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) scheduleMeal(w http.ResponseWriter, r *http.Request) {
	var body api.ScheduleRequest
	if !decode(w, r, &body) {
		return
	}
	if body.VideoID == "" || body.MealDate == "" || body.MealTime == "" {
		writeError(w, http.StatusBadRequest, "videoId, mealDate and mealTime are required")
		return
	}
	s.mu.Lock()
	meal := api.Meal{
		MealID:    s.nextID("meal-"),
		UserID:    UserID,
		VideoID:   body.VideoID,
		MealDate:  body.MealDate,
		MealTime:  body.MealTime,
		CreatedAt: s.stamp(),
		UpdatedAt: s.stamp(),
		Video:     s.videoDetails(body.VideoID),
	}
	s.meals[meal.MealID] = meal
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, meal)
}

func (s *Server) moveMeal(w http.ResponseWriter, r *http.Request) {
	var body api.ScheduleRequest
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	meal, ok := s.meals[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "meal not found")
		return
	}
	meal.MealDate = body.MealDate
	meal.MealTime = body.MealTime
	meal.UpdatedAt = s.stamp()
	s.meals[meal.MealID] = meal

	// The real endpoint echoes the row without joined fields.
	echo := meal
	echo.Video = nil
	echo.Rating = nil
	writeJSON(w, http.StatusOK, echo)
}

func (s *Server) deleteMeal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, ok := s.meals[id]
	delete(s.meals, id)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "meal not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// videoDetails joins feed data into a meal. Callers hold s.mu.
func (s *Server) videoDetails(videoID string) *api.VideoDetails {
	for _, v := range s.videos {
		if v.VideoID == videoID {
			return &api.VideoDetails{VideoID: v.VideoID, MealName: v.MealName, MealDescription: v.MealDescription, ThumbnailURL: v.ThumbnailURL}
		}
	}
	return &api.VideoDetails{VideoID: videoID, MealName: strings.TrimSpace(videoID)}
}
