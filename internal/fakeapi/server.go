package fakeapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/logging"
)

// UserID is the owner of everything the fake stores.
const UserID = "user-1"

var stepKeys = map[api.JobKind][]string{
	api.JobKindLinkImport:   {"metadata_extraction", "transcription", "video_analysis", "recipe_generation", "nutrition_analysis"},
	api.JobKindManualPrompt: {"gathering_ingredients", "generating_recipe", "crafting_image"},
}

// Options configure a Server.
type Options struct {
	// Token is the bearer token every request must carry. Empty accepts any
	// non-empty token.
	Token  string
	Videos []api.Video
	// SearchResults are served by the fake search endpoint.
	SearchResults []SearchItem
	// SearchPageSize defaults to 5.
	SearchPageSize int
	Logger         *slog.Logger
	Now            func() time.Time
}

// SearchItem is one canned search result.
type SearchItem struct {
	VideoID     string
	Title       string
	Description string
	Width       int
	Height      int
}

type injected struct {
	status  int
	message string
	times   int
}

type jobState struct {
	resp     api.JobResponse
	title    string
	failStep string
	failMsg  string
}

// Server is the fake backend.
type Server struct {
	token      string
	logger     *slog.Logger
	now        func() time.Time
	searchSize int

	mu        sync.Mutex
	videos    []api.Video
	search    []SearchItem
	reactions map[string]api.Reaction
	tryList   map[string]api.TryListItem
	ratings   map[string]api.MealRating
	meals     map[string]api.Meal
	jobs      map[string]*jobState
	latest    map[api.JobKind]string
	failures  map[string]*injected
	calls     map[string]int
	nextStep  struct{ key, message string }
	hold      bool
	seq       int
}

// New builds a fake with the given seed data.
func New(opts Options) *Server {
	s := &Server{
		token:      opts.Token,
		logger:     logging.NewComponentLogger(opts.Logger, "fakeapi"),
		now:        opts.Now,
		searchSize: opts.SearchPageSize,
		videos:     append([]api.Video(nil), opts.Videos...),
		search:     append([]SearchItem(nil), opts.SearchResults...),
		reactions:  map[string]api.Reaction{},
		tryList:    map[string]api.TryListItem{},
		ratings:    map[string]api.MealRating{},
		meals:      map[string]api.Meal{},
		jobs:       map[string]*jobState{},
		latest:     map[api.JobKind]string{},
		failures:   map[string]*injected{},
		calls:      map[string]int{},
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.searchSize <= 0 {
		s.searchSize = 5
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recovery)
	r.Use(s.authenticate)
	r.Group(func(r chi.Router) {
		r.Use(s.inject)

		r.Post("/api/recipe-jobs", s.createJob)
		r.Get("/api/recipe-jobs/latest", s.latestJob)
		r.Get("/api/recipe-jobs/{id}", s.getJob)
		r.Put("/api/recipe-jobs/{id}/update", s.reviseJob)
		r.Post("/api/recipe-jobs/{id}/confirm", s.confirmJob)

		r.Get("/api/videos/feed", s.feed)
		r.Get("/api/videos/{id}", s.video)

		r.Get("/api/videos/reactions", s.listReactions)
		r.Post("/api/videos/reactions", s.addReaction)
		r.Delete("/api/videos/reactions/{id}", s.removeReaction)

		r.Get("/api/videos/try-list", s.listTryList)
		r.Post("/api/videos/try-list", s.addTryList)
		r.Delete("/api/videos/try-list/{id}", s.removeTryList)

		r.Get("/api/meals/ratings", s.listRatings)
		r.Post("/api/meals/rate", s.rate)

		r.Get("/api/meals/schedule", s.listMeals)
		r.Post("/api/meals/schedule", s.scheduleMeal)
		r.Put("/api/meals/schedule/{id}", s.moveMeal)
		r.Delete("/api/meals/schedule/{id}", s.deleteMeal)

		r.Get("/youtube/v3/search", s.searchVideos)
	})
	return r
}

// FailNext makes the next times requests to method and route pattern fail
// with status. Patterns use chi syntax, e.g. "/api/videos/reactions/{id}".
func (s *Server) FailNext(method, pattern string, status, times int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+pattern] = &injected{status: status, message: message, times: times}
}

// FailStep makes the next created job fail at step with message.
func (s *Server) FailStep(step, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextStep.key, s.nextStep.message = step, message
}

// HoldJobs stops or resumes job advancement on poll.
func (s *Server) HoldJobs(hold bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hold = hold
}

// Calls returns how many requests reached method and route pattern.
func (s *Server) Calls(method, pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+pattern]
}

// SeedMeal stores m as if it had been scheduled earlier.
func (s *Server) SeedMeal(m api.Meal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.UserID == "" {
		m.UserID = UserID
	}
	s.meals[m.MealID] = m
}

// Meal returns the server's copy of a meal.
func (s *Server) Meal(id string) (api.Meal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meals[id]
	return m, ok
}

// Reaction returns the server's copy of a reaction.
func (s *Server) Reaction(videoID string) (api.Reaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reactions[videoID]
	return r, ok
}

func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", logging.String("path", r.URL.Path), logging.String("panic", fmt.Sprint(rec)))
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/youtube/") {
			if r.URL.Query().Get("key") == "" {
				writeError(w, http.StatusForbidden, "missing api key")
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || (s.token != "" && token != s.token) {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// inject counts calls and applies FailNext. It is installed inside the
// route group so the matched pattern is known.
func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + chi.RouteContext(r.Context()).RoutePattern()
		s.mu.Lock()
		s.calls[key]++
		f := s.failures[key]
		fail := f != nil && f.times > 0
		var status int
		var message string
		if fail {
			f.times--
			status, message = f.status, f.message
		}
		s.mu.Unlock()
		if fail {
			writeError(w, status, message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"detail": message})
}

func decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return false
	}
	return true
}

func sortedValues[V any](m map[string]V, less func(a, b V) bool) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
