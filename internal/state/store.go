package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/jobs"
	"github.com/homeyum/yum/internal/prefetch"
	"github.com/homeyum/yum/internal/search"
)

// Counts summarizes the user library.
type Counts struct {
	Liked     int
	Disliked  int
	TryList   int
	Rated     int
	Scheduled int
	Tried     int
}

// View is everything the display poller collects in one refresh.
type View struct {
	Jobs        []jobs.Job
	Feed        []api.Video
	FeedState   prefetch.State
	Search      []search.Video
	SearchState prefetch.State
	Library     Counts
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	View
	HasView             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive refresh failures
}

// IsOffline returns true when the backend has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Processing reports whether any tracked job is still running.
func (s Snapshot) Processing() bool {
	for _, j := range s.Jobs {
		if j.Status == jobs.StatusProcessing {
			return true
		}
	}
	return false
}

// Job returns the job for kind, if one is tracked.
func (s Snapshot) Job(kind jobs.Kind) (jobs.Job, bool) {
	for _, j := range s.Jobs {
		if j.Kind == kind {
			return j, true
		}
	}
	return jobs.Job{}, false
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored view. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(view *View, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if view != nil {
		s.snapshot.View = cloneView(*view)
		s.snapshot.HasView = true
	} else {
		s.snapshot.View = View{}
		s.snapshot.HasView = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// SetView replaces the view without touching refresh bookkeeping. It is used
// for local changes that did not come from a poll.
func (s *Store) SetView(view View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.View = cloneView(view)
	s.snapshot.HasView = true
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.View = cloneView(s.snapshot.View)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneView(v View) View {
	out := v
	out.Feed = cloneSlice(v.Feed)
	out.Search = cloneSlice(v.Search)
	if len(v.Jobs) > 0 {
		out.Jobs = make([]jobs.Job, len(v.Jobs))
		for i, j := range v.Jobs {
			out.Jobs[i] = j.Clone()
		}
	} else {
		out.Jobs = nil
	}
	return out
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
