package jobs

import (
	"fmt"
	"strings"
	"time"

	"github.com/homeyum/yum/internal/api"
)

// Kind selects the pipeline a job runs through.
type Kind = api.JobKind

const (
	KindLinkImport   = api.JobKindLinkImport
	KindManualPrompt = api.JobKindManualPrompt
)

// Status is the job-level state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further polling is needed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StepStatus is the state of a single pipeline step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepProcessing StepStatus = "processing"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

// Step is one named phase of a job.
type Step struct {
	Key    string
	Status StepStatus
	Error  string
}

// Recipe is the generated output attached to a finished job.
type Recipe struct {
	Title    string
	Markdown string
	ImageURL string
	VideoID  string
}

// Job is one remote recipe-generation request as seen by the client.
type Job struct {
	ID     string
	Kind   Kind
	Status Status
	Steps  []Step
	Error  string
	// Draft is set on manual jobs whose recipe was generated but not yet
	// confirmed by the user.
	Draft     bool
	Recipe    *Recipe
	UpdatedAt time.Time
}

// Clone returns a deep copy safe to hand to other goroutines.
func (j Job) Clone() Job {
	out := j
	if j.Steps != nil {
		out.Steps = make([]Step, len(j.Steps))
		copy(out.Steps, j.Steps)
	}
	if j.Recipe != nil {
		r := *j.Recipe
		out.Recipe = &r
	}
	return out
}

// StepKeys returns the fixed, ordered step set for kind.
func StepKeys(kind Kind) []string {
	switch kind {
	case KindManualPrompt:
		return []string{"gathering_ingredients", "generating_recipe", "crafting_image"}
	default:
		return []string{"metadata_extraction", "transcription", "video_analysis", "recipe_generation", "nutrition_analysis"}
	}
}

// PendingSteps returns the all-pending step list used right after submission.
func PendingSteps(kind Kind) []Step {
	keys := StepKeys(kind)
	steps := make([]Step, len(keys))
	for i, key := range keys {
		steps[i] = Step{Key: key, Status: StepPending}
	}
	return steps
}

// FromResponse normalizes a wire payload into a Job. Illegal combinations are
// repaired rather than represented: any failed step makes the job failed, and
// a completed job has every step completed.
func FromResponse(resp api.JobResponse, kind Kind) Job {
	if resp.Kind != "" {
		kind = resp.Kind
	}
	job := Job{
		ID:     strings.TrimSpace(resp.JobID),
		Kind:   kind,
		Status: parseStatus(resp.Status),
		Draft:  isDraftStatus(resp.Status),
		Steps:  mergeSteps(kind, resp.Steps),
	}
	if resp.Recipe != nil {
		job.Recipe = &Recipe{
			Title:    resp.Recipe.Title,
			Markdown: resp.Recipe.Markdown,
			ImageURL: resp.Recipe.ImageURL,
			VideoID:  resp.Recipe.VideoID,
		}
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(resp.UpdatedAt)); err == nil {
		job.UpdatedAt = ts
	}

	if failed, ok := firstFailed(job.Steps); ok {
		job.Status = StatusFailed
		job.Draft = false
		job.Error = failed.Error
		if job.Error == "" {
			job.Error = strings.TrimSpace(resp.Error)
		}
		if job.Error == "" {
			job.Error = fmt.Sprintf("%s failed", StepLabel(failed.Key))
		}
		return job
	}

	switch job.Status {
	case StatusFailed:
		job.Draft = false
		job.Error = strings.TrimSpace(resp.Error)
		if job.Error == "" {
			job.Error = "recipe job failed"
		}
	case StatusCompleted:
		for i := range job.Steps {
			job.Steps[i].Status = StepCompleted
			job.Steps[i].Error = ""
		}
	}
	return job
}

func parseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed", "complete", "done", "success", "initial_generated", "updated":
		return StatusCompleted
	case "failed", "error":
		return StatusFailed
	default:
		return StatusProcessing
	}
}

func isDraftStatus(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "initial_generated", "updated":
		return true
	}
	return false
}

func parseStepStatus(raw string) StepStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "processing", "in_progress", "running":
		return StepProcessing
	case "completed", "complete", "done", "success":
		return StepCompleted
	case "failed", "error":
		return StepFailed
	default:
		return StepPending
	}
}

// mergeSteps overlays the reported steps on the kind's fixed step set.
// Reported keys outside that set are appended in arrival order.
func mergeSteps(kind Kind, reported []api.StepPayload) []Step {
	steps := PendingSteps(kind)
	index := make(map[string]int, len(steps))
	for i, s := range steps {
		index[s.Key] = i
	}
	for _, p := range reported {
		key := strings.TrimSpace(p.Step)
		if key == "" {
			continue
		}
		step := Step{Key: key, Status: parseStepStatus(p.Status), Error: strings.TrimSpace(p.Error)}
		if i, ok := index[key]; ok {
			steps[i] = step
			continue
		}
		index[key] = len(steps)
		steps = append(steps, step)
	}
	return steps
}

func firstFailed(steps []Step) (Step, bool) {
	for _, s := range steps {
		if s.Status == StepFailed {
			return s, true
		}
	}
	return Step{}, false
}
