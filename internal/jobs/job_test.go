package jobs

import (
	"testing"

	"github.com/homeyum/yum/internal/api"
)

func TestFromResponse_FailedStepPromotesJob(t *testing.T) {
	resp := api.JobResponse{
		JobID:  "j1",
		Status: "processing",
		Steps: []api.StepPayload{
			{Step: "metadata_extraction", Status: "completed"},
			{Step: "transcription", Status: "failed", Error: "no audio track"},
			{Step: "video_analysis", Status: "failed", Error: "second failure"},
		},
	}
	job := FromResponse(resp, KindLinkImport)
	if job.Status != StatusFailed {
		t.Fatalf("Status = %q, want failed", job.Status)
	}
	if job.Error != "no audio track" {
		t.Fatalf("Error = %q, want first failed step's error", job.Error)
	}
}

func TestFromResponse_FailedStepWithoutMessage(t *testing.T) {
	job := FromResponse(api.JobResponse{
		JobID: "j1",
		Steps: []api.StepPayload{{Step: "crafting_image", Status: "error"}},
	}, KindManualPrompt)
	if job.Status != StatusFailed || job.Error != "Crafting an image failed" {
		t.Fatalf("job = %+v, want failed with step label message", job)
	}
}

func TestFromResponse_CompletedMarksAllSteps(t *testing.T) {
	job := FromResponse(api.JobResponse{
		JobID:  "j1",
		Status: "completed",
		Steps:  []api.StepPayload{{Step: "recipe_generation", Status: "processing"}},
		Recipe: &api.RecipePayload{Title: "Pad Thai", Markdown: "# Pad Thai"},
	}, KindLinkImport)
	if job.Status != StatusCompleted {
		t.Fatalf("Status = %q, want completed", job.Status)
	}
	for _, s := range job.Steps {
		if s.Status != StepCompleted {
			t.Fatalf("step %s = %q, want completed", s.Key, s.Status)
		}
	}
	if job.Recipe == nil || job.Recipe.Title != "Pad Thai" {
		t.Fatalf("Recipe = %+v, want Pad Thai", job.Recipe)
	}
}

func TestFromResponse_OverlaysKnownAndAppendsUnknownSteps(t *testing.T) {
	job := FromResponse(api.JobResponse{
		JobID:  "j1",
		Status: "processing",
		Steps: []api.StepPayload{
			{Step: "video_analysis", Status: "in_progress"},
			{Step: "thumbnail_upload", Status: "pending"},
		},
	}, KindLinkImport)

	want := []string{"metadata_extraction", "transcription", "video_analysis", "recipe_generation", "nutrition_analysis", "thumbnail_upload"}
	if len(job.Steps) != len(want) {
		t.Fatalf("steps = %+v, want %d entries", job.Steps, len(want))
	}
	for i, key := range want {
		if job.Steps[i].Key != key {
			t.Fatalf("step[%d] = %q, want %q", i, job.Steps[i].Key, key)
		}
	}
	if job.Steps[2].Status != StepProcessing {
		t.Fatalf("video_analysis = %q, want processing", job.Steps[2].Status)
	}
}

func TestFromResponse_StatusMapping(t *testing.T) {
	tests := []struct {
		raw       string
		wantState Status
		wantDraft bool
	}{
		{"processing", StatusProcessing, false},
		{"", StatusProcessing, false},
		{"initial_generated", StatusCompleted, true},
		{"updated", StatusCompleted, true},
		{"completed", StatusCompleted, false},
		{"failed", StatusFailed, false},
	}
	for _, tt := range tests {
		job := FromResponse(api.JobResponse{JobID: "j", Status: tt.raw, Error: "boom"}, KindManualPrompt)
		if job.Status != tt.wantState || job.Draft != tt.wantDraft {
			t.Fatalf("status %q -> (%q, draft=%v), want (%q, %v)", tt.raw, job.Status, job.Draft, tt.wantState, tt.wantDraft)
		}
	}
}

func TestJobClone_IsIndependent(t *testing.T) {
	job := Job{Steps: PendingSteps(KindLinkImport), Recipe: &Recipe{Title: "a"}}
	dup := job.Clone()
	dup.Steps[0].Status = StepCompleted
	dup.Recipe.Title = "b"
	if job.Steps[0].Status != StepPending || job.Recipe.Title != "a" {
		t.Fatal("Clone shares memory with the original")
	}
}
