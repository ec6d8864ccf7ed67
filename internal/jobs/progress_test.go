package jobs

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func TestProgress_Table(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		want  int
	}{
		{"nothing started", PendingSteps(KindLinkImport), 0},
		{"first step done", []Step{
			{Key: "metadata_extraction", Status: StepCompleted},
			{Key: "transcription", Status: StepPending},
		}, 10},
		{"processing counts half", []Step{
			{Key: "metadata_extraction", Status: StepCompleted},
			{Key: "transcription", Status: StepProcessing},
		}, 20},
		{"failed counts nothing", []Step{
			{Key: "metadata_extraction", Status: StepCompleted},
			{Key: "transcription", Status: StepFailed},
		}, 10},
		{"unknown keys weigh zero", []Step{
			{Key: "metadata_extraction", Status: StepCompleted},
			{Key: "thumbnail_upload", Status: StepCompleted},
		}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Progress(tt.steps, LinkImportWeights); got != tt.want {
				t.Fatalf("Progress() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProgress_AllCompletedIsHundred(t *testing.T) {
	for _, kind := range []Kind{KindLinkImport, KindManualPrompt} {
		steps := PendingSteps(kind)
		for i := range steps {
			steps[i].Status = StepCompleted
		}
		if got := Progress(steps, WeightsFor(kind)); got != 100 {
			t.Fatalf("Progress(%s all completed) = %d, want 100", kind, got)
		}
	}
}

func TestProgress_CapsAtHundred(t *testing.T) {
	steps := []Step{{Key: "a", Status: StepCompleted}, {Key: "b", Status: StepCompleted}}
	if got := Progress(steps, Weights{"a": 0.8, "b": 0.8}); got != 100 {
		t.Fatalf("Progress() = %d, want 100", got)
	}
}

// Advancing any step along pending -> processing -> completed never lowers
// progress, and finishing every step yields exactly 100.
func TestProgress_MonotonicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "steps")
		raw := rapid.SliceOfN(rapid.IntRange(1, 100), n, n).Draw(t, "weights")
		total := 0
		for _, w := range raw {
			total += w
		}
		weights := Weights{}
		steps := make([]Step, n)
		for i, w := range raw {
			key := fmt.Sprintf("step_%d", i)
			weights[key] = float64(w) / float64(total)
			steps[i] = Step{Key: key, Status: StepPending}
		}

		last := Progress(steps, weights)
		if last != 0 {
			t.Fatalf("initial progress = %d, want 0", last)
		}
		for {
			open := incomplete(steps)
			if len(open) == 0 {
				break
			}
			i := open[rapid.IntRange(0, len(open)-1).Draw(t, "advance")]
			if steps[i].Status == StepPending {
				steps[i].Status = StepProcessing
			} else {
				steps[i].Status = StepCompleted
			}
			got := Progress(steps, weights)
			if got < last {
				t.Fatalf("progress decreased from %d to %d", last, got)
			}
			last = got
		}
		if last != 100 {
			t.Fatalf("final progress = %d, want 100", last)
		}
	})
}

func incomplete(steps []Step) []int {
	var out []int
	for i, s := range steps {
		if s.Status != StepCompleted {
			out = append(out, i)
		}
	}
	return out
}

func TestCurrentStep(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		want  string
	}{
		{"none started", PendingSteps(KindLinkImport), ""},
		{"processing wins", []Step{
			{Key: "metadata_extraction", Status: StepCompleted},
			{Key: "transcription", Status: StepProcessing},
		}, "Listening to the video"},
		{"failed next", []Step{
			{Key: "metadata_extraction", Status: StepCompleted},
			{Key: "transcription", Status: StepFailed},
		}, "Listening to the video"},
		{"last completed", []Step{
			{Key: "gathering_ingredients", Status: StepCompleted},
			{Key: "generating_recipe", Status: StepCompleted},
			{Key: "crafting_image", Status: StepPending},
		}, "Generating the recipe"},
		{"unknown key label", []Step{{Key: "thumbnail_upload", Status: StepProcessing}}, "Thumbnail upload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentStep(tt.steps); got != tt.want {
				t.Fatalf("CurrentStep() = %q, want %q", got, tt.want)
			}
		})
	}
}
