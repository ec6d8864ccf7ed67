package jobs

import (
	"math"
	"strings"
)

// Weights maps step keys to their share of overall progress. A table for a
// job kind sums to 1.0.
type Weights map[string]float64

// LinkImportWeights is the weight table for link-import jobs.
var LinkImportWeights = Weights{
	"metadata_extraction": 0.1,
	"transcription":       0.2,
	"video_analysis":      0.3,
	"recipe_generation":   0.2,
	"nutrition_analysis":  0.2,
}

// ManualPromptWeights is the weight table for manual-prompt jobs.
var ManualPromptWeights = Weights{
	"gathering_ingredients": 0.3,
	"generating_recipe":     0.4,
	"crafting_image":        0.3,
}

// WeightsFor returns the weight table for kind.
func WeightsFor(kind Kind) Weights {
	if kind == KindManualPrompt {
		return ManualPromptWeights
	}
	return LinkImportWeights
}

// Progress returns overall completion in [0, 100]. Completed steps count in
// full, processing steps count half, and unknown keys weigh nothing.
func Progress(steps []Step, weights Weights) int {
	var sum float64
	for _, s := range steps {
		w := weights[s.Key]
		switch s.Status {
		case StepCompleted:
			sum += w
		case StepProcessing:
			sum += w / 2
		}
	}
	return int(math.Round(math.Min(100, sum*100)))
}

var stepLabels = map[string]string{
	"metadata_extraction":   "Pulling video data",
	"transcription":         "Listening to the video",
	"video_analysis":        "Analyzing the video",
	"recipe_generation":     "Generating the recipe",
	"nutrition_analysis":    "Calculating the nutrition",
	"gathering_ingredients": "Gathering the ingredients",
	"generating_recipe":     "Generating the recipe",
	"crafting_image":        "Crafting an image",
}

// StepLabel returns a display label for a step key.
func StepLabel(key string) string {
	if label, ok := stepLabels[key]; ok {
		return label
	}
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	if len(words) == 0 {
		return "Working"
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}

// CurrentStep labels the step the job is on: the processing step, else the
// first failed step, else the last completed one. Empty when nothing started.
func CurrentStep(steps []Step) string {
	for _, s := range steps {
		if s.Status == StepProcessing {
			return StepLabel(s.Key)
		}
	}
	for _, s := range steps {
		if s.Status == StepFailed {
			return StepLabel(s.Key)
		}
	}
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].Status == StepCompleted {
			return StepLabel(steps[i].Key)
		}
	}
	return ""
}
