package logging

import "strings"

// ProgressSampler suppresses repetitive job progress logs. It emits when the
// step label changes or the percentage crosses a bucket boundary.
type ProgressSampler struct {
	bucketSize int
	lastStep   string
	lastBucket int
}

// NewProgressSampler constructs a sampler with the given bucket size in
// percent. Non-positive sizes mean 25.
func NewProgressSampler(bucketSize int) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 25
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event should be logged.
func (s *ProgressSampler) ShouldLog(percent int, step string) bool {
	if s == nil {
		return true
	}
	emit := false
	if step = strings.TrimSpace(step); step != "" && step != s.lastStep {
		s.lastStep = step
		emit = true
	}
	if percent > 100 {
		percent = 100
	}
	if percent >= 0 {
		if bucket := percent / s.bucketSize; bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state when a new job starts.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastStep = ""
	s.lastBucket = -1
}
