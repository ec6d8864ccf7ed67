package app

import (
	"testing"
	"time"

	"github.com/homeyum/yum/internal/config"
)

func TestCalculateBackoff(t *testing.T) {
	base := config.Default().DisplayPollInterval()
	if base != defaultPollInterval {
		t.Fatalf("default display interval = %v, want %v", base, defaultPollInterval)
	}

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 5 * time.Second},
		{"negative failures", -1, 5 * time.Second},
		{"one failure", 1, 10 * time.Second},
		{"two failures", 2, 20 * time.Second},
		{"three failures capped", 3, 30 * time.Second},
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, base)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, base, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MonotonicAndCapped(t *testing.T) {
	for _, base := range []time.Duration{time.Second, 2 * time.Second, 7 * time.Second} {
		prev := time.Duration(0)
		for failures := 0; failures <= 20; failures++ {
			got := calculateBackoff(failures, base)
			if got > maxBackoff {
				t.Fatalf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, base, got, maxBackoff)
			}
			if got < prev {
				t.Fatalf("calculateBackoff(%d, %v) = %v, shorter than previous %v", failures, base, got, prev)
			}
			prev = got
		}
	}
}

func TestStartPoller_OnlyOnce(t *testing.T) {
	a := newHarness(t).open(t)
	a.StartPoller()
	first := a.poller
	if !first.Running() {
		t.Fatalf("poller not running after StartPoller")
	}
	a.StartPoller()
	if a.poller != first {
		t.Fatalf("StartPoller replaced a running poller")
	}
	a.StopPoller()
	if a.poller != nil || first.Running() {
		t.Fatalf("poller still running after StopPoller")
	}
}
