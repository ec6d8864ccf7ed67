package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the minimum width to show descriptions beside titles.
	LayoutWideWidth = 140
)

const (
	// ActivityLines is how many log lines the activity view keeps.
	ActivityLines = 500

	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// ActionTimeout bounds a single user-triggered request.
	ActionTimeout = 15 * time.Second

	// flashDuration is how long a status message stays in the footer.
	flashDuration = 4 * time.Second
)
