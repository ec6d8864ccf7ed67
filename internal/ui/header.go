package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/homeyum/yum/internal/failure"
	"github.com/homeyum/yum/internal/jobs"
)

// renderHeader renders the top bar: logo, view tabs and sync status.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	tabs := make([]string, 0, len(viewNames))
	for i, name := range viewNames {
		label := name
		if m.width >= LayoutCompactWidth {
			label = fmt.Sprintf("%d %s", i+1, name)
		}
		if View(i) == m.currentView {
			tabs = append(tabs, styles.TabOn.Render(label))
		} else {
			tabs = append(tabs, styles.Tab.Render(label))
		}
	}
	left := styles.Logo.Render("yum") + "  " + strings.Join(tabs, "")
	right := m.syncStatus(styles)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return styles.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// syncStatus describes backend reachability and any running job.
func (m Model) syncStatus(styles Styles) string {
	snap := m.snapshot
	if !snap.HasView {
		if snap.LastError != nil {
			return styles.DangerText.Render(classifyConnectionError(snap.LastError))
		}
		return styles.WarningText.Render(m.spinner.View() + " Connecting...")
	}

	var parts []string
	if snap.Processing() {
		for _, j := range snap.Jobs {
			if j.Status == jobs.StatusProcessing {
				pct := jobs.Progress(j.Steps, jobs.WeightsFor(j.Kind))
				parts = append(parts, styles.AccentText.Render(fmt.Sprintf("%s %d%%", m.spinner.View(), pct)))
				break
			}
		}
	}
	switch {
	case snap.IsOffline():
		parts = append(parts, styles.DangerText.Render("● OFFLINE"))
	case snap.LastError != nil:
		parts = append(parts, styles.WarningText.Render("● "+classifyConnectionError(snap.LastError)))
	default:
		parts = append(parts, styles.SuccessText.Render("● ON"))
	}
	if !snap.LastUpdated.IsZero() && m.width >= LayoutCompactWidth {
		parts = append(parts, styles.MutedText.Render(snap.LastUpdated.Format("15:04:05")))
	}
	return strings.Join(parts, "  ")
}

// classifyConnectionError returns a short label for the last sync error.
func classifyConnectionError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, failure.ErrAuth):
		return "SIGN-IN NEEDED"
	case failure.IsRetryable(err):
		return "RETRYING"
	default:
		return "SYNC ERROR"
	}
}

// renderFooter shows the input line, a flash message or key hints.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.mode != inputNone {
		return styles.Footer.Width(m.width).Render(m.input.View())
	}
	if m.flash != "" && time.Since(m.flashAt) <= flashDuration {
		style := styles.SuccessText
		if m.flashErr {
			style = styles.DangerText
		}
		return styles.Footer.Width(m.width).Render(style.Render(truncate(m.flash, m.width-2)))
	}
	return styles.Footer.Width(m.width).Render(m.hints())
}

func (m Model) hints() string {
	var hints []string
	switch m.currentView {
	case ViewFeed, ViewSearch:
		hints = []string{"l like", "d dislike", "t try", "r rate", "s schedule", "y copy", "/ search", "R refresh"}
	case ViewJobs:
		hints = []string{"a link", "p describe", "e revise", "c confirm"}
	case ViewLibrary:
		hints = []string{"r rate", "s schedule", "t try"}
	case ViewActivity:
		hints = []string{"j/k scroll", "g/G top/bottom", "R reload"}
	}
	hints = append(hints, "? help", "q quit")
	if m.width < LayoutCompactWidth && len(hints) > 4 {
		hints = append(hints[:2], hints[len(hints)-2:]...)
	}
	return strings.Join(hints, "  ")
}
