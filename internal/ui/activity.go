package ui

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/homeyum/yum/internal/logtail"
)

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

type logChangedMsg struct{}

func loadLogsCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		entries, err := logtail.Tail(path, ActivityLines)
		if errors.Is(err, fs.ErrNotExist) {
			return logsMsg{}
		}
		return logsMsg{entries: entries, err: err}
	}
}

func watchLogsCmd(ctx context.Context, w *logtail.Watcher) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-w.Changed():
			return logChangedMsg{}
		}
	}
}

// resizeActivity fits the log viewport below the header and above the footer.
func (m *Model) resizeActivity() {
	m.activity.Width = max(0, m.width)
	m.activity.Height = max(1, m.height-2)
	m.refreshActivity()
}

// refreshActivity re-renders log entries, following the tail when the view
// was already at the bottom.
func (m *Model) refreshActivity() {
	follow := m.activity.AtBottom() || m.activity.TotalLineCount() == 0
	m.activity.SetContent(m.formatEntries())
	if follow {
		m.activity.GotoBottom()
	}
}

func (m Model) formatEntries() string {
	if len(m.entries) == 0 {
		return m.theme.Styles().MutedText.Render("No activity yet.")
	}
	styles := m.theme.Styles()
	compact := m.width < LayoutCompactWidth
	lines := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		var b strings.Builder
		if !e.Time.IsZero() {
			b.WriteString(styles.FaintText.Render(e.Time.Format("15:04:05")))
			b.WriteString(" ")
		}
		if e.Level != "" {
			b.WriteString(m.levelStyle(e.Level).Render(padRight(e.Level, 5)))
			b.WriteString(" ")
		}
		if e.Component != "" {
			b.WriteString(styles.AccentText.Render(e.Component))
			b.WriteString(" ")
		}
		b.WriteString(styles.Text.Render(e.Message))
		if e.Fields != "" && !compact {
			b.WriteString(" ")
			b.WriteString(styles.MutedText.Render(e.Fields))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

func (m Model) levelStyle(level string) lipgloss.Style {
	styles := m.theme.Styles()
	switch level {
	case "ERROR":
		return styles.DangerText
	case "WARN":
		return styles.WarningText
	case "DEBUG":
		return styles.FaintText
	default:
		return styles.InfoText
	}
}

func (m Model) renderActivity() string {
	return m.activity.View()
}
