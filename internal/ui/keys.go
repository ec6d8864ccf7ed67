package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding

	// View switching
	ViewFeed     key.Binding
	ViewSearch   key.Binding
	ViewJobs     key.Binding
	ViewLibrary  key.Binding
	ViewActivity key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Video actions
	Like     key.Binding
	Dislike  key.Binding
	Try      key.Binding
	Rate     key.Binding
	Schedule key.Binding
	Copy     key.Binding
	Refresh  key.Binding

	// Recipe jobs
	SubmitLink   key.Binding
	SubmitPrompt key.Binding
	Revise       key.Binding
	ConfirmDraft key.Binding

	// Search/input
	Search  key.Binding
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cycle views"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Cycle views (reverse)"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Return to feed"),
		),

		ViewFeed: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Feed"),
		),
		ViewSearch: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Search"),
		),
		ViewJobs: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Recipe jobs"),
		),
		ViewLibrary: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Library"),
		),
		ViewActivity: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "Activity log"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		Like: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Like"),
		),
		Dislike: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Dislike"),
		),
		Try: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "Toggle try list"),
		),
		Rate: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Rate"),
		),
		Schedule: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Schedule"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy video URL"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Refresh feed / retry search"),
		),

		SubmitLink: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Import from link"),
		),
		SubmitPrompt: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Describe a recipe"),
		),
		Revise: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Revise draft"),
		),
		ConfirmDraft: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Confirm draft"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewFeed, k.ViewSearch, k.ViewJobs, k.ViewLibrary, k.ViewActivity},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Like, k.Dislike, k.Try, k.Rate, k.Schedule, k.Copy, k.Refresh},
		{k.SubmitLink, k.SubmitPrompt, k.Revise, k.ConfirmDraft, k.Search},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
