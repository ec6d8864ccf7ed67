package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/jobs"
	"github.com/homeyum/yum/internal/logtail"
	"github.com/homeyum/yum/internal/prefs"
	"github.com/homeyum/yum/internal/state"
)

// Engine is what the UI reads from and acts on. *app.App satisfies it.
type Engine interface {
	Snapshot() state.Snapshot
	Changed() <-chan struct{}
	LogPath() string
	Prefs() prefs.Prefs
	UpdatePrefs(fn func(*prefs.Prefs)) error

	SubmitLink(ctx context.Context, url string) (jobs.Job, error)
	SubmitPrompt(ctx context.Context, text string) (jobs.Job, error)
	ReviseRecipe(ctx context.Context, recipeUpdates, imageUpdates string) (jobs.Job, error)
	ConfirmRecipe(ctx context.Context) (jobs.Job, error)

	WatchFeed(ctx context.Context, index int) error
	RefreshFeed(ctx context.Context) error
	Search(ctx context.Context, query string) error
	WatchSearch(ctx context.Context, index int) error
	RetrySearch(ctx context.Context) error

	React(ctx context.Context, videoID string, reaction api.ReactionType) (api.ReactionType, bool, error)
	ToggleTry(ctx context.Context, videoID string) (bool, error)
	Rate(ctx context.Context, req api.RateRequest) (api.MealRating, error)
	ScheduleMeal(ctx context.Context, videoID, date, clock string) (api.Meal, error)

	Reaction(videoID string) (api.ReactionType, bool)
	OnTryList(videoID string) bool
	TryList() []api.TryListItem
	Meals() []api.Meal
}

// View represents the current active view.
type View int

const (
	ViewFeed View = iota
	ViewSearch
	ViewJobs
	ViewLibrary
	ViewActivity
	viewCount
)

var viewNames = [viewCount]string{"Feed", "Search", "Jobs", "Library", "Activity"}

// inputMode is what the text input is collecting.
type inputMode int

const (
	inputNone inputMode = iota
	inputLink
	inputPrompt
	inputSearch
	inputRevise
	inputRate
	inputSchedule
)

// target is the item an input or action applies to.
type target struct {
	videoID string
	mealID  string
	url     string
	title   string
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Engine    Engine
	PollTick  time.Duration
	ThemeName string
	// Clipboard copies text; defaults to the system clipboard.
	Clipboard func(string) error
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx      context.Context
	engine   Engine
	keys     keyMap
	pollTick time.Duration
	copyText func(string) error

	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	snapshot    state.Snapshot
	lastUpdated time.Time
	cursor      [viewCount]int

	input   textinput.Model
	mode    inputMode
	pending target

	spinner spinner.Model
	bar     progress.Model

	activity viewport.Model
	entries  []logtail.Entry
	watcher  *logtail.Watcher

	flash    string
	flashErr bool
	flashAt  time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}
	themeName := opts.ThemeName
	if themeName == "" && opts.Engine != nil {
		themeName = opts.Engine.Prefs().Theme
	}
	copyText := opts.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	ti := textinput.New()
	ti.CharLimit = 500

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return Model{
		ctx:      ctx,
		engine:   opts.Engine,
		keys:     DefaultKeyMap(),
		pollTick: pollTick,
		copyText: copyText,
		theme:    GetTheme(themeName),
		input:    ti,
		spinner:  sp,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		activity: viewport.New(0, 0),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	if m.engine != nil {
		cmds = append(cmds,
			fetchSnapshotCmd(m.engine),
			waitChangedCmd(m.engine.Changed()),
			loadLogsCmd(m.engine.LogPath()),
		)
	}
	if m.watcher != nil {
		cmds = append(cmds, watchLogsCmd(m.ctx, m.watcher))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeActivity()
		return m, nil

	case tickMsg:
		if m.flash != "" && time.Since(m.flashAt) > flashDuration {
			m.flash = ""
		}
		var cmds []tea.Cmd
		cmds = append(cmds, tickCmd(m.pollTick))
		if m.engine != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.engine))
		}
		return m, tea.Batch(cmds...)

	case changedMsg:
		if m.engine == nil {
			return m, nil
		}
		return m, tea.Batch(fetchSnapshotCmd(m.engine), waitChangedCmd(m.engine.Changed()))

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.clampCursors()
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.setFlash(msg.err.Error(), true)
		} else if msg.text != "" {
			m.setFlash(msg.text, false)
		}
		if m.engine != nil {
			return m, fetchSnapshotCmd(m.engine)
		}
		return m, nil

	case logsMsg:
		if msg.err == nil {
			m.entries = msg.entries
			m.refreshActivity()
		}
		return m, nil

	case logChangedMsg:
		if m.engine == nil || m.watcher == nil {
			return m, nil
		}
		return m, tea.Batch(loadLogsCmd(m.engine.LogPath()), watchLogsCmd(m.ctx, m.watcher))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.mode != inputNone {
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.engine != nil {
			name := m.theme.Name
			if err := m.engine.UpdatePrefs(func(p *prefs.Prefs) { p.Theme = name }); err != nil {
				m.setFlash("save theme: "+err.Error(), true)
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		m.currentView = (m.currentView + 1) % viewCount
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.currentView = (m.currentView + viewCount - 1) % viewCount
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewFeed
		return m, nil
	case key.Matches(msg, m.keys.ViewFeed):
		m.currentView = ViewFeed
		return m, nil
	case key.Matches(msg, m.keys.ViewSearch):
		m.currentView = ViewSearch
		return m, nil
	case key.Matches(msg, m.keys.ViewJobs):
		m.currentView = ViewJobs
		return m, nil
	case key.Matches(msg, m.keys.ViewLibrary):
		m.currentView = ViewLibrary
		return m, nil
	case key.Matches(msg, m.keys.ViewActivity):
		m.currentView = ViewActivity
		m.activity.GotoBottom()
		return m, nil
	}

	if m.engine == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		return m.move(-1)
	case key.Matches(msg, m.keys.Down):
		return m.move(1)
	case key.Matches(msg, m.keys.Top):
		return m.moveTo(0)
	case key.Matches(msg, m.keys.Bottom):
		return m.moveTo(m.rowCount() - 1)

	case key.Matches(msg, m.keys.SubmitLink):
		return m.openInput(inputLink, target{}), nil
	case key.Matches(msg, m.keys.SubmitPrompt):
		return m.openInput(inputPrompt, target{}), nil
	case key.Matches(msg, m.keys.Search):
		m.currentView = ViewSearch
		m = m.openInput(inputSearch, target{})
		m.input.SetValue(m.snapshot.SearchState.Query)
		m.input.CursorEnd()
		return m, nil
	case key.Matches(msg, m.keys.Revise):
		if !m.draftReady() {
			m.setFlash("no draft recipe to revise", true)
			return m, nil
		}
		return m.openInput(inputRevise, target{}), nil
	case key.Matches(msg, m.keys.ConfirmDraft):
		if !m.draftReady() {
			m.setFlash("no draft recipe to confirm", true)
			return m, nil
		}
		return m, m.run("Recipe confirmed", func(ctx context.Context) error {
			_, err := m.engine.ConfirmRecipe(ctx)
			return err
		})
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	}

	t, ok := m.selected()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Like):
		return m, m.react(t, api.ReactionLike)
	case key.Matches(msg, m.keys.Dislike):
		return m, m.react(t, api.ReactionDislike)
	case key.Matches(msg, m.keys.Try):
		return m, m.toggleTry(t)
	case key.Matches(msg, m.keys.Rate):
		return m.openInput(inputRate, t), nil
	case key.Matches(msg, m.keys.Schedule):
		return m.openInput(inputSchedule, t), nil
	case key.Matches(msg, m.keys.Copy):
		if t.url == "" {
			m.setFlash("no link for this item", true)
			return m, nil
		}
		if err := m.copyText(t.url); err != nil {
			m.setFlash("copy failed: "+err.Error(), true)
			return m, nil
		}
		m.setFlash("Copied "+t.url, false)
		return m, nil
	}
	return m, nil
}

// handleInputKey routes keys to the text input while it is open.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeInput()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode, t := m.mode, m.pending
		m.closeInput()
		return m.submitInput(mode, t, value)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) openInput(mode inputMode, t target) Model {
	m.mode = mode
	m.pending = t
	m.input.Reset()
	m.input.Prompt = inputPrompts[mode]
	m.input.Placeholder = inputPlaceholders[mode]
	m.input.Focus()
	return m
}

func (m *Model) closeInput() {
	m.mode = inputNone
	m.pending = target{}
	m.input.Blur()
	m.input.Reset()
}

var inputPrompts = map[inputMode]string{
	inputLink:     "Link › ",
	inputPrompt:   "Describe › ",
	inputSearch:   "Search › ",
	inputRevise:   "Revise › ",
	inputRate:     "Rating › ",
	inputSchedule: "When › ",
}

var inputPlaceholders = map[inputMode]string{
	inputLink:     "https://www.youtube.com/shorts/...",
	inputPrompt:   "a spicy peanut noodle bowl for two",
	inputSearch:   "what do you want to cook?",
	inputRevise:   "recipe changes | image changes",
	inputRate:     "1-5 [comment]",
	inputSchedule: "YYYY-MM-DD [HH:MM]",
}

// submitInput turns a finished input into an engine action.
func (m Model) submitInput(mode inputMode, t target, value string) (tea.Model, tea.Cmd) {
	switch mode {
	case inputLink:
		m.currentView = ViewJobs
		return m, m.run("Import started", func(ctx context.Context) error {
			_, err := m.engine.SubmitLink(ctx, value)
			return err
		})
	case inputPrompt:
		m.currentView = ViewJobs
		return m, m.run("Recipe started", func(ctx context.Context) error {
			_, err := m.engine.SubmitPrompt(ctx, value)
			return err
		})
	case inputSearch:
		m.cursor[ViewSearch] = 0
		return m, m.run("", func(ctx context.Context) error {
			return m.engine.Search(ctx, value)
		})
	case inputRevise:
		recipe, image := splitRevision(value)
		return m, m.run("Revision requested", func(ctx context.Context) error {
			_, err := m.engine.ReviseRecipe(ctx, recipe, image)
			return err
		})
	case inputRate:
		req, err := parseRating(value)
		if err != nil {
			m.setFlash(err.Error(), true)
			return m, nil
		}
		req.VideoID, req.MealID = t.videoID, t.mealID
		return m, m.run(fmt.Sprintf("Rated %d/5", req.Rating), func(ctx context.Context) error {
			_, err := m.engine.Rate(ctx, req)
			return err
		})
	case inputSchedule:
		date, clock := splitSlot(value)
		return m, m.run("Meal scheduled", func(ctx context.Context) error {
			_, err := m.engine.ScheduleMeal(ctx, t.videoID, date, clock)
			return err
		})
	}
	return m, nil
}

func (m Model) react(t target, reaction api.ReactionType) tea.Cmd {
	engine := m.engine
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		got, present, err := engine.React(ctx, t.videoID, reaction)
		if err != nil {
			return actionMsg{err: err}
		}
		if !present {
			return actionMsg{text: "Reaction cleared"}
		}
		if got == api.ReactionLike {
			return actionMsg{text: "Liked"}
		}
		return actionMsg{text: "Disliked"}
	}
}

func (m Model) toggleTry(t target) tea.Cmd {
	engine := m.engine
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		on, err := engine.ToggleTry(ctx, t.videoID)
		if err != nil {
			return actionMsg{err: err}
		}
		if on {
			return actionMsg{text: "Added to try list"}
		}
		return actionMsg{text: "Removed from try list"}
	}
}

func (m Model) refresh() tea.Cmd {
	switch m.currentView {
	case ViewSearch:
		return m.run("Retrying search", m.engine.RetrySearch)
	case ViewActivity:
		return loadLogsCmd(m.engine.LogPath())
	default:
		return m.run("Feed refreshed", m.engine.RefreshFeed)
	}
}

// run executes fn off the UI goroutine and reports the outcome.
func (m Model) run(success string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: success}
	}
}

// move shifts the selection in list views and scrolls the activity log.
func (m Model) move(delta int) (tea.Model, tea.Cmd) {
	if m.currentView == ViewActivity {
		if delta < 0 {
			m.activity.LineUp(-delta)
		} else {
			m.activity.LineDown(delta)
		}
		return m, nil
	}
	return m.moveTo(m.cursor[m.currentView] + delta)
}

func (m Model) moveTo(idx int) (tea.Model, tea.Cmd) {
	if m.currentView == ViewActivity {
		if idx <= 0 {
			m.activity.GotoTop()
		} else {
			m.activity.GotoBottom()
		}
		return m, nil
	}
	n := m.rowCount()
	if n == 0 {
		return m, nil
	}
	idx = max(0, min(idx, n-1))
	if idx == m.cursor[m.currentView] {
		return m, nil
	}
	m.cursor[m.currentView] = idx
	switch m.currentView {
	case ViewFeed:
		return m, m.run("", func(ctx context.Context) error { return m.engine.WatchFeed(ctx, idx) })
	case ViewSearch:
		return m, m.run("", func(ctx context.Context) error { return m.engine.WatchSearch(ctx, idx) })
	}
	return m, nil
}

// rowCount is the number of selectable rows in the current view.
func (m Model) rowCount() int {
	switch m.currentView {
	case ViewFeed:
		return len(m.snapshot.Feed)
	case ViewSearch:
		return len(m.snapshot.Search)
	case ViewLibrary:
		return len(m.libraryRows())
	}
	return 0
}

func (m *Model) clampCursors() {
	counts := map[View]int{
		ViewFeed:   len(m.snapshot.Feed),
		ViewSearch: len(m.snapshot.Search),
	}
	if m.engine != nil {
		counts[ViewLibrary] = len(m.libraryRows())
	}
	for v, n := range counts {
		if m.cursor[v] >= n {
			m.cursor[v] = max(0, n-1)
		}
	}
}

// selected returns the item under the cursor in the current view.
func (m Model) selected() (target, bool) {
	idx := m.cursor[m.currentView]
	switch m.currentView {
	case ViewFeed:
		if idx < len(m.snapshot.Feed) {
			v := m.snapshot.Feed[idx]
			return target{videoID: v.VideoID, url: v.VideoURL, title: v.MealName}, true
		}
	case ViewSearch:
		if idx < len(m.snapshot.Search) {
			v := m.snapshot.Search[idx]
			return target{videoID: v.VideoID, url: v.URL(), title: v.Title}, true
		}
	case ViewLibrary:
		rows := m.libraryRows()
		if idx < len(rows) {
			return rows[idx].target, true
		}
	}
	return target{}, false
}

func (m Model) draftReady() bool {
	job, ok := m.snapshot.Job(jobs.KindManualPrompt)
	return ok && job.Draft && job.Status == jobs.StatusCompleted
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
	m.flashAt = time.Now()
}

// splitRevision splits "recipe changes | image changes".
func splitRevision(value string) (string, string) {
	recipe, image, _ := strings.Cut(value, "|")
	return strings.TrimSpace(recipe), strings.TrimSpace(image)
}

// splitSlot splits "YYYY-MM-DD [HH:MM]".
func splitSlot(value string) (string, string) {
	fields := strings.Fields(value)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], fields[1]
	}
}

var errRatingFormat = errors.New("rating must start with a number from 1 to 5")

// parseRating reads "N [comment]".
func parseRating(value string) (api.RateRequest, error) {
	head, rest, _ := strings.Cut(strings.TrimSpace(value), " ")
	n, err := strconv.Atoi(head)
	if err != nil {
		return api.RateRequest{}, errRatingFormat
	}
	return api.RateRequest{Rating: n, Comment: strings.TrimSpace(rest)}, nil
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type changedMsg struct{}

type actionMsg struct {
	text string
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(engine Engine) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(engine.Snapshot())
	}
}

func waitChangedCmd(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// ends.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	opts.Context = ctx

	m := New(opts)
	if opts.Engine != nil {
		if w, err := logtail.NewWatcher(opts.Engine.LogPath(), nil); err == nil {
			if err := w.Start(ctx); err == nil {
				m.watcher = w
				defer w.Stop()
			}
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
