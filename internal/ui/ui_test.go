package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/failure"
	"github.com/homeyum/yum/internal/jobs"
	"github.com/homeyum/yum/internal/prefs"
	"github.com/homeyum/yum/internal/state"
)

type fakeEngine struct {
	mu        sync.Mutex
	snap      state.Snapshot
	prefs     prefs.Prefs
	reactions map[string]api.ReactionType
	tries     map[string]bool
	meals     []api.Meal

	watched   []int
	reacted   []string
	rated     []api.RateRequest
	scheduled []string
	links     []string
	searched  []string
	confirmed int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		prefs:     prefs.Default(),
		reactions: map[string]api.ReactionType{},
		tries:     map[string]bool{},
		snap: state.Snapshot{
			HasView: true,
			View: state.View{
				Feed: []api.Video{
					{VideoID: "v1", MealName: "Crispy Tofu", VideoURL: "https://example.com/v1"},
					{VideoID: "v2", MealName: "Miso Ramen", VideoURL: "https://example.com/v2"},
					{VideoID: "v3", MealName: "Shakshuka", VideoURL: "https://example.com/v3"},
				},
			},
		},
	}
}

func (f *fakeEngine) Snapshot() state.Snapshot                { return f.snap }
func (f *fakeEngine) Changed() <-chan struct{}                { return nil }
func (f *fakeEngine) LogPath() string                         { return "" }
func (f *fakeEngine) Prefs() prefs.Prefs                      { return f.prefs }
func (f *fakeEngine) UpdatePrefs(fn func(*prefs.Prefs)) error { fn(&f.prefs); return nil }

func (f *fakeEngine) SubmitLink(_ context.Context, url string) (jobs.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links = append(f.links, url)
	return jobs.Job{Kind: jobs.KindLinkImport, Status: jobs.StatusProcessing}, nil
}

func (f *fakeEngine) SubmitPrompt(context.Context, string) (jobs.Job, error) {
	return jobs.Job{}, nil
}

func (f *fakeEngine) ReviseRecipe(context.Context, string, string) (jobs.Job, error) {
	return jobs.Job{}, nil
}

func (f *fakeEngine) ConfirmRecipe(context.Context) (jobs.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed++
	return jobs.Job{}, nil
}

func (f *fakeEngine) WatchFeed(_ context.Context, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watched = append(f.watched, index)
	return nil
}

func (f *fakeEngine) RefreshFeed(context.Context) error { return nil }

func (f *fakeEngine) Search(_ context.Context, query string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, query)
	return nil
}

func (f *fakeEngine) WatchSearch(context.Context, int) error { return nil }
func (f *fakeEngine) RetrySearch(context.Context) error      { return nil }

func (f *fakeEngine) React(_ context.Context, videoID string, r api.ReactionType) (api.ReactionType, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reacted = append(f.reacted, videoID)
	if f.reactions[videoID] == r {
		delete(f.reactions, videoID)
		return "", false, nil
	}
	f.reactions[videoID] = r
	return r, true, nil
}

func (f *fakeEngine) ToggleTry(_ context.Context, videoID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tries[videoID] = !f.tries[videoID]
	return f.tries[videoID], nil
}

func (f *fakeEngine) Rate(_ context.Context, req api.RateRequest) (api.MealRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rated = append(f.rated, req)
	return api.MealRating{VideoID: req.VideoID, Rating: req.Rating}, nil
}

func (f *fakeEngine) ScheduleMeal(_ context.Context, videoID, date, clock string) (api.Meal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, videoID+" "+date+" "+clock)
	return api.Meal{}, nil
}

func (f *fakeEngine) Reaction(videoID string) (api.ReactionType, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reactions[videoID]
	return r, ok
}

func (f *fakeEngine) OnTryList(videoID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tries[videoID]
}

func (f *fakeEngine) TryList() []api.TryListItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []api.TryListItem
	for id, on := range f.tries {
		if on {
			out = append(out, api.TryListItem{VideoID: id})
		}
	}
	return out
}

func (f *fakeEngine) Meals() []api.Meal { return f.meals }

func newTestModel(t *testing.T, engine *fakeEngine) Model {
	t.Helper()
	m := New(Options{Engine: engine, Clipboard: func(string) error { return nil }})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	next, _ = next.Update(snapshotMsg(engine.Snapshot()))
	return next.(Model)
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runAction(t *testing.T, cmd tea.Cmd) actionMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(actionMsg)
	if !ok {
		t.Fatalf("command returned %T, want actionMsg", msg)
	}
	return msg
}

func TestView_RendersFeedWithBadges(t *testing.T) {
	engine := newFakeEngine()
	engine.reactions["v2"] = api.ReactionLike
	engine.tries["v3"] = true
	m := newTestModel(t, engine)

	out := m.View()
	for _, want := range []string{"yum", "Crispy Tofu", "Miso Ramen", "LIKE", "TRY", "3 loaded"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestView_LoadingBeforeWindowSize(t *testing.T) {
	m := New(Options{Engine: newFakeEngine()})
	if got := m.View(); got != "Loading..." {
		t.Fatalf("View() = %q, want Loading...", got)
	}
}

func TestMove_ReportsFeedPosition(t *testing.T) {
	engine := newFakeEngine()
	m := newTestModel(t, engine)

	m, cmd := press(t, m, "j")
	if m.cursor[ViewFeed] != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor[ViewFeed])
	}
	if msg := runAction(t, cmd); msg.err != nil {
		t.Fatalf("WatchFeed error: %v", msg.err)
	}
	m, cmd = press(t, m, "G")
	runAction(t, cmd)
	if m.cursor[ViewFeed] != 2 {
		t.Fatalf("cursor = %d, want 2", m.cursor[ViewFeed])
	}
	if len(engine.watched) != 2 || engine.watched[0] != 1 || engine.watched[1] != 2 {
		t.Fatalf("watched = %v, want [1 2]", engine.watched)
	}

	// Past the end is a no-op.
	if _, cmd = press(t, m, "j"); cmd != nil {
		t.Fatal("moving past the last row should not report a position")
	}
}

func TestReact_TogglesAndFlashes(t *testing.T) {
	engine := newFakeEngine()
	m := newTestModel(t, engine)

	_, cmd := press(t, m, "l")
	if msg := runAction(t, cmd); msg.text != "Liked" {
		t.Fatalf("flash = %q, want Liked", msg.text)
	}
	_, cmd = press(t, m, "l")
	if msg := runAction(t, cmd); msg.text != "Reaction cleared" {
		t.Fatalf("flash = %q, want Reaction cleared", msg.text)
	}
	if len(engine.reacted) != 2 || engine.reacted[0] != "v1" {
		t.Fatalf("reacted = %v", engine.reacted)
	}
}

func TestToggleTry(t *testing.T) {
	engine := newFakeEngine()
	m := newTestModel(t, engine)

	_, cmd := press(t, m, "t")
	if msg := runAction(t, cmd); msg.text != "Added to try list" {
		t.Fatalf("flash = %q", msg.text)
	}
	if !engine.tries["v1"] {
		t.Fatal("v1 should be on the try list")
	}
}

func TestRateInput_SubmitsRatingAndComment(t *testing.T) {
	engine := newFakeEngine()
	m := newTestModel(t, engine)
	m, _ = press(t, m, "j")

	m, _ = press(t, m, "r")
	if m.mode != inputRate {
		t.Fatalf("mode = %v, want inputRate", m.mode)
	}
	m, _ = press(t, m, "4 great weeknight dinner")
	m, cmd := press(t, m, "enter")
	if m.mode != inputNone {
		t.Fatal("input should close on enter")
	}
	if msg := runAction(t, cmd); msg.err != nil {
		t.Fatalf("rate error: %v", msg.err)
	}
	if len(engine.rated) != 1 {
		t.Fatalf("rated = %v", engine.rated)
	}
	got := engine.rated[0]
	if got.VideoID != "v2" || got.Rating != 4 || got.Comment != "great weeknight dinner" {
		t.Fatalf("rate request = %+v", got)
	}
}

func TestRateInput_RejectsNonNumeric(t *testing.T) {
	engine := newFakeEngine()
	m := newTestModel(t, engine)

	m, _ = press(t, m, "r")
	m, _ = press(t, m, "great")
	m, cmd := press(t, m, "enter")
	if cmd != nil {
		t.Fatal("invalid rating should not call the engine")
	}
	if !m.flashErr || m.flash == "" {
		t.Fatalf("expected an error flash, got %q", m.flash)
	}
}

func TestInput_EscCancels(t *testing.T) {
	engine := newFakeEngine()
	m := newTestModel(t, engine)

	m, _ = press(t, m, "a")
	m, _ = press(t, m, "https://youtu.be/x")
	m, cmd := press(t, m, "esc")
	if m.mode != inputNone || cmd != nil {
		t.Fatal("esc should close the input without an action")
	}
	if len(engine.links) != 0 {
		t.Fatalf("links = %v, want none", engine.links)
	}
}

func TestSubmitLink_SwitchesToJobs(t *testing.T) {
	engine := newFakeEngine()
	m := newTestModel(t, engine)

	m, _ = press(t, m, "a")
	m, _ = press(t, m, "https://youtu.be/x")
	m, cmd := press(t, m, "enter")
	if m.currentView != ViewJobs {
		t.Fatalf("view = %v, want jobs", m.currentView)
	}
	runAction(t, cmd)
	if len(engine.links) != 1 || engine.links[0] != "https://youtu.be/x" {
		t.Fatalf("links = %v", engine.links)
	}
}

func TestSchedule_PassesDateAndOptionalTime(t *testing.T) {
	engine := newFakeEngine()
	m := newTestModel(t, engine)

	m, _ = press(t, m, "s")
	m, _ = press(t, m, "2026-10-20")
	_, cmd := press(t, m, "enter")
	runAction(t, cmd)
	if len(engine.scheduled) != 1 || engine.scheduled[0] != "v1 2026-10-20 " {
		t.Fatalf("scheduled = %q", engine.scheduled)
	}
}

func TestSearch_OpensOnSearchView(t *testing.T) {
	engine := newFakeEngine()
	m := newTestModel(t, engine)

	m, _ = press(t, m, "/")
	if m.currentView != ViewSearch || m.mode != inputSearch {
		t.Fatalf("view=%v mode=%v", m.currentView, m.mode)
	}
	m, _ = press(t, m, "tofu")
	_, cmd := press(t, m, "enter")
	runAction(t, cmd)
	if len(engine.searched) != 1 || engine.searched[0] != "tofu" {
		t.Fatalf("searched = %v", engine.searched)
	}
}

func TestConfirm_RequiresDraft(t *testing.T) {
	engine := newFakeEngine()
	m := newTestModel(t, engine)

	m, cmd := press(t, m, "c")
	if cmd != nil || !m.flashErr {
		t.Fatal("confirm without a draft should only flash an error")
	}

	engine.snap.Jobs = []jobs.Job{{ID: "j1", Kind: jobs.KindManualPrompt, Status: jobs.StatusCompleted, Draft: true}}
	next, _ := m.Update(snapshotMsg(engine.Snapshot()))
	m = next.(Model)
	_, cmd = press(t, m, "c")
	runAction(t, cmd)
	if engine.confirmed != 1 {
		t.Fatalf("confirmed = %d, want 1", engine.confirmed)
	}
}

func TestCopy_UsesClipboard(t *testing.T) {
	engine := newFakeEngine()
	var copied string
	m := New(Options{Engine: engine, Clipboard: func(s string) error { copied = s; return nil }})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	next, _ = next.Update(snapshotMsg(engine.Snapshot()))
	m = next.(Model)

	m, _ = press(t, m, "y")
	if copied != "https://example.com/v1" {
		t.Fatalf("copied = %q", copied)
	}
	if !strings.Contains(m.flash, "Copied") {
		t.Fatalf("flash = %q", m.flash)
	}
}

func TestJobsView_ShowsProgress(t *testing.T) {
	engine := newFakeEngine()
	engine.snap.Jobs = []jobs.Job{{
		ID:     "j1",
		Kind:   jobs.KindLinkImport,
		Status: jobs.StatusProcessing,
		Steps: []jobs.Step{
			{Key: "metadata_extraction", Status: jobs.StepCompleted},
			{Key: "transcription", Status: jobs.StepProcessing},
			{Key: "video_analysis", Status: jobs.StepPending},
		},
	}}
	m := newTestModel(t, engine)
	m, _ = press(t, m, "3")

	out := m.View()
	for _, want := range []string{"Import from link", "PROCESSING", "20%", "Listening to the video", "Nothing running."} {
		if !strings.Contains(out, want) {
			t.Fatalf("jobs view missing %q:\n%s", want, out)
		}
	}
}

func TestLibraryView_ListsMealsThenTryList(t *testing.T) {
	engine := newFakeEngine()
	engine.meals = []api.Meal{{MealID: "m1", VideoID: "v2", MealDate: "2026-10-20", MealTime: "18:00"}}
	engine.tries["v3"] = true
	m := newTestModel(t, engine)
	m, _ = press(t, m, "4")

	rows := m.libraryRows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].mealID != "m1" || rows[0].title != "Miso Ramen" || rows[1].title != "Shakshuka" {
		t.Fatalf("rows = %+v", rows)
	}

	// Rating from the library carries the meal id.
	m, _ = press(t, m, "r")
	m, _ = press(t, m, "5")
	_, cmd := press(t, m, "enter")
	runAction(t, cmd)
	if len(engine.rated) != 1 || engine.rated[0].MealID != "m1" {
		t.Fatalf("rated = %+v", engine.rated)
	}
}

func TestActionError_Flashes(t *testing.T) {
	m := newTestModel(t, newFakeEngine())
	next, _ := m.Update(actionMsg{err: errors.New("boom")})
	m = next.(Model)
	if m.flash != "boom" || !m.flashErr {
		t.Fatalf("flash = %q err=%v", m.flash, m.flashErr)
	}
}

func TestCycleTheme_SavesPreference(t *testing.T) {
	engine := newFakeEngine()
	m := newTestModel(t, engine)
	m, _ = press(t, m, "T")
	if m.theme.Name != "Kanagawa" || engine.prefs.Theme != "Kanagawa" {
		t.Fatalf("theme = %q, prefs = %q", m.theme.Name, engine.prefs.Theme)
	}
}

func TestClassifyConnectionError(t *testing.T) {
	if got := classifyConnectionError(failure.ErrAuth); got != "SIGN-IN NEEDED" {
		t.Fatalf("auth = %q", got)
	}
	if got := classifyConnectionError(errors.New("x")); got != "SYNC ERROR" {
		t.Fatalf("other = %q", got)
	}
}

func TestSplitHelpers(t *testing.T) {
	if r, i := splitRevision("less salt | brighter photo"); r != "less salt" || i != "brighter photo" {
		t.Fatalf("splitRevision = %q, %q", r, i)
	}
	if r, i := splitRevision("less salt"); r != "less salt" || i != "" {
		t.Fatalf("splitRevision = %q, %q", r, i)
	}
	if d, c := splitSlot(" 2026-10-20  19:30 "); d != "2026-10-20" || c != "19:30" {
		t.Fatalf("splitSlot = %q, %q", d, c)
	}
	if _, err := parseRating(""); err == nil {
		t.Fatal("empty rating should fail")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello world", 8); got != "hello..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("hi", 8); got != "hi" {
		t.Fatalf("truncate = %q", got)
	}
}
