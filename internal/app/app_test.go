package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/auth"
	"github.com/homeyum/yum/internal/config"
	"github.com/homeyum/yum/internal/failure"
	"github.com/homeyum/yum/internal/fakeapi"
	"github.com/homeyum/yum/internal/jobs"
)

const testToken = "tok"

type harness struct {
	fake   *fakeapi.Server
	server *httptest.Server
	dir    string
	cfg    config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	fake := fakeapi.New(fakeapi.Options{
		Token:         testToken,
		Videos:        fakeapi.SampleVideos(25),
		SearchResults: fakeapi.SampleSearch(30),
	})
	server := httptest.NewServer(fake.Handler())
	t.Cleanup(server.Close)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.APIBase = server.URL
	cfg.SearchEndpoint = server.URL + "/youtube/v3/search"
	cfg.SearchAPIKey = "k"
	cfg.CacheDir = dir
	// Long intervals keep background pollers out of the way; tests drive
	// polling explicitly.
	cfg.JobPollSeconds = 60
	cfg.DisplayPollSeconds = 60
	return &harness{fake: fake, server: server, dir: dir, cfg: cfg}
}

func (h *harness) open(t *testing.T) *App {
	t.Helper()
	cfg := h.cfg
	a, err := New(context.Background(), Options{
		Config:     &cfg,
		PrefsPath:  filepath.Join(h.dir, "prefs.toml"),
		Tokens:     auth.Static(testToken),
		LogOutputs: []string{filepath.Join(h.dir, "yum.log")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func pollUntilSettled(t *testing.T, a *App, kind jobs.Kind) jobs.Job {
	t.Helper()
	tracker := a.tracker(kind)
	job := tracker.Job()
	for i := 0; i < 50 && job.Status == jobs.StatusProcessing && !job.Draft; i++ {
		var err error
		job, err = tracker.Poll(context.Background())
		if err != nil && !errors.Is(err, failure.ErrRemoteJob) {
			require.NoError(t, err)
		}
	}
	return job
}

func TestStart_LoadsFeedAndPublishesSnapshot(t *testing.T) {
	h := newHarness(t)
	a := h.open(t)

	require.NoError(t, a.Start(context.Background()))
	assert.True(t, a.Persistent())
	assert.Len(t, a.Videos(), 10)

	require.Eventually(t, func() bool {
		snap := a.Snapshot()
		return snap.HasView && len(snap.Feed) == 10
	}, 2*time.Second, 10*time.Millisecond)

	snap := a.Snapshot()
	require.Len(t, snap.Jobs, 2)
	for _, j := range snap.Jobs {
		assert.Equal(t, jobs.StatusIdle, j.Status)
	}
	assert.False(t, snap.IsOffline())
}

func TestSubmitLink_CompletionRefreshesFeed(t *testing.T) {
	h := newHarness(t)
	a := h.open(t)
	require.NoError(t, a.Start(context.Background()))

	job, err := a.SubmitLink(context.Background(), "https://www.youtube.com/shorts/abc")
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	job = pollUntilSettled(t, a, jobs.KindLinkImport)
	require.Equal(t, jobs.StatusCompleted, job.Status)
	require.NotNil(t, job.Recipe)
	published := job.Recipe.VideoID
	require.NotEmpty(t, published)

	require.Eventually(t, func() bool {
		videos := a.Videos()
		return len(videos) > 0 && videos[0].VideoID == published
	}, 2*time.Second, 10*time.Millisecond, "completed job should refresh the feed")
}

func TestSubmitLink_EmptyIsValidationError(t *testing.T) {
	h := newHarness(t)
	a := h.open(t)

	_, err := a.SubmitLink(context.Background(), "   ")
	assert.True(t, errors.Is(err, failure.ErrValidation))
	assert.Equal(t, 0, h.fake.Calls(http.MethodPost, "/api/recipe-jobs"))
}

func TestClose_PersistsLibraryForNextRun(t *testing.T) {
	h := newHarness(t)
	first := h.open(t)
	require.NoError(t, first.Start(context.Background()))

	got, ok, err := first.React(context.Background(), "v001", api.ReactionLike)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, api.ReactionLike, got)
	require.NoError(t, first.Close())

	// The server is down for reactions on the next start; the local
	// snapshot still shows the like.
	h.fake.FailNext(http.MethodGet, "/api/videos/reactions", http.StatusInternalServerError, 1, "down")
	second := h.open(t)
	err = second.Start(context.Background())
	require.Error(t, err)

	reaction, ok := second.Library().Reactions.ReactionFor("v001")
	assert.True(t, ok)
	assert.Equal(t, api.ReactionLike, reaction)
}

func TestStart_ResumesPersistedJob(t *testing.T) {
	h := newHarness(t)
	h.fake.HoldJobs(true)

	first := h.open(t)
	job, err := first.SubmitLink(context.Background(), "https://www.youtube.com/shorts/abc")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	h.fake.HoldJobs(false)
	second := h.open(t)
	require.NoError(t, second.Start(context.Background()))
	assert.Equal(t, job.ID, second.Job(jobs.KindLinkImport).ID)

	settled := pollUntilSettled(t, second, jobs.KindLinkImport)
	assert.Equal(t, jobs.StatusCompleted, settled.Status)
}

func TestNew_SecondInstanceRunsWithoutPersistence(t *testing.T) {
	h := newHarness(t)
	first := h.open(t)
	second := h.open(t)

	assert.True(t, first.Persistent())
	assert.False(t, second.Persistent())
}

func TestRefresh_RecordsFailuresAndRecovers(t *testing.T) {
	h := newHarness(t)
	a := h.open(t)
	require.NoError(t, a.Start(context.Background()))
	a.StopPoller()

	h.fake.HoldJobs(true)
	_, err := a.SubmitLink(context.Background(), "https://www.youtube.com/shorts/abc")
	require.NoError(t, err)

	h.fake.FailNext(http.MethodGet, "/api/recipe-jobs/{id}", http.StatusServiceUnavailable, 2, "busy")
	err = a.refresh(context.Background())
	require.Error(t, err)
	assert.True(t, failure.IsRetryable(err))
	err = a.refresh(context.Background())
	require.Error(t, err)

	snap := a.Snapshot()
	assert.Equal(t, 2, snap.ConsecutiveFailures)
	assert.True(t, snap.IsOffline())
	assert.Equal(t, jobs.StatusProcessing, a.Job(jobs.KindLinkImport).Status, "transport errors do not fail the job")

	require.NoError(t, a.refresh(context.Background()))
	snap = a.Snapshot()
	assert.Equal(t, 0, snap.ConsecutiveFailures)
	assert.True(t, snap.Processing())
}

func TestSearch_RemembersQuery(t *testing.T) {
	h := newHarness(t)
	a := h.open(t)

	require.NoError(t, a.Search(context.Background(), "  tofu "))
	assert.NotEmpty(t, a.SearchResults())
	assert.Equal(t, "tofu", a.Prefs().LastQuery)

	reopened := h.open(t)
	assert.Equal(t, "tofu", reopened.Prefs().LastQuery)
}

func TestScheduleMeal_UsesPreferredTime(t *testing.T) {
	h := newHarness(t)
	a := h.open(t)

	meal, err := a.ScheduleMeal(context.Background(), "v001", "2026-10-20", "")
	require.NoError(t, err)
	assert.Equal(t, "18:00", meal.MealTime)
	assert.Len(t, a.Library().Schedule.MealsByDate("2026-10-20"), 1)
}

func TestToggleTry(t *testing.T) {
	h := newHarness(t)
	a := h.open(t)

	on, err := a.ToggleTry(context.Background(), "v002")
	require.NoError(t, err)
	assert.True(t, on)

	on, err = a.ToggleTry(context.Background(), "v002")
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, a.Library().TryList.Contains("v002"))
}

func TestClose_IsIdempotent(t *testing.T) {
	h := newHarness(t)
	a := h.open(t)
	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}
