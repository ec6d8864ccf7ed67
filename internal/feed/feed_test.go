package feed

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/search"
)

type fakeFeed struct {
	mu     sync.Mutex
	total  int
	cursor []string
}

func (f *fakeFeed) FetchFeed(_ context.Context, pageSize int, last string) ([]api.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursor = append(f.cursor, last)
	start := 0
	if last != "" {
		_, _ = fmt.Sscanf(last, "v%d", &start)
		start++
	}
	var out []api.Video
	for i := start; i < f.total && len(out) < pageSize; i++ {
		out = append(out, api.Video{VideoID: fmt.Sprintf("v%d", i)})
	}
	return out, nil
}

func (f *fakeFeed) cursors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cursor...)
}

func TestFeed_PagesByLastVideoID(t *testing.T) {
	backend := &fakeFeed{total: 25}
	f := New(backend, Options{PageSize: 10, TargetSize: 10, Threshold: 3})

	require.NoError(t, f.Load(context.Background()))
	assert.Len(t, f.Videos(), 10)
	assert.True(t, f.HasMore())

	require.NoError(t, f.SetCurrentIndex(context.Background(), 7))
	assert.Len(t, f.Videos(), 20)
	require.NoError(t, f.SetCurrentIndex(context.Background(), 17))
	assert.Len(t, f.Videos(), 25)
	assert.False(t, f.HasMore(), "a short page exhausts the feed")

	assert.Equal(t, []string{"", "v9", "v19"}, backend.cursors())
	assert.Equal(t, 17, f.CurrentIndex())
}

func TestFeed_RefreshStartsOver(t *testing.T) {
	backend := &fakeFeed{total: 4}
	f := New(backend, Options{PageSize: 10})
	require.NoError(t, f.Load(context.Background()))
	require.NoError(t, f.SetCurrentIndex(context.Background(), 2))
	assert.False(t, f.HasMore())

	backend.mu.Lock()
	backend.total = 6
	backend.mu.Unlock()

	require.NoError(t, f.Refresh(context.Background()))
	assert.Len(t, f.Videos(), 6)
	assert.Equal(t, 0, f.CurrentIndex())
}

type fakeSearch struct {
	mu    sync.Mutex
	pages map[string]search.Result
	calls []string
}

func (f *fakeSearch) Search(_ context.Context, query, token string) (search.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, query+"|"+token)
	return f.pages[query+"|"+token], nil
}

func portrait(id string) search.Video {
	return search.Video{VideoID: id, High: &search.Thumbnail{Width: 360, Height: 640}}
}

func landscape(id string) search.Video {
	return search.Video{VideoID: id, High: &search.Thumbnail{Width: 640, Height: 360}}
}

func TestSearch_AdmitsShortsAndFollowsTokens(t *testing.T) {
	provider := &fakeSearch{pages: map[string]search.Result{
		"tofu|":   {Videos: []search.Video{landscape("l1"), {VideoID: "t1", Title: "tofu #shorts"}}, NextPageToken: "p2"},
		"tofu|p2": {Videos: []search.Video{portrait("s2"), landscape("l2")}},
	}}
	s := NewSearch(provider, SearchOptions{TargetSize: 5})

	require.NoError(t, s.SetQuery(context.Background(), " tofu "))
	require.NoError(t, s.SetCurrentIndex(context.Background(), 0))

	var ids []string
	for _, v := range s.Results() {
		ids = append(ids, v.VideoID)
	}
	assert.Equal(t, []string{"t1", "s2"}, ids)
	assert.True(t, s.State().Exhausted)
	assert.Equal(t, []string{"tofu|", "tofu|p2"}, provider.calls)
}

func TestSearch_IgnoresBlankAndRepeatedQuery(t *testing.T) {
	provider := &fakeSearch{pages: map[string]search.Result{
		"ramen|": {Videos: []search.Video{portrait("r1")}},
	}}
	s := NewSearch(provider, SearchOptions{})

	require.NoError(t, s.SetQuery(context.Background(), "   "))
	require.NoError(t, s.SetCurrentIndex(context.Background(), 0))
	require.NoError(t, s.Retry(context.Background()))
	assert.Empty(t, provider.calls)

	require.NoError(t, s.SetQuery(context.Background(), "ramen"))
	require.NoError(t, s.SetQuery(context.Background(), "ramen"))
	assert.Len(t, provider.calls, 1)
	assert.Equal(t, "ramen", s.Query())
	assert.Len(t, s.Results(), 1)
}
