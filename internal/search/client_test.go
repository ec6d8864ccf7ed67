package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeyum/yum/internal/failure"
)

const samplePage = `{
  "nextPageToken": "CAoQAA",
  "items": [
    {"id": {"videoId": "a1"}, "snippet": {"title": "Crispy tofu #Shorts", "description": "",
      "thumbnails": {"default": {"url": "d", "width": 120, "height": 90}}}},
    {"id": {"videoId": "b2"}, "snippet": {"title": "Ramen", "description": "weeknight",
      "thumbnails": {"high": {"url": "h", "width": 360, "height": 640}}}},
    {"id": {"channelId": "UC123"}, "snippet": {"title": "channel result"}}
  ]
}`

func TestSearch_DecodesAndSendsParams(t *testing.T) {
	var got atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePage))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL+"/youtube/v3/search", "k3y", WithPageSize(25))
	require.NoError(t, err)

	res, err := c.Search(context.Background(), "  tofu  ", "tok")
	require.NoError(t, err)
	require.Len(t, res.Videos, 2, "items without a video id are dropped")
	assert.Equal(t, "CAoQAA", res.NextPageToken)
	assert.Equal(t, "a1", res.Videos[0].VideoID)
	require.NotNil(t, res.Videos[1].High)
	assert.Equal(t, 640, res.Videos[1].High.Height)

	q := got.Load().(url.Values)
	assert.Equal(t, []string{"tofu"}, q["q"])
	assert.Equal(t, []string{"snippet"}, q["part"])
	assert.Equal(t, []string{"short"}, q["videoDuration"])
	assert.Equal(t, []string{"video"}, q["type"])
	assert.Equal(t, []string{"25"}, q["maxResults"])
	assert.Equal(t, []string{"tok"}, q["pageToken"])
	assert.Equal(t, []string{"k3y"}, q["key"])
}

func TestSearch_CacheShieldsProvider(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(samplePage))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "k", WithCache(NewMemoryCache(), time.Minute))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res, err := c.Search(context.Background(), "Tofu", "")
		require.NoError(t, err)
		require.Len(t, res.Videos, 2)
	}
	assert.Equal(t, int32(1), hits.Load())

	_, err = c.Search(context.Background(), "tofu", "CAoQAA")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load(), "a different page token is a different entry")
}

func TestSearch_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "k")
	require.NoError(t, err)
	_, err = c.Search(context.Background(), "tofu", "")
	assert.True(t, failure.IsRetryable(err), "429 should be retried later: %v", err)

	_, err = c.Search(context.Background(), " ", "")
	assert.True(t, errors.Is(err, failure.ErrValidation))

	noKey, err := NewClient(server.URL, "")
	require.NoError(t, err)
	_, err = noKey.Search(context.Background(), "tofu", "")
	assert.True(t, errors.Is(err, failure.ErrAuth))
}

func TestIsLikelyShort(t *testing.T) {
	tests := []struct {
		name string
		v    Video
		want bool
	}{
		{"tag in title", Video{Title: "Pasta #SHORTS"}, true},
		{"tag in description", Video{Description: "quick one #shorts"}, true},
		{"portrait high thumbnail", Video{High: &Thumbnail{Width: 360, Height: 640}}, true},
		{"landscape high wins over portrait default", Video{
			High:    &Thumbnail{Width: 480, Height: 360},
			Default: &Thumbnail{Width: 90, Height: 120},
		}, false},
		{"portrait default used without high", Video{Default: &Thumbnail{Width: 90, Height: 120}}, true},
		{"no signal", Video{Title: "Long braise"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLikelyShort(tt.v))
		})
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
