package localdb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionsRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	got, err := s.LoadCollection(ctx, "reactions")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.SaveCollection(ctx, "reactions", map[string][]byte{
		"v1": []byte(`"LIKE"`),
		"v2": []byte(`"DISLIKE"`),
	}))
	require.NoError(t, s.SaveCollection(ctx, "trylist", map[string][]byte{"v9": []byte(`{}`)}))

	// A save replaces the whole collection.
	require.NoError(t, s.SaveCollection(ctx, "reactions", map[string][]byte{"v2": []byte(`"LIKE"`)}))
	got, err = s.LoadCollection(ctx, "reactions")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"v2": []byte(`"LIKE"`)}, got)

	other, err := s.LoadCollection(ctx, "trylist")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestActiveJobs(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, ok, err := s.ActiveJob("link_import")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveActiveJob("link_import", "job-1"))
	require.NoError(t, s.SaveActiveJob("link_import", "job-2"))
	require.NoError(t, s.SaveActiveJob("manual_prompt", "job-3"))

	id, ok, err := s.ActiveJob("link_import")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "job-2", id)

	require.NoError(t, s.ClearActiveJob("link_import"))
	_, ok, err = s.ActiveJob("link_import")
	require.NoError(t, err)
	assert.False(t, ok)
	id, _, _ = s.ActiveJob("manual_prompt")
	assert.Equal(t, "job-3", id)
}

func TestOpen_SecondOpenIsLocked(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(dir)
	require.NoError(t, err)

	_, err = Open(dir)
	assert.True(t, errors.Is(err, ErrLocked))

	require.NoError(t, first.Close())
	second, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestDataSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveActiveJob("link_import", "job-7"))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	id, ok, err := s.ActiveJob("link_import")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "job-7", id)
}
