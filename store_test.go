package golpo

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "stories.db"))
	require.NoError(t, err, "create store")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	assert.NotNil(t, s.db)
}

func TestSaveAndGetStory(t *testing.T) {
	s := setupTestStore(t)

	story := Story{
		ID:         "42",
		Slug:       "bhuter-golpo",
		Title:      "ভূতের গল্প",
		Author:     "লেখক",
		Category:   "ভৌতিক",
		Tags:       []string{"ভূত", "Night", "night"},
		Status:     "published",
		Date:       "2024-01-15",
		UpdatedAt:  "2024-01-20",
		CoverImage: "/uploads/cover.jpg",
		Excerpt:    "এক রাতের কথা।",
		Parts: []StoryPart{
			{Title: "পর্ব ১", Slug: "one", Content: "<p>শুরু</p>"},
			{Title: "পর্ব ২", Content: "<p>শেষ</p>"},
		},
	}
	require.NoError(t, s.SaveStory(story))

	got, err := s.GetStory("42")
	require.NoError(t, err)

	want := story
	want.Tags = []string{"ভূত", "night"}
	assert.Empty(t, cmp.Diff(want, got), "GetStory mismatch (-want +got)")
}

func TestGetStoryNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetStory("missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestSaveStoryRequiresID(t *testing.T) {
	s := setupTestStore(t)
	assert.Error(t, s.SaveStory(Story{Title: "no id"}))
}

func TestSaveStoryUpserts(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.SaveStory(Story{ID: "1", Title: "Old"}))
	require.NoError(t, s.SaveStory(Story{ID: "1", Title: "New"}))

	stories, err := s.ListStories()
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "New", stories[0].Title)
}

func TestListStoriesOrderedByDate(t *testing.T) {
	s := setupTestStore(t)
	n, err := s.SaveStories([]Story{
		{ID: "a", Date: "2024-01-01"},
		{ID: "b", Date: "2024-03-01"},
		{Title: "skipped, no id"},
		{ID: "c", Date: "2024-02-01", Status: "draft"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	stories, err := s.ListStories()
	require.NoError(t, err)
	var ids []string
	for _, st := range stories {
		ids = append(ids, st.ID)
	}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
}

func TestListTagsSkipsDrafts(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.SaveStory(Story{ID: "1", Tags: []string{"Zeta", "alpha"}}))
	require.NoError(t, s.SaveStory(Story{ID: "2", Tags: []string{"alpha", "beta"}, Status: "completed"}))
	require.NoError(t, s.SaveStory(Story{ID: "3", Tags: []string{"secret"}, Status: "draft"}))

	tags, err := s.ListTags()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "zeta"}, tags)
}

func TestDeleteStory(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.SaveStory(Story{ID: "1", Title: "gone"}))
	require.NoError(t, s.DeleteStory("1"))

	_, err := s.GetStory("1")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestStoryCache(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.SaveStory(Story{ID: "1", Slug: "live", Tags: []string{"ভূত"}}))
	require.NoError(t, s.SaveStory(Story{ID: "2", Slug: "draft", Status: "draft"}))

	c := NewStoryCache(DefaultConfig(), s, time.Hour)
	stories, err := c.ListStories()
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "1", stories[0].ID)

	got, err := c.GetStory("live")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	_, err = c.GetStory("draft")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	// New rows are invisible until the cache is invalidated.
	require.NoError(t, s.SaveStory(Story{ID: "3", Slug: "fresh"}))
	plan, err := c.Plan()
	require.NoError(t, err)
	assert.Equal(t, 1, plan.StoryRoutes)

	c.Invalidate()
	plan, err = c.Plan()
	require.NoError(t, err)
	assert.Equal(t, 2, plan.StoryRoutes)
}
