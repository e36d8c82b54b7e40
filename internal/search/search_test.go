package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sproutlearn/sprout/internal/adapter"
	"github.com/sproutlearn/sprout/internal/domain"
)

func builtService() *Service {
	s := NewService(adapter.NullLogger())
	s.Rebuild(
		[]domain.Subject{
			{ID: 1, Name: "Science", Slug: "science"},
			{ID: 2, Name: "Math", Slug: "math"},
		},
		map[string][]domain.Level{
			"science": {
				{ID: 1, Order: 1, Title: "Plant a Seed"},
				{ID: 2, Order: 2, Title: "First Sprout"},
				{ID: 3, Order: 3, Title: "Growing Leaves"},
			},
			"math": {
				{ID: 6, Order: 1, Title: "Counting Rocks"},
			},
		},
	)
	return s
}

func TestFindMatchesLevels(t *testing.T) {
	s := builtService()
	assert.Equal(t, 6, s.Count())

	results := s.Find("sprout")
	require.NotEmpty(t, results)
	assert.Equal(t, "First Sprout", results[0].Title)
	assert.Equal(t, KindLevel, results[0].Kind)
	assert.Equal(t, "science", results[0].SubjectSlug)
	assert.Equal(t, 2, results[0].LevelID)
	assert.NotEmpty(t, results[0].MatchedIndexes, "positions drive highlighting")
}

func TestFindMatchesSubjects(t *testing.T) {
	s := builtService()

	results := s.Find("math")
	require.NotEmpty(t, results)
	assert.Equal(t, KindSubject, results[0].Kind)
	assert.Equal(t, "math", results[0].SubjectSlug)
}

func TestFindIsCaseInsensitive(t *testing.T) {
	s := builtService()

	lower := s.Find("seed")
	upper := s.Find("SEED")
	require.NotEmpty(t, lower)
	assert.Equal(t, lower[0].Title, upper[0].Title)
}

func TestFindEmptyQuery(t *testing.T) {
	s := builtService()
	assert.Nil(t, s.Find(""))
}

func TestFindOnEmptyIndex(t *testing.T) {
	s := NewService(adapter.NullLogger())
	assert.Nil(t, s.Find("anything"))
	assert.Equal(t, 0, s.Count())
}

func TestRebuildReplacesIndex(t *testing.T) {
	s := builtService()
	s.Rebuild([]domain.Subject{{ID: 9, Name: "Language", Slug: "language"}}, nil)

	assert.Equal(t, 1, s.Count())
	assert.Empty(t, s.Find("sprout"))
	assert.NotEmpty(t, s.Find("language"))
}

func TestResolveSubject(t *testing.T) {
	subjects := []domain.Subject{
		{ID: 1, Name: "Science", Slug: "science"},
		{ID: 2, Name: "Math", Slug: "math"},
		{ID: 3, Name: "General Knowledge", Slug: "general_knowledge"},
	}

	slug, ok := ResolveSubject("science", subjects)
	require.True(t, ok)
	assert.Equal(t, "science", slug, "exact slugs resolve to themselves")

	slug, ok = ResolveSubject("sci", subjects)
	require.True(t, ok)
	assert.Equal(t, "science", slug, "abbreviations resolve")

	slug, ok = ResolveSubject("Math", subjects)
	require.True(t, ok)
	assert.Equal(t, "math", slug, "display names resolve regardless of case")

	_, ok = ResolveSubject("zzz", subjects)
	assert.False(t, ok)
}

func TestFindTitlesRanksClosestFirst(t *testing.T) {
	titles := []string{"Plant a Seed", "First Sprout", "Mighty Tree"}

	got := FindTitles("sprout", titles)
	require.NotEmpty(t, got)
	assert.Equal(t, "First Sprout", got[0])

	assert.Nil(t, FindTitles("", titles))
}
