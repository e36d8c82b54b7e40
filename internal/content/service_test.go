package content

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sproutlearn/sprout/internal/adapter"
	"github.com/sproutlearn/sprout/internal/domain"
)

type fakeCache struct {
	subjects []domain.Subject
	levels   map[string][]domain.Level
	details  map[int]domain.Level
	avatars  []domain.Avatar
	badges   []domain.Badge
	fresh    bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		levels:  make(map[string][]domain.Level),
		details: make(map[int]domain.Level),
	}
}

func (c *fakeCache) Subjects() ([]domain.Subject, bool) { return c.subjects, c.subjects != nil }
func (c *fakeCache) SaveSubjects(s []domain.Subject) error {
	c.subjects = s
	c.fresh = true
	return nil
}

func (c *fakeCache) Levels(slug string) ([]domain.Level, bool) {
	l, ok := c.levels[slug]
	return l, ok
}
func (c *fakeCache) SaveLevels(slug string, l []domain.Level) error {
	c.levels[slug] = l
	c.fresh = true
	return nil
}

func (c *fakeCache) Level(id int) (domain.Level, bool) {
	l, ok := c.details[id]
	return l, ok
}
func (c *fakeCache) SaveLevel(l domain.Level) error {
	c.details[l.ID] = l
	return nil
}

func (c *fakeCache) Avatars() ([]domain.Avatar, bool) { return c.avatars, c.avatars != nil }
func (c *fakeCache) SaveAvatars(a []domain.Avatar) error {
	c.avatars = a
	c.fresh = true
	return nil
}

func (c *fakeCache) Badges() ([]domain.Badge, bool) { return c.badges, c.badges != nil }
func (c *fakeCache) SaveBadges(b []domain.Badge) error {
	c.badges = b
	c.fresh = true
	return nil
}

func (c *fakeCache) ContentFresh(section string, maxAge time.Duration) bool { return c.fresh }
func (c *fakeCache) InvalidateContent() {
	c.subjects = nil
	c.levels = make(map[string][]domain.Level)
	c.details = make(map[int]domain.Level)
	c.avatars = nil
	c.badges = nil
	c.fresh = false
}

type fakeContentAPI struct {
	subjects []domain.Subject
	levels   map[string][]domain.Level
	details  map[int]domain.Level
	avatars  []domain.Avatar
	badges   []domain.Badge
	err      error

	subjectCalls int
	levelCalls   int
	detailCalls  int
	badgeCalls   int
}

func newFakeContentAPI() *fakeContentAPI {
	return &fakeContentAPI{
		subjects: []domain.Subject{
			{ID: 1, Name: "Science", Slug: "science", Order: 1},
			{ID: 2, Name: "Math", Slug: "math", Order: 2},
		},
		levels: map[string][]domain.Level{
			"science": {
				{ID: 1, SubjectSlug: "science", Order: 1, Title: "Plant a Seed"},
				{ID: 2, SubjectSlug: "science", Order: 2, Title: "First Sprout"},
			},
			"math": {
				{ID: 6, SubjectSlug: "math", Order: 1, Title: "Counting Rocks"},
			},
		},
		details: map[int]domain.Level{
			1: {ID: 1, SubjectSlug: "science", Order: 1, Title: "Plant a Seed",
				Questions: []domain.Question{{ID: 1, Type: domain.QuestionMultipleChoice}}},
			2: {ID: 2, SubjectSlug: "science", Order: 2, Title: "First Sprout",
				Questions: []domain.Question{{ID: 2, Type: domain.QuestionTrueFalse}}},
			6: {ID: 6, SubjectSlug: "math", Order: 1, Title: "Counting Rocks",
				Questions: []domain.Question{{ID: 3, Type: domain.QuestionMultipleChoice}}},
		},
		avatars: []domain.Avatar{{ID: 1, Name: "Mango the Explorer", IsDefault: true}},
		badges: []domain.Badge{
			{ID: 1, Name: "First Steps", Type: "completion", RarityLevel: 1},
			{ID: 2, Name: "Perfect Score", Type: "performance", RarityLevel: 2},
		},
	}
}

func (a *fakeContentAPI) GetSubjects(ctx context.Context) ([]domain.Subject, error) {
	a.subjectCalls++
	if a.err != nil {
		return nil, a.err
	}
	return a.subjects, nil
}

func (a *fakeContentAPI) GetLevels(ctx context.Context, slug string) ([]domain.Level, error) {
	a.levelCalls++
	if a.err != nil {
		return nil, a.err
	}
	l, ok := a.levels[slug]
	if !ok {
		return nil, domain.ErrSubjectNotFound
	}
	return l, nil
}

func (a *fakeContentAPI) GetLevel(ctx context.Context, id int) (domain.Level, error) {
	a.detailCalls++
	if a.err != nil {
		return domain.Level{}, a.err
	}
	l, ok := a.details[id]
	if !ok {
		return domain.Level{}, domain.ErrLevelNotFound
	}
	return l, nil
}

func (a *fakeContentAPI) GetAvatars(ctx context.Context) ([]domain.Avatar, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.avatars, nil
}

func (a *fakeContentAPI) GetBadges(ctx context.Context) ([]domain.Badge, error) {
	a.badgeCalls++
	if a.err != nil {
		return nil, a.err
	}
	return a.badges, nil
}

func (a *fakeContentAPI) GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if a.err != nil {
		return nil, a.err
	}
	return []domain.LeaderboardEntry{{AvatarName: "Mango the Explorer", TotalPoints: 100}}, nil
}

func (a *fakeContentAPI) PushEvents(ctx context.Context, deviceID string, events []domain.SyncEvent) error {
	return a.err
}

func TestSubjectsFreshCacheSkipsNetwork(t *testing.T) {
	cache := newFakeCache()
	api := newFakeContentAPI()
	svc := NewService(cache, api, adapter.NullLogger())
	ctx := context.Background()

	first, err := svc.Subjects(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, api.subjectCalls)

	second, err := svc.Subjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, api.subjectCalls, "a fresh cache answers without the network")
}

func TestSubjectsServesStaleCacheWhenFetchFails(t *testing.T) {
	cache := newFakeCache()
	api := newFakeContentAPI()
	svc := NewService(cache, api, adapter.NullLogger())
	ctx := context.Background()

	_, err := svc.Subjects(ctx)
	require.NoError(t, err)

	cache.fresh = false
	api.err = domain.ErrServerUnreachable

	subjects, err := svc.Subjects(ctx)
	require.NoError(t, err, "stale content beats no content")
	assert.Len(t, subjects, 2)
}

func TestSubjectsFailsWithColdCache(t *testing.T) {
	cache := newFakeCache()
	api := newFakeContentAPI()
	api.err = domain.ErrServerUnreachable
	svc := NewService(cache, api, adapter.NullLogger())

	_, err := svc.Subjects(context.Background())
	assert.ErrorIs(t, err, domain.ErrServerUnreachable)
}

func TestSubjectLookupBySlug(t *testing.T) {
	svc := NewService(newFakeCache(), newFakeContentAPI(), adapter.NullLogger())
	ctx := context.Background()

	sub, err := svc.Subject(ctx, "math")
	require.NoError(t, err)
	assert.Equal(t, "Math", sub.Name)

	_, err = svc.Subject(ctx, "history")
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}

func TestLevelRefetchesWhenCachedCopyLacksQuestions(t *testing.T) {
	cache := newFakeCache()
	api := newFakeContentAPI()
	svc := NewService(cache, api, adapter.NullLogger())
	ctx := context.Background()

	// A listing entry without questions is not playable offline yet.
	require.NoError(t, cache.SaveLevel(domain.Level{ID: 1, Title: "Plant a Seed"}))

	level, err := svc.Level(ctx, 1)
	require.NoError(t, err)
	assert.True(t, level.HasQuestions())
	assert.Equal(t, 1, api.detailCalls)

	// Now the cached detail satisfies the next read.
	_, err = svc.Level(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, api.detailCalls)
}

func TestPrefetchFillsWholeTree(t *testing.T) {
	cache := newFakeCache()
	api := newFakeContentAPI()
	svc := NewService(cache, api, adapter.NullLogger())

	ch := make(chan PrefetchProgress, 16)
	svc.Prefetch(context.Background(), ch)

	var updates []PrefetchProgress
	for p := range ch {
		require.NoError(t, p.Error)
		updates = append(updates, p)
	}
	require.NotEmpty(t, updates)
	assert.True(t, updates[len(updates)-1].Done)

	// Every level detail is now in the cache with questions.
	for _, id := range []int{1, 2, 6} {
		lvl, ok := cache.Level(id)
		require.True(t, ok)
		assert.True(t, lvl.HasQuestions())
	}
	_, ok := cache.Avatars()
	assert.True(t, ok)
	_, ok = cache.Badges()
	assert.True(t, ok)
}

func TestPrefetchAbortsOnError(t *testing.T) {
	cache := newFakeCache()
	api := newFakeContentAPI()
	api.err = domain.ErrServerUnreachable
	svc := NewService(cache, api, adapter.NullLogger())

	ch := make(chan PrefetchProgress, 16)
	svc.Prefetch(context.Background(), ch)

	var last PrefetchProgress
	for p := range ch {
		last = p
	}
	assert.ErrorIs(t, last.Error, domain.ErrServerUnreachable)
	assert.False(t, last.Done)
}

func TestBadgesOfflineServedFromCache(t *testing.T) {
	cache := newFakeCache()
	api := newFakeContentAPI()
	svc := NewService(cache, api, adapter.NullLogger())
	ctx := context.Background()

	first, err := svc.Badges(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, api.badgeCalls)

	second, err := svc.Badges(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, api.badgeCalls, "a fresh cache answers without the network")

	cache.fresh = false
	api.err = domain.ErrServerUnreachable
	badges, err := svc.Badges(ctx)
	require.NoError(t, err, "stale badges beat none while offline")
	assert.Len(t, badges, 2)
}

func TestRefreshInvalidatesCache(t *testing.T) {
	cache := newFakeCache()
	api := newFakeContentAPI()
	svc := NewService(cache, api, adapter.NullLogger())
	ctx := context.Background()

	_, err := svc.Subjects(ctx)
	require.NoError(t, err)

	svc.Refresh()

	_, err = svc.Subjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, api.subjectCalls, "refresh forces a refetch")
}
