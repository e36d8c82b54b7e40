package search

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	sahilm "github.com/sahilm/fuzzy"
	"github.com/sproutlearn/sprout/internal/domain"
)

// ItemKind distinguishes what a search hit points at.
type ItemKind int

const (
	KindSubject ItemKind = iota
	KindLevel
)

// Item is one searchable record: a subject or a level, with enough
// context to navigate to it.
type Item struct {
	Kind        ItemKind
	Title       string
	SubjectSlug string
	LevelID     int // Set for KindLevel
	Order       int // Level order within its subject
}

// Result is a search hit with match metadata for highlighting.
type Result struct {
	Item
	MatchedIndexes []int
	Score          int
}

// index implements sahilm/fuzzy.Source over pre-lowered titles.
type index struct {
	items       []Item
	lowerTitles []string
}

func (idx *index) String(i int) string { return idx.lowerTitles[i] }
func (idx *index) Len() int            { return len(idx.items) }

// Service provides fuzzy search over the locally cached content tree,
// so a child can find "volcano level" without any network.
type Service struct {
	logger *slog.Logger

	mu  sync.RWMutex
	idx *index
}

// NewService creates an empty search service; call Rebuild to index.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, idx: &index{}}
}

// Rebuild replaces the index from the cached subjects and their levels.
func (s *Service) Rebuild(subjects []domain.Subject, levelsBySubject map[string][]domain.Level) {
	idx := &index{}
	for _, sub := range subjects {
		idx.items = append(idx.items, Item{
			Kind:        KindSubject,
			Title:       sub.Name,
			SubjectSlug: sub.Slug,
		})
		idx.lowerTitles = append(idx.lowerTitles, strings.ToLower(sub.Name))

		for _, lvl := range levelsBySubject[sub.Slug] {
			idx.items = append(idx.items, Item{
				Kind:        KindLevel,
				Title:       lvl.Title,
				SubjectSlug: sub.Slug,
				LevelID:     lvl.ID,
				Order:       lvl.Order,
			})
			idx.lowerTitles = append(idx.lowerTitles, strings.ToLower(lvl.Title))
		}
	}

	s.mu.Lock()
	s.idx = idx
	s.mu.Unlock()
	s.logger.Debug("search index rebuilt", "items", idx.Len())
}

// Count returns the number of indexed items.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.Len()
}

// Find returns ranked matches for the query with character positions
// for highlighting.
func (s *Service) Find(query string) []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if query == "" || s.idx.Len() == 0 {
		return nil
	}

	matches := sahilm.FindFrom(strings.ToLower(query), s.idx)

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Item:           s.idx.items[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// FindTitles ranks a plain title list against the query, best first.
// Used for quick lookups where no index has been built.
func FindTitles(query string, titles []string) []string {
	if query == "" {
		return nil
	}

	matches := fuzzy.RankFindFold(query, titles)
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Target
	}
	return out
}

// ResolveSubject matches loose user input ("sci", "Math") against the
// subject list and returns the slug of the best match. An exact slug
// match wins outright; otherwise slugs and display names are ranked
// fuzzily and the closest hit is taken.
func ResolveSubject(input string, subjects []domain.Subject) (string, bool) {
	bySlug := make(map[string]string, len(subjects)*2)
	titles := make([]string, 0, len(subjects)*2)
	for _, s := range subjects {
		if s.Slug == input {
			return s.Slug, true
		}
		bySlug[strings.ToLower(s.Slug)] = s.Slug
		bySlug[strings.ToLower(s.Name)] = s.Slug
		titles = append(titles, s.Slug, s.Name)
	}

	ranked := FindTitles(input, titles)
	if len(ranked) == 0 {
		return "", false
	}
	slug, ok := bySlug[strings.ToLower(ranked[0])]
	return slug, ok
}
