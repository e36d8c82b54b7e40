package quiz

import (
	"encoding/json"
	"time"

	"github.com/sproutlearn/sprout/internal/domain"
)

// QuestionResult records the outcome of one answered question.
type QuestionResult struct {
	QuestionID   int
	Correct      bool
	PointsEarned int
}

// Session tracks a single play-through of a level. Questions are
// answered in order; finishing produces a progress entry ready for the
// local store.
type Session struct {
	level     domain.Level
	startedAt time.Time
	results   []QuestionResult
	now       func() time.Time
}

// NewSession starts a play-through of a level. The level must carry its
// questions (fetched or cached via the content service).
func NewSession(level domain.Level) *Session {
	return &Session{
		level:     level,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// Level returns the level being played.
func (s *Session) Level() domain.Level { return s.level }

// CurrentQuestion returns the next unanswered question, or false when
// the session is complete.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	if len(s.results) >= len(s.level.Questions) {
		return domain.Question{}, false
	}
	return s.level.Questions[len(s.results)], true
}

// Answer grades the current question and advances. Returns the result
// for immediate feedback (explanation, earned points).
func (s *Session) Answer(answer json.RawMessage) (QuestionResult, bool) {
	q, ok := s.CurrentQuestion()
	if !ok {
		return QuestionResult{}, false
	}

	res := QuestionResult{QuestionID: q.ID, Correct: Grade(q, answer)}
	if res.Correct {
		res.PointsEarned = q.RewardPoints
	}
	s.results = append(s.results, res)
	return res, true
}

// Done reports whether every question has been answered.
func (s *Session) Done() bool {
	return len(s.results) >= len(s.level.Questions)
}

// Score returns the 0-100 score weighted by reward points.
func (s *Session) Score() int {
	total := s.level.PointsPossible()
	if total == 0 {
		return 0
	}
	earned := 0
	for _, r := range s.results {
		earned += r.PointsEarned
	}
	// Round half up so 2 of 3 equal-weight questions scores 67, not 66.
	return (earned*100 + total/2) / total
}

// Passed reports whether the score meets the level's passing bar.
func (s *Session) Passed() bool {
	return s.Score() >= s.level.MinScoreToPass
}

// Results returns the per-question outcomes answered so far.
func (s *Session) Results() []QuestionResult { return s.results }

// Finish produces the progress entry for this play-through. One session
// is one attempt; the store folds it into the running totals.
func (s *Session) Finish() domain.ProgressEntry {
	elapsed := int(s.now().Sub(s.startedAt).Seconds())
	return domain.ProgressEntry{
		LevelID:        s.level.ID,
		Score:          s.Score(),
		Attempts:       1,
		CompletionTime: elapsed,
	}
}
