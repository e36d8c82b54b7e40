package quiz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sproutlearn/sprout/internal/domain"
)

func question(qt domain.QuestionType, correct string) domain.Question {
	return domain.Question{Type: qt, CorrectAnswer: json.RawMessage(correct), RewardPoints: 10}
}

func TestGradeMultipleChoice(t *testing.T) {
	q := question(domain.QuestionMultipleChoice, `[1]`)

	assert.True(t, Grade(q, json.RawMessage(`[1]`)))
	assert.False(t, Grade(q, json.RawMessage(`[0]`)))
	assert.False(t, Grade(q, json.RawMessage(`[1,2]`)), "extra selections are wrong")
}

func TestGradeMultiSelectOrderInsensitive(t *testing.T) {
	q := question(domain.QuestionImageChoice, `[0,2]`)

	assert.True(t, Grade(q, json.RawMessage(`[2,0]`)))
	assert.False(t, Grade(q, json.RawMessage(`[0]`)))
}

func TestGradeTrueFalse(t *testing.T) {
	q := question(domain.QuestionTrueFalse, `true`)

	assert.True(t, Grade(q, json.RawMessage(`true`)))
	assert.False(t, Grade(q, json.RawMessage(`false`)))
	assert.False(t, Grade(q, json.RawMessage(`"true"`)), "a string is not a boolean")
}

func TestGradeFillBlank(t *testing.T) {
	q := question(domain.QuestionFillBlank, `"oxygen"`)

	assert.True(t, Grade(q, json.RawMessage(`"oxygen"`)))
	assert.True(t, Grade(q, json.RawMessage(`"  Oxygen "`)), "case and whitespace are forgiven")
	assert.False(t, Grade(q, json.RawMessage(`"water"`)))
}

func TestGradeDragDrop(t *testing.T) {
	q := question(domain.QuestionDragDrop, `[[0,0],[1,1],[2,2]]`)

	assert.True(t, Grade(q, json.RawMessage(`[[0,0],[1,1],[2,2]]`)))
	assert.True(t, Grade(q, json.RawMessage(`[[2,2],[0,0],[1,1]]`)), "pair order does not matter")
	assert.False(t, Grade(q, json.RawMessage(`[[0,1],[1,0],[2,2]]`)), "swapped placements are wrong")
	assert.False(t, Grade(q, json.RawMessage(`[[0,0],[1,1]]`)), "missing placements are wrong")
}

func TestGradeMalformedAnswer(t *testing.T) {
	q := question(domain.QuestionMultipleChoice, `[0]`)
	assert.False(t, Grade(q, json.RawMessage(`not json`)))
}

func TestSessionScoreWeightedByRewardPoints(t *testing.T) {
	level := domain.Level{
		ID:             7,
		MinScoreToPass: 70,
		Questions: []domain.Question{
			{ID: 1, Type: domain.QuestionMultipleChoice, CorrectAnswer: json.RawMessage(`[0]`), RewardPoints: 10},
			{ID: 2, Type: domain.QuestionTrueFalse, CorrectAnswer: json.RawMessage(`true`), RewardPoints: 30},
		},
	}

	s := NewSession(level)

	res, ok := s.Answer(json.RawMessage(`[1]`)) // wrong
	assert.True(t, ok)
	assert.False(t, res.Correct)

	res, ok = s.Answer(json.RawMessage(`true`)) // right, worth 30 of 40
	assert.True(t, ok)
	assert.True(t, res.Correct)
	assert.Equal(t, 30, res.PointsEarned)

	assert.True(t, s.Done())
	assert.Equal(t, 75, s.Score())
	assert.True(t, s.Passed())

	entry := s.Finish()
	assert.Equal(t, 7, entry.LevelID)
	assert.Equal(t, 75, entry.Score)
	assert.Equal(t, 1, entry.Attempts, "one session is one attempt")
}

func TestSessionRoundsHalfUp(t *testing.T) {
	level := domain.Level{
		Questions: []domain.Question{
			{ID: 1, Type: domain.QuestionTrueFalse, CorrectAnswer: json.RawMessage(`true`), RewardPoints: 10},
			{ID: 2, Type: domain.QuestionTrueFalse, CorrectAnswer: json.RawMessage(`true`), RewardPoints: 10},
			{ID: 3, Type: domain.QuestionTrueFalse, CorrectAnswer: json.RawMessage(`true`), RewardPoints: 10},
		},
	}

	s := NewSession(level)
	s.Answer(json.RawMessage(`true`))
	s.Answer(json.RawMessage(`true`))
	s.Answer(json.RawMessage(`false`))

	assert.Equal(t, 67, s.Score())
}

func TestSessionAnswerPastEnd(t *testing.T) {
	level := domain.Level{
		Questions: []domain.Question{
			{ID: 1, Type: domain.QuestionTrueFalse, CorrectAnswer: json.RawMessage(`true`), RewardPoints: 10},
		},
	}

	s := NewSession(level)
	s.Answer(json.RawMessage(`true`))
	_, ok := s.Answer(json.RawMessage(`true`))
	assert.False(t, ok)
	assert.Equal(t, 100, s.Score())
}
