package quiz

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/sproutlearn/sprout/internal/domain"
)

// Grade checks a submitted answer against the question's stored answer.
// Answer shapes follow the question type: choice types use a list of
// selected indexes, true/false a boolean, drag-and-drop a list of
// [item, slot] pairs and fill-in-the-blank a string.
func Grade(q domain.Question, answer json.RawMessage) bool {
	var correct, given any
	if err := json.Unmarshal(q.CorrectAnswer, &correct); err != nil {
		return false
	}
	if err := json.Unmarshal(answer, &given); err != nil {
		return false
	}

	switch q.Type {
	case domain.QuestionFillBlank:
		return equalText(correct, given)
	case domain.QuestionTrueFalse:
		cb, ok1 := correct.(bool)
		gb, ok2 := given.(bool)
		return ok1 && ok2 && cb == gb
	case domain.QuestionDragDrop:
		return equalPairs(correct, given)
	default:
		// multiple_choice, audio_choice, image_choice
		return equalIndexSet(correct, given)
	}
}

// equalText compares free-text answers ignoring case and surrounding
// whitespace; a seven-year-old typing "Oxygen " still passes.
func equalText(correct, given any) bool {
	cs, ok1 := correct.(string)
	gs, ok2 := given.(string)
	if !ok1 || !ok2 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(cs), strings.TrimSpace(gs))
}

// equalIndexSet compares selected choice indexes, order-insensitive.
func equalIndexSet(correct, given any) bool {
	cl := toIndexList(correct)
	gl := toIndexList(given)
	if cl == nil || gl == nil || len(cl) != len(gl) {
		return false
	}
	set := make(map[int]bool, len(cl))
	for _, v := range cl {
		set[v] = true
	}
	for _, v := range gl {
		if !set[v] {
			return false
		}
	}
	return true
}

// equalPairs compares drag-and-drop placements; each [item, slot] pair
// must match, order of pairs does not matter.
func equalPairs(correct, given any) bool {
	cl, ok1 := correct.([]any)
	gl, ok2 := given.([]any)
	if !ok1 || !ok2 || len(cl) != len(gl) {
		return false
	}
	placements := make(map[int]int, len(cl))
	for _, raw := range cl {
		pair := toIndexList(raw)
		if len(pair) != 2 {
			return false
		}
		placements[pair[0]] = pair[1]
	}
	for _, raw := range gl {
		pair := toIndexList(raw)
		if len(pair) != 2 {
			return false
		}
		slot, ok := placements[pair[0]]
		if !ok || slot != pair[1] {
			return false
		}
	}
	return true
}

func toIndexList(v any) []int {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(list))
	for _, item := range list {
		f, ok := item.(float64)
		if !ok || f != math.Trunc(f) {
			return nil
		}
		out = append(out, int(f))
	}
	return out
}
