package quiz

import "sort"

type Grade struct {
	Score    float64 // percentage of fully correct questions
	Progress float64 // percentage of questions with at least one answer
}

// Evaluate grades answers against the quiz questions in question id order.
// A question is correct only when the selected choice ids equal the correct
// choice ids exactly. A quiz without questions grades as 0 for both score and
// progress.
func Evaluate(questions []Question, answers []Answer) Grade {
	if len(questions) == 0 {
		return Grade{}
	}
	qs := make([]Question, len(questions))
	copy(qs, questions)
	sort.Slice(qs, func(i, j int) bool { return qs[i].ID < qs[j].ID })

	selected := map[int64][]int64{}
	for _, a := range answers {
		selected[a.QuestionID] = append(selected[a.QuestionID], a.ChoiceID)
	}

	var correct, answered int
	for _, q := range qs {
		picked := sortedIDs(selected[q.ID])
		if len(picked) > 0 {
			answered++
		}
		if equalIDs(picked, correctChoiceIDs(q)) {
			correct++
		}
	}
	n := float64(len(qs))
	return Grade{
		Score:    float64(correct) / n * 100,
		Progress: float64(answered) / n * 100,
	}
}

func Score(questions []Question, answers []Answer) float64 {
	return Evaluate(questions, answers).Score
}

func Progress(questions []Question, answers []Answer) float64 {
	return Evaluate(questions, answers).Progress
}

func correctChoiceIDs(q Question) []int64 {
	var ids []int64
	for _, c := range q.Choices {
		if c.IsCorrect {
			ids = append(ids, c.ID)
		}
	}
	return sortedIDs(ids)
}

func sortedIDs(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
