package quiz

import "testing"

// capital: Brussels(1, correct) Zurich(2) Amsterdam(3)
// european: Belgium(4, correct) Switzerland(5, correct) Japan(6)
func geographyQuestions() []Question {
	return []Question{
		{ID: 20, Text: "Which are european countries?", Choices: []Choice{
			{ID: 4, QuestionID: 20, IsCorrect: true},
			{ID: 5, QuestionID: 20, IsCorrect: true},
			{ID: 6, QuestionID: 20},
		}},
		{ID: 10, Text: "What's the capital of Belgium?", Choices: []Choice{
			{ID: 1, QuestionID: 10, IsCorrect: true},
			{ID: 2, QuestionID: 10},
			{ID: 3, QuestionID: 10},
		}},
	}
}

func picks(choiceIDs ...int64) []Answer {
	owner := map[int64]int64{1: 10, 2: 10, 3: 10, 4: 20, 5: 20, 6: 20}
	out := make([]Answer, 0, len(choiceIDs))
	for i, c := range choiceIDs {
		out = append(out, Answer{ID: int64(i + 1), AssignmentID: 1, ChoiceID: c, QuestionID: owner[c]})
	}
	return out
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name     string
		answers  []Answer
		score    float64
		progress float64
	}{
		{"nothing answered", nil, 0, 0},
		{"only single-correct question right", picks(1), 50, 50},
		{"only a wrong choice on single-correct question", picks(2), 0, 50},
		{"single right, multi wrong", picks(1, 6), 50, 100},
		{"multi question fully right only", picks(5, 4), 50, 50},
		{"multi question subset", picks(1, 4), 50, 100},
		{"multi question superset", picks(1, 4, 5, 6), 50, 100},
		{"multi question partial overlap", picks(1, 4, 6), 50, 100},
		{"all right", picks(1, 4, 5), 100, 100},
		{"all wrong", picks(2, 6), 0, 100},
		{"extra wrong choice on single-correct question", picks(1, 2, 4, 5), 50, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := Evaluate(geographyQuestions(), tc.answers)
			if g.Score != tc.score || g.Progress != tc.progress {
				t.Fatalf("score=%v progress=%v, want %v/%v", g.Score, g.Progress, tc.score, tc.progress)
			}
			if Score(geographyQuestions(), tc.answers) != tc.score || Progress(geographyQuestions(), tc.answers) != tc.progress {
				t.Fatalf("Score/Progress disagree with Evaluate")
			}
		})
	}
}

func TestEvaluateIgnoresQuestionOrder(t *testing.T) {
	qs := geographyQuestions()
	reversed := []Question{qs[1], qs[0]}
	want := Evaluate(qs, picks(1, 4))
	if got := Evaluate(reversed, picks(1, 4)); got != want {
		t.Fatalf("order changed the grade: %+v vs %+v", got, want)
	}
	if reversed[0].ID != qs[1].ID {
		t.Fatalf("Evaluate reordered its input")
	}
}

func TestEvaluateZeroQuestions(t *testing.T) {
	g := Evaluate(nil, picks(1))
	if g != (Grade{}) {
		t.Fatalf("zero-question quiz should grade as 0, got %+v", g)
	}
}

func TestEvaluateIgnoresAnswersOutsideQuiz(t *testing.T) {
	answers := append(picks(1), Answer{ID: 99, ChoiceID: 500, QuestionID: 77})
	g := Evaluate(geographyQuestions(), answers)
	if g.Progress != 50 {
		t.Fatalf("progress should only count quiz questions, got %v", g.Progress)
	}
}

func TestEvaluateBounds(t *testing.T) {
	qs := geographyQuestions()
	step := 100 / float64(len(qs))
	for _, set := range [][]int64{{}, {1}, {2}, {4}, {4, 5}, {1, 4, 5}, {3, 6}, {1, 2, 3, 4, 5, 6}} {
		g := Evaluate(qs, picks(set...))
		for _, v := range []float64{g.Score, g.Progress} {
			if v < 0 || v > 100 {
				t.Fatalf("%v out of range for %v", v, set)
			}
			if n := v / step; n != float64(int(n)) {
				t.Fatalf("%v is not a multiple of %v", v, step)
			}
		}
	}
}
