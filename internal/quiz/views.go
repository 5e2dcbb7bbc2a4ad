package quiz

import (
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// ViewOpts selects which fields a representation exposes. Quizzers see
// correctness flags and quiz membership; quizzees see neither.
type ViewOpts struct {
	Correctness bool
	QuizRefs    bool
}

func ViewFor(role rbac.Role) ViewOpts {
	if role.IsQuizzer() {
		return ViewOpts{Correctness: true, QuizRefs: true}
	}
	return ViewOpts{}
}

type UserView struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	IsQuizzer bool   `json:"is_quizzer"`
}

type UserRefView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type ChoiceView struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

type QuizRefView struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

type QuestionView struct {
	ID      int64          `json:"id"`
	Text    string         `json:"text"`
	Choices []ChoiceView   `json:"choices"`
	Quizzes *[]QuizRefView `json:"quizzes,omitempty"`
}

// QuestionSummary is the list shape: quiz membership as ids.
type QuestionSummary struct {
	ID      int64   `json:"id"`
	Text    string  `json:"text"`
	Quizzes []int64 `json:"quizzes"`
}

type QuizView struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Questions   *[]QuestionView `json:"questions,omitempty"`
}

type QuizCreatedView struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Questions   []int64 `json:"questions"`
}

type AssignmentView struct {
	ID          int64        `json:"id"`
	User        *UserRefView `json:"user,omitempty"`
	SubmittedAt *time.Time   `json:"submited_at"`
	Quiz        QuizView     `json:"quiz"`
	Progress    *float64     `json:"progress,omitempty"`
	Score       *float64     `json:"score,omitempty"`
}

type AssignmentCreatedView struct {
	ID   int64 `json:"id"`
	User int64 `json:"user"`
	Quiz int64 `json:"quiz"`
}

type AnswerSummary struct {
	ID         int64 `json:"id"`
	Assignment int64 `json:"assignment"`
	Question   int64 `json:"question"`
	Choice     int64 `json:"choice"`
}

type AnswerView struct {
	ID         int64        `json:"id"`
	Assignment int64        `json:"assignment"`
	Question   QuestionView `json:"question"`
	Choice     ChoiceView   `json:"choice"`
}

type AnswerCreatedView struct {
	ID         int64 `json:"id"`
	Assignment int64 `json:"assignment"`
	Choice     int64 `json:"choice"`
}

func NewUserView(u User) UserView {
	return UserView{ID: u.ID, Username: u.Username, IsQuizzer: u.IsQuizzer}
}

func NewChoiceView(c Choice, o ViewOpts) ChoiceView {
	v := ChoiceView{ID: c.ID, Text: c.Text}
	if o.Correctness {
		ok := c.IsCorrect
		v.IsCorrect = &ok
	}
	return v
}

func NewQuestionView(q Question, o ViewOpts) QuestionView {
	v := QuestionView{ID: q.ID, Text: q.Text, Choices: make([]ChoiceView, 0, len(q.Choices))}
	for _, c := range q.Choices {
		v.Choices = append(v.Choices, NewChoiceView(c, o))
	}
	if o.QuizRefs {
		refs := make([]QuizRefView, 0, len(q.Quizzes))
		for _, r := range q.Quizzes {
			refs = append(refs, QuizRefView{ID: r.ID, Description: r.Description})
		}
		v.Quizzes = &refs
	}
	return v
}

func NewQuestionSummary(q Question) QuestionSummary {
	v := QuestionSummary{ID: q.ID, Text: q.Text, Quizzes: make([]int64, 0, len(q.Quizzes))}
	for _, r := range q.Quizzes {
		v.Quizzes = append(v.Quizzes, r.ID)
	}
	return v
}

// NewQuizView renders questions only when they are loaded.
func NewQuizView(z Quiz, o ViewOpts) QuizView {
	v := QuizView{ID: z.ID, Description: z.Description}
	if z.Questions != nil {
		qs := make([]QuestionView, 0, len(z.Questions))
		for _, q := range z.Questions {
			qs = append(qs, NewQuestionView(q, o))
		}
		v.Questions = &qs
	}
	return v
}

func NewQuizCreatedView(z Quiz) QuizCreatedView {
	v := QuizCreatedView{ID: z.ID, Description: z.Description, Questions: make([]int64, 0, len(z.Questions))}
	for _, q := range z.Questions {
		v.Questions = append(v.Questions, q.ID)
	}
	return v
}

// NewAssignmentSummary is the list shape: quiz reference plus score and
// progress. The assignee is shown to quizzers only.
func NewAssignmentSummary(g GradedAssignment, role rbac.Role) AssignmentView {
	score, progress := g.Grade.Score, g.Grade.Progress
	v := AssignmentView{
		ID:          g.ID,
		SubmittedAt: g.SubmittedAt,
		Quiz:        QuizView{ID: g.Quiz.ID, Description: g.Quiz.Description},
		Progress:    &progress,
		Score:       &score,
	}
	if role.IsQuizzer() {
		v.User = &UserRefView{ID: g.User.ID, Username: g.User.Username}
	}
	return v
}

func NewAssignmentDetail(d AssignmentDetail, role rbac.Role) AssignmentView {
	v := AssignmentView{
		ID:          d.ID,
		SubmittedAt: d.SubmittedAt,
		Quiz:        NewQuizView(d.Quiz, ViewFor(role)),
	}
	if role.IsQuizzer() {
		v.User = &UserRefView{ID: d.User.ID, Username: d.User.Username}
	}
	return v
}

func NewAssignmentCreatedView(a Assignment) AssignmentCreatedView {
	return AssignmentCreatedView{ID: a.ID, User: a.User.ID, Quiz: a.Quiz.ID}
}

func NewAnswerSummary(a Answer) AnswerSummary {
	return AnswerSummary{ID: a.ID, Assignment: a.AssignmentID, Question: a.QuestionID, Choice: a.ChoiceID}
}

// NewAnswerView never exposes correctness, whichever role reads it.
func NewAnswerView(d AnswerDetail) AnswerView {
	return AnswerView{
		ID:         d.ID,
		Assignment: d.AssignmentID,
		Question:   NewQuestionView(d.Question, ViewOpts{}),
		Choice:     NewChoiceView(d.Choice, ViewOpts{}),
	}
}

func NewAnswerCreatedView(a Answer) AnswerCreatedView {
	return AnswerCreatedView{ID: a.ID, Assignment: a.AssignmentID, Choice: a.ChoiceID}
}
