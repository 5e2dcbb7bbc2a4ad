package quiz

import (
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsQuizzer    bool
	CreatedAt    time.Time
}

func (u User) Role() rbac.Role { return rbac.RoleFor(u.IsQuizzer) }

type UserRef struct {
	ID       int64
	Username string
}

type Choice struct {
	ID         int64
	QuestionID int64
	Text       string
	IsCorrect  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Question struct {
	ID        int64
	UserID    int64
	Text      string
	Choices   []Choice  // ordered by id
	Quizzes   []QuizRef // quizzes the question belongs to, ordered by id
	CreatedAt time.Time
	UpdatedAt time.Time
}

type QuizRef struct {
	ID          int64
	Description string
}

type Quiz struct {
	ID          int64
	UserID      int64
	Description string
	Questions   []Question // ordered by id; nil on list results
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q Quiz) Ref() QuizRef { return QuizRef{ID: q.ID, Description: q.Description} }

// Assignment binds a quiz to a quizzee. A nil SubmittedAt means in progress.
type Assignment struct {
	ID          int64
	User        UserRef
	Quiz        QuizRef
	QuizOwnerID int64
	SubmittedAt *time.Time
}

func (a Assignment) Submitted() bool { return a.SubmittedAt != nil }

// Answer is one selected choice. QuestionID is the choice's parent question.
type Answer struct {
	ID           int64
	AssignmentID int64
	ChoiceID     int64
	QuestionID   int64
}

// ---- inputs ----

type ChoiceSpec struct {
	Text      string
	IsCorrect bool
}

type CreateQuestionInput struct {
	Text    string
	Choices []ChoiceSpec
}

type CreateQuizInput struct {
	Description string
	Questions   []int64
}

type CreateAssignmentInput struct {
	UserID int64
	QuizID int64
}

type CreateAnswerInput struct {
	AssignmentID int64
	ChoiceID     int64
}

// Page bounds a list; zero values mean no bound.
type Page struct {
	Limit  int
	Offset int
}

// AssignmentFilter holds the optional equality filters applied after role scoping.
type AssignmentFilter struct {
	QuizID int64
	UserID int64
	Page
}
