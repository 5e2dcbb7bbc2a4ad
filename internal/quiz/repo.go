package quiz

import (
	"context"
	"time"
)

type UserListOpts struct {
	ID        int64
	Username  string
	IsQuizzer *bool
	Page
}

type QuestionListOpts struct {
	ID       int64
	IDs      []int64 // restrict to these ids when non-nil
	AuthorID int64
	Page
}

type QuizListOpts struct {
	ID         int64
	AuthorID   int64 // quizzes written by this user
	AssigneeID int64 // quizzes assigned to this user
	Page
}

type AssignmentListOpts struct {
	ID           int64
	QuizAuthorID int64 // scope: assignments on quizzes written by this user
	AssigneeID   int64 // scope: assignments addressed to this user
	QuizID       int64
	UserID       int64
	Page
}

type AnswerListOpts struct {
	ID           int64
	AssignmentID int64
	AssigneeID   int64
	Page
}

// Store persists the quiz data model. List methods return rows ordered by id;
// zero-valued options do not filter. Get methods return ErrNotFound for
// missing rows.
type Store interface {
	// InTx runs fn against a Store bound to a single transaction.
	InTx(ctx context.Context, fn func(Store) error) error

	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context, opts UserListOpts) ([]User, error)

	CreateQuestion(ctx context.Context, q *Question) error
	GetQuestion(ctx context.Context, id int64) (Question, error)
	ListQuestions(ctx context.Context, opts QuestionListOpts) ([]Question, error)
	GetChoice(ctx context.Context, id int64) (Choice, error)

	CreateQuiz(ctx context.Context, q *Quiz, questionIDs []int64) error
	GetQuiz(ctx context.Context, id int64) (Quiz, error)
	ListQuizzes(ctx context.Context, opts QuizListOpts) ([]Quiz, error)
	QuizQuestions(ctx context.Context, quizID int64) ([]Question, error)
	QuizHasQuestion(ctx context.Context, quizID, questionID int64) (bool, error)

	CreateAssignment(ctx context.Context, a *Assignment) error
	ListAssignments(ctx context.Context, opts AssignmentListOpts) ([]Assignment, error)
	MarkSubmitted(ctx context.Context, id int64, at time.Time) error

	CreateAnswer(ctx context.Context, a *Answer) error
	ListAnswers(ctx context.Context, opts AnswerListOpts) ([]Answer, error)
	AnswerExists(ctx context.Context, assignmentID, choiceID int64) (bool, error)

	AppendEvent(ctx context.Context, typ, key string, payload any) error
}
