package quiz

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/events"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

// Service runs the resource operations. Every operation authorizes the
// principal first, then applies the role's visibility scope; records outside
// the scope are reported as ErrNotFound.
type Service struct {
	store Store
	log   *logger.Logger
	now   func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{store: store, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GradedAssignment is an assignment with score and progress computed from
// its current answers.
type GradedAssignment struct {
	Assignment
	Grade Grade
}

type AssignmentDetail struct {
	Assignment
	Quiz Quiz
}

type AnswerDetail struct {
	Answer
	Question Question
	Choice   Choice
}

// ---- users ----

// RegisterUser creates an account. It is an operator path (CLI, seeding) and
// carries no principal.
func (s *Service) RegisterUser(ctx context.Context, username, passwordHash string, isQuizzer bool) (User, error) {
	var v ValidationError
	username = strings.TrimSpace(username)
	if username == "" {
		v.Add("username", MsgRequired)
	}
	if passwordHash == "" {
		v.Add("password", MsgRequired)
	}
	if err := v.Err(); err != nil {
		return User{}, err
	}
	u := User{Username: username, PasswordHash: passwordHash, IsQuizzer: isQuizzer}
	err := s.store.InTx(ctx, func(tx Store) error {
		if _, err := tx.GetUserByUsername(ctx, username); err == nil {
			return Invalid("username", "A user with that username already exists.")
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := tx.CreateUser(ctx, &u); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, events.UserCreated, userKey(u.ID), map[string]any{
			"id": u.ID, "username": u.Username, "is_quizzer": u.IsQuizzer,
		})
	})
	if err != nil {
		return User{}, err
	}
	s.log.Info("user registered", "user_id", u.ID, "username", u.Username, "role", u.Role())
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context, p rbac.Principal, role rbac.Role, page Page) ([]User, error) {
	if err := rbac.Authorize(p, rbac.ResourceUser, rbac.ActionList); err != nil {
		return nil, err
	}
	opts := UserListOpts{Page: page}
	if role != "" {
		isQuizzer := role.IsQuizzer()
		opts.IsQuizzer = &isQuizzer
	}
	return s.store.ListUsers(ctx, opts)
}

// ---- questions ----

func (s *Service) CreateQuestion(ctx context.Context, p rbac.Principal, in CreateQuestionInput) (Question, error) {
	if err := rbac.Authorize(p, rbac.ResourceQuestion, rbac.ActionCreate); err != nil {
		return Question{}, err
	}
	var v ValidationError
	if strings.TrimSpace(in.Text) == "" {
		v.Add("text", MsgRequired)
	}
	if len(in.Choices) == 0 {
		v.Add("choices", MsgEmptyList)
	}
	for i, c := range in.Choices {
		if strings.TrimSpace(c.Text) == "" {
			v.Add("choices."+strconv.Itoa(i)+".text", MsgRequired)
		}
	}
	if err := v.Err(); err != nil {
		return Question{}, err
	}

	q := Question{UserID: p.UserID, Text: in.Text}
	for _, c := range in.Choices {
		q.Choices = append(q.Choices, Choice{Text: c.Text, IsCorrect: c.IsCorrect})
	}
	err := s.store.InTx(ctx, func(tx Store) error {
		if err := tx.CreateQuestion(ctx, &q); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, events.QuestionCreated, questionKey(q.ID), map[string]any{
			"id": q.ID, "author": q.UserID, "choices": len(q.Choices),
		})
	})
	if err != nil {
		return Question{}, err
	}
	s.log.Info("question created", "question_id", q.ID, "user_id", p.UserID, "choices", len(q.Choices))
	return q, nil
}

// ListQuestions returns the caller's own questions.
func (s *Service) ListQuestions(ctx context.Context, p rbac.Principal, page Page) ([]Question, error) {
	if err := rbac.Authorize(p, rbac.ResourceQuestion, rbac.ActionList); err != nil {
		return nil, err
	}
	return s.store.ListQuestions(ctx, QuestionListOpts{AuthorID: p.UserID, Page: page})
}

func (s *Service) GetQuestion(ctx context.Context, p rbac.Principal, id int64) (Question, error) {
	if err := rbac.Authorize(p, rbac.ResourceQuestion, rbac.ActionRetrieve); err != nil {
		return Question{}, err
	}
	return first(s.store.ListQuestions(ctx, QuestionListOpts{ID: id, AuthorID: p.UserID}))
}

// ---- quizzes ----

func (s *Service) CreateQuiz(ctx context.Context, p rbac.Principal, in CreateQuizInput) (Quiz, error) {
	if err := rbac.Authorize(p, rbac.ResourceQuiz, rbac.ActionCreate); err != nil {
		return Quiz{}, err
	}
	var v ValidationError
	if strings.TrimSpace(in.Description) == "" {
		v.Add("description", MsgRequired)
	}
	if len(in.Questions) == 0 {
		v.Add("questions", MsgEmptyList)
	}
	if err := v.Err(); err != nil {
		return Quiz{}, err
	}
	ids := uniqueIDs(in.Questions)

	z := Quiz{UserID: p.UserID, Description: in.Description}
	err := s.store.InTx(ctx, func(tx Store) error {
		owned, err := tx.ListQuestions(ctx, QuestionListOpts{IDs: ids, AuthorID: p.UserID})
		if err != nil {
			return err
		}
		found := make(map[int64]bool, len(owned))
		for _, q := range owned {
			found[q.ID] = true
		}
		var v ValidationError
		for _, id := range ids {
			if !found[id] {
				v.Add("questions", fmt.Sprintf(msgInvalidPKTemplate, id))
			}
		}
		if err := v.Err(); err != nil {
			return err
		}
		if err := tx.CreateQuiz(ctx, &z, ids); err != nil {
			return err
		}
		z.Questions = owned
		return tx.AppendEvent(ctx, events.QuizCreated, quizKey(z.ID), map[string]any{
			"id": z.ID, "author": z.UserID, "questions": ids,
		})
	})
	if err != nil {
		return Quiz{}, err
	}
	s.log.Info("quiz created", "quiz_id", z.ID, "user_id", p.UserID, "questions", len(ids))
	return z, nil
}

func (s *Service) ListQuizzes(ctx context.Context, p rbac.Principal, page Page) ([]Quiz, error) {
	if err := rbac.Authorize(p, rbac.ResourceQuiz, rbac.ActionList); err != nil {
		return nil, err
	}
	opts := quizScope(p)
	opts.Page = page
	return s.store.ListQuizzes(ctx, opts)
}

// GetQuiz returns the quiz with its questions loaded.
func (s *Service) GetQuiz(ctx context.Context, p rbac.Principal, id int64) (Quiz, error) {
	if err := rbac.Authorize(p, rbac.ResourceQuiz, rbac.ActionRetrieve); err != nil {
		return Quiz{}, err
	}
	opts := quizScope(p)
	opts.ID = id
	z, err := first(s.store.ListQuizzes(ctx, opts))
	if err != nil {
		return Quiz{}, err
	}
	z.Questions, err = s.store.QuizQuestions(ctx, z.ID)
	if err != nil {
		return Quiz{}, err
	}
	return z, nil
}

// ---- assignments ----

func (s *Service) CreateAssignment(ctx context.Context, p rbac.Principal, in CreateAssignmentInput) (Assignment, error) {
	if err := rbac.Authorize(p, rbac.ResourceAssignment, rbac.ActionCreate); err != nil {
		return Assignment{}, err
	}
	var v ValidationError
	if in.UserID == 0 {
		v.Add("user", MsgRequired)
	}
	if in.QuizID == 0 {
		v.Add("quiz", MsgRequired)
	}
	if err := v.Err(); err != nil {
		return Assignment{}, err
	}

	var a Assignment
	err := s.store.InTx(ctx, func(tx Store) error {
		z, err := first(tx.ListQuizzes(ctx, QuizListOpts{ID: in.QuizID, AuthorID: p.UserID}))
		if err != nil {
			return fmt.Errorf("quiz %d: %w", in.QuizID, err)
		}
		u, err := tx.GetUser(ctx, in.UserID)
		if err != nil {
			return fmt.Errorf("user %d: %w", in.UserID, err)
		}
		if u.IsQuizzer {
			return Invalid("user", MsgNotQuizzee)
		}
		qs, err := tx.QuizQuestions(ctx, z.ID)
		if err != nil {
			return err
		}
		if len(qs) == 0 {
			return fmt.Errorf("quiz %d has no questions: %w", z.ID, ErrInvalidState)
		}
		a = Assignment{User: UserRef{ID: u.ID, Username: u.Username}, Quiz: z.Ref(), QuizOwnerID: z.UserID}
		if err := tx.CreateAssignment(ctx, &a); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, events.AssignmentCreated, assignmentKey(a.ID), map[string]any{
			"id": a.ID, "user": a.User.ID, "quiz": a.Quiz.ID,
		})
	})
	if err != nil {
		return Assignment{}, err
	}
	s.log.Info("assignment created", "assignment_id", a.ID, "quiz_id", a.Quiz.ID, "assignee", a.User.ID, "user_id", p.UserID)
	return a, nil
}

// ListAssignments grades every visible assignment against its answers at
// call time.
func (s *Service) ListAssignments(ctx context.Context, p rbac.Principal, f AssignmentFilter) ([]GradedAssignment, error) {
	if err := rbac.Authorize(p, rbac.ResourceAssignment, rbac.ActionList); err != nil {
		return nil, err
	}
	opts := assignmentScope(p)
	opts.QuizID, opts.UserID, opts.Page = f.QuizID, f.UserID, f.Page
	list, err := s.store.ListAssignments(ctx, opts)
	if err != nil {
		return nil, err
	}
	questions := map[int64][]Question{}
	out := make([]GradedAssignment, 0, len(list))
	for _, a := range list {
		qs, ok := questions[a.Quiz.ID]
		if !ok {
			if qs, err = s.store.QuizQuestions(ctx, a.Quiz.ID); err != nil {
				return nil, err
			}
			questions[a.Quiz.ID] = qs
		}
		answers, err := s.store.ListAnswers(ctx, AnswerListOpts{AssignmentID: a.ID})
		if err != nil {
			return nil, err
		}
		out = append(out, GradedAssignment{Assignment: a, Grade: Evaluate(qs, answers)})
	}
	return out, nil
}

func (s *Service) GetAssignment(ctx context.Context, p rbac.Principal, id int64) (AssignmentDetail, error) {
	if err := rbac.Authorize(p, rbac.ResourceAssignment, rbac.ActionRetrieve); err != nil {
		return AssignmentDetail{}, err
	}
	opts := assignmentScope(p)
	opts.ID = id
	a, err := first(s.store.ListAssignments(ctx, opts))
	if err != nil {
		return AssignmentDetail{}, err
	}
	z, err := s.store.GetQuiz(ctx, a.Quiz.ID)
	if err != nil {
		return AssignmentDetail{}, err
	}
	return AssignmentDetail{Assignment: a, Quiz: z}, nil
}

// SubmitAssignment finalizes the caller's assignment. A submitted assignment
// accepts no further answers and cannot be submitted again.
func (s *Service) SubmitAssignment(ctx context.Context, p rbac.Principal, id int64) (AssignmentDetail, error) {
	if err := rbac.Authorize(p, rbac.ResourceAssignment, rbac.ActionSubmit); err != nil {
		return AssignmentDetail{}, err
	}
	var d AssignmentDetail
	err := s.store.InTx(ctx, func(tx Store) error {
		a, err := first(tx.ListAssignments(ctx, AssignmentListOpts{ID: id, AssigneeID: p.UserID}))
		if err != nil {
			return err
		}
		if a.Submitted() {
			return Invalid("assignment", MsgResubmit)
		}
		at := s.now().UTC().Truncate(time.Second)
		if err := tx.MarkSubmitted(ctx, a.ID, at); err != nil {
			return err
		}
		a.SubmittedAt = &at
		z, err := tx.GetQuiz(ctx, a.Quiz.ID)
		if err != nil {
			return err
		}
		d = AssignmentDetail{Assignment: a, Quiz: z}
		return tx.AppendEvent(ctx, events.AssignmentSubmitted, assignmentKey(a.ID), map[string]any{
			"id": a.ID, "user": a.User.ID, "submited_at": at.Format(time.RFC3339),
		})
	})
	if err != nil {
		return AssignmentDetail{}, err
	}
	s.log.Info("assignment submitted", "assignment_id", d.ID, "user_id", p.UserID)
	return d, nil
}

// ---- answers ----

// CreateAnswer records one selected choice. The submitted check and the
// choice membership check are independent and reported together.
func (s *Service) CreateAnswer(ctx context.Context, p rbac.Principal, in CreateAnswerInput) (Answer, error) {
	if err := rbac.Authorize(p, rbac.ResourceAnswer, rbac.ActionCreate); err != nil {
		return Answer{}, err
	}
	var v ValidationError
	if in.AssignmentID == 0 {
		v.Add("assignment", MsgRequired)
	}
	if in.ChoiceID == 0 {
		v.Add("choice", MsgRequired)
	}
	if err := v.Err(); err != nil {
		return Answer{}, err
	}

	ans := Answer{AssignmentID: in.AssignmentID, ChoiceID: in.ChoiceID}
	err := s.store.InTx(ctx, func(tx Store) error {
		a, err := first(tx.ListAssignments(ctx, AssignmentListOpts{ID: in.AssignmentID, AssigneeID: p.UserID}))
		if err != nil {
			return fmt.Errorf("assignment %d: %w", in.AssignmentID, err)
		}
		var v ValidationError
		if a.Submitted() {
			v.Add("assignment", MsgAlreadySubmitted)
		}
		c, err := tx.GetChoice(ctx, in.ChoiceID)
		switch {
		case errors.Is(err, ErrNotFound):
			v.Add("choice", fmt.Sprintf(msgInvalidPKTemplate, in.ChoiceID))
		case err != nil:
			return err
		default:
			if err := checkChoice(ctx, tx, a, c, &v); err != nil {
				return err
			}
		}
		if err := v.Err(); err != nil {
			return err
		}
		ans.QuestionID = c.QuestionID
		if err := tx.CreateAnswer(ctx, &ans); err != nil {
			return err
		}
		return tx.AppendEvent(ctx, events.AnswerRecorded, assignmentKey(a.ID), map[string]any{
			"id": ans.ID, "assignment": a.ID, "question": c.QuestionID, "choice": c.ID,
		})
	})
	if err != nil {
		return Answer{}, err
	}
	s.log.Info("answer recorded", "answer_id", ans.ID, "assignment_id", ans.AssignmentID, "choice_id", ans.ChoiceID, "user_id", p.UserID)
	return ans, nil
}

// checkChoice adds the membership and duplicate checks for c to v. The
// duplicate check only applies to choices of the assignment's quiz.
func checkChoice(ctx context.Context, tx Store, a Assignment, c Choice, v *ValidationError) error {
	inQuiz, err := tx.QuizHasQuestion(ctx, a.Quiz.ID, c.QuestionID)
	if err != nil {
		return err
	}
	if !inQuiz {
		v.Add("choice", MsgInvalidChoice)
		return nil
	}
	dup, err := tx.AnswerExists(ctx, a.ID, c.ID)
	if err != nil {
		return err
	}
	if dup {
		v.Add("choice", MsgDuplicateChoice)
	}
	return nil
}

func (s *Service) ListAnswers(ctx context.Context, p rbac.Principal, page Page) ([]Answer, error) {
	if err := rbac.Authorize(p, rbac.ResourceAnswer, rbac.ActionList); err != nil {
		return nil, err
	}
	opts := answerScope(p)
	opts.Page = page
	return s.store.ListAnswers(ctx, opts)
}

func (s *Service) GetAnswer(ctx context.Context, p rbac.Principal, id int64) (AnswerDetail, error) {
	if err := rbac.Authorize(p, rbac.ResourceAnswer, rbac.ActionRetrieve); err != nil {
		return AnswerDetail{}, err
	}
	opts := answerScope(p)
	opts.ID = id
	a, err := first(s.store.ListAnswers(ctx, opts))
	if err != nil {
		return AnswerDetail{}, err
	}
	q, err := s.store.GetQuestion(ctx, a.QuestionID)
	if err != nil {
		return AnswerDetail{}, err
	}
	c, err := s.store.GetChoice(ctx, a.ChoiceID)
	if err != nil {
		return AnswerDetail{}, err
	}
	return AnswerDetail{Answer: a, Question: q, Choice: c}, nil
}

// ---- scopes ----

func quizScope(p rbac.Principal) QuizListOpts {
	if p.Role.IsQuizzer() {
		return QuizListOpts{AuthorID: p.UserID}
	}
	return QuizListOpts{AssigneeID: p.UserID}
}

func assignmentScope(p rbac.Principal) AssignmentListOpts {
	if p.Role.IsQuizzer() {
		return AssignmentListOpts{QuizAuthorID: p.UserID}
	}
	return AssignmentListOpts{AssigneeID: p.UserID}
}

// answerScope is the same for both roles: answers are visible only through
// the requester's own assignments, so quizzers list none.
func answerScope(p rbac.Principal) AnswerListOpts {
	return AnswerListOpts{AssigneeID: p.UserID}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func userKey(id int64) string       { return "user:" + strconv.FormatInt(id, 10) }
func questionKey(id int64) string   { return "question:" + strconv.FormatInt(id, 10) }
func quizKey(id int64) string       { return "quiz:" + strconv.FormatInt(id, 10) }
func assignmentKey(id int64) string { return "assignment:" + strconv.FormatInt(id, 10) }
