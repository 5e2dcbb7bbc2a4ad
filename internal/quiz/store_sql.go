package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	dbx "github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/events"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Store on database/sql. Queries use $n placeholders,
// which both the pgx and the modernc sqlite drivers accept.
type SQLStore struct {
	db     *sql.DB // nil when bound to a transaction
	q      querier
	driver string // "sqlite" or "postgres"
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, q: db, driver: driver, now: time.Now}
}

func (s *SQLStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	return dbx.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&SQLStore{q: tx, driver: s.driver, now: s.now})
	})
}

func (s *SQLStore) stamp() time.Time { return s.now().UTC().Truncate(time.Second) }

// ---- users ----

func (s *SQLStore) CreateUser(ctx context.Context, u *User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.stamp()
	}
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO users (username,password_hash,is_quizzer,created_at) VALUES ($1,$2,$3,$4) RETURNING id`,
		u.Username, u.PasswordHash, u.IsQuizzer, u.CreatedAt.Unix()).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("create user %q: %w", u.Username, err)
	}
	return nil
}

func (s *SQLStore) GetUser(ctx context.Context, id int64) (User, error) {
	return first(s.ListUsers(ctx, UserListOpts{ID: id}))
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	if username == "" {
		return User{}, ErrNotFound
	}
	return first(s.ListUsers(ctx, UserListOpts{Username: username}))
}

func (s *SQLStore) ListUsers(ctx context.Context, opts UserListOpts) ([]User, error) {
	var w where
	if opts.ID != 0 {
		w.add("id = ?", opts.ID)
	}
	if opts.Username != "" {
		w.add("username = ?", opts.Username)
	}
	if opts.IsQuizzer != nil {
		w.add("is_quizzer = ?", *opts.IsQuizzer)
	}
	query := `SELECT id,username,password_hash,is_quizzer,created_at FROM users` + w.sql() + ` ORDER BY id` + w.page(opts.Page)
	rows, err := s.q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		var created int64
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsQuizzer, &created); err != nil {
			return nil, err
		}
		u.CreatedAt = fromUnix(created)
		out = append(out, u)
	}
	return out, rows.Err()
}

// ---- questions & choices ----

func (s *SQLStore) CreateQuestion(ctx context.Context, q *Question) error {
	now := s.stamp()
	q.CreatedAt, q.UpdatedAt = now, now
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO questions (user_id,text,created_at,updated_at) VALUES ($1,$2,$3,$3) RETURNING id`,
		q.UserID, q.Text, now.Unix()).Scan(&q.ID)
	if err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	// insertion order is the presentation order
	for i := range q.Choices {
		c := &q.Choices[i]
		c.QuestionID = q.ID
		c.CreatedAt, c.UpdatedAt = now, now
		err := s.q.QueryRowContext(ctx,
			`INSERT INTO choices (question_id,text,is_correct,created_at,updated_at) VALUES ($1,$2,$3,$4,$4) RETURNING id`,
			c.QuestionID, c.Text, c.IsCorrect, now.Unix()).Scan(&c.ID)
		if err != nil {
			return fmt.Errorf("create choice: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) GetQuestion(ctx context.Context, id int64) (Question, error) {
	return first(s.ListQuestions(ctx, QuestionListOpts{ID: id}))
}

func (s *SQLStore) ListQuestions(ctx context.Context, opts QuestionListOpts) ([]Question, error) {
	var w where
	if opts.ID != 0 {
		w.add("q.id = ?", opts.ID)
	}
	if opts.IDs != nil {
		w.in("q.id", opts.IDs)
	}
	if opts.AuthorID != 0 {
		w.add("q.user_id = ?", opts.AuthorID)
	}
	query := `SELECT q.id,q.user_id,q.text,q.created_at,q.updated_at FROM questions q` +
		w.sql() + ` ORDER BY q.id` + w.page(opts.Page)
	list, err := s.queryQuestions(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return list, s.attachQuestionDetails(ctx, list)
}

func (s *SQLStore) GetChoice(ctx context.Context, id int64) (Choice, error) {
	var c Choice
	var created, updated int64
	err := s.q.QueryRowContext(ctx,
		`SELECT id,question_id,text,is_correct,created_at,updated_at FROM choices WHERE id=$1`, id).
		Scan(&c.ID, &c.QuestionID, &c.Text, &c.IsCorrect, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Choice{}, ErrNotFound
		}
		return Choice{}, fmt.Errorf("get choice: %w", err)
	}
	c.CreatedAt, c.UpdatedAt = fromUnix(created), fromUnix(updated)
	return c, nil
}

func (s *SQLStore) queryQuestions(ctx context.Context, query string, args ...any) ([]Question, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Question
	for rows.Next() {
		var q Question
		var created, updated int64
		if err := rows.Scan(&q.ID, &q.UserID, &q.Text, &created, &updated); err != nil {
			return nil, err
		}
		q.CreatedAt, q.UpdatedAt = fromUnix(created), fromUnix(updated)
		out = append(out, q)
	}
	return out, rows.Err()
}

// attachQuestionDetails loads choices and quiz memberships for list.
// It runs after the question rows are closed, so it is safe on a single
// connection.
func (s *SQLStore) attachQuestionDetails(ctx context.Context, list []Question) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, len(list))
	for i, q := range list {
		ids[i] = q.ID
	}
	choices, err := s.loadChoices(ctx, ids)
	if err != nil {
		return err
	}
	refs, err := s.loadQuizRefs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range list {
		list[i].Choices = choices[list[i].ID]
		list[i].Quizzes = refs[list[i].ID]
	}
	return nil
}

func (s *SQLStore) loadChoices(ctx context.Context, questionIDs []int64) (map[int64][]Choice, error) {
	var w where
	w.in("question_id", questionIDs)
	rows, err := s.q.QueryContext(ctx,
		`SELECT id,question_id,text,is_correct,created_at,updated_at FROM choices`+w.sql()+` ORDER BY id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("load choices: %w", err)
	}
	defer rows.Close()
	out := map[int64][]Choice{}
	for rows.Next() {
		var c Choice
		var created, updated int64
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Text, &c.IsCorrect, &created, &updated); err != nil {
			return nil, err
		}
		c.CreatedAt, c.UpdatedAt = fromUnix(created), fromUnix(updated)
		out[c.QuestionID] = append(out[c.QuestionID], c)
	}
	return out, rows.Err()
}

func (s *SQLStore) loadQuizRefs(ctx context.Context, questionIDs []int64) (map[int64][]QuizRef, error) {
	var w where
	w.in("qq.question_id", questionIDs)
	rows, err := s.q.QueryContext(ctx,
		`SELECT qq.question_id, z.id, z.description FROM quiz_questions qq
		 JOIN quizzes z ON z.id = qq.quiz_id`+w.sql()+` ORDER BY z.id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("load quiz refs: %w", err)
	}
	defer rows.Close()
	out := map[int64][]QuizRef{}
	for rows.Next() {
		var qid int64
		var ref QuizRef
		if err := rows.Scan(&qid, &ref.ID, &ref.Description); err != nil {
			return nil, err
		}
		out[qid] = append(out[qid], ref)
	}
	return out, rows.Err()
}

// ---- quizzes ----

func (s *SQLStore) CreateQuiz(ctx context.Context, q *Quiz, questionIDs []int64) error {
	now := s.stamp()
	q.CreatedAt, q.UpdatedAt = now, now
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO quizzes (user_id,description,created_at,updated_at) VALUES ($1,$2,$3,$3) RETURNING id`,
		q.UserID, q.Description, now.Unix()).Scan(&q.ID)
	if err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	for _, qid := range questionIDs {
		if _, err := s.q.ExecContext(ctx,
			`INSERT INTO quiz_questions (quiz_id,question_id) VALUES ($1,$2)`, q.ID, qid); err != nil {
			return fmt.Errorf("attach question %d: %w", qid, err)
		}
	}
	return nil
}

func (s *SQLStore) GetQuiz(ctx context.Context, id int64) (Quiz, error) {
	z, err := first(s.ListQuizzes(ctx, QuizListOpts{ID: id}))
	if err != nil {
		return Quiz{}, err
	}
	z.Questions, err = s.QuizQuestions(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	return z, nil
}

func (s *SQLStore) ListQuizzes(ctx context.Context, opts QuizListOpts) ([]Quiz, error) {
	var w where
	if opts.ID != 0 {
		w.add("z.id = ?", opts.ID)
	}
	if opts.AuthorID != 0 {
		w.add("z.user_id = ?", opts.AuthorID)
	}
	if opts.AssigneeID != 0 {
		w.add("EXISTS (SELECT 1 FROM assignments a WHERE a.quiz_id = z.id AND a.user_id = ?)", opts.AssigneeID)
	}
	query := `SELECT z.id,z.user_id,z.description,z.created_at,z.updated_at FROM quizzes z` +
		w.sql() + ` ORDER BY z.id` + w.page(opts.Page)
	rows, err := s.q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()
	var out []Quiz
	for rows.Next() {
		var z Quiz
		var created, updated int64
		if err := rows.Scan(&z.ID, &z.UserID, &z.Description, &created, &updated); err != nil {
			return nil, err
		}
		z.CreatedAt, z.UpdatedAt = fromUnix(created), fromUnix(updated)
		out = append(out, z)
	}
	return out, rows.Err()
}

func (s *SQLStore) QuizQuestions(ctx context.Context, quizID int64) ([]Question, error) {
	list, err := s.queryQuestions(ctx,
		`SELECT q.id,q.user_id,q.text,q.created_at,q.updated_at FROM questions q
		 JOIN quiz_questions qq ON qq.question_id = q.id
		 WHERE qq.quiz_id = $1 ORDER BY q.id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("quiz questions: %w", err)
	}
	if list == nil {
		list = []Question{}
	}
	return list, s.attachQuestionDetails(ctx, list)
}

func (s *SQLStore) QuizHasQuestion(ctx context.Context, quizID, questionID int64) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM quiz_questions WHERE quiz_id=$1 AND question_id=$2`, quizID, questionID)
}

// ---- assignments ----

func (s *SQLStore) CreateAssignment(ctx context.Context, a *Assignment) error {
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO assignments (user_id,quiz_id,submited_at) VALUES ($1,$2,$3) RETURNING id`,
		a.User.ID, a.Quiz.ID, nullUnix(a.SubmittedAt)).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

func (s *SQLStore) ListAssignments(ctx context.Context, opts AssignmentListOpts) ([]Assignment, error) {
	var w where
	if opts.ID != 0 {
		w.add("a.id = ?", opts.ID)
	}
	if opts.QuizAuthorID != 0 {
		w.add("z.user_id = ?", opts.QuizAuthorID)
	}
	if opts.AssigneeID != 0 {
		w.add("a.user_id = ?", opts.AssigneeID)
	}
	if opts.QuizID != 0 {
		w.add("a.quiz_id = ?", opts.QuizID)
	}
	if opts.UserID != 0 {
		w.add("a.user_id = ?", opts.UserID)
	}
	query := `SELECT a.id, a.user_id, u.username, a.quiz_id, z.description, z.user_id, a.submited_at
		FROM assignments a
		JOIN users u ON u.id = a.user_id
		JOIN quizzes z ON z.id = a.quiz_id` + w.sql() + ` ORDER BY a.id` + w.page(opts.Page)
	rows, err := s.q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		var a Assignment
		var submitted sql.NullInt64
		if err := rows.Scan(&a.ID, &a.User.ID, &a.User.Username, &a.Quiz.ID, &a.Quiz.Description, &a.QuizOwnerID, &submitted); err != nil {
			return nil, err
		}
		if submitted.Valid {
			t := fromUnix(submitted.Int64)
			a.SubmittedAt = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) MarkSubmitted(ctx context.Context, id int64, at time.Time) error {
	res, err := s.q.ExecContext(ctx, `UPDATE assignments SET submited_at=$1 WHERE id=$2`, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("submit assignment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- answers ----

func (s *SQLStore) CreateAnswer(ctx context.Context, a *Answer) error {
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO answers (assignment_id,choice_id) VALUES ($1,$2) RETURNING id`,
		a.AssignmentID, a.ChoiceID).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	return nil
}

func (s *SQLStore) ListAnswers(ctx context.Context, opts AnswerListOpts) ([]Answer, error) {
	var w where
	if opts.ID != 0 {
		w.add("an.id = ?", opts.ID)
	}
	if opts.AssignmentID != 0 {
		w.add("an.assignment_id = ?", opts.AssignmentID)
	}
	if opts.AssigneeID != 0 {
		w.add("a.user_id = ?", opts.AssigneeID)
	}
	query := `SELECT an.id, an.assignment_id, an.choice_id, c.question_id
		FROM answers an
		JOIN choices c ON c.id = an.choice_id
		JOIN assignments a ON a.id = an.assignment_id` + w.sql() + ` ORDER BY an.id` + w.page(opts.Page)
	rows, err := s.q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()
	var out []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.AssignmentID, &a.ChoiceID, &a.QuestionID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) AnswerExists(ctx context.Context, assignmentID, choiceID int64) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM answers WHERE assignment_id=$1 AND choice_id=$2`, assignmentID, choiceID)
}

func (s *SQLStore) AppendEvent(ctx context.Context, typ, key string, payload any) error {
	return events.NewEventRepo(s.q).Append(ctx, typ, key, payload)
}

// ---- helpers ----

func (s *SQLStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func first[T any](list []T, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if len(list) == 0 {
		return zero, ErrNotFound
	}
	return list[0], nil
}

func fromUnix(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

func nullUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

// where accumulates AND-ed conditions written with "?" and renders them
// with numbered placeholders.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	for _, a := range args {
		w.args = append(w.args, a)
		cond = strings.Replace(cond, "?", "$"+strconv.Itoa(len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *where) in(col string, ids []int64) {
	if len(ids) == 0 {
		w.conds = append(w.conds, "1 = 0")
		return
	}
	ph := make([]string, len(ids))
	for i, id := range ids {
		w.args = append(w.args, id)
		ph[i] = "$" + strconv.Itoa(len(w.args))
	}
	w.conds = append(w.conds, col+" IN ("+strings.Join(ph, ",")+")")
}

func (w *where) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *where) page(p Page) string {
	if p.Limit <= 0 && p.Offset <= 0 {
		return ""
	}
	limit := p.Limit
	if limit <= 0 {
		limit = math.MaxInt32
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	w.args = append(w.args, limit, offset)
	n := len(w.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n-1, n)
}
