package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	UserCreated         = "UserCreated"
	QuestionCreated     = "QuestionCreated"
	QuizCreated         = "QuizCreated"
	AssignmentCreated   = "AssignmentCreated"
	AnswerRecorded      = "AnswerRecorded"
	AssignmentSubmitted = "AssignmentSubmitted"
)

type Event struct {
	Seq       int64
	ID        string
	Type      string
	Key       string
	DataJSON  string
	CreatedAt int64
}

// DB is satisfied by both *sql.DB and *sql.Tx, so events can be appended in
// the same transaction as the change they describe.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type EventRepo struct {
	db  DB
	now func() time.Time
}

func NewEventRepo(db DB) *EventRepo { return &EventRepo{db: db, now: time.Now} }

// Append records typ for the natural key with payload marshalled as JSON.
func (r *EventRepo) Append(ctx context.Context, typ, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", typ, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		uuid.NewString(), typ, key, string(data), r.now().Unix())
	if err != nil {
		return fmt.Errorf("events: append %s: %w", typ, err)
	}
	return nil
}

// Since returns events with seq greater than after, oldest first.
func (r *EventRepo) Since(ctx context.Context, after int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, id, typ, key, data, created_at FROM event_log
		 WHERE seq > $1 ORDER BY seq LIMIT $2`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.ID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
