package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	h, err := Open(context.Background(), DriverSQLite, "file:dbtest?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestOpenCreatesSchema(t *testing.T) {
	h := openMemory(t)
	for _, table := range []string{"users", "questions", "choices", "quizzes", "quiz_questions", "assignments", "answers", "event_log"} {
		var name string
		err := h.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=$1`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s: %v", table, err)
		}
	}
	// idempotent
	if err := ensureSchema(context.Background(), h, DriverSQLite); err != nil {
		t.Fatalf("second ensureSchema: %v", err)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), Driver("mysql"), ""); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWithTxRollsBack(t *testing.T) {
	h := openMemory(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := WithTx(ctx, h, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (username, created_at) VALUES ('ghost', 0)`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var n int
	if err := h.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("insert should have rolled back, found %d rows", n)
	}

	if err := WithTx(ctx, h, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (username, created_at) VALUES ('kept', 0)`)
		return err
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := h.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("expected committed row, n=%d err=%v", n, err)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	h := openMemory(t)
	_, err := h.Exec(`INSERT INTO questions (user_id, text, created_at, updated_at) VALUES (999, 'orphan', 0, 0)`)
	if err == nil {
		t.Fatalf("expected foreign key violation")
	}
}
