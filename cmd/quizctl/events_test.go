package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mind-engage/mindengage-quiz/internal/events"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/quiz/quiztest"
)

func TestPrintEvents(t *testing.T) {
	db, store := quiztest.NewStore(t)
	svc := quiz.NewService(store, nil)
	ctx := context.Background()
	for _, name := range []string{"bob", "alice"} {
		if _, err := svc.RegisterUser(ctx, name, "hashed", false); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	repo := events.NewEventRepo(db)

	var buf bytes.Buffer
	last, err := printEvents(ctx, &buf, repo, 0, 1)
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "\tUserCreated\tuser:1\t") || !strings.Contains(lines[0], `"username":"bob"`) {
		t.Fatalf("first page: %q", buf.String())
	}

	buf.Reset()
	last, err = printEvents(ctx, &buf, repo, last, 10)
	if err != nil || !strings.Contains(buf.String(), `"username":"alice"`) {
		t.Fatalf("second page: %v %q", err, buf.String())
	}

	buf.Reset()
	if again, err := printEvents(ctx, &buf, repo, last, 10); err != nil || again != last || buf.Len() != 0 {
		t.Fatalf("caught up: %v %d %q", err, again, buf.String())
	}
}
