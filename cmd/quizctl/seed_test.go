package main

import (
	"context"
	"strings"
	"testing"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/quiz/quiztest"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

const sampleSeed = `
users:
  - {username: geography_quizzer, password: pw, quizzer: true}
  - {username: bob, password: pw}
quizzes:
  - author: geography_quizzer
    description: Geography quiz
    questions:
      - text: What's the capital of Belgium?
        choices:
          - {text: Brussels, correct: true}
          - {text: Zurich}
      - text: Which are european countries?
        choices:
          - {text: Belgium, correct: true}
          - {text: Switzerland, correct: true}
          - {text: Japan}
assignments:
  - {user: bob, quiz: Geography quiz}
`

func fakeHash(pw string) (string, error) { return "hashed:" + pw, nil }

func TestApplySeed(t *testing.T) {
	_, store := quiztest.NewStore(t)
	svc := quiz.NewService(store, nil)
	ctx := context.Background()

	sf, err := decodeSeed(strings.NewReader(sampleSeed))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	res, err := applySeed(ctx, svc, store, sf, fakeHash)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res != (seedResult{Users: 2, Questions: 2, Quizzes: 1, Assignments: 1}) {
		t.Fatalf("result = %+v", res)
	}

	bob, err := store.GetUserByUsername(ctx, "bob")
	if err != nil || bob.IsQuizzer || bob.PasswordHash != "hashed:pw" {
		t.Fatalf("bob: %v %+v", err, bob)
	}
	list, err := svc.ListAssignments(ctx, rbac.Principal{UserID: bob.ID, Role: bob.Role()}, quiz.AssignmentFilter{})
	if err != nil || len(list) != 1 || list[0].Quiz.Description != "Geography quiz" {
		t.Fatalf("assignments: %v %+v", err, list)
	}

	// a second run adds nothing
	res, err = applySeed(ctx, svc, store, sf, fakeHash)
	if err != nil || res != (seedResult{}) {
		t.Fatalf("second run: %v %+v", err, res)
	}
	author, err := store.GetUserByUsername(ctx, "geography_quizzer")
	if err != nil {
		t.Fatalf("author: %v", err)
	}
	qs, err := store.ListQuestions(ctx, quiz.QuestionListOpts{AuthorID: author.ID})
	if err != nil || len(qs) != 2 {
		t.Fatalf("questions after rerun: %v %d", err, len(qs))
	}
	zs, err := store.ListQuizzes(ctx, quiz.QuizListOpts{AuthorID: author.ID})
	if err != nil || len(zs) != 1 {
		t.Fatalf("quizzes after rerun: %v %d", err, len(zs))
	}
	as, err := store.ListAssignments(ctx, quiz.AssignmentListOpts{UserID: bob.ID})
	if err != nil || len(as) != 1 {
		t.Fatalf("assignments after rerun: %v %d", err, len(as))
	}

	// a new assignment on a seeded quiz is still applied
	sf.Users = append(sf.Users, seedUser{Username: "alice", Password: "pw"})
	sf.Assignments = append(sf.Assignments, seedAssignment{User: "alice", Quiz: "Geography quiz"})
	res, err = applySeed(ctx, svc, store, sf, fakeHash)
	if err != nil || res != (seedResult{Users: 1, Assignments: 1}) {
		t.Fatalf("third run: %v %+v", err, res)
	}
}

func TestDecodeSeedRejectsUnknownFields(t *testing.T) {
	if _, err := decodeSeed(strings.NewReader("users:\n  - {name: x}\n")); err == nil {
		t.Fatalf("unknown field accepted")
	}
	sf, err := decodeSeed(strings.NewReader(""))
	if err != nil || len(sf.Users) != 0 {
		t.Fatalf("empty file: %v %+v", err, sf)
	}
}

func TestApplySeedUnknownQuiz(t *testing.T) {
	_, store := quiztest.NewStore(t)
	svc := quiz.NewService(store, nil)
	sf, err := decodeSeed(strings.NewReader("users:\n  - {username: bob, password: pw}\nassignments:\n  - {user: bob, quiz: Missing}\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := applySeed(context.Background(), svc, store, sf, fakeHash); err == nil {
		t.Fatalf("expected error for undefined quiz")
	}
}
