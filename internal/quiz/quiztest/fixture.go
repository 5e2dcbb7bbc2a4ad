// Package quiztest builds in-memory stores seeded with a small, known data set
// for tests of the quiz service and its HTTP surface.
package quiztest

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// SubmittedAt is the submission time of Alice's submitted assignment.
var SubmittedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Fixture holds the seeded rows. The geography quiz has a single-correct
// question (capital of Belgium) and a multi-correct one (european countries).
type Fixture struct {
	DB    *sql.DB
	Store *quiz.SQLStore

	GeographyQuizzer, BiologyQuizzer, MathQuizzer quiz.User
	Bob, Alice                                    quiz.User

	GeographyQuiz, BiologyQuiz quiz.Quiz

	CapitalOfBelgium, EuropeanCountries quiz.Question
	WhichIsMammal                       quiz.Question
	WhichArePrime, WhichAreIrrational   quiz.Question

	Brussels, Zurich, Amsterdam   quiz.Choice
	Belgium, Switzerland, Japan   quiz.Choice
	Whale, Platypus, Crocodile    quiz.Choice
	Three, Seven, Half            quiz.Choice
	GoldenRatio, Euler, Imaginary quiz.Choice

	BobGeography, BobBiology     quiz.Assignment
	AliceGeography, AliceBiology quiz.Assignment
	AliceSubmitted               quiz.Assignment

	BobGeographyAnswer, BobBiologyAnswer     quiz.Answer
	AliceGeographyAnswer, AliceBiologyAnswer quiz.Answer
}

// NewStore opens a private in-memory sqlite database with the schema applied.
func NewStore(t *testing.T) (*sql.DB, *quiz.SQLStore) {
	t.Helper()
	name := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, t.Name())
	dsn := "file:" + name + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	h, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h, quiz.NewSQLStore(h, string(db.DriverSQLite))
}

// Seed creates a store and loads the fixture into it.
func Seed(t *testing.T) *Fixture {
	t.Helper()
	h, st := NewStore(t)
	f := &Fixture{DB: h, Store: st}

	f.GeographyQuizzer = user(t, st, "geography_quizzer", true)
	f.BiologyQuizzer = user(t, st, "biology_quizzer", true)
	f.MathQuizzer = user(t, st, "math_quizzer", true)
	f.Bob = user(t, st, "bob_quizzee", false)
	f.Alice = user(t, st, "alice_quizzee", false)

	f.CapitalOfBelgium = question(t, st, f.GeographyQuizzer, "What's the capital of Belgium?",
		correct("Brussels"), wrong("Zurich"), wrong("Amsterdam"))
	f.Brussels, f.Zurich, f.Amsterdam = f.CapitalOfBelgium.Choices[0], f.CapitalOfBelgium.Choices[1], f.CapitalOfBelgium.Choices[2]

	f.EuropeanCountries = question(t, st, f.GeographyQuizzer, "Which are european countries?",
		correct("Belgium"), correct("Switzerland"), wrong("Japan"))
	f.Belgium, f.Switzerland, f.Japan = f.EuropeanCountries.Choices[0], f.EuropeanCountries.Choices[1], f.EuropeanCountries.Choices[2]

	f.GeographyQuiz = quizOf(t, st, f.GeographyQuizzer, "Geography quiz", f.CapitalOfBelgium, f.EuropeanCountries)

	f.WhichIsMammal = question(t, st, f.BiologyQuizzer, "Which is mammal?",
		correct("Whale"), wrong("Platypus"), wrong("Crocodile"))
	f.Whale, f.Platypus, f.Crocodile = f.WhichIsMammal.Choices[0], f.WhichIsMammal.Choices[1], f.WhichIsMammal.Choices[2]

	f.BiologyQuiz = quizOf(t, st, f.BiologyQuizzer, "Biology quiz", f.WhichIsMammal)

	// math questions belong to no quiz
	f.WhichArePrime = question(t, st, f.MathQuizzer, "Which numbers are prime?",
		correct("3"), correct("7"), wrong("1/2"))
	f.Three, f.Seven, f.Half = f.WhichArePrime.Choices[0], f.WhichArePrime.Choices[1], f.WhichArePrime.Choices[2]
	f.WhichAreIrrational = question(t, st, f.MathQuizzer, "Which numbers are irrational?",
		correct("Golden Ratio"), correct("Euler's Number"), wrong("Imaginary Unit"))
	f.GoldenRatio, f.Euler, f.Imaginary = f.WhichAreIrrational.Choices[0], f.WhichAreIrrational.Choices[1], f.WhichAreIrrational.Choices[2]

	f.BobGeography = assign(t, st, f.Bob, f.GeographyQuiz, nil)
	f.BobBiology = assign(t, st, f.Bob, f.BiologyQuiz, nil)
	f.BobGeographyAnswer = answer(t, st, f.BobGeography, f.Brussels)
	f.BobBiologyAnswer = answer(t, st, f.BobBiology, f.Crocodile)

	f.AliceGeography = assign(t, st, f.Alice, f.GeographyQuiz, nil)
	f.AliceBiology = assign(t, st, f.Alice, f.BiologyQuiz, nil)
	f.AliceGeographyAnswer = answer(t, st, f.AliceGeography, f.Zurich)
	f.AliceBiologyAnswer = answer(t, st, f.AliceBiology, f.Whale)

	at := SubmittedAt
	f.AliceSubmitted = assign(t, st, f.Alice, f.BiologyQuiz, &at)
	return f
}

func correct(text string) quiz.Choice { return quiz.Choice{Text: text, IsCorrect: true} }
func wrong(text string) quiz.Choice   { return quiz.Choice{Text: text} }

func user(t *testing.T, st quiz.Store, name string, isQuizzer bool) quiz.User {
	t.Helper()
	u := quiz.User{Username: name, PasswordHash: "x", IsQuizzer: isQuizzer}
	if err := st.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func question(t *testing.T, st quiz.Store, author quiz.User, text string, choices ...quiz.Choice) quiz.Question {
	t.Helper()
	q := quiz.Question{UserID: author.ID, Text: text, Choices: choices}
	if err := st.CreateQuestion(context.Background(), &q); err != nil {
		t.Fatalf("seed question %q: %v", text, err)
	}
	return q
}

func quizOf(t *testing.T, st quiz.Store, author quiz.User, desc string, qs ...quiz.Question) quiz.Quiz {
	t.Helper()
	ids := make([]int64, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	z := quiz.Quiz{UserID: author.ID, Description: desc}
	if err := st.CreateQuiz(context.Background(), &z, ids); err != nil {
		t.Fatalf("seed quiz %q: %v", desc, err)
	}
	return z
}

func assign(t *testing.T, st quiz.Store, u quiz.User, z quiz.Quiz, submittedAt *time.Time) quiz.Assignment {
	t.Helper()
	a := quiz.Assignment{
		User:        quiz.UserRef{ID: u.ID, Username: u.Username},
		Quiz:        z.Ref(),
		QuizOwnerID: z.UserID,
		SubmittedAt: submittedAt,
	}
	if err := st.CreateAssignment(context.Background(), &a); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}
	return a
}

func answer(t *testing.T, st quiz.Store, a quiz.Assignment, c quiz.Choice) quiz.Answer {
	t.Helper()
	ans := quiz.Answer{AssignmentID: a.ID, ChoiceID: c.ID, QuestionID: c.QuestionID}
	if err := st.CreateAnswer(context.Background(), &ans); err != nil {
		t.Fatalf("seed answer: %v", err)
	}
	return ans
}
